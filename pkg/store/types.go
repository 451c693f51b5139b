package store

import "time"

// Language is the working language of a turn or passage.
// The corpus and its users operate in German and English.
type Language string

const (
	LanguageGerman  Language = "de"
	LanguageEnglish Language = "en"
	LanguageUnknown Language = "unknown"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one user or assistant message in a session.
// Immutable once appended to the session history.
type Turn struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Language  Language  `json:"language"`
	Timestamp time.Time `json:"timestamp"`
}

// Passage is a retrieval candidate. SourceID and URL identify the
// originating document (not the chunk); deduplication works on URL.
//
// Score fields are pointers because "no signal" and "weak signal" are
// different things downstream: a passage found only by the lexical matcher
// has a nil DenseScore, not a zero one.
type Passage struct {
	SourceID string   `json:"source_id"`
	URL      string   `json:"url"`
	Title    string   `json:"title,omitempty"`
	ChunkID  string   `json:"chunk_id,omitempty"`
	Language Language `json:"language,omitempty"`
	Text     string   `json:"text"`

	DenseScore   *float64 `json:"dense_score,omitempty"`
	LexicalScore *float64 `json:"lexical_score,omitempty"`
	RerankScore  *float64 `json:"rerank_score,omitempty"`

	// 1-based position in the originating sub-retriever result list,
	// 0 when the passage did not appear there. Used for deterministic
	// tie-breaking after reranking.
	DenseRank   int `json:"dense_rank,omitempty"`
	LexicalRank int `json:"lexical_rank,omitempty"`
}

// Citation is a source reference surfaced to the client. Ordinal is the
// stable 0-based position of the passage in the assembled context, so the
// client can label "Source N".
type Citation struct {
	DocID   string `json:"doc_id"`
	Ordinal int    `json:"ordinal"`
	Title   string `json:"title,omitempty"`
	ChunkID string `json:"chunk_id,omitempty"`
	URL     string `json:"url,omitempty"`
	Text    string `json:"text,omitempty"`
}

// Score returns the authoritative relevance signal for ranking decisions:
// rerank when present, dense otherwise, lexical as a last resort.
func (p *Passage) Score() float64 {
	switch {
	case p.RerankScore != nil:
		return *p.RerankScore
	case p.DenseScore != nil:
		return *p.DenseScore
	case p.LexicalScore != nil:
		return *p.LexicalScore
	}
	return 0
}

func Float(v float64) *float64 { return &v }
