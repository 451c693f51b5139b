package rag

import "github.com/mbuchwa/rag-urz-ollama/pkg/store"

// TraceCandidate is one ranked passage in the trace, carrying every
// relevance signal it collected on the way through the funnel. Nil scores
// mean the passage never saw that scorer.
type TraceCandidate struct {
	URL          string   `json:"url"`
	DenseScore   *float64 `json:"dense_score,omitempty"`
	LexicalScore *float64 `json:"lexical_score,omitempty"`
	RerankScore  *float64 `json:"rerank_score,omitempty"`
}

// Trace is the per-turn debug record emitted when debug tracing is on. It
// mirrors what operators need to answer "why did this turn cite nothing":
// the window the reformulator saw, the reformulation decision, the
// candidate funnel with per-candidate scores, and the gate outcome.
type Trace struct {
	SessionID         string           `json:"session_id"`
	Turn              string           `json:"turn"`
	Language          store.Language   `json:"language"`
	Window            []store.Turn     `json:"window,omitempty"`
	EffectiveQuery    string           `json:"effective_query"`
	PronounLike       bool             `json:"pronoun_like"`
	TopicOverlap      float64          `json:"topic_overlap"`
	ResetApplied      bool             `json:"reset_applied"`
	UsedHistory       bool             `json:"used_history"`
	HintTerms         []string         `json:"hint_terms,omitempty"`
	Retrieved         int              `json:"retrieved"`
	Candidates        []TraceCandidate `json:"candidates,omitempty"`
	RetrievalDegraded bool             `json:"retrieval_degraded"`
	RerankDegraded    bool             `json:"rerank_degraded"`
	Included          int              `json:"included"`
	ContextChars      int              `json:"context_chars"`
	GateReason        string           `json:"gate_reason"`
	ShowCitations     bool             `json:"show_citations"`
	Citations         []store.Citation `json:"citations,omitempty"`
	TopScore          float64          `json:"top_score"`
}

func buildTrace(sessionID, text string, window []store.Turn, r *TurnResult) *Trace {
	var sameLang []store.Turn
	for _, turn := range window {
		if turn.Language == r.Language {
			sameLang = append(sameLang, turn)
		}
	}

	candidates := make([]TraceCandidate, len(r.Ranked))
	for i, p := range r.Ranked {
		candidates[i] = TraceCandidate{
			URL:          p.URL,
			DenseScore:   p.DenseScore,
			LexicalScore: p.LexicalScore,
			RerankScore:  p.RerankScore,
		}
	}

	t := &Trace{
		SessionID:         sessionID,
		Turn:              text,
		Language:          r.Language,
		Window:            sameLang,
		EffectiveQuery:    r.Query.Text,
		PronounLike:       r.Query.PronounLike,
		TopicOverlap:      r.Query.Overlap,
		ResetApplied:      r.Query.ResetApplied,
		UsedHistory:       r.Query.UsedHistory,
		HintTerms:         r.Query.HintTerms,
		Retrieved:         len(r.Candidates),
		Candidates:        candidates,
		RetrievalDegraded: r.RetrievalDegraded,
		RerankDegraded:    r.RerankDegraded,
		Included:          len(r.Assembly.Included),
		ContextChars:      len(r.Assembly.Context),
		GateReason:        string(r.Gate.Reason),
		ShowCitations:     r.Gate.ShowCitations,
		Citations:         r.Citations,
	}
	if len(r.Ranked) > 0 {
		t.TopScore = r.Ranked[0].Score()
	}
	return t
}

// Fields flattens the trace for the structured logger.
func (t *Trace) Fields() map[string]interface{} {
	return map[string]interface{}{
		"session_id":         t.SessionID,
		"language":           string(t.Language),
		"window":             t.Window,
		"effective_query":    t.EffectiveQuery,
		"pronoun_like":       t.PronounLike,
		"topic_overlap":      t.TopicOverlap,
		"reset_applied":      t.ResetApplied,
		"used_history":       t.UsedHistory,
		"retrieved":          t.Retrieved,
		"candidates":         t.Candidates,
		"retrieval_degraded": t.RetrievalDegraded,
		"rerank_degraded":    t.RerankDegraded,
		"included":           t.Included,
		"context_chars":      t.ContextChars,
		"gate_reason":        t.GateReason,
		"show_citations":     t.ShowCitations,
		"citations":          t.Citations,
		"top_score":          t.TopScore,
	}
}
