// Package gate decides whether an answer should carry a Sources footer at
// all. A single absolute threshold either over-cites on generic pages or
// under-cites on short exact-match answers, so the gate combines a relative
// score comparison with a lexical rescue.
package gate

import (
	"github.com/mbuchwa/rag-urz-ollama/pkg/rag/token"
	"github.com/mbuchwa/rag-urz-ollama/pkg/store"
)

type Reason string

const (
	ReasonRelativeScore   Reason = "relative-score"
	ReasonLexicalFallback Reason = "lexical-fallback"
	ReasonNone            Reason = "none"
)

type Config struct {
	// AbsoluteFloor is the rerank score below which the top candidate is
	// not trusted on its own.
	AbsoluteFloor float64

	// RelativeMargin is the minimum lead of the top candidate over the
	// best candidate from a different source document.
	RelativeMargin float64

	// LexicalFallback is the hit ratio of original-query tokens in a
	// passage above which citations are shown even when the score gate
	// fails. Rescues lexically exact matches the cross-encoder underrates.
	LexicalFallback float64

	// QualifyFloor is the per-candidate relevance floor for becoming a
	// citation once citations are shown.
	QualifyFloor float64

	// MaxCitations caps the citation list.
	MaxCitations int
}

func DefaultConfig() Config {
	return Config{
		AbsoluteFloor:   0.20,
		RelativeMargin:  0.15,
		LexicalFallback: 0.15,
		QualifyFloor:    0.10,
		MaxCitations:    4,
	}
}

// Decision is the gate outcome for one answer.
type Decision struct {
	ShowCitations   bool   `json:"show_citations"`
	QualifyingCount int    `json:"qualifying_count"`
	Reason          Reason `json:"reason"`
}

// Evaluate inspects the passages actually included in the assembled context.
// originalQuery is the user's turn text before reformulation: topic hints
// injected for retrieval must not inflate the lexical rescue.
func Evaluate(originalQuery string, included []store.Passage, cfg Config) Decision {
	if len(included) == 0 {
		return Decision{Reason: ReasonNone}
	}

	top := included[0]
	topScore := top.Score()

	if passesRelativeGate(topScore, top.SourceID, included, cfg) {
		return Decision{
			ShowCitations:   true,
			QualifyingCount: countQualifying(included, cfg),
			Reason:          ReasonRelativeScore,
		}
	}

	if rescued := countLexicalRescues(originalQuery, included, cfg); rescued > 0 {
		n := rescued
		if n > cfg.MaxCitations {
			n = cfg.MaxCitations
		}
		return Decision{
			ShowCitations:   true,
			QualifyingCount: n,
			Reason:          ReasonLexicalFallback,
		}
	}

	return Decision{Reason: ReasonNone}
}

// passesRelativeGate suppresses citations only when the top result is weak
// on BOTH axes: its margin over the next distinct source is below the
// minimum and its own score is below the absolute floor.
func passesRelativeGate(topScore float64, topSource string, included []store.Passage, cfg Config) bool {
	if topScore >= cfg.AbsoluteFloor {
		return true
	}
	for _, p := range included[1:] {
		if p.SourceID == topSource {
			continue
		}
		return topScore-p.Score() >= cfg.RelativeMargin
	}
	// Single-source context: no relative comparison possible, the
	// absolute floor already failed.
	return false
}

func countQualifying(included []store.Passage, cfg Config) int {
	n := 0
	for _, p := range included {
		if p.Score() >= cfg.QualifyFloor {
			n++
		}
	}
	if n > cfg.MaxCitations {
		n = cfg.MaxCitations
	}
	return n
}

// Qualifies reports whether a passage included in the context becomes a
// citation under the decision that was made for the answer.
func Qualifies(originalQuery string, p store.Passage, d Decision, cfg Config) bool {
	if !d.ShowCitations {
		return false
	}
	if d.Reason == ReasonLexicalFallback {
		return token.HitRatio(originalQuery, p.Text) > cfg.LexicalFallback
	}
	return p.Score() >= cfg.QualifyFloor
}

func countLexicalRescues(originalQuery string, included []store.Passage, cfg Config) int {
	n := 0
	for _, p := range included {
		if token.HitRatio(originalQuery, p.Text) > cfg.LexicalFallback {
			n++
		}
	}
	return n
}
