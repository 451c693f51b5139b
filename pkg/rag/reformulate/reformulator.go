// Package reformulate turns the raw turn text into the query actually sent
// to retrieval. The outcome is an explicit decision record rather than a
// nest of conditionals so each gate (pronoun-like, topic switch, history
// available) stays independently testable.
package reformulate

import (
	"strings"

	"github.com/mbuchwa/rag-urz-ollama/pkg/rag/token"
	"github.com/mbuchwa/rag-urz-ollama/pkg/store"
)

type Config struct {
	// TopicSwitchThreshold is the Jaccard overlap below which the turn is
	// treated as a topic switch. The comparison is inclusive: an overlap
	// exactly at the threshold is NOT a switch, favoring continuity.
	TopicSwitchThreshold float64

	// PronounMaxTokens caps how long a turn may be to still count as a
	// pronoun-only follow-up.
	PronounMaxTokens int

	// MaxHintTerms caps the topic hints appended to the query.
	MaxHintTerms int

	// HistoryTurns is how many recent same-language user turns feed the
	// hint extraction.
	HistoryTurns int
}

func DefaultConfig() Config {
	return Config{
		TopicSwitchThreshold: 0.25,
		PronounMaxTokens:     6,
		MaxHintTerms:         6,
		HistoryTurns:         3,
	}
}

// Decision records every gate of the reformulation for one turn.
type Decision struct {
	// Text is the query sent to retrieval.
	Text string

	PronounLike  bool
	Overlap      float64
	ResetApplied bool
	UsedHistory  bool
	HintTerms    []string
}

// Reformulate builds the retrieval query for the current turn.
// window is the bounded session history (oldest first); lang must already be
// resolved (an unknown-language turn inherits the session's last known
// language before this call).
func Reformulate(current string, lang store.Language, window []store.Turn, cfg Config) Decision {
	d := Decision{Text: current}

	d.PronounLike = pronounLike(current, cfg.PronounMaxTokens)

	pool := historyPool(window, lang)

	// Topic-switch check against the most recent same-language user turn.
	// Pronoun-only turns are exempt: they have no content tokens to
	// overlap with, and by definition continue the previous topic.
	if len(pool) > 0 && !d.PronounLike {
		d.Overlap = token.Overlap(current, pool[0].Text)
		if d.Overlap < cfg.TopicSwitchThreshold {
			d.ResetApplied = true
			pool = nil
		}
	}

	if d.PronounLike && len(pool) > 0 && !d.ResetApplied {
		d.HintTerms = hintTerms(pool, cfg)
		if len(d.HintTerms) > 0 {
			d.Text = current + " topic:" + strings.Join(d.HintTerms, " ")
			d.UsedHistory = true
		}
	}

	return d
}

// pronounLike reports whether the turn is short and carries no standalone
// noun content: every content token is a pronoun, anaphor or filler verb.
func pronounLike(text string, maxTokens int) bool {
	words := token.Words(text)
	if len(words) > maxTokens {
		return false
	}
	content := token.Content(text)
	if len(content) == 0 {
		return true
	}
	for _, tok := range content {
		if !token.IsPronoun(tok) && !token.IsFiller(tok) {
			return false
		}
	}
	return true
}

// historyPool selects prior user turns in the given language, most recent
// first. The very first turn of a session naturally yields an empty pool.
func historyPool(window []store.Turn, lang store.Language) []store.Turn {
	var pool []store.Turn
	for i := len(window) - 1; i >= 0; i-- {
		t := window[i]
		if t.Role == store.RoleUser && t.Language == lang {
			pool = append(pool, t)
		}
	}
	return pool
}

func hintTerms(pool []store.Turn, cfg Config) []string {
	turns := pool
	if len(turns) > cfg.HistoryTurns {
		turns = turns[:cfg.HistoryTurns]
	}
	// Re-reverse so hints read oldest-to-newest, matching how the user
	// introduced the topic.
	var parts []string
	for i := len(turns) - 1; i >= 0; i-- {
		parts = append(parts, turns[i].Text)
	}
	return token.Hints(strings.Join(parts, " "), cfg.MaxHintTerms)
}
