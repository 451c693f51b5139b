// Package assemble turns the ranked candidate list into the bounded prompt
// context and the citation list surfaced to the client.
package assemble

import (
	"strings"

	"github.com/mbuchwa/rag-urz-ollama/pkg/rag/gate"
	"github.com/mbuchwa/rag-urz-ollama/pkg/store"
)

type Config struct {
	// BudgetChars bounds the total context size. Trimming is greedy in
	// rank order; passage counts are small enough that optimal packing
	// would buy nothing.
	BudgetChars int

	// MaxPassages additionally caps how many passages enter the context,
	// keeping answers able to cite distinct subpages rather than five
	// chunks of one page.
	MaxPassages int
}

func DefaultConfig() Config {
	return Config{BudgetChars: 6000, MaxPassages: 6}
}

// Assembly is the final context plus the passages that made it in, in
// context order.
type Assembly struct {
	Context  string
	Included []store.Passage
}

// Select dedupes near-duplicate passages per source document (highest rank
// wins) and greedily packs passages into the character budget in rank
// order.
func Select(ranked []store.Passage, cfg Config) Assembly {
	seen := make(map[string]bool)
	var included []store.Passage
	var parts []string
	used := 0

	for _, p := range ranked {
		if seen[p.SourceID] {
			continue
		}
		if cfg.MaxPassages > 0 && len(included) >= cfg.MaxPassages {
			break
		}
		if cfg.BudgetChars > 0 && used+len(p.Text) > cfg.BudgetChars && len(included) > 0 {
			break
		}
		seen[p.SourceID] = true
		included = append(included, p)
		parts = append(parts, p.Text)
		used += len(p.Text)
	}

	return Assembly{
		Context:  strings.Join(parts, "\n\n"),
		Included: included,
	}
}

// Citations builds the ordered citation list for the passages that qualify
// under the gate decision. Ordinals are 0-based positions in the final
// context, stable per answer.
func Citations(originalQuery string, included []store.Passage, d gate.Decision, cfg gate.Config) []store.Citation {
	if !d.ShowCitations {
		return nil
	}

	var citations []store.Citation
	for i, p := range included {
		if len(citations) >= cfg.MaxCitations {
			break
		}
		if !gate.Qualifies(originalQuery, p, d, cfg) {
			continue
		}
		citations = append(citations, store.Citation{
			DocID:   p.SourceID,
			Ordinal: i,
			Title:   p.Title,
			ChunkID: p.ChunkID,
			URL:     p.URL,
			Text:    p.Text,
		})
	}
	return citations
}
