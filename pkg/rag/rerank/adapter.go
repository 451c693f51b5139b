// Package rerank re-sorts merged candidates with a cross-encoder scoring
// service. The cross-encoder score is the authoritative relevance signal;
// dense and lexical scores only break exact ties and carry the fallback
// ordering when the scorer is unreachable.
package rerank

import (
	"context"
	"sort"
	"time"

	"github.com/mbuchwa/rag-urz-ollama/pkg/store"
)

// Scorer scores (query, passage) pairs, batched. Implemented by the HTTP
// cross-encoder client; tests plug in fakes.
type Scorer interface {
	Score(ctx context.Context, query string, passages []string) ([]float64, error)
}

type Config struct {
	// Timeout bounds the scoring call. The reranker is the dominant
	// latency cost of a turn and must never block the token stream.
	Timeout time.Duration

	// TopK caps how many ranked candidates continue downstream.
	// Zero means no cap.
	TopK int
}

func DefaultConfig() Config {
	return Config{Timeout: 8 * time.Second, TopK: 10}
}

// Result is the ranked candidate list. Degraded is set when the scorer
// failed and ordering fell back to dense scores; downstream logs it, the
// turn proceeds.
type Result struct {
	Ranked   []store.Passage
	Degraded bool
}

type Adapter struct {
	scorer Scorer
}

func NewAdapter(scorer Scorer) *Adapter {
	return &Adapter{scorer: scorer}
}

// Rerank scores all candidates against the query and orders them by
// descending rerank score. Scorer failure or timeout degrades to dense
// ordering instead of failing the turn.
func (a *Adapter) Rerank(ctx context.Context, query string, candidates []store.Passage, cfg Config) Result {
	if len(candidates) == 0 {
		return Result{}
	}

	scoreCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		scoreCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Text
	}

	scores, err := a.scorer.Score(scoreCtx, query, texts)
	if err != nil || len(scores) != len(candidates) {
		return Result{Ranked: denseFallback(candidates, cfg.TopK), Degraded: true}
	}

	ranked := make([]store.Passage, len(candidates))
	copy(ranked, candidates)
	for i := range ranked {
		ranked[i].RerankScore = store.Float(scores[i])
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if *ranked[i].RerankScore != *ranked[j].RerankScore {
			return *ranked[i].RerankScore > *ranked[j].RerankScore
		}
		// Exact score ties stay deterministic: original dense rank
		// first, then lexical rank; rank 0 (absent) sorts last.
		if ri, rj := rankKey(ranked[i].DenseRank), rankKey(ranked[j].DenseRank); ri != rj {
			return ri < rj
		}
		return rankKey(ranked[i].LexicalRank) < rankKey(ranked[j].LexicalRank)
	})

	return Result{Ranked: capTop(ranked, cfg.TopK)}
}

func denseFallback(candidates []store.Passage, topK int) []store.Passage {
	ranked := make([]store.Passage, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		di, dj := scoreKey(ranked[i].DenseScore), scoreKey(ranked[j].DenseScore)
		if di != dj {
			return di > dj
		}
		return scoreKey(ranked[i].LexicalScore) > scoreKey(ranked[j].LexicalScore)
	})
	return capTop(ranked, topK)
}

func capTop(ranked []store.Passage, topK int) []store.Passage {
	if topK > 0 && len(ranked) > topK {
		return ranked[:topK]
	}
	return ranked
}

func rankKey(rank int) int {
	if rank == 0 {
		return int(^uint(0) >> 1)
	}
	return rank
}

func scoreKey(s *float64) float64 {
	if s == nil {
		return -1
	}
	return *s
}
