// Package retrieve fans a reformulated query out to the dense similarity
// index and the lexical token matcher, then merges the two candidate lists
// into one deduplicated set per source URL.
package retrieve

import (
	"context"
	"errors"
	"fmt"

	"github.com/mbuchwa/rag-urz-ollama/pkg/rag/token"
	"github.com/mbuchwa/rag-urz-ollama/pkg/store"
	"github.com/mbuchwa/rag-urz-ollama/pkg/utils"
)

// ErrRetrievalUnavailable means both retrieval backends failed. This is
// fatal for the turn; a single backend failing only degrades recall.
var ErrRetrievalUnavailable = errors.New("retrieval unavailable: both backends failed")

// DenseSearcher is the embedding-space nearest-neighbor index boundary.
// Embedding of the query text happens behind this interface.
type DenseSearcher interface {
	Search(ctx context.Context, query string, lang store.Language, k int) ([]store.Passage, error)
}

// LexicalSearcher is the token-overlap matcher over the same corpus. Its
// job is to catch exact-term matches (product names, error codes) that
// dense embeddings under-weight; it is a recall safety net, not a ranking
// signal.
type LexicalSearcher interface {
	Search(ctx context.Context, tokens []string, lang store.Language, k int) ([]store.Passage, error)
}

type Config struct {
	DenseK   int
	LexicalK int
}

func DefaultConfig() Config {
	// Generous K keeps the reranker fed even after URL deduplication.
	return Config{DenseK: 24, LexicalK: 16}
}

// Result carries the merged candidate set plus which backend, if any,
// failed. Candidates are unordered; ranking is the reranker's job.
type Result struct {
	Candidates    []store.Passage
	DenseFailed   bool
	LexicalFailed bool
}

// Degraded reports whether the result is missing one ranking signal.
func (r *Result) Degraded() bool { return r.DenseFailed || r.LexicalFailed }

type Retriever struct {
	dense   DenseSearcher
	lexical LexicalSearcher
}

func New(dense DenseSearcher, lexical LexicalSearcher) *Retriever {
	return &Retriever{dense: dense, lexical: lexical}
}

type subResult struct {
	passages []store.Passage
	err      error
}

// Retrieve issues both sub-queries concurrently and waits for both. If only
// the dense index errors the turn proceeds on lexical results alone; if
// both error it returns ErrRetrievalUnavailable.
func (r *Retriever) Retrieve(ctx context.Context, query string, lang store.Language, cfg Config) (*Result, error) {
	denseCh := make(chan subResult, 1)
	lexicalCh := make(chan subResult, 1)

	go func() {
		passages, err := r.dense.Search(ctx, query, lang, cfg.DenseK)
		denseCh <- subResult{passages: passages, err: err}
	}()
	go func() {
		passages, err := r.lexical.Search(ctx, token.Content(query), lang, cfg.LexicalK)
		lexicalCh <- subResult{passages: passages, err: err}
	}()

	dense, lexical := <-denseCh, <-lexicalCh

	if dense.err != nil && lexical.err != nil {
		return nil, fmt.Errorf("%w: dense: %v, lexical: %v", ErrRetrievalUnavailable, dense.err, lexical.err)
	}

	res := &Result{
		DenseFailed:   dense.err != nil,
		LexicalFailed: lexical.err != nil,
	}
	res.Candidates = merge(dense.passages, lexical.passages)
	return res, nil
}

// merge deduplicates candidates by normalized URL. A URL seen by both
// backends yields one entry carrying both scores; within one backend, ties
// on the same URL keep the higher-scoring chunk. Sub-scores a backend never
// produced stay nil.
func merge(dense, lexical []store.Passage) []store.Passage {
	byURL := make(map[string]*store.Passage)
	var order []string

	for i := range dense {
		p := dense[i]
		p.URL = utils.NormalizeURL(p.URL)
		p.DenseRank = i + 1
		existing, ok := byURL[p.URL]
		if !ok {
			cp := p
			byURL[p.URL] = &cp
			order = append(order, p.URL)
			continue
		}
		if p.DenseScore != nil && (existing.DenseScore == nil || *p.DenseScore > *existing.DenseScore) {
			rank := existing.DenseRank
			*existing = p
			existing.DenseRank = rank
		}
	}

	for i := range lexical {
		p := lexical[i]
		p.URL = utils.NormalizeURL(p.URL)
		p.LexicalRank = i + 1
		existing, ok := byURL[p.URL]
		if !ok {
			cp := p
			byURL[p.URL] = &cp
			order = append(order, p.URL)
			continue
		}
		if existing.LexicalScore == nil || (p.LexicalScore != nil && *p.LexicalScore > *existing.LexicalScore) {
			existing.LexicalScore = p.LexicalScore
			if existing.LexicalRank == 0 {
				existing.LexicalRank = p.LexicalRank
			}
		}
	}

	out := make([]store.Passage, 0, len(order))
	for _, u := range order {
		out = append(out, *byURL[u])
	}
	return out
}
