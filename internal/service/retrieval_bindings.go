package service

import (
	"context"
	"fmt"

	"github.com/mbuchwa/rag-urz-ollama/internal/entity"
	"github.com/mbuchwa/rag-urz-ollama/internal/repository/unitofwork"
	"github.com/mbuchwa/rag-urz-ollama/pkg/embedding"
	"github.com/mbuchwa/rag-urz-ollama/pkg/store"
)

// DenseSearcher answers vector queries by embedding the query text and
// delegating to the pgvector similarity search.
type DenseSearcher struct {
	uowFactory unitofwork.RepositoryFactory
	provider   embedding.EmbeddingProvider
}

func NewDenseSearcher(uowFactory unitofwork.RepositoryFactory, provider embedding.EmbeddingProvider) *DenseSearcher {
	return &DenseSearcher{
		uowFactory: uowFactory,
		provider:   provider,
	}
}

func (s *DenseSearcher) Search(ctx context.Context, query string, lang store.Language, k int) ([]store.Passage, error) {
	res, err := s.provider.Generate(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	scored, err := uow.ChunkRepository().SearchSimilarWithScore(ctx, res.Values, languageFilter(lang), k)
	if err != nil {
		return nil, fmt.Errorf("dense search: %w", err)
	}

	passages := make([]store.Passage, len(scored))
	for i, sc := range scored {
		passages[i] = toPassage(sc)
		passages[i].DenseScore = store.Float(sc.Similarity)
	}
	return passages, nil
}

// LexicalSearcher answers token queries with the ILIKE hit-count search.
type LexicalSearcher struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewLexicalSearcher(uowFactory unitofwork.RepositoryFactory) *LexicalSearcher {
	return &LexicalSearcher{
		uowFactory: uowFactory,
	}
}

func (s *LexicalSearcher) Search(ctx context.Context, tokens []string, lang store.Language, k int) ([]store.Passage, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	scored, err := uow.ChunkRepository().SearchLexical(ctx, tokens, languageFilter(lang), k)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}

	passages := make([]store.Passage, len(scored))
	for i, sc := range scored {
		passages[i] = toPassage(sc)
		passages[i].LexicalScore = store.Float(sc.Similarity)
	}
	return passages, nil
}

func toPassage(sc *entity.ScoredChunk) store.Passage {
	return store.Passage{
		SourceID: sc.DocumentId.String(),
		URL:      sc.Url,
		Title:    sc.Title,
		ChunkID:  sc.Id.String(),
		Language: store.Language(sc.Language),
		Text:     sc.Text,
	}
}

// languageFilter maps the detected language to the repository filter; an
// unknown language searches all chunks rather than none.
func languageFilter(lang store.Language) string {
	if lang == store.LanguageUnknown {
		return ""
	}
	return string(lang)
}
