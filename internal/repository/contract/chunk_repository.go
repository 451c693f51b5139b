package contract

import (
	"context"

	"github.com/google/uuid"

	"github.com/mbuchwa/rag-urz-ollama/internal/entity"
	"github.com/mbuchwa/rag-urz-ollama/internal/repository/specification"
)

type ChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.Chunk, embeddings [][]float32) error
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// SearchSimilarWithScore runs cosine similarity search over chunk
	// embeddings, restricted to the given language when non-empty.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, language string, limit int) ([]*entity.ScoredChunk, error)

	// SearchLexical ranks chunks by how many of the query tokens appear in
	// their text, restricted to the given language when non-empty.
	SearchLexical(ctx context.Context, tokens []string, language string, limit int) ([]*entity.ScoredChunk, error)
}
