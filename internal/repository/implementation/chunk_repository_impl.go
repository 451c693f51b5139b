package implementation

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/mbuchwa/rag-urz-ollama/internal/entity"
	"github.com/mbuchwa/rag-urz-ollama/internal/mapper"
	"github.com/mbuchwa/rag-urz-ollama/internal/model"
	"github.com/mbuchwa/rag-urz-ollama/internal/repository/contract"
	"github.com/mbuchwa/rag-urz-ollama/internal/repository/specification"
)

type ChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChunkMapper
}

func NewChunkRepository(db *gorm.DB) contract.ChunkRepository {
	return &ChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewChunkMapper(),
	}
}

func (r *ChunkRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chunk/embedding count mismatch: %d vs %d", len(chunks), len(embeddings))
	}
	if len(chunks) == 0 {
		return nil
	}

	models := make([]*model.Chunk, len(chunks))
	for i, c := range chunks {
		models[i] = &model.Chunk{
			Id:         c.Id,
			DocumentId: c.DocumentId,
			ChunkIndex: c.ChunkIndex,
			Text:       c.Text,
			Language:   c.Language,
			Embedding:  pgvector.NewVector(embeddings[i]),
		}
	}

	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}

	for i, m := range models {
		*chunks[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *ChunkRepositoryImpl) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("document_id = ?", documentId).Delete(&model.Chunk{}).Error
}

func (r *ChunkRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chunk, error) {
	var models []*model.Chunk
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *ChunkRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.Chunk{}).Count(&count).Error
	return count, err
}

func (r *ChunkRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, language string, limit int) ([]*entity.ScoredChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	// Cosine distance in pgvector is 1 - cosine_similarity, so
	// 1 - (embedding <=> query_vector) recovers the similarity.
	type result struct {
		model.Chunk
		Url        string
		Title      string
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	query := r.db.WithContext(ctx).
		Table("chunks").
		Select("chunks.*, documents.url, documents.title, 1 - (embedding <=> ?) as similarity", queryVector).
		Joins("JOIN documents ON documents.id = chunks.document_id").
		Where("chunks.deleted_at IS NULL").
		Where("documents.deleted_at IS NULL")
	if language != "" {
		query = query.Where("chunks.language = ?", language)
	}

	err := query.
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*entity.ScoredChunk, len(results))
	for i, res := range results {
		scored[i] = &entity.ScoredChunk{
			Chunk:      *r.mapper.ToEntity(&res.Chunk),
			Url:        res.Url,
			Title:      res.Title,
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}

func (r *ChunkRepositoryImpl) SearchLexical(ctx context.Context, tokens []string, language string, limit int) ([]*entity.ScoredChunk, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}

	// Score is a plain token hit count: one point per query token that
	// appears anywhere in the chunk text, case-insensitive.
	terms := make([]string, 0, len(tokens))
	args := make([]interface{}, 0, len(tokens))
	for _, tok := range tokens {
		terms = append(terms, "(CASE WHEN chunks.text ILIKE ? THEN 1 ELSE 0 END)")
		args = append(args, "%"+tok+"%")
	}
	hitExpr := strings.Join(terms, " + ")

	type result struct {
		model.Chunk
		Url   string
		Title string
		Hits  float64
	}
	var results []result

	selectArgs := append([]interface{}{}, args...)
	query := r.db.WithContext(ctx).
		Table("chunks").
		Select("chunks.*, documents.url, documents.title, ("+hitExpr+") as hits", selectArgs...).
		Joins("JOIN documents ON documents.id = chunks.document_id").
		Where("chunks.deleted_at IS NULL").
		Where("documents.deleted_at IS NULL").
		Where("("+hitExpr+") > 0", args...)
	if language != "" {
		query = query.Where("chunks.language = ?", language)
	}

	err := query.
		Order("hits DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*entity.ScoredChunk, len(results))
	for i, res := range results {
		scored[i] = &entity.ScoredChunk{
			Chunk:      *r.mapper.ToEntity(&res.Chunk),
			Url:        res.Url,
			Title:      res.Title,
			Similarity: res.Hits,
		}
	}
	return scored, nil
}
