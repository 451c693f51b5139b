package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mbuchwa/rag-urz-ollama/internal/dto"
	"github.com/mbuchwa/rag-urz-ollama/internal/entity"
	"github.com/mbuchwa/rag-urz-ollama/internal/pkg/logger"
	"github.com/mbuchwa/rag-urz-ollama/internal/repository/specification"
	"github.com/mbuchwa/rag-urz-ollama/internal/repository/unitofwork"
	"github.com/mbuchwa/rag-urz-ollama/pkg/rag/language"
	"github.com/mbuchwa/rag-urz-ollama/pkg/utils"
)

type IDocumentService interface {
	Ingest(ctx context.Context, req *dto.IngestDocumentRequest) (*dto.DocumentResponse, error)
	List(ctx context.Context, limit, offset int) ([]*dto.DocumentResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountChunks(ctx context.Context) (int64, error)
}

type documentService struct {
	uowFactory unitofwork.RepositoryFactory
	publisher  IPublisherService
	log        logger.ILogger
}

func NewDocumentService(uowFactory unitofwork.RepositoryFactory, publisher IPublisherService, log logger.ILogger) IDocumentService {
	return &documentService{
		uowFactory: uowFactory,
		publisher:  publisher,
		log:        log,
	}
}

// Ingest upserts a document by its normalized URL and schedules embedding.
// Unchanged content (same hash) is skipped so recrawls stay cheap.
func (s *documentService) Ingest(ctx context.Context, req *dto.IngestDocumentRequest) (*dto.DocumentResponse, error) {
	url := utils.NormalizeURL(req.Url)

	lang := req.Language
	if lang == "" {
		lang = string(language.Detect(req.Content))
	}

	hash := contentHash(req.Content)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	docRepo := uow.DocumentRepository()

	existing, err := docRepo.FindByUrl(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("lookup document: %w", err)
	}

	if existing != nil && existing.ContentHash == hash {
		s.log.Debug("document", "content unchanged, skipping", map[string]interface{}{
			"url": url,
		})
		return toDocumentResponse(existing), nil
	}

	var doc *entity.Document
	if existing != nil {
		existing.Title = req.Title
		existing.Language = lang
		existing.Content = req.Content
		existing.ContentHash = hash
		existing.Metadata = req.Metadata
		existing.FetchedAt = time.Now()
		if err := docRepo.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("update document: %w", err)
		}
		doc = existing
	} else {
		doc = &entity.Document{
			Id:          uuid.New(),
			Url:         url,
			Title:       req.Title,
			Language:    lang,
			Content:     req.Content,
			ContentHash: hash,
			Metadata:    req.Metadata,
			FetchedAt:   time.Now(),
			CreatedAt:   time.Now(),
		}
		if err := docRepo.Create(ctx, doc); err != nil {
			return nil, fmt.Errorf("create document: %w", err)
		}
	}

	if err := s.publisher.PublishEmbedDocument(ctx, doc.Id); err != nil {
		// The document is stored; embedding can be retried by re-ingesting
		s.log.Error("document", "failed to schedule embedding", map[string]interface{}{
			"document_id": doc.Id.String(),
			"error":       err.Error(),
		})
	}

	s.log.Info("document", "document ingested", map[string]interface{}{
		"document_id": doc.Id.String(),
		"url":         url,
		"language":    lang,
	})

	return toDocumentResponse(doc), nil
}

func (s *documentService) List(ctx context.Context, limit, offset int) ([]*dto.DocumentResponse, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	docs, err := uow.DocumentRepository().FindAll(ctx,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: offset},
	)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.DocumentResponse, len(docs))
	for i, d := range docs {
		out[i] = toDocumentResponse(d)
	}
	return out, nil
}

func (s *documentService) Delete(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChunkRepository().DeleteByDocumentId(ctx, id); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	if err := uow.DocumentRepository().Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	return uow.Commit()
}

func (s *documentService) CountChunks(ctx context.Context) (int64, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ChunkRepository().Count(ctx)
}

func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func toDocumentResponse(d *entity.Document) *dto.DocumentResponse {
	return &dto.DocumentResponse{
		Id:        d.Id,
		Url:       d.Url,
		Title:     d.Title,
		Language:  d.Language,
		FetchedAt: d.FetchedAt,
		CreatedAt: d.CreatedAt,
	}
}
