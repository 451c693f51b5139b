package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"github.com/mbuchwa/rag-urz-ollama/internal/dto"
	"github.com/mbuchwa/rag-urz-ollama/internal/entity"
	"github.com/mbuchwa/rag-urz-ollama/internal/pkg/logger"
	"github.com/mbuchwa/rag-urz-ollama/internal/repository/specification"
	"github.com/mbuchwa/rag-urz-ollama/internal/repository/unitofwork"
	"github.com/mbuchwa/rag-urz-ollama/pkg/embedding"
	"github.com/mbuchwa/rag-urz-ollama/pkg/events"
	natsbus "github.com/mbuchwa/rag-urz-ollama/pkg/nats"
	"github.com/mbuchwa/rag-urz-ollama/pkg/utils"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	eventPublisher    *natsbus.Publisher
	chunkSize         int
	chunkOverlap      int
	log               logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	eventPublisher *natsbus.Publisher,
	chunkSize, chunkOverlap int,
	log logger.ILogger,
) IConsumerService {
	if chunkSize <= 0 {
		chunkSize = 1500
	}
	if chunkOverlap < 0 {
		chunkOverlap = 200
	}
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		eventPublisher:    eventPublisher,
		chunkSize:         chunkSize,
		chunkOverlap:      chunkOverlap,
		log:               log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishEmbedDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.log.Error("ingest", "failed to unmarshal embed message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: payload.DocumentId})
	if err != nil {
		cs.log.Error("ingest", "failed to load document", map[string]interface{}{
			"document_id": payload.DocumentId.String(),
			"error":       err.Error(),
		})
		msg.Nack() // Retriable
		return
	}
	if doc == nil {
		// Document deleted between publish and consume
		msg.Ack()
		return
	}

	content := fmt.Sprintf("%s\n\n%s", doc.Title, doc.Content)
	chunks := utils.SplitText(content, cs.chunkSize, cs.chunkOverlap)

	cs.log.Info("ingest", "embedding document", map[string]interface{}{
		"document_id": doc.Id.String(),
		"chunks":      len(chunks),
	})

	newChunks := make([]*entity.Chunk, 0, len(chunks))
	vectors := make([][]float32, 0, len(chunks))

	for i, chunk := range chunks {
		res, err := cs.embeddingProvider.Generate(ctx, chunk)
		if err != nil {
			cs.log.Error("ingest", "embedding failed", map[string]interface{}{
				"document_id": doc.Id.String(),
				"chunk_index": i,
				"error":       err.Error(),
			})
			msg.Nack()
			return
		}

		newChunks = append(newChunks, &entity.Chunk{
			Id:         uuid.New(),
			DocumentId: doc.Id,
			ChunkIndex: i,
			Text:       chunk,
			Language:   doc.Language,
			CreatedAt:  time.Now(),
		})
		vectors = append(vectors, res.Values)
	}

	if err := uow.Begin(ctx); err != nil {
		cs.log.Error("ingest", "failed to begin transaction", map[string]interface{}{"error": err.Error()})
		msg.Nack()
		return
	}
	defer uow.Rollback()

	if err := uow.ChunkRepository().DeleteByDocumentId(ctx, doc.Id); err != nil {
		cs.log.Error("ingest", "failed to delete old chunks", map[string]interface{}{"error": err.Error()})
		msg.Nack()
		return
	}

	if len(newChunks) > 0 {
		if err := uow.ChunkRepository().CreateBulk(ctx, newChunks, vectors); err != nil {
			cs.log.Error("ingest", "failed to create chunks", map[string]interface{}{"error": err.Error()})
			msg.Nack()
			return
		}
	}

	if err := uow.Commit(); err != nil {
		cs.log.Error("ingest", "failed to commit transaction", map[string]interface{}{"error": err.Error()})
		msg.Nack()
		return
	}

	if cs.eventPublisher != nil {
		if err := cs.eventPublisher.Publish(ctx, events.NewDocumentIngested(doc.Id.String(), doc.Url, len(newChunks))); err != nil {
			cs.log.Warn("ingest", "failed to publish ingested event", map[string]interface{}{"error": err.Error()})
		}
	}

	cs.log.Info("ingest", "document processed", map[string]interface{}{
		"document_id": doc.Id.String(),
		"chunks":      len(newChunks),
	})
	msg.Ack()
}
