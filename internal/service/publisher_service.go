package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"github.com/mbuchwa/rag-urz-ollama/internal/dto"
)

// EmbedDocumentTopic is the in-process queue between the document write
// path and the embedding consumer.
const EmbedDocumentTopic = "EMBED_DOCUMENT"

type IPublisherService interface {
	PublishEmbedDocument(ctx context.Context, documentId uuid.UUID) error
}

type publisherService struct {
	pubSub *gochannel.GoChannel
}

func NewPublisherService(pubSub *gochannel.GoChannel) IPublisherService {
	return &publisherService{
		pubSub: pubSub,
	}
}

func (p *publisherService) PublishEmbedDocument(ctx context.Context, documentId uuid.UUID) error {
	payload, err := json.Marshal(dto.PublishEmbedDocumentMessage{DocumentId: documentId})
	if err != nil {
		return fmt.Errorf("marshal embed message: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := p.pubSub.Publish(EmbedDocumentTopic, msg); err != nil {
		return fmt.Errorf("publish embed message: %w", err)
	}
	return nil
}
