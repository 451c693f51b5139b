package service

import (
	"context"

	"github.com/mbuchwa/rag-urz-ollama/internal/dto"
	"github.com/mbuchwa/rag-urz-ollama/internal/pkg/logger"
	"github.com/mbuchwa/rag-urz-ollama/pkg/events"
	natsbus "github.com/mbuchwa/rag-urz-ollama/pkg/nats"
)

// CrawlConsumerService feeds pages fetched by the external crawler into the
// document ingest path. The crawler publishes events.crawl.page.fetched on
// the shared NATS stream.
type CrawlConsumerService struct {
	subscriber *natsbus.Subscriber
	docService IDocumentService
	log        logger.ILogger
}

func NewCrawlConsumerService(subscriber *natsbus.Subscriber, docService IDocumentService, log logger.ILogger) *CrawlConsumerService {
	return &CrawlConsumerService{
		subscriber: subscriber,
		docService: docService,
		log:        log,
	}
}

func (s *CrawlConsumerService) Start() error {
	return s.subscriber.Subscribe("events."+events.TypePageFetched, "ingest-crawled-pages", s.handle)
}

func (s *CrawlConsumerService) handle(ctx context.Context, event events.Event) error {
	payload := event.Payload()

	req := &dto.IngestDocumentRequest{
		Url:      asString(payload["url"]),
		Title:    asString(payload["title"]),
		Language: asString(payload["language"]),
		Content:  asString(payload["content"]),
		Metadata: asMap(payload["metadata"]),
	}
	if req.Url == "" || req.Content == "" {
		// Malformed page event, drop it rather than retry forever
		s.log.Warn("crawl", "dropping page event without url or content", map[string]interface{}{
			"url": req.Url,
		})
		return nil
	}

	if _, err := s.docService.Ingest(ctx, req); err != nil {
		s.log.Error("crawl", "failed to ingest crawled page", map[string]interface{}{
			"url":   req.Url,
			"error": err.Error(),
		})
		return err
	}
	return nil
}

func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func asMap(v interface{}) map[string]interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}
	return nil
}
