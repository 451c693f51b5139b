package bootstrap

import (
	"context"
	"log"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/mbuchwa/rag-urz-ollama/internal/config"
	"github.com/mbuchwa/rag-urz-ollama/internal/controller"
	"github.com/mbuchwa/rag-urz-ollama/internal/pkg/logger"
	"github.com/mbuchwa/rag-urz-ollama/internal/repository/memory"
	"github.com/mbuchwa/rag-urz-ollama/internal/repository/unitofwork"
	"github.com/mbuchwa/rag-urz-ollama/internal/service"
	"github.com/mbuchwa/rag-urz-ollama/pkg/embedding"
	"github.com/mbuchwa/rag-urz-ollama/pkg/llm/ollama"
	pktNats "github.com/mbuchwa/rag-urz-ollama/pkg/nats"
	"github.com/mbuchwa/rag-urz-ollama/pkg/rag"
	"github.com/mbuchwa/rag-urz-ollama/pkg/rag/assemble"
	"github.com/mbuchwa/rag-urz-ollama/pkg/rag/gate"
	"github.com/mbuchwa/rag-urz-ollama/pkg/rag/reformulate"
	"github.com/mbuchwa/rag-urz-ollama/pkg/rag/rerank"
	"github.com/mbuchwa/rag-urz-ollama/pkg/rag/retrieve"
)

type Container struct {
	// Controllers
	ChatController     *controller.ChatController
	DocumentController *controller.DocumentController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	CrawlConsumer   *service.CrawlConsumerService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider = embedding.NewOllamaProvider(
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.EmbeddingModel,
	)
	embeddingProvider = embedding.NewCachedProvider(embeddingProvider, rdb, cfg.Ai.EmbeddingModel, cfg.Ai.EmbedCacheTTL)
	log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)

	llmProvider := ollama.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.LLMModel)
	log.Printf("[INFO] Using LLM Provider: OLLAMA (%s)", cfg.Ai.LLMModel)

	rerankScorer := rerank.NewCrossEncoderClient(cfg.Ai.RerankerBaseURL, cfg.Ai.RerankerModel)

	// 4. Retrieval Engine
	historyStore := memory.NewHistoryStore(cfg.Engine.HistoryTurns)
	retriever := retrieve.New(
		service.NewDenseSearcher(uowFactory, embeddingProvider),
		service.NewLexicalSearcher(uowFactory),
	)
	reranker := rerank.NewAdapter(rerankScorer)

	engineCfg := rag.Config{
		Reformulate: reformulate.Config{
			TopicSwitchThreshold: cfg.Engine.TopicSwitchThreshold,
			PronounMaxTokens:     cfg.Engine.PronounMaxTokens,
			MaxHintTerms:         cfg.Engine.MaxHintTerms,
			// hint extraction reads only the most recent user turns,
			// independent of the stored window size
			HistoryTurns: 3,
		},
		Retrieve: retrieve.Config{
			DenseK:   cfg.Engine.DenseK,
			LexicalK: cfg.Engine.LexicalK,
		},
		Rerank: rerank.Config{
			Timeout: cfg.Engine.RerankTimeout,
			TopK:    cfg.Engine.RerankTopK,
		},
		Gate: gate.Config{
			AbsoluteFloor:   cfg.Engine.GateAbsoluteFloor,
			RelativeMargin:  cfg.Engine.GateRelativeMargin,
			LexicalFallback: cfg.Engine.GateLexicalFallback,
			QualifyFloor:    cfg.Engine.GateQualifyFloor,
			MaxCitations:    cfg.Engine.MaxCitations,
		},
		Assemble: assemble.Config{
			BudgetChars: cfg.Engine.ContextBudgetChars,
			MaxPassages: cfg.Engine.MaxContextPassages,
		},
		Debug: cfg.Engine.DebugTrace,
	}
	engine := rag.NewEngine(historyStore, retriever, reranker, engineCfg, sysLogger)

	// 5. Services
	publisherService := service.NewPublisherService(pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		service.EmbedDocumentTopic,
		uowFactory,
		embeddingProvider,
		natsPub,
		cfg.Engine.ChunkSize,
		cfg.Engine.ChunkOverlap,
		sysLogger,
	)

	docService := service.NewDocumentService(uowFactory, publisherService, sysLogger)
	chatService := service.NewChatService(uowFactory, engine, llmProvider, docService, natsPub, sysLogger)

	var crawlConsumer *service.CrawlConsumerService
	if natsSub != nil {
		crawlConsumer = service.NewCrawlConsumerService(natsSub, docService, sysLogger)
	}

	// 6. Controllers
	return &Container{
		ChatController:     controller.NewChatController(chatService, sysLogger),
		DocumentController: controller.NewDocumentController(docService),
		ConsumerService:    consumerService,
		CrawlConsumer:      crawlConsumer,
		Logger:             sysLogger,
	}
}
