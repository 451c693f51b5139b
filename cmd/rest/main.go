package main

import (
	"context"
	"log"

	"github.com/mbuchwa/rag-urz-ollama/internal/bootstrap"
	"github.com/mbuchwa/rag-urz-ollama/internal/config"
	"github.com/mbuchwa/rag-urz-ollama/internal/server"
	"github.com/mbuchwa/rag-urz-ollama/internal/tracer"
	"github.com/mbuchwa/rag-urz-ollama/pkg/database"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDB(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Services
	go func() {
		log.Println("Background: Starting Embed Consumer...")
		if err := container.ConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()
	if container.CrawlConsumer != nil {
		go func() {
			log.Println("Background: Starting Crawl Consumer...")
			if err := container.CrawlConsumer.Start(); err != nil {
				log.Printf("Background Crawl Consumer Error: %v", err)
			}
		}()
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
