package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Ai       AIConfig
	Engine   EngineConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	OllamaBaseURL   string
	EmbeddingModel  string
	LLMModel        string
	RerankerBaseURL string
	RerankerModel   string
	EmbedCacheTTL   time.Duration
}

// EngineConfig carries the retrieval pipeline tunables. Defaults match the
// values the pipeline packages ship with; env vars exist for operators who
// need to retune without a deploy.
type EngineConfig struct {
	HistoryTurns         int
	TopicSwitchThreshold float64
	PronounMaxTokens     int
	MaxHintTerms         int
	DenseK               int
	LexicalK             int
	RerankTimeout        time.Duration
	RerankTopK           int
	GateAbsoluteFloor    float64
	GateRelativeMargin   float64
	GateLexicalFallback  float64
	GateQualifyFloor     float64
	MaxCitations         int
	ContextBudgetChars   int
	MaxContextPassages   int
	DebugTrace           bool
	ChunkSize            int
	ChunkOverlap         int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			OllamaBaseURL:   getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			EmbeddingModel:  getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMModel:        getEnv("LLM_MODEL", "llama3.1:8b"),
			RerankerBaseURL: getEnv("RERANKER_BASE_URL", "http://localhost:8081"),
			RerankerModel:   getEnv("RERANKER_MODEL", "cross-encoder/ms-marco-MiniLM-L-6-v2"),
			EmbedCacheTTL:   getEnvAsDuration("EMBED_CACHE_TTL", 24*time.Hour),
		},
		Engine: EngineConfig{
			HistoryTurns:         getEnvAsInt("ENGINE_HISTORY_TURNS", 5),
			TopicSwitchThreshold: getEnvAsFloat("ENGINE_TOPIC_SWITCH_THRESHOLD", 0.25),
			PronounMaxTokens:     getEnvAsInt("ENGINE_PRONOUN_MAX_TOKENS", 6),
			MaxHintTerms:         getEnvAsInt("ENGINE_MAX_HINT_TERMS", 6),
			DenseK:               getEnvAsInt("ENGINE_DENSE_K", 24),
			LexicalK:             getEnvAsInt("ENGINE_LEXICAL_K", 16),
			RerankTimeout:        getEnvAsDuration("ENGINE_RERANK_TIMEOUT", 8*time.Second),
			RerankTopK:           getEnvAsInt("ENGINE_RERANK_TOP_K", 10),
			GateAbsoluteFloor:    getEnvAsFloat("ENGINE_GATE_ABSOLUTE_FLOOR", 0.20),
			GateRelativeMargin:   getEnvAsFloat("ENGINE_GATE_RELATIVE_MARGIN", 0.15),
			GateLexicalFallback:  getEnvAsFloat("ENGINE_GATE_LEXICAL_FALLBACK", 0.15),
			GateQualifyFloor:     getEnvAsFloat("ENGINE_GATE_QUALIFY_FLOOR", 0.10),
			MaxCitations:         getEnvAsInt("ENGINE_MAX_CITATIONS", 4),
			ContextBudgetChars:   getEnvAsInt("ENGINE_CONTEXT_BUDGET_CHARS", 6000),
			MaxContextPassages:   getEnvAsInt("ENGINE_MAX_CONTEXT_PASSAGES", 6),
			DebugTrace:           getEnvAsBool("ENGINE_DEBUG_TRACE", false),
			ChunkSize:            getEnvAsInt("INGEST_CHUNK_SIZE", 1500),
			ChunkOverlap:         getEnvAsInt("INGEST_CHUNK_OVERLAP", 200),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
