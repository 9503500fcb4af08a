package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Keys        APIKeys
	Ai          AIConfig
	VectorStore VectorStoreConfig
	Tracker     TrackerConfig
	Retrieval   RetrievalConfig
	Tracing     TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	LiveLogFilePath    string
	CorsAllowedOrigins string
	NatsURL            string // empty disables event export
	RedisURL           string // empty disables live feed fan-out
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	OpenAI       string
	GoogleGemini string
	HuggingFace  string
}

type AIConfig struct {
	EmbeddingProvider  string // "openai", "ollama" or "gemini"
	EmbeddingModel     string
	EmbeddingDimension int
	OpenAIBaseURL      string
	OllamaBaseURL      string
	OllamaModel        string
	LLMProvider        string // "openai", "ollama" or "huggingface"
	LLMModel           string
}

type VectorStoreConfig struct {
	Driver     string // "memory", "qdrant" or "pgvector"
	QdrantURL  string
	QdrantKey  string
	Collection string
}

type TrackerConfig struct {
	UpdateInterval  time.Duration
	BackupCapacity  int
	FinalizeTimeout time.Duration
	PersistTimeout  time.Duration
}

type RetrievalConfig struct {
	ChunkSize      int
	RecentCapacity int
	DefaultLimit   int
	ScrollLimit    int
	AnswerTTL      time.Duration
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			LiveLogFilePath:    getEnv("LIVE_LOG_FILE_PATH", "logs/live.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			OpenAI:       getEnv("OPENAI_API_KEY", ""),
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			HuggingFace:  getEnv("HUGGINGFACE_API_KEY", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider:  getEnv("EMBEDDING_PROVIDER", "openai"),
			EmbeddingModel:     getEnv("EMBEDDING_MODEL", ""),
			EmbeddingDimension: getEnvAsInt("EMBEDDING_DIMENSION", 1536),
			OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", ""),
			OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:        getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:        getEnv("LLM_PROVIDER", "openai"),
			LLMModel:           getEnv("LLM_MODEL", ""),
		},
		VectorStore: VectorStoreConfig{
			Driver:     getEnv("VECTOR_STORE", "memory"),
			QdrantURL:  getEnv("QDRANT_URL", "http://localhost:6333"),
			QdrantKey:  getEnv("QDRANT_API_KEY", ""),
			Collection: getEnv("COLLECTION_NAME", "lectures"),
		},
		Tracker: TrackerConfig{
			UpdateInterval:  getEnvAsDuration("TRACKER_UPDATE_INTERVAL", 60*time.Second),
			BackupCapacity:  getEnvAsInt("TRACKER_BACKUP_CAPACITY", 100),
			FinalizeTimeout: getEnvAsDuration("TRACKER_FINALIZE_TIMEOUT", 2*time.Minute),
			PersistTimeout:  getEnvAsDuration("TRACKER_PERSIST_TIMEOUT", 30*time.Second),
		},
		Retrieval: RetrievalConfig{
			ChunkSize:      getEnvAsInt("RAG_CHUNK_SIZE", 500),
			RecentCapacity: getEnvAsInt("RAG_RECENT_CAPACITY", 10),
			DefaultLimit:   getEnvAsInt("RAG_DEFAULT_LIMIT", 3),
			ScrollLimit:    getEnvAsInt("RAG_SCROLL_LIMIT", 100),
			AnswerTTL:      getEnvAsDuration("RAG_ANSWER_TTL", time.Hour),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "lecture-rag-backend"),
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

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("90s") or plain seconds ("90").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if seconds, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
