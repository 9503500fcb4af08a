package bootstrap

import (
	"context"
	"fmt"
	"time"

	"lecture-rag-be/internal/config"
	"lecture-rag-be/internal/controller"
	"lecture-rag-be/internal/handler"
	"lecture-rag-be/internal/pkg/logger"
	"lecture-rag-be/internal/repository/implementation"
	"lecture-rag-be/internal/repository/memory"
	"lecture-rag-be/internal/service"
	"lecture-rag-be/internal/websocket"
	"lecture-rag-be/pkg/database"
	embeddingFactory "lecture-rag-be/pkg/embedding/factory"
	"lecture-rag-be/pkg/events"
	"lecture-rag-be/pkg/ingest"
	llmFactory "lecture-rag-be/pkg/llm/factory"
	pktNats "lecture-rag-be/pkg/nats"
	"lecture-rag-be/pkg/rag"
	"lecture-rag-be/pkg/tracker"
	"lecture-rag-be/pkg/vectorstore"
	memoryStore "lecture-rag-be/pkg/vectorstore/memory"
	"lecture-rag-be/pkg/vectorstore/qdrant"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	LectureController controller.ILectureController
	RagController     controller.IRagController

	// WebSockets
	LiveHandler  *handler.LiveHandler
	WebSocketHub *websocket.Hub

	// Background Services (Exposed for main.go to run)
	Tracker    *tracker.Tracker
	EventRelay service.IEventRelayService
	Logger     logger.ILogger
	closers    []func()
}

func NewContainer(cfg *config.Config, sysLogger logger.ILogger) (*Container, error) {
	c := &Container{Logger: sysLogger}

	// 1. Event Bus
	bus := events.NewBus(watermill.NewStdLogger(false, false))
	c.closers = append(c.closers, func() { _ = bus.Close() })

	// 2. Providers
	embedder, err := embeddingFactory.NewEmbeddingProvider(embeddingConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	sysLogger.Info("BOOTSTRAP", "Using Embedding Provider", map[string]interface{}{"provider": cfg.Ai.EmbeddingProvider})

	chat, err := llmFactory.NewLLMProvider(llmConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM provider: %w", err)
	}
	sysLogger.Info("BOOTSTRAP", "Using LLM Provider", map[string]interface{}{
		"provider": cfg.Ai.LLMProvider,
		"model":    cfg.Ai.LLMModel,
	})

	// 3. Vector Store
	store, err := c.newVectorStore(cfg)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := store.EnsureCollection(ctx, cfg.Ai.EmbeddingDimension); err != nil {
		return nil, fmt.Errorf("failed to prepare vector store: %w", err)
	}
	sysLogger.Info("BOOTSTRAP", "Using Vector Store", map[string]interface{}{
		"driver":    cfg.VectorStore.Driver,
		"dimension": cfg.Ai.EmbeddingDimension,
	})

	// 4. Retrieval + Tracking
	answers := memory.NewAnswerRepository(cfg.Retrieval.AnswerTTL)
	engine := rag.NewEngine(embedder, chat, store, answers, sysLogger, rag.Config{
		ChunkSize:      cfg.Retrieval.ChunkSize,
		RecentCapacity: cfg.Retrieval.RecentCapacity,
		DefaultLimit:   cfg.Retrieval.DefaultLimit,
		ScrollLimit:    cfg.Retrieval.ScrollLimit,
	})
	pipeline := ingest.NewPipeline(engine, bus, sysLogger)
	c.Tracker = tracker.NewTracker(pipeline, bus, sysLogger, tracker.Config{
		UpdateInterval:  cfg.Tracker.UpdateInterval,
		BackupCapacity:  cfg.Tracker.BackupCapacity,
		FinalizeTimeout: cfg.Tracker.FinalizeTimeout,
		PersistTimeout:  cfg.Tracker.PersistTimeout,
	})

	// 5. Infrastructure (optional)
	// NATS
	var exporter events.Publisher
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to connect to NATS Publisher, event export disabled", map[string]interface{}{"error": err.Error()})
		} else {
			exporter = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	// Redis
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb = redis.NewClient(opt)
		if err := rdb.Ping(ctx).Err(); err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to connect to Redis", map[string]interface{}{"error": err.Error()})
		}
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	// WebSocket Hub
	liveLogger := logger.NewIsolatedLogger(cfg.App.LiveLogFilePath)
	c.WebSocketHub = websocket.NewHub(rdb, liveLogger)
	c.EventRelay = service.NewEventRelayService(bus, c.WebSocketHub, exporter, sysLogger)

	// 6. Services + Controllers
	lectureService := service.NewLectureService(c.Tracker, engine)
	ragService := service.NewRagService(engine)

	c.LectureController = controller.NewLectureController(lectureService)
	c.RagController = controller.NewRagController(ragService)
	c.LiveHandler = handler.NewLiveHandler(c.WebSocketHub, liveLogger)

	return c, nil
}

// Close releases external connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func (c *Container) newVectorStore(cfg *config.Config) (vectorstore.Store, error) {
	switch cfg.VectorStore.Driver {
	case "memory", "":
		return memoryStore.NewStore(), nil
	case "qdrant":
		store, err := qdrant.NewStore(qdrant.Config{
			URL:        cfg.VectorStore.QdrantURL,
			ApiKey:     cfg.VectorStore.QdrantKey,
			Collection: cfg.VectorStore.Collection,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create qdrant client: %w", err)
		}
		return store, nil
	case "pgvector":
		if cfg.Database.Connection == "" {
			return nil, fmt.Errorf("pgvector store requires DB_CONNECTION_STRING")
		}
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
		if err != nil {
			return nil, fmt.Errorf("unable to connect to GORM DB: %w", err)
		}
		c.closers = append(c.closers, func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		})
		return implementation.NewLecturePointRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported vector store: %s", cfg.VectorStore.Driver)
	}
}

func embeddingConfig(cfg *config.Config) embeddingFactory.Config {
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		return embeddingFactory.Config{Provider: "ollama", Model: cfg.Ai.OllamaModel, BaseURL: cfg.Ai.OllamaBaseURL}
	case "gemini":
		return embeddingFactory.Config{Provider: "gemini", ApiKey: cfg.Keys.GoogleGemini}
	default:
		return embeddingFactory.Config{
			Provider: cfg.Ai.EmbeddingProvider,
			Model:    cfg.Ai.EmbeddingModel,
			BaseURL:  cfg.Ai.OpenAIBaseURL,
			ApiKey:   cfg.Keys.OpenAI,
		}
	}
}

func llmConfig(cfg *config.Config) llmFactory.Config {
	switch cfg.Ai.LLMProvider {
	case "ollama":
		return llmFactory.Config{Provider: "ollama", Model: cfg.Ai.LLMModel, BaseURL: cfg.Ai.OllamaBaseURL}
	case "huggingface":
		return llmFactory.Config{Provider: "huggingface", Model: cfg.Ai.LLMModel, ApiKey: cfg.Keys.HuggingFace}
	default:
		return llmFactory.Config{
			Provider: cfg.Ai.LLMProvider,
			Model:    cfg.Ai.LLMModel,
			BaseURL:  cfg.Ai.OpenAIBaseURL,
			ApiKey:   cfg.Keys.OpenAI,
		}
	}
}
