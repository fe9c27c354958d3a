package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/nelfund/navigator-go/internal/embedder"
	"github.com/nelfund/navigator-go/internal/engine"
	"github.com/nelfund/navigator-go/internal/generator"
	"github.com/nelfund/navigator-go/internal/intent"
	"github.com/nelfund/navigator-go/internal/memory"
	"github.com/nelfund/navigator-go/internal/rag"

	einomodel "github.com/cloudwego/eino/components/model"
)

// getEnvOrDefault reads an env var, falling back to a default when unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt reads an integer env var, falling back on missing or malformed values.
func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// getEnvFloat32 reads a float env var, falling back on missing or malformed values.
func getEnvFloat32(key string, fallback float32) float32 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return fallback
	}
	return float32(f)
}

// buildQdrantStore connects to Qdrant using the QDRANT_* environment and
// sizes the collection for the configured embedding backend.
func buildQdrantStore(ctx context.Context, log *slog.Logger) (*rag.QdrantStore, error) {
	host := getEnvOrDefault("QDRANT_HOST", "localhost")
	port := getEnvInt("QDRANT_PORT", 6334)
	collection := getEnvOrDefault("QDRANT_COLLECTION", "nelfund-docs")
	vectorSize := uint64(embedder.DefaultDimensions(embedder.ResolveBackend()))

	store, err := rag.NewQdrantStore(ctx, &rag.QdrantConfig{
		Host:       host,
		Port:       port,
		Collection: collection,
		VectorSize: vectorSize,
		APIKey:     os.Getenv("QDRANT_API_KEY"),
		UseTLS:     os.Getenv("QDRANT_TLS") == "true",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant at %s:%d: %w", host, port, err)
	}

	log.Info("qdrant store ready",
		slog.String("host", host),
		slog.Int("port", port),
		slog.String("collection", collection),
	)
	return store, nil
}

// buildRetriever assembles the embedder + Qdrant retrieval stack from the
// environment. The returned closer releases the Qdrant connection.
func buildRetriever(ctx context.Context, log *slog.Logger) (rag.Retriever, *rag.QdrantStore, func(), error) {
	if err := embedder.ValidateForRetrieval(log); err != nil {
		return nil, nil, nil, err
	}

	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialise embedder: %w", err)
	}
	log.Info("embedder initialised", slog.String("backend", embedder.ResolveBackend()))

	store, err := buildQdrantStore(ctx, log)
	if err != nil {
		return nil, nil, nil, err
	}

	retriever, err := rag.NewRetriever(emb, store, &rag.RetrieverConfig{
		TopK:         getEnvInt("RAG_TOP_K", 4),
		MinScore:     getEnvFloat32("RAG_MIN_SCORE", 0),
		MaxPerSource: getEnvInt("RAG_MAX_PER_SOURCE", 0),
	})
	if err != nil {
		_ = store.Close()
		return nil, nil, nil, fmt.Errorf("failed to create retriever: %w", err)
	}

	return retriever, store, func() { _ = store.Close() }, nil
}

// buildMemoryStore opens the conversation memory backend selected via
// NAVIGATOR_MEMORY_BACKEND ("sqlite", the default, or "redis").
func buildMemoryStore(ctx context.Context, log *slog.Logger) (memory.Store, error) {
	backend := getEnvOrDefault("NAVIGATOR_MEMORY_BACKEND", "sqlite")

	switch backend {
	case "redis":
		addr := getEnvOrDefault("REDIS_ADDR", "localhost:6379")
		store, err := memory.OpenRedis(ctx, &memory.RedisConfig{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open redis memory at %s: %w", addr, err)
		}
		log.Info("memory: redis store opened", slog.String("addr", addr))
		return store, nil

	case "sqlite":
		path := os.Getenv("NAVIGATOR_HISTORY_DB")
		if path == "" {
			var err error
			path, err = memory.DefaultDBPath()
			if err != nil {
				return nil, err
			}
		}
		store, err := memory.OpenSQLite(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open history database: %w", err)
		}
		log.Info("memory: sqlite store opened", slog.String("path", path))
		return store, nil

	default:
		return nil, fmt.Errorf("unknown memory backend %q (want sqlite or redis)", backend)
	}
}

// buildEngine wires the full turn pipeline: classifier, retriever, generator,
// memory store, and the model-backed query resolver.
func buildEngine(chatModel einomodel.ToolCallingChatModel, retriever rag.Retriever, store memory.Store) (*engine.Engine, error) {
	gen, err := generator.New(chatModel, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}

	resolver, err := engine.NewModelResolver(chatModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create query resolver: %w", err)
	}

	eng, err := engine.New(intent.NewRuleClassifier(), retriever, gen, store, resolver, engine.Config{
		WindowTurns:       getEnvInt("ENGINE_WINDOW_TURNS", 6),
		RetrievalTimeout:  time.Duration(getEnvInt("ENGINE_RETRIEVAL_TIMEOUT", 10)) * time.Second,
		GenerationTimeout: time.Duration(getEnvInt("ENGINE_GENERATION_TIMEOUT", 60)) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	return eng, nil
}
