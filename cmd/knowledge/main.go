package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/gorilla/mux"

	"github.com/tenderhq/tender/cache"
	memorycache "github.com/tenderhq/tender/cache/memory"
	rediscache "github.com/tenderhq/tender/cache/redis"
	"github.com/tenderhq/tender/embedder"
	ollamaembedder "github.com/tenderhq/tender/embedder/ollama"
	"github.com/tenderhq/tender/internal/handler"
	"github.com/tenderhq/tender/internal/service/knowledge"
	"github.com/tenderhq/tender/internal/service/semantic"
	"github.com/tenderhq/tender/server"
	serverhttp "github.com/tenderhq/tender/server/http"
	"github.com/tenderhq/tender/store"
	memorystore "github.com/tenderhq/tender/store/memory"
	postgresstore "github.com/tenderhq/tender/store/postgres"
)

var (
	cfg struct {
		// Server config
		Address string `help:"Address for the http server to listen on" default:":8082"`

		// Embedder config
		EmbedderUrl       string `help:"Base URL of the embedding provider" default:"http://localhost:11434"`
		EmbedderModel     string `help:"Model identifier for the embedder" default:"all-minilm"`
		EmbedderDimension int    `help:"Expected embedding vector dimension" default:"384"`
		ModelVersion      string `help:"Version label recorded on embedding records" default:"v1"`

		// Cache config
		CacheLocation string        `help:"Redis URL for the embedding and similarity caches; empty uses process memory" default:""`
		CacheTTL      time.Duration `help:"How long cached embeddings and results live" default:"1h"`

		// Store config
		StoreLocation string `help:"Postgres URL for persistence; empty uses process memory" default:""`
	}
)

func main() {
	_ = kong.Parse(&cfg)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{}))
	slog.SetDefault(logger)

	var c cache.Cache
	if len(cfg.CacheLocation) > 0 {
		c = rediscache.NewCache(
			cache.WithLocation(cfg.CacheLocation),
			cache.WithTTL(cfg.CacheTTL),
		)
	} else {
		c = memorycache.NewCache(
			cache.WithTTL(cfg.CacheTTL),
		)
	}

	var st store.Store
	if len(cfg.StoreLocation) > 0 {
		st = postgresstore.NewStore(
			store.WithLocation(cfg.StoreLocation),
			store.WithLogger(logger),
		)
	} else {
		st = memorystore.New(
			store.WithLogger(logger),
		)
	}

	emb := ollamaembedder.NewEmbedder(
		embedder.WithBaseUrl(cfg.EmbedderUrl),
		embedder.WithModel(cfg.EmbedderModel),
		embedder.WithDimension(cfg.EmbedderDimension),
		embedder.WithCache(c),
		embedder.WithCacheTTL(cfg.CacheTTL),
		embedder.WithLogger(logger),
	)

	sem := semantic.New(emb, nil, st, c, cfg.EmbedderModel, cfg.ModelVersion, logger)
	svc := knowledge.New(st, sem, logger)

	router := mux.NewRouter()
	handler.NewKnowledge(svc, logger).Register(router)

	srv := serverhttp.NewServer(
		router,
		server.WithAddress(cfg.Address),
		server.WithLogger(logger),
		serverhttp.WithMiddleware(serverhttp.RequestLogger(logger)),
	)

	run(srv, logger)
}

func run(srv server.Server, logger *slog.Logger) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}
}
