package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/user/listing-risk-service/internal/adapter/chromedp_source"
	"github.com/user/listing-risk-service/internal/adapter/memcache"
	"github.com/user/listing-risk-service/internal/adapter/postgres"
	redis_adapter "github.com/user/listing-risk-service/internal/adapter/redis"
	"github.com/user/listing-risk-service/internal/adapter/scoringapi"
	"github.com/user/listing-risk-service/internal/adapter/staterender"
	"github.com/user/listing-risk-service/internal/delivery/http/handler"
	"github.com/user/listing-risk-service/internal/delivery/http/router"
	"github.com/user/listing-risk-service/internal/extractor"
	"github.com/user/listing-risk-service/internal/repository"
	"github.com/user/listing-risk-service/internal/usecase"
	"github.com/user/listing-risk-service/pkg/config"
	"github.com/user/listing-risk-service/pkg/logger"
	"github.com/user/listing-risk-service/pkg/metrics"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Unable to load configuration", "error", err)
		os.Exit(1)
	}

	// --- Logger ---
	logLevel := logger.ParseLevel(cfg.LogLevel)
	logger.Init(os.Stdout, logLevel)
	slog.Info("Logger initialized", "level", logLevel.String())

	// --- Metrics ---
	metrics.Init()
	slog.Info("Metrics initialized")

	ctx := context.Background()

	// --- Verdict cache: Redis when configured, in-process otherwise ---
	var verdictCache repository.VerdictCacheRepository
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			slog.Error("Unable to connect to Redis", "error", err)
			os.Exit(1)
		}
		verdictCache = redis_adapter.NewVerdictCache(rdb, cfg.CacheTTL())
		slog.Info("Redis verdict cache established", "addr", cfg.RedisAddr)
	} else {
		verdictCache = memcache.NewVerdictCache(cfg.CacheTTL())
		slog.Info("Using in-process verdict cache")
	}

	// --- Verdict history: optional PostgreSQL audit log ---
	var history repository.VerdictHistoryRepository
	if cfg.PostgresURL != "" {
		dbpool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			slog.Error("Unable to connect to database", "error", err)
			os.Exit(1)
		}
		defer dbpool.Close()
		history = postgres.NewVerdictHistory(dbpool)
		slog.Info("PostgreSQL connection pool established")
	}

	// --- Scoring client ---
	scorer := scoringapi.NewClient(scoringapi.Options{
		BaseURL:        cfg.ScoringURL,
		APIKey:         cfg.ScoringAPIKey,
		AttemptTimeout: cfg.RequestTimeout(),
		MaxAttempts:    cfg.MaxRetries,
		BackoffBase:    cfg.BackoffBase(),
	})

	// --- Use Cases ---
	coordinator := usecase.NewCoordinator(verdictCache, scorer)
	ext := extractor.New(cfg.MaxImages)
	pages := func(url string) (repository.PageSessionRepository, error) {
		return chromedp_source.NewPageSession(url, cfg.PageLoadTimeout(), cfg.MutationPoll())
	}
	analyzer := usecase.NewAnalyzer(pages, ext, coordinator, history)
	sessions := usecase.NewSessionManager(pages, ext, coordinator, history,
		func() usecase.StatefulRenderer { return staterender.NewRenderer() },
		cfg.Debounce())
	defer sessions.CloseAll()

	// --- HTTP Server ---
	apiHandler := handler.NewHandler(analyzer, sessions)
	httpRouter := router.New(apiHandler)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      httpRouter,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "port", cfg.ServerPort)
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not listen on port", "port", cfg.ServerPort, "error", err)
			os.Exit(1)
		}
	case sig := <-stop:
		slog.Info("Shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}
}
