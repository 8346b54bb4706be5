package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/analyze"
	"github.com/kailas-cloud/rankdex/internal/cache"
	"github.com/kailas-cloud/rankdex/internal/config"
	dbRedis "github.com/kailas-cloud/rankdex/internal/db/redis"
	"github.com/kailas-cloud/rankdex/internal/domain"
	"github.com/kailas-cloud/rankdex/internal/engine"
	"github.com/kailas-cloud/rankdex/internal/enhance"
	"github.com/kailas-cloud/rankdex/internal/ensemble"
	logpkg "github.com/kailas-cloud/rankdex/internal/logger"
	"github.com/kailas-cloud/rankdex/internal/metrics"
	"github.com/kailas-cloud/rankdex/internal/ratelimit"
	itemsrepo "github.com/kailas-cloud/rankdex/internal/repository/items"
	chiTransport "github.com/kailas-cloud/rankdex/internal/transport/chi"
	openaiProv "github.com/kailas-cloud/rankdex/internal/transport/openai"
	healthuc "github.com/kailas-cloud/rankdex/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/rankdex/internal/usecase/recommend"
	usageuc "github.com/kailas-cloud/rankdex/internal/usecase/usage"
	"github.com/kailas-cloud/rankdex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting rankdex API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register domain metrics explicitly (no init())
	metrics.Register()

	// Embedding provider
	embedder := openaiProv.NewEmbedder(&openaiProv.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   "embedding",
		Logger:     logger,
	})
	logger.Info("Embedder created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	// Insight generator and its quota tracker. The daily counter is
	// persisted so restarts do not reset the quota.
	generator := openaiProv.NewGenerator(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Model, logger)
	limiter := ratelimit.New(cfg.AI.Limits.RequestsPerMinute, cfg.AI.Limits.RequestsPerDay, logger).
		WithStore(ctx, store)

	// Two-tier cache: local LRU in front of Redis
	layer := cache.New(cache.NewLRU(cfg.Cache.LocalCapacity), store, metrics.CacheTotal, logger)

	itemsRepo := itemsrepo.New(store)
	analyzer := analyze.New(layer, itemsRepo, embedder, cfg.Embedding.Dimensions, logger)

	engines, err := buildEngines(cfg.Ranking.Engines)
	if err != nil {
		logger.Fatal("Failed to build scoring engines", zap.Error(err))
	}

	genCfg := domain.GenerationConfig{
		Temperature: cfg.AI.Temperature,
		TopP:        cfg.AI.TopP,
		MaxTokens:   cfg.AI.MaxTokens,
	}
	enhancer := enhance.New(layer, []enhance.InsightProvider{
		enhance.NewAIProvider(generator, limiter, genCfg, logger),
		enhance.NewSemanticProvider(),
		enhance.NewHeuristicProvider(),
	}, cfg.Ranking.TopK, logger)

	recommendSvc := recommenduc.New(
		itemsRepo, analyzer, engines, ensemble.New(), enhancer, layer, logger,
	).
		WithEngineTimeout(time.Duration(cfg.Ranking.EngineTimeoutSec) * time.Second).
		WithMinQuality(cfg.Ranking.MinQuality)

	usageSvc := usageuc.New(limiter)
	healthSvc := healthuc.New(store, embedder)

	server := chiTransport.NewServer(recommendSvc, usageSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.RegisterRoutes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEngines maps configured engine names to scorer instances.
func buildEngines(weights map[string]float64) ([]recommenduc.WeightedEngine, error) {
	engines := make([]recommenduc.WeightedEngine, 0, len(weights))
	for name, weight := range weights {
		var scorer *engine.Scorer
		switch name {
		case "hybrid":
			scorer = engine.NewHybrid()
		case "keyword":
			scorer = engine.NewKeyword()
		case "semantic":
			scorer = engine.NewSemantic()
		default:
			return nil, fmt.Errorf("unknown engine %q", name)
		}
		engines = append(engines, recommenduc.WeightedEngine{Engine: scorer, Weight: weight})
	}
	return engines, nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
