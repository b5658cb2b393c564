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
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/draftforge/draftforge/internal/config"
	dbRedis "github.com/draftforge/draftforge/internal/db/redis"
	"github.com/draftforge/draftforge/internal/domain"
	logpkg "github.com/draftforge/draftforge/internal/logger"
	"github.com/draftforge/draftforge/internal/metrics"
	companyrepo "github.com/draftforge/draftforge/internal/repository/company"
	indexrepo "github.com/draftforge/draftforge/internal/repository/index"
	templaterepo "github.com/draftforge/draftforge/internal/repository/templates"
	chiTransport "github.com/draftforge/draftforge/internal/transport/chi"
	openaiLLM "github.com/draftforge/draftforge/internal/transport/openai"
	assembleuc "github.com/draftforge/draftforge/internal/usecase/assemble"
	healthuc "github.com/draftforge/draftforge/internal/usecase/health"
	pipelineuc "github.com/draftforge/draftforge/internal/usecase/pipeline"
	querybuilduc "github.com/draftforge/draftforge/internal/usecase/querybuild"
	rerankuc "github.com/draftforge/draftforge/internal/usecase/rerank"
	retrievaluc "github.com/draftforge/draftforge/internal/usecase/retrieval"
	"github.com/draftforge/draftforge/internal/version"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

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

	logger.Info("Starting draftforge API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("llm_provider", cfg.LLM.Provider),
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

	// Register metrics explicitly (no init())
	metrics.RegisterLLMMetrics()
	metrics.RegisterPipelineMetrics()

	completer := openaiLLM.NewCompleter(&openaiLLM.CompleterConfig{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Completion.Model,
		Temperature: cfg.LLM.Completion.Temperature,
		MaxTokens:   cfg.LLM.Completion.MaxTokens,
		Provider:    cfg.LLM.Provider,
		Logger:      logger,
	})
	embedder := openaiLLM.NewEmbedder(&openaiLLM.EmbedderConfig{
		APIKey:     cfg.LLM.APIKey,
		BaseURL:    cfg.LLM.BaseURL,
		Model:      cfg.LLM.Embedding.Model,
		Dimensions: cfg.LLM.Embedding.Dimensions,
		Provider:   cfg.LLM.Provider,
		Logger:     logger,
	})
	logger.Info("LLM clients created",
		zap.String("completion_model", cfg.LLM.Completion.Model),
		zap.String("embedding_model", cfg.LLM.Embedding.Model),
		zap.Int("embedding_dimensions", cfg.LLM.Embedding.Dimensions),
	)

	// Repositories
	docIndex := indexrepo.New(store, embedder, cfg.Storage.KeyPrefix, cfg.LLM.Embedding.Dimensions).
		WithHNSW(indexrepo.HNSWConfig{
			M:           cfg.Retrieval.HNSWM,
			EFConstruct: cfg.Retrieval.HNSWEFConstruct,
		})
	if err := docIndex.EnsureIndexes(ctx, cfg.Retrieval.Collection); err != nil {
		logger.Fatal("Failed to create vector indexes", zap.Error(err))
	}
	tplStore := templaterepo.New(store, cfg.Storage.KeyPrefix)
	companies := companyrepo.New(store, cfg.Storage.KeyPrefix)

	// Use case services
	querySvc := querybuilduc.New(tplStore, completer, logger)
	retrievalSvc := retrievaluc.New(docIndex, retrievaluc.Limits{
		KPerSource:      cfg.Retrieval.KPerSource,
		ChunkTokenLimit: cfg.Retrieval.ChunkTokenLimit,
		MaxConcurrent:   cfg.Retrieval.MaxConcurrent,
		SourceCaps:      sourceCaps(cfg.Retrieval.SourceCaps, logger),
	}, logger)
	rerankSvc := rerankuc.New(tplStore, completer, logger)
	assembleSvc := assembleuc.New(tplStore, logger)

	pipelineSvc := pipelineuc.New(
		pipelineuc.NewGuard(),
		querySvc, retrievalSvc, rerankSvc, assembleSvc,
		completer, companies,
		cfg.Retrieval.Collection,
		logger,
	)

	healthSvc := healthuc.New(store, completer)

	server := chiTransport.NewServer(
		pipelineSvc, docIndex, tplStore, healthSvc,
		cfg.Retrieval.Collection, logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

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

// sourceCaps converts configured caps to typed source keys, skipping unknowns.
func sourceCaps(raw map[string]int, logger *zap.Logger) map[domain.SourceType]int {
	if len(raw) == 0 {
		return nil
	}
	caps := make(map[domain.SourceType]int, len(raw))
	for name, limit := range raw {
		st, err := domain.ParseSourceType(name)
		if err != nil {
			logger.Warn("Ignoring cap for unknown source type", zap.String("source", name))
			continue
		}
		caps[st] = limit
	}
	return caps
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

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
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
