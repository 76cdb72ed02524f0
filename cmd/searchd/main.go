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

	"github.com/classima/searchd/internal/config"
	dbRedis "github.com/classima/searchd/internal/db/redis"
	"github.com/classima/searchd/internal/domain/search/filter"
	logpkg "github.com/classima/searchd/internal/logger"
	"github.com/classima/searchd/internal/metrics"
	cacherepo "github.com/classima/searchd/internal/repository/cache"
	listingsrepo "github.com/classima/searchd/internal/repository/listings"
	chiTransport "github.com/classima/searchd/internal/transport/chi"
	healthuc "github.com/classima/searchd/internal/usecase/health"
	searchuc "github.com/classima/searchd/internal/usecase/search"
	"github.com/classima/searchd/internal/version"
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

	logger.Info("Starting searchd API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("index_addrs", cfg.Index.Addrs),
		zap.Strings("cache_addrs", cfg.Cache.Addrs),
	)

	// The index and cache roles get separate connections even when both
	// point at the same server: a slow FT.SEARCH must not queue behind
	// cache traffic.
	indexStore, err := dbRedis.NewStore(storeConfig(cfg.Index))
	if err != nil {
		logger.Fatal("Failed to create index store", zap.Error(err))
	}

	cacheStore, err := dbRedis.NewStore(storeConfig(cfg.Cache))
	if err != nil {
		logger.Fatal("Failed to create cache store", zap.Error(err))
	}

	ctx := context.Background()
	if err := indexStore.WaitForReady(ctx, time.Duration(cfg.Index.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Index store not ready", zap.Error(err))
	}
	if err := cacheStore.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Cache store not ready", zap.Error(err))
	}
	logger.Info("Connected to stores")

	// Create repositories
	listingsRepo := listingsrepo.New(indexStore, logger)
	resultCache := cacherepo.New(
		cacheStore, metrics.CacheLookupsTotal, metrics.CacheInvalidatedKeysTotal, logger,
	)

	// Create use case services. The search service owns the store
	// connections and closes them on shutdown.
	searchSvc := searchuc.New(
		listingsRepo, resultCache, filter.DefaultSchema(),
		metrics.SearchErrorsTotal, logger,
		indexStore, cacheStore,
	)
	defer searchSvc.Close()
	healthSvc := healthuc.New(indexStore, cacheStore)

	// Create chi server
	server := chiTransport.NewServer(
		searchSvc, healthSvc,
		cfg.Search.DefaultPageSize, cfg.Search.MaxPageSize,
		logger,
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

func storeConfig(c config.StoreConfig) dbRedis.Config {
	return dbRedis.Config{
		Addrs:    c.Addrs,
		Username: c.Username,
		Password: c.Password,
		DB:       c.DB,
	}
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
