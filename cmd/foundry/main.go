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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/foundry-app/foundry/internal/config"
	dbRedis "github.com/foundry-app/foundry/internal/db/redis"
	"github.com/foundry-app/foundry/internal/domain"
	logpkg "github.com/foundry-app/foundry/internal/logger"
	"github.com/foundry-app/foundry/internal/metrics"
	embeddingrepo "github.com/foundry-app/foundry/internal/repository/embedding"
	itemrepo "github.com/foundry-app/foundry/internal/repository/item"
	chiTransport "github.com/foundry-app/foundry/internal/transport/chi"
	"github.com/foundry-app/foundry/internal/transport/matcher"
	openaiEmb "github.com/foundry-app/foundry/internal/transport/openai"
	"github.com/foundry-app/foundry/internal/transport/webhook"
	discoveruc "github.com/foundry-app/foundry/internal/usecase/discover"
	healthuc "github.com/foundry-app/foundry/internal/usecase/health"
	matchuc "github.com/foundry-app/foundry/internal/usecase/match"
	reportuc "github.com/foundry-app/foundry/internal/usecase/report"
	similarityuc "github.com/foundry-app/foundry/internal/usecase/similarity"
	"github.com/foundry-app/foundry/internal/version"
)

// itemStore is the union of store slices the services consume.
type itemStore interface {
	reportuc.Store
	discoveruc.Corpus
	matchuc.ItemStore
	healthuc.StorePinger
}

func main() {
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

	logger.Info("Starting foundry API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("similarity_driver", cfg.Similarity.Driver),
	)

	ctx := context.Background()

	// Item store
	var items itemStore
	var dbStore *dbRedis.Store
	switch cfg.Database.Driver {
	case "redis":
		dbStore, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create database store", zap.Error(err))
		}
		defer dbStore.Close()

		if err := dbStore.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Database not ready", zap.Error(err))
		}
		logger.Info("Connected to database", zap.Strings("addrs", cfg.Database.Addrs))

		items = itemrepo.New(dbStore, cfg.Storage.KeyPrefix)
	case "memory":
		items = itemrepo.NewMemory()
		logger.Info("Using in-memory item store")
	default:
		logger.Fatal("Unknown database driver", zap.String("driver", cfg.Database.Driver))
	}

	metrics.RegisterSimilarityMetrics()

	// Similarity backend
	var simClient reportuc.SimilarityClient
	var simFinder matchuc.SimilarityClient
	var simChecker healthuc.SimilarityChecker
	switch cfg.Similarity.Driver {
	case "matcher":
		client := matcher.NewClient(&matcher.Config{
			BaseURL: cfg.Similarity.Matcher.BaseURL,
			APIKey:  cfg.Similarity.Matcher.APIKey,
			Timeout: time.Duration(cfg.Similarity.Matcher.TimeoutSec) * time.Second,
		})
		simClient, simFinder, simChecker = client, client, client
		logger.Info("Using external matcher service", zap.String("base_url", cfg.Similarity.Matcher.BaseURL))
	case "embedded":
		embedder := openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.Similarity.Embedding.APIKey,
			BaseURL:    cfg.Similarity.Embedding.BaseURL,
			Model:      cfg.Similarity.Embedding.Model,
			Dimensions: cfg.Similarity.Embedding.Dimensions,
		})
		vectors := embeddingrepo.New(dbStore, cfg.Storage.KeyPrefix, cfg.Similarity.Embedding.Dimensions)
		engine := similarityuc.NewEngine(embedder, vectors)
		if err := engine.Init(ctx); err != nil {
			logger.Fatal("Failed to prepare vector index", zap.Error(err))
		}
		simClient, simFinder, simChecker = engine, engine, engine
		logger.Info("Using embedded similarity engine",
			zap.String("model", cfg.Similarity.Embedding.Model),
			zap.Int("dimensions", cfg.Similarity.Embedding.Dimensions),
		)
	case "off":
		logger.Info("Similarity matching disabled")
	}

	// Notifier: webhook when configured, log-only otherwise
	var notifier matchuc.Notifier
	if cfg.Notify.WebhookURL != "" {
		notifier = webhook.NewNotifier(&webhook.Config{
			URL:     cfg.Notify.WebhookURL,
			Timeout: time.Duration(cfg.Notify.TimeoutSec) * time.Second,
		})
	} else {
		notifier = &logNotifier{logger: logger}
	}

	// Use case services
	var resolver reportuc.Resolver
	if simFinder != nil {
		resolver = matchuc.New(simFinder, items, notifier, logger)
	}
	reportSvc := reportuc.New(items, simClient, resolver, logger)
	discoverSvc := discoveruc.New(items)
	healthSvc := healthuc.New(items, simChecker)

	server := chiTransport.NewServer(reportSvc, discoverSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)
	r.Method("GET", "/metrics", promhttp.Handler())

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

// logNotifier records matches in the log when no webhook is configured.
type logNotifier struct {
	logger *zap.Logger
}

func (n *logNotifier) Notify(_ context.Context, lost, found domain.Item, score float64) error {
	n.logger.Info("match notification",
		zap.String("lost_id", lost.ID),
		zap.String("found_id", found.ID),
		zap.Float64("score", score),
		zap.String("contact_email", lost.Contact.Email),
	)
	metrics.NotificationsTotal.WithLabelValues("skipped").Inc()
	return nil
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

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

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
