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

	"github.com/tracebase/findex/internal/config"
	dbRedis "github.com/tracebase/findex/internal/db/redis"
	dbSqlite "github.com/tracebase/findex/internal/db/sqlite"
	"github.com/tracebase/findex/internal/domain/schema"
	logpkg "github.com/tracebase/findex/internal/logger"
	"github.com/tracebase/findex/internal/metrics"
	providerrepo "github.com/tracebase/findex/internal/repository/provider"
	recordsrepo "github.com/tracebase/findex/internal/repository/records"
	chiTransport "github.com/tracebase/findex/internal/transport/chi"
	advanceduc "github.com/tracebase/findex/internal/usecase/advanced"
	federateduc "github.com/tracebase/findex/internal/usecase/federated"
	"github.com/tracebase/findex/internal/version"
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

	logger.Info("Starting findex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_path", cfg.Database.Path),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
	)

	store, err := dbSqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to open record store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	readiness := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, readiness); err != nil {
		logger.Fatal("Record store not ready", zap.Error(err))
	}
	if err := store.Migrate(ctx); err != nil {
		logger.Fatal("Failed to migrate record store", zap.Error(err))
	}
	logger.Info("Connected to record store")

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	recordsRepo := recordsrepo.NewRepo(store.DB())

	// Build per-type schemas from config; the workflow_state enum is
	// learned from the store when the config does not pin it.
	schemas := make(map[string]*schema.Schema, len(cfg.Search.Types))
	providers := make(map[string]federateduc.Provider, len(cfg.Search.Types))
	for name, tc := range cfg.Search.Types {
		sch, err := buildSchema(ctx, name, tc, recordsRepo)
		if err != nil {
			logger.Fatal("Invalid search schema", zap.String("type", name), zap.Error(err))
		}
		schemas[name] = sch
		providers[name] = providerrepo.NewSQL(store.DB(), name, tc.URLPath)
	}

	advancedSvc := advanceduc.New(recordsRepo, schemas).
		WithPagination(cfg.Search.DefaultPageSize, cfg.Search.MaxPageSize)

	federatedSvc, err := federateduc.New(providers, cfg.Search.TypeOrder)
	if err != nil {
		logger.Fatal("Failed to build federated search", zap.Error(err))
	}

	server := chiTransport.NewServer(advancedSvc, federatedSvc, logger).
		WithHealthCheck("sqlite", store)

	if cfg.Cache.Enabled {
		cache, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer cache.Close()
		if err := cache.WaitForReady(ctx, readiness); err != nil {
			logger.Fatal("Cache store not ready", zap.Error(err))
		}
		federatedSvc.WithCache(cache, time.Duration(cfg.Cache.TTLSec)*time.Second)
		server.WithHealthCheck("redis", cache)
		logger.Info("Connected to cache store")
	}

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

// buildSchema turns one type's config section into a Schema. Enum specs
// come from config when pinned there; otherwise the workflow_state value
// set is read from the store's distinct values.
func buildSchema(
	ctx context.Context, typeName string, tc config.TypeConfig, repo *recordsrepo.Repo,
) (*schema.Schema, error) {
	enums := make(map[string]schema.EnumSpec, len(tc.Enums))
	for key, ec := range tc.Enums {
		spec, err := schema.NewEnumSpec(ec.Values, ec.Labels, ec.TranslationScope)
		if err != nil {
			return nil, fmt.Errorf("enum %q: %w", key, err)
		}
		enums[key] = spec
	}

	sch, err := schema.New(schema.Config{
		AllowedFields: tc.AllowedFields,
		DateFields:    tc.DateFields,
		Aliases:       tc.Aliases,
		Enums:         enums,
	})
	if err != nil {
		return nil, err
	}

	if _, pinned := enums["workflow_state"]; !pinned && allows(tc.AllowedFields, "workflow_state") {
		states, err := repo.WorkflowStates(ctx, typeName)
		if err != nil {
			return nil, fmt.Errorf("workflow states: %w", err)
		}
		if len(states) > 0 {
			spec, err := schema.NewEnumSpec(states, nil, "workflow_states."+typeName)
			if err != nil {
				return nil, err
			}
			sch.WithEnum("workflow_state", spec)
		}
	}
	return sch, nil
}

func allows(fields []string, name string) bool {
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}

// jsonRecoverer converts panics into JSON 500s instead of empty bodies.
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
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
