package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/metro-mecard/mecard/internal/config"
	dbValkey "github.com/metro-mecard/mecard/internal/db/valkey"
	"github.com/metro-mecard/mecard/internal/ils/backend"
	"github.com/metro-mecard/mecard/internal/loader"
	logpkg "github.com/metro-mecard/mecard/internal/logger"
	"github.com/metro-mecard/mecard/internal/metrics"
	"github.com/metro-mecard/mecard/internal/repository/outcome"
	chiTransport "github.com/metro-mecard/mecard/internal/transport/chi"
	healthuc "github.com/metro-mecard/mecard/internal/usecase/health"
	"github.com/metro-mecard/mecard/internal/usecase/responder"
	"github.com/metro-mecard/mecard/internal/version"
)

const readinessTimeout = 10 * time.Second

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLoggerWithFile(env, cfg.Logging.Level, logpkg.FileOptions{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting mecard server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("ils_backend", cfg.ILS.Backend),
	)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register()

	builder, err := backend.New(cfg)
	if err != nil {
		return fmt.Errorf("build ils backend: %w", err)
	}
	respSvc := responder.New(builder, cfg.Protocol.Delimiter, logger.Named("responder"))

	// Outcome store (optional): failed batch customers are published here.
	var outcomeStore *outcome.Store
	var pinger healthuc.Pinger
	if cfg.Outcome.Enabled {
		store, err := dbValkey.NewStore(dbValkey.Config{
			Addrs:    cfg.Outcome.Addrs,
			Password: cfg.Outcome.Password,
		})
		if err != nil {
			return fmt.Errorf("create outcome store: %w", err)
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, readinessTimeout); err != nil {
			return fmt.Errorf("outcome store not ready: %w", err)
		}
		logger.Info("Connected to outcome store", zap.Strings("addrs", cfg.Outcome.Addrs))
		outcomeStore = outcome.New(store, cfg.Outcome.KeyPrefix, time.Duration(cfg.Outcome.TTLHours)*time.Hour)
		pinger = store
	}

	deps := chiTransport.Deps{
		Responder: respSvc,
		Delimiter: cfg.Protocol.Delimiter,
		Logger:    logger.Named("http"),
	}
	// Pass nil interfaces, not typed nil pointers, for disabled components.
	if outcomeStore != nil {
		deps.Outcome = outcomeStore
	}

	var lockInspector healthuc.LockInspector
	var sched *loader.Scheduler
	if cfg.ILS.Backend == config.BackendBImport {
		lcfg, err := loader.ConfigFrom(cfg)
		if err != nil {
			return fmt.Errorf("loader config: %w", err)
		}
		opts := []loader.Option{loader.WithObserver(metrics.LoaderObserver{})}
		if outcomeStore != nil {
			opts = append(opts, loader.WithRecorder(outcomeStore))
		}
		ld := loader.New(lcfg, logger, opts...)
		lockInspector = ld
		deps.Loader = ld
		deps.FailureDir = lcfg.FailureDir

		if cfg.Loader.Enabled {
			sopts := loader.SchedulerOptions{
				Interval: time.Duration(cfg.Loader.IntervalSec) * time.Second,
				Debounce: time.Duration(cfg.Loader.DebounceMillis) * time.Millisecond,
			}
			if cfg.Loader.Watch {
				sopts.WatchDir = lcfg.LoadDir
			}
			sched = loader.NewScheduler(ld, sopts, logger)
			deps.Trigger = sched
		}
	}
	deps.Health = healthuc.New(pinger, lockInspector)

	server := chiTransport.NewServer(deps)

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

	g, gctx := errgroup.WithContext(ctx)

	if sched != nil {
		if err := sched.Start(gctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Received shutdown signal")

		if sched != nil {
			sched.Stop()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
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

			// Per-request logger with request_id; the responder picks it up from the context.
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.WithRequestLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

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
