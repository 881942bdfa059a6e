package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jcmexdev/storefront/internal/coordinator/sagalog"
	sagalogsqlite "github.com/jcmexdev/storefront/internal/coordinator/sagalog/sqlite"
	"github.com/jcmexdev/storefront/internal/gateway/httpx"
	orderapp "github.com/jcmexdev/storefront/internal/order/app"
	"github.com/jcmexdev/storefront/internal/pkg/config"
	"github.com/jcmexdev/storefront/internal/pkg/kvstore"
	"github.com/jcmexdev/storefront/internal/pkg/telemetry"
	"github.com/jcmexdev/storefront/internal/session"
)

const namespace = "storefront"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	telemetry.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("storefront stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	if cfg.OTelEnabled {
		shutdown, err := telemetry.SetupTracer(ctx, telemetry.TracerConfig{
			ServiceName: cfg.OTelServiceName,
			Endpoint:    cfg.OTelEndpoint,
			Environment: cfg.OTelEnvironment,
		})
		if err != nil {
			return fmt.Errorf("initialise tracer: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Error("tracer shutdown error", "error", err)
			}
		}()
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var sagaLog sagalog.Repository
	if cfg.SagaLogPath != "" {
		repo, err := sagalogsqlite.Open(cfg.SagaLogPath)
		if err != nil {
			return fmt.Errorf("open saga log: %w", err)
		}
		defer repo.Close()
		sagaLog = repo
	}

	orders := orderapp.NewService(store, orderapp.Options{Latency: cfg.OrderLatency})
	if err := orders.LoadHistory(ctx); err != nil {
		return fmt.Errorf("load order history: %w", err)
	}

	registry := session.NewRegistry(store, orders, session.Options{
		SagaLog:           sagaLog,
		PlaceOrderTimeout: cfg.PlaceOrderTimeout,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpx.NewRouter(httpx.NewHandler(registry, orders)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("storefront http running", "addr", cfg.HTTPAddr, "storage", cfg.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		slog.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openStore builds the configured key-value backend. The returned func
// releases it.
func openStore(ctx context.Context, cfg config.Config) (kvstore.Store, func(), error) {
	switch cfg.StorageBackend {
	case config.BackendSQLite:
		s, err := kvstore.OpenSQLite(cfg.SQLitePath, namespace)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, closer(s, "sqlite"), nil
	case config.BackendRedis:
		s := kvstore.NewRedisStore(cfg.RedisAddr, namespace)
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, nil, fmt.Errorf("ping redis at %s: %w", cfg.RedisAddr, err)
		}
		return s, closer(s, "redis"), nil
	default:
		return kvstore.NewMemoryStore(namespace), func() {}, nil
	}
}

func closer(c io.Closer, name string) func() {
	return func() {
		if err := c.Close(); err != nil {
			slog.Error("failed to close store", "backend", name, "error", err)
		}
	}
}
