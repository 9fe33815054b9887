// Command smsrelay runs the SMS-to-email relay HTTP service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/xraph/smsrelay"
	"github.com/xraph/smsrelay/api"
	"github.com/xraph/smsrelay/internal/config"
	"github.com/xraph/smsrelay/internal/logger"
	"github.com/xraph/smsrelay/observability"
	"github.com/xraph/smsrelay/store"
	"github.com/xraph/smsrelay/store/memory"
	"github.com/xraph/smsrelay/store/mongo"
	"github.com/xraph/smsrelay/store/postgres"
	redisstore "github.com/xraph/smsrelay/store/redis"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "smsrelay:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			log.Error("close store", "error", cerr)
		}
	}()

	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate %s store: %w", cfg.StoreDriver, err)
	}
	log.Info("store ready", "driver", cfg.StoreDriver)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	relay, err := smsrelay.New(
		smsrelay.WithStore(st),
		smsrelay.WithLogger(log),
		smsrelay.WithDeliveryTimeout(cfg.DeliveryTimeout),
		smsrelay.WithDeliveryRateLimit(cfg.DeliveryRateLimit),
		smsrelay.WithMetrics(observability.NewMetrics(reg)),
		smsrelay.WithTracer(observability.NewTracer()),
	)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.Handle("/", api.NewHandler(relay, log, api.WithCORSOrigins(cfg.CORSOrigins...)))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", "timeout", cfg.ShutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("shutdown complete")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		db, err := mongo.Open(ctx, cfg.MongoURL, cfg.DBName)
		if err != nil {
			return nil, err
		}
		return mongo.New(db), nil
	case config.DriverRedis:
		kvs, err := redisstore.Open(ctx, cfg.RedisURL())
		if err != nil {
			return nil, err
		}
		return redisstore.New(kvs), nil
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return postgres.New(db), nil
	case config.DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
