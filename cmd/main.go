package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/bakery/internal/adapters/http/api"
	"github.com/okian/bakery/internal/adapters/http/site"
	"github.com/okian/bakery/internal/adapters/http/swagger"
	repository "github.com/okian/bakery/internal/adapters/repository"
	"github.com/okian/bakery/internal/adapters/repository/migrate"
	app "github.com/okian/bakery/internal/app"
	"github.com/okian/bakery/internal/config"
	"github.com/okian/bakery/pkg/logger"
	"github.com/okian/bakery/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "bakery api exited", logger.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

// run serves the API until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config) error {
	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return err
	}
	log := logger.Named("bakery")

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error(ctx, "close store failed", logger.Error(err))
		}
	}()

	svc := app.New(store,
		app.WithLogger(log.Named("service")),
		app.WithRefreshInterval(cfg.MetricsInterval()),
	)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)

	handler, err := newHandler(ctx, cfg, svc, log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("log_level", logger.Level().String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for shutdown signal or a listener failure
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// openStore connects to the configured database and applies pending
// migrations when auto_migrate is set.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (*repository.GormStore, error) {
	store, err := repository.Open(ctx, cfg.DatabaseURL,
		repository.WithLogger(log.Named("gorm")),
		repository.WithSlowQueryThreshold(cfg.SlowQueryThreshold()),
		repository.WithMaxOpenConns(cfg.DBMaxOpenConns),
	)
	if err != nil {
		return nil, err
	}
	log.Info(ctx, "database connected", logger.String("driver", store.Driver()))

	if !cfg.AutoMigrate {
		return store, nil
	}
	runner := migrate.NewRunner(store.DB(), migrate.Schema(), cfg.MigrationTable, migrate.WithLogger(log.Named("migrate")))
	applied, err := runner.Migrate(ctx)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	log.Info(ctx, "schema up to date", logger.Int("applied", len(applied)))
	return store, nil
}

// newHandler registers every route on a fresh mux and wraps it with the
// request middleware.
func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service, log logger.Logger) (http.Handler, error) {
	doc, err := swagger.Load()
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	site.Register(ctx, mux)
	swagger.Register(ctx, mux)

	apiServer := api.NewServer(svc, svc,
		api.WithRequestTimeout(cfg.RequestTimeout()),
		api.WithLogger(log.Named("http")),
	)
	apiServer.Register(ctx, mux)

	log.Debug(ctx, "routes registered",
		logger.String("api_version", doc.Info.Version),
		logger.Any("routes", doc.Routes()),
	)
	return apiServer.Wrap(mux), nil
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		// Calculate average GC pause time
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
