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

	"golang.org/x/sync/errgroup"

	"github.com/Bahjat/seo-monitor/internal/account"
	"github.com/Bahjat/seo-monitor/internal/analyzer"
	"github.com/Bahjat/seo-monitor/internal/model"
	"github.com/Bahjat/seo-monitor/internal/pageanalyzer"
	"github.com/Bahjat/seo-monitor/internal/platform/config"
	"github.com/Bahjat/seo-monitor/internal/platform/logger"
	"github.com/Bahjat/seo-monitor/internal/platform/middleware"
	"github.com/Bahjat/seo-monitor/internal/storage/postgres"
	"github.com/Bahjat/seo-monitor/internal/storage/sqlite"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("failed to close store", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newHandler(cfg, log, store),
		ReadHeaderTimeout: 10 * time.Second,
		// Analyses may run for the full analysis timeout before writing.
		WriteTimeout: cfg.AnalyzeTimeout + 10*time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", srv.Addr, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newHandler(cfg config.Config, log *slog.Logger, store model.Store) http.Handler {
	fetcher := pageanalyzer.NewLoggingFetcher(
		pageanalyzer.NewHTTPClient(
			pageanalyzer.WithTimeout(cfg.FetchTimeout),
			pageanalyzer.WithMaxRedirects(cfg.MaxRedirects),
			pageanalyzer.WithPrivateNetworks(cfg.AllowPrivateTargets),
		),
		log,
	)
	engine := pageanalyzer.NewEngine(fetcher)

	accounts := account.NewService(store, store, log, cfg.SessionTTL)
	accountTransport := account.NewTransport(accounts, log, cfg.CookieSecure)

	analyses := analyzer.NewService(engine, store, log, cfg.AnalyzeTimeout)
	analyzerTransport := analyzer.NewTransport(analyses, log)

	limiter := middleware.NewClientLimiter(cfg.AnalyzeRate, cfg.AnalyzeBurst)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	accountTransport.RegisterRoutes(mux)
	analyzerTransport.RegisterRoutes(mux, accountTransport.RequireUser, middleware.RateLimit(limiter, log))

	return middleware.RequestID(middleware.Logging(log)(mux))
}

func openStore(ctx context.Context, cfg config.Config) (model.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		store, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return store, nil
	default:
		db := sqlite.NewDB(cfg.SQLitePath)
		if err := db.Open(); err != nil {
			return nil, fmt.Errorf("open sqlite at %q: %w", cfg.SQLitePath, err)
		}
		return db, nil
	}
}
