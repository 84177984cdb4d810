// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/kabir/a2a-tck/internal/api"
	"github.com/kabir/a2a-tck/internal/archive"
	"github.com/kabir/a2a-tck/internal/coverage"
	"github.com/kabir/a2a-tck/internal/mcpserver"
	"github.com/kabir/a2a-tck/internal/runservice"
	"github.com/kabir/a2a-tck/internal/source"
	"github.com/kabir/a2a-tck/internal/sse"
	"github.com/kabir/a2a-tck/internal/watch"
)

// Run starts the HTTP server mode with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("workspace_root", cfg.Workspace.Root),
		slog.String("baseline", cfg.Specs.Baseline),
		slog.String("latest", cfg.Specs.Latest),
		slog.String("manifest", cfg.Suite.Manifest),
		slog.String("log_level", cfg.App.LogLevel.String()))

	svc, store, src, err := buildService(cfg, logger, true)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	// Run initial analysis. A malformed spec must not keep the server from
	// starting: watch mode exists precisely so a fixed file re-triggers it.
	if _, err := svc.Run(ctx); err != nil {
		logger.Warn("initial analysis failed", slog.String("error", err.Error()))
	}

	// SSE broker.
	broker := sse.NewBroker()
	defer broker.Close()

	// Build API router.
	var archStore archive.Store
	if store != nil {
		archStore = store
	}
	apiRouter := api.NewRouter(svc, archStore, cfg.Auth.AuthEnabled(), cfg.Auth.Token, http.HandlerFunc(broker.ServeHTTP))

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start input watcher for automatic re-analysis.
	if cfg.Watch.Enabled {
		files, filesErr := inputFiles(src, cfg)
		if filesErr != nil {
			return filesErr
		}
		debounce := time.Duration(cfg.Watch.DebounceMS) * time.Millisecond
		g.Go(func() error {
			return watch.Watch(gCtx, files, debounce, logger, func() {
				res, runErr := svc.Run(gCtx)
				if runErr != nil {
					logger.Warn("re-analysis failed", slog.String("error", runErr.Error()))
					broker.PublishFailed(runErr.Error())
					return
				}
				broker.PublishCompleted(string(res.Report.Status), res.Report.Overall.Percent)
			})
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// Analyze performs a one-shot analysis and writes the JSON result to stdout.
func Analyze(ctx context.Context, cfg *Config) error {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))

	svc, store, _, err := buildService(cfg, logger, true)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	res, err := svc.Run(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// ServeMCP runs the MCP stdio server. Logs go to stderr since stdout
// carries the protocol.
func ServeMCP(ctx context.Context, cfg *Config) error {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	svc, store, _, err := buildService(cfg, logger, true)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	if _, err := svc.Run(ctx); err != nil {
		logger.Warn("initial analysis failed", slog.String("error", err.Error()))
	}

	return mcpserver.New(svc).ServeStdio()
}

// buildService wires the source loader, analyzer, and optional archive into
// a run service.
func buildService(cfg *Config, logger *slog.Logger, withArchive bool) (*runservice.Service, *archive.DB, *source.FS, error) {
	src, err := source.NewFS(cfg.Workspace.Root)
	if err != nil {
		return nil, nil, nil, err
	}

	var store *archive.DB
	if withArchive && cfg.SQLite.Path != "" {
		store, err = archive.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	analyzer := coverage.NewAnalyzer(coverage.Config{
		Target:            cfg.Analysis.CoverageTarget,
		CriticalUncovered: cfg.Analysis.CriticalUncovered,
	})

	paths := runservice.Paths{
		Baseline: cfg.Specs.Baseline,
		Latest:   cfg.Specs.Latest,
		Manifest: cfg.Suite.Manifest,
	}

	var archStore archive.Store
	if store != nil {
		archStore = store
	}
	svc := runservice.New(src, paths, analyzer, archStore, logger)
	return svc, store, src, nil
}

// inputFiles resolves the absolute paths of the three analysis inputs for
// the watcher.
func inputFiles(src *source.FS, cfg *Config) ([]string, error) {
	var out []string
	for _, rel := range []string{cfg.Specs.Baseline, cfg.Specs.Latest, cfg.Suite.Manifest} {
		abs, err := src.Abs(rel)
		if err != nil {
			return nil, err
		}
		out = append(out, abs)
	}
	return out, nil
}
