// Package internal provides the main application initialization and runtime logic.
package internal

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/gebo/internal/api"
	"github.com/starford/gebo/internal/comps"
	"github.com/starford/gebo/internal/index"
	"github.com/starford/gebo/internal/sse"
	"github.com/starford/gebo/internal/storage"
)

// Option adjusts how Run assembles the Gebo server.
type Option func(*settings)

type settings struct {
	config *Config
}

// WithConfig supplies the loaded configuration to Run.
func WithConfig(cfg *Config) Option {
	return func(s *settings) {
		s.config = cfg
	}
}

// Run wires the library store, search index, SSE broker and HTTP
// server together and blocks until ctx is cancelled or a fatal
// error occurs.
func Run(ctx context.Context, opts ...Option) error {
	s := &settings{}

	for _, opt := range opts {
		opt(s)
	}

	if s.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := s.config

	logger := NewLogger(&cfg.App)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("library_path", cfg.Library.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure library directory exists.
	if err := os.MkdirAll(cfg.Library.Path, 0o755); err != nil {
		return fmt.Errorf("create library dir: %w", err)
	}

	// Initialize storage and load the store.
	fs, err := storage.NewFS(cfg.Library.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	repo := comps.New(fs)
	if err := repo.Load(); err != nil {
		return fmt.Errorf("load store: %w", err)
	}

	// Initialize the SQLite search index and bring it up to date.
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	if err := index.Sync(db, repo, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)

	// Debounced autosave for note edits.
	saver := comps.NewAutosave(repo, comps.DefaultAutosaveDelay, func(saveErr error) {
		logger.Error("autosave failed", slog.String("error", saveErr.Error()))
	})

	// Build API handlers and router.
	h := api.NewHandler(repo, saver, db, fs, broker, logger)
	ih := api.NewImageHandler(fs, logger)
	apiRouter := api.NewRouter(h, ih, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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

	// Watch the store file for external edits.
	g.Go(func() error {
		return index.Watch(gCtx, db, repo, fs, logger, func() {
			broker.Publish(sse.Event{Type: "library.changed", Data: map[string]string{}})
		})
	})

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

		// Pending note edits must not be lost on exit.
		if err := saver.Flush(); err != nil {
			logger.Error("final flush failed", slog.String("error", err.Error()))
		}

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

	broker.Close()
	logger.Info("Server stopped successfully")
	return nil
}
