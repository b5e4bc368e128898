package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/mvarkas/memex/internal/api"
	"github.com/mvarkas/memex/internal/embed"
	"github.com/mvarkas/memex/internal/index"
	"github.com/mvarkas/memex/internal/mcpserver"
	"github.com/mvarkas/memex/internal/search"
	"github.com/mvarkas/memex/internal/sse"
)

// Run starts the application with the given options. The MCP stdio
// server is always started; the HTTP API and per-vault watchers are
// opt-in via configuration.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Structured JSON logger on stderr: stdout belongs to the MCP
	// stdio transport.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	vaults := cfg.VaultMap()

	logger.Info("configuration loaded",
		slog.Int("vaults", len(vaults)),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Bool("http_enabled", cfg.App.HTTP.Enabled),
		slog.Bool("watch", cfg.App.Watch),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := os.MkdirAll(filepath.Dir(cfg.SQLite.Path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	var embedder embed.Embedder
	if cfg.Embedder.Enabled {
		embedder = embed.NewOllama(cfg.Embedder.Ollama)
	} else {
		logger.Info("embedder disabled; retrieval is lexical only")
	}

	engine := search.NewEngine(db, embedder, vaults, logger)

	// Initial sync so the first query does not pay the full cost.
	if len(vaults) > 0 {
		index.IndexAllVaults(ctx, db, embedder, vaults, logger, nil)
	} else {
		logger.Warn("no vaults configured", slog.String("hint", "set "+VaultsEnvVar))
	}

	g, gCtx := errgroup.WithContext(ctx)

	broker := sse.NewBroker()
	defer broker.Close()

	// Optional per-vault watchers keep the index warm between queries.
	if cfg.App.Watch {
		onSync := func(vault string, stats index.Stats) {
			broker.PublishIndexSync(vault, stats)
		}
		for id, root := range vaults {
			g.Go(func() error {
				if err := index.Watch(gCtx, db, embedder, id, root, logger, onSync); err != nil {
					logger.Warn("watcher failed", slog.String("vault", id), slog.String("error", err.Error()))
				}
				return nil
			})
		}
	}

	// Optional HTTP API.
	var httpServer *http.Server
	if cfg.App.HTTP.Enabled {
		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.RealIP)
		r.Use(middleware.Recoverer)

		r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})

		r.Mount("/api", api.NewRouter(engine, db, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker))

		httpServer = &http.Server{
			Addr:    cfg.App.HTTP.Address(),
			Handler: r,
		}

		g.Go(func() error {
			logger.Info("starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("HTTP server error: %w", err)
			}
			return nil
		})
	}

	// MCP stdio server: the primary tool surface.
	mcpSrv := mcpserver.New(engine)
	g.Go(func() error {
		logger.Info("starting MCP server on stdio")
		if err := mcpSrv.ServeStdio(); err != nil {
			return fmt.Errorf("MCP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
		}

		if httpServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
			}
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("server stopped")
	return nil
}
