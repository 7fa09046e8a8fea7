/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the bracket engine HTTP server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load config (YAML file, then environment overrides, then flags)
  2. Build the zap logger
  3. Open the calculation store (memory, sqlite or mongo)
  4. Open the result cache (memory, redis or none)
  5. Register built-in tables, then stored tables, then table files
  6. Start the table watcher when enabled
  7. Serve HTTP until SIGINT/SIGTERM

FLAGS:
  --config  Config file path (default: bracket.yaml, missing file = defaults)
  --addr    Listen address, overrides config
  --db      SQLite database path, overrides config. ":memory:" works.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests (server.shutdown_timeout)
  3. Stop the watcher and rate limiter
  4. Close store and cache connections

EXAMPLES:
  ./server --config=./bracket.yaml
  ./server --db=":memory:" --addr=:3000
  BRACKET_STORE=mongo MONGO_URI=mongodb://localhost:27017 ./server

SEE ALSO:
  - config/config.go: Config file and environment variables
  - api/server.go: Router configuration
  - factory/watch.go: Table file hot reload
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fiscalkit/bracket-engine/api"
	"github.com/fiscalkit/bracket-engine/cache"
	"github.com/fiscalkit/bracket-engine/config"
	"github.com/fiscalkit/bracket-engine/factory"
	"github.com/fiscalkit/bracket-engine/generic"
	memstore "github.com/fiscalkit/bracket-engine/generic/store"
	"github.com/fiscalkit/bracket-engine/italy"
	"github.com/fiscalkit/bracket-engine/spain"
	"github.com/fiscalkit/bracket-engine/store/mongo"
	"github.com/fiscalkit/bracket-engine/store/sqlite"
	"github.com/fiscalkit/bracket-engine/uk"
)

var (
	configPath string
	addrFlag   string
	dbFlag     string
)

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Serve the progressive bracket tax API",
	Long: `Serves bracket evaluation, jurisdiction calculators and saved
calculations over HTTP.

Example:
  server --config bracket.yaml
  server --db :memory: --addr :3000`,
	SilenceUsage: true,
	RunE:         runServer,
}

func main() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "bracket.yaml", "Config file path")
	rootCmd.Flags().StringVar(&addrFlag, "addr", "", "Listen address (overrides config)")
	rootCmd.Flags().StringVar(&dbFlag, "db", "", "SQLite database path (overrides config)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if addrFlag != "" {
		cfg.Server.Addr = addrFlag
	}
	if dbFlag != "" {
		cfg.Store.Driver = "sqlite"
		cfg.Store.SQLitePath = dbFlag
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := cfg.Log.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
	}
	defer closeStore()

	resultCache, closeCache := openCache(ctx, cfg.Cache, cfg.GetCacheTTL(), logger)
	defer closeCache()

	reg := generic.NewRegistry()
	italy.Register(reg)
	spain.Register(reg)
	uk.Register(reg)

	handler := api.NewHandler(reg, store, resultCache, logger)
	if err := loadTables(ctx, cfg.Tables, handler, logger); err != nil {
		return err
	}

	var limiter *api.RateLimiter
	if cfg.Server.RateLimit > 0 {
		limiter = api.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst)
		defer limiter.Stop()
	}

	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Limiter:        limiter,
		Logger:         logger,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
		IdleTimeout:  2 * cfg.GetWriteTimeout(),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server starting",
			zap.String("addr", cfg.Server.Addr),
			zap.String("store", cfg.Store.Driver),
			zap.String("cache", cfg.Cache.Driver),
			zap.Int("tables", len(reg.List())),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if cfg.Tables.Watch && cfg.Tables.Dir != "" {
		watcher := factory.NewWatcher(cfg.Tables.Dir, reg, logger)
		watcher.OnReload = func(t generic.Table) {
			if handler.Tables != nil {
				if err := handler.Tables.SaveTable(gctx, t); err != nil {
					logger.Warn("failed to persist reloaded table", zap.String("table", string(t.ID)), zap.Error(err))
				}
			}
			if resultCache != nil {
				if err := resultCache.Flush(gctx); err != nil {
					logger.Warn("cache flush failed", zap.Error(err))
				}
			}
		}
		g.Go(func() error {
			return watcher.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

// openStore returns the configured calculation store and its closer.
func openStore(ctx context.Context, cfg config.StoreConfig) (generic.Store, func(), error) {
	switch cfg.Driver {
	case "memory":
		return memstore.NewMemory(), func() {}, nil
	case "mongo":
		s, err := mongo.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close(context.Background()) }, nil
	default:
		s, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	}
}

// openCache returns the configured cache, or nil when caching is off. An
// unreachable redis falls back to the in-memory cache.
func openCache(ctx context.Context, cfg config.CacheConfig, ttl time.Duration, logger *zap.Logger) (cache.Cache, func()) {
	switch cfg.Driver {
	case "none":
		return nil, func() {}
	case "redis":
		r := cache.NewRedis(cfg.RedisAddr, ttl)
		if err := r.Ping(ctx); err != nil {
			logger.Warn("redis unavailable, using memory cache",
				zap.String("addr", cfg.RedisAddr),
				zap.Error(err),
			)
			r.Close()
			return cache.NewMemory(ttl), func() {}
		}
		return r, func() { r.Close() }
	default:
		return cache.NewMemory(ttl), func() {}
	}
}

// loadTables registers tables saved through the API, then table files.
// Files win over stored versions of the same id and year.
func loadTables(ctx context.Context, cfg config.TablesConfig, h *api.Handler, logger *zap.Logger) error {
	if h.Tables != nil {
		stored, err := h.Tables.LoadTables(ctx)
		if err != nil {
			return fmt.Errorf("failed to load stored tables: %w", err)
		}
		for _, t := range stored {
			if err := h.Registry.Register(t); err != nil {
				logger.Warn("skipping stored table", zap.String("table", string(t.ID)), zap.Error(err))
			}
		}
		logger.Info("stored tables loaded", zap.Int("count", len(stored)))
	}

	if cfg.Dir == "" {
		return nil
	}
	tables, err := factory.LoadDir(cfg.Dir)
	if err != nil {
		// Broken files are reported; the valid ones are still served.
		logger.Warn("some table files failed to load", zap.String("dir", cfg.Dir), zap.Error(err))
	}
	for _, t := range tables {
		if err := h.Registry.Register(t); err != nil {
			logger.Warn("skipping table file", zap.String("table", string(t.ID)), zap.Error(err))
		}
	}
	logger.Info("table files loaded", zap.String("dir", cfg.Dir), zap.Int("count", len(tables)))
	return nil
}
