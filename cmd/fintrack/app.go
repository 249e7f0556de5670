package main

import (
	"context"
	"errors"
	"fintrack/internal/config"
	"fintrack/internal/engine"
	"fintrack/internal/metrics"
	"fintrack/internal/repository"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/subcommands"
	"github.com/redis/go-redis/v9"
)

// app is the state shared by all commands of one invocation. It is passed
// to every command as the first Execute argument.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Collector
	out     io.Writer
	errOut  io.Writer

	// store is opened on first use so that help and usage never connect.
	store   repository.Store
	closers []func()
}

func newApp(cfg *config.Config, out, errOut io.Writer) (*app, error) {
	logger, err := newLogger(cfg.Log, errOut)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.NewCollector(),
		out:     out,
		errOut:  errOut,
	}, nil
}

func newLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// appFrom extracts the app passed to Commander.Execute.
func appFrom(args []interface{}) *app {
	if len(args) == 0 {
		panic("fintrack: command executed without app")
	}
	return args[0].(*app)
}

func (a *app) bookConfig() *engine.BookConfig {
	return engine.NewBookConfig(a.logger, a.metrics)
}

func (a *app) openStore(ctx context.Context) (repository.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	store, closers, err := openStore(ctx, a.cfg.Store, a.cfg.Cache, a.logger)
	if err != nil {
		return nil, err
	}
	a.store = store
	a.closers = append(a.closers, closers...)
	return store, nil
}

// loadBook loads the configured book. A book that was never saved starts
// empty.
func (a *app) loadBook(ctx context.Context) (*engine.Book, error) {
	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	book, err := store.Load(ctx, a.cfg.Book.Name, a.bookConfig())
	if errors.Is(err, repository.ErrBookNotFound) {
		a.logger.Info("starting new book", "book", a.cfg.Book.Name)
		return engine.NewBook(a.bookConfig()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load book %s: %w", a.cfg.Book.Name, err)
	}
	return book, nil
}

func (a *app) saveBook(ctx context.Context, book *engine.Book) error {
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if err := store.Save(ctx, a.cfg.Book.Name, book); err != nil {
		return fmt.Errorf("save book %s: %w", a.cfg.Book.Name, err)
	}
	a.logger.Debug("book saved", "book", a.cfg.Book.Name, "transactions", book.TransactionCount())
	return nil
}

// fail reports err and maps it to an exit status.
func (a *app) fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(a.errOut, "Error: %v\n", err)
	return subcommands.ExitFailure
}

// close releases connections and exports metrics.
func (a *app) close() {
	if path := a.cfg.Metrics.Textfile; path != "" {
		if err := a.metrics.WriteTextfile(path); err != nil {
			a.logger.Warn("write metrics textfile", "path", path, "error", err)
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// openStore builds the store described by cfg, wrapped with the Redis cache
// when one is configured. The returned closers must run on exit.
func openStore(ctx context.Context, cfg config.StoreConfig, cache config.CacheConfig, logger *slog.Logger) (repository.Store, []func(), error) {
	var (
		store   repository.Store
		closers []func()
	)

	switch cfg.Kind {
	case config.StoreSnapshot:
		store = repository.NewFileStore(cfg.Dir)
	case config.StoreTabular:
		store = repository.NewTabularStore(cfg.Dir)
	case config.StorePostgres:
		pool, err := repository.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, pool.Close)
		pg := repository.NewPostgresStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		store = pg
		logger.Debug("connected to PostgreSQL", "host", cfg.Database.Host, "database", cfg.Database.Name)
	default:
		return nil, nil, fmt.Errorf("unknown store kind %q", cfg.Kind)
	}

	if cache.RedisURL != "" {
		opt, err := redis.ParseURL(cache.RedisURL)
		if err != nil {
			for _, fn := range closers {
				fn()
			}
			return nil, nil, fmt.Errorf("invalid redis url: %w", err)
		}
		rdb := redis.NewClient(opt)
		closers = append(closers, func() { rdb.Close() })
		store = repository.NewCachedStore(store, rdb, cache.TTL, logger)
		logger.Debug("Redis cache enabled", "ttl", cache.TTL)
	}
	return store, closers, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err != nil {
			return config.Default(), nil
		}
		path = defaultConfigFile
	}
	return config.LoadAndValidate(path)
}
