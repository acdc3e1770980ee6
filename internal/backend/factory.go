package backend

import (
	"context"
	"fmt"
	"log/slog"

	"cashflow/internal/adapters"
	"cashflow/internal/cache"
	"cashflow/internal/core"
	"cashflow/internal/storage"
	"cashflow/internal/storage/memory"
	"cashflow/internal/storage/postgres"
)

// categoryCacheSize covers one entry per kind with headroom.
const categoryCacheSize = 8

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend opens the configured store and, when a cache TTL is set,
// fronts it with the category cache.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res *BackendResult
		err error
	)
	switch config.Type {
	case SQLiteBackend:
		res, err = f.createSQLiteBackend(config)
	case PostgresBackend:
		res, err = f.createPostgresBackend(ctx, config)
	case MemoryBackend:
		res, err = f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if config.CategoryCacheTTL > 0 {
		f.wrapWithCache(ctx, res, config)
	}
	return res, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{Store: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createPostgresBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := postgres.Connect(ctx, config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Postgres storage: %w", err)
	}

	f.logger.Info("Initialized Postgres backend")

	return &BackendResult{Store: store, Cleanup: store.Close}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	store := memory.NewFromFiles(dataDir)

	f.logger.Info("Initialized memory backend", "data_directory", dataDir)

	return &BackendResult{Store: store, Cleanup: store.Close}, nil
}

func (f *DefaultFactory) wrapWithCache(ctx context.Context, res *BackendResult, config Config) {
	categories := cache.NewLRUCache[[]core.Category](categoryCacheSize, config.CategoryCacheTTL)
	manager := cache.NewManager()
	manager.Register(categories)
	manager.StartCleanup(context.WithoutCancel(ctx), config.CategoryCacheTTL)

	inner := res.Cleanup
	res.Store = adapters.NewCachedStore(res.Store, categories)
	res.Cleanup = func() error {
		manager.Stop()
		st := categories.Stats()
		f.logger.Info("Category cache stopped", "size", st.Size, "hits", st.Hits, "misses", st.Misses)
		if inner != nil {
			return inner()
		}
		return nil
	}

	f.logger.Info("Category cache enabled", "ttl", config.CategoryCacheTTL)
}
