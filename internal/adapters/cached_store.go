// Package adapters wraps a storage.Store with cross-cutting behavior.
package adapters

import (
	"context"
	"log/slog"

	"cashflow/internal/cache"
	"cashflow/internal/core"
	"cashflow/internal/storage"
)

// CachedStore serves category filter choices from an LRU cache and passes
// every other call through. Creating a category drops its kind's entry.
type CachedStore struct {
	storage.Store
	categories cache.Cache[[]core.Category]
}

var _ storage.Store = (*CachedStore)(nil)

func NewCachedStore(store storage.Store, categories cache.Cache[[]core.Category]) *CachedStore {
	return &CachedStore{Store: store, categories: categories}
}

func (s *CachedStore) ListCategories(ctx context.Context, kind core.Kind) ([]core.Category, error) {
	key := string(kind)
	if cats, ok := s.categories.Get(key); ok {
		return cloneCategories(cats), nil
	}
	cats, err := s.Store.ListCategories(ctx, kind)
	if err != nil {
		return nil, err
	}
	s.categories.Set(key, cloneCategories(cats))
	slog.DebugContext(ctx, "Category list cached", "kind", kind, "count", len(cats))
	return cats, nil
}

func (s *CachedStore) EnsureCategory(ctx context.Context, kind core.Kind, name string) (core.Category, error) {
	c, err := s.Store.EnsureCategory(ctx, kind, name)
	if err != nil {
		return core.Category{}, err
	}
	s.categories.Delete(string(kind))
	return c, nil
}

func cloneCategories(in []core.Category) []core.Category {
	out := make([]core.Category, len(in))
	copy(out, in)
	return out
}
