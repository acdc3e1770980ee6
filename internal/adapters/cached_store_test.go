package adapters

import (
	"context"
	"testing"
	"time"

	"cashflow/internal/cache"
	"cashflow/internal/core"
	"cashflow/internal/storage"
	"cashflow/internal/storage/memory"
)

type countingStore struct {
	storage.Store
	listCalls int
}

func (c *countingStore) ListCategories(ctx context.Context, kind core.Kind) ([]core.Category, error) {
	c.listCalls++
	return c.Store.ListCategories(ctx, kind)
}

func TestCachedStore_ListCategories(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{Store: memory.New()}
	s := NewCachedStore(inner, cache.NewLRUCache[[]core.Category](4, time.Minute))

	first, err := s.ListCategories(ctx, core.KindExpense)
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	second, err := s.ListCategories(ctx, core.KindExpense)
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	if inner.listCalls != 1 {
		t.Errorf("inner ListCategories called %d times, want 1", inner.listCalls)
	}
	if len(first) != len(second) {
		t.Errorf("cached list length = %d, want %d", len(second), len(first))
	}

	if len(second) > 0 {
		second[0].Name = "mutated"
		third, _ := s.ListCategories(ctx, core.KindExpense)
		if third[0].Name == "mutated" {
			t.Error("cached slice was mutated through a returned copy")
		}
	}

	if _, err := s.ListCategories(ctx, core.KindIncome); err != nil {
		t.Fatalf("ListCategories(income) error = %v", err)
	}
	if inner.listCalls != 2 {
		t.Errorf("inner ListCategories called %d times, want 2", inner.listCalls)
	}
}

func TestCachedStore_EnsureCategoryInvalidates(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{Store: memory.New()}
	s := NewCachedStore(inner, cache.NewLRUCache[[]core.Category](4, time.Minute))

	before, err := s.ListCategories(ctx, core.KindIncome)
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	if _, err := s.EnsureCategory(ctx, core.KindIncome, "Scholarship"); err != nil {
		t.Fatalf("EnsureCategory() error = %v", err)
	}
	after, err := s.ListCategories(ctx, core.KindIncome)
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	if len(after) != len(before)+1 {
		t.Errorf("categories after ensure = %d, want %d", len(after), len(before)+1)
	}
	if inner.listCalls != 2 {
		t.Errorf("inner ListCategories called %d times, want 2", inner.listCalls)
	}
}
