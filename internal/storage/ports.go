package storage

import (
	"context"

	"cashflow/internal/core"

	"github.com/shopspring/decimal"
)

// Ports implemented by every row store backend.
type (
	// AggregateReader answers the grouped-sum queries behind every report.
	// All methods tolerate an empty store and return zero values.
	AggregateReader interface {
		// SumAmount totals one kind over an inclusive range.
		SumAmount(ctx context.Context, kind core.Kind, r core.DateRange) (decimal.Decimal, error)
		// SumByCategory returns one row per category with matches, ordered by category name.
		SumByCategory(ctx context.Context, kind core.Kind, r core.DateRange) ([]core.LabeledAmount, error)
		// SumByDay returns sparse per-day sums keyed YYYY-MM-DD for days >= start.
		SumByDay(ctx context.Context, kind core.Kind, start core.Date) (map[string]decimal.Decimal, error)
		// SumByMonth returns sparse per-month sums keyed YYYY-MM, restricted
		// to the limit most recent months. limit <= 0 means no cap.
		SumByMonth(ctx context.Context, kind core.Kind, limit int) (map[string]decimal.Decimal, error)
	}

	TransactionLister interface {
		ListTransactions(ctx context.Context, kind core.Kind, f core.Filter) ([]core.Transaction, error)
	}

	CategoryLister interface {
		// ListCategories returns categories of a kind ordered by name.
		ListCategories(ctx context.Context, kind core.Kind) ([]core.Category, error)
	}

	CategorySeeder interface {
		// EnsureCategory creates the category unless one with the same
		// name (case-insensitive) already exists.
		EnsureCategory(ctx context.Context, kind core.Kind, name string) (core.Category, error)
	}

	TransactionWriter interface {
		AddTransaction(ctx context.Context, tx core.Transaction) (int64, error)
	}

	Store interface {
		AggregateReader
		TransactionLister
		CategoryLister
		CategorySeeder
		TransactionWriter
		Ping(ctx context.Context) error
		Close() error
	}
)
