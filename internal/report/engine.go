package report

import (
	"context"
	"fmt"
	"slices"

	"cashflow/internal/core"
	"cashflow/internal/storage"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type (
	Totals struct {
		Range   core.DateRange
		Expense decimal.Decimal
		Income  decimal.Decimal
		Net     decimal.Decimal // Income - Expense, unrounded
	}

	Breakdown struct {
		Kind  core.Kind
		Range core.DateRange
		Items []core.LabeledAmount // descending by value
	}

	DailyPoint struct {
		Day     string
		Income  decimal.Decimal
		Expense decimal.Decimal
	}

	MonthPoint struct {
		Month   string
		Income  decimal.Decimal
		Expense decimal.Decimal
		Net     decimal.Decimal
	}
)

// Engine computes reports on top of an AggregateReader. It holds no state
// between calls and caches nothing.
type Engine struct {
	store    storage.AggregateReader
	resolver Resolver
}

type Option func(*Engine)

// WithClock overrides the source of "today".
func WithClock(now Clock) Option {
	return func(e *Engine) {
		e.resolver = NewResolver(now)
	}
}

func NewEngine(store storage.AggregateReader, opts ...Option) *Engine {
	e := &Engine{store: store, resolver: NewResolver(nil)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Resolver exposes the engine's range resolver so callers share its clock.
func (e *Engine) Resolver() Resolver {
	return e.resolver
}

// Totals sums both kinds over r concurrently. Values are not rounded.
func (e *Engine) Totals(ctx context.Context, r core.DateRange) (Totals, error) {
	inc, exp, err := bothKinds(ctx, func(ctx context.Context, kind core.Kind) (decimal.Decimal, error) {
		v, err := e.store.SumAmount(ctx, kind, r)
		if err != nil {
			return decimal.Zero, fmt.Errorf("sum %s: %w", kind, err)
		}
		return v, nil
	})
	if err != nil {
		return Totals{}, err
	}
	return Totals{Range: r, Expense: exp, Income: inc, Net: inc.Sub(exp)}, nil
}

// TotalsFor resolves raw bounds and computes totals.
func (e *Engine) TotalsFor(ctx context.Context, fromRaw, toRaw string) (Totals, error) {
	return e.Totals(ctx, e.resolver.Resolve(fromRaw, toRaw))
}

// CategoryBreakdown returns per-category sums for one calendar month,
// largest first. Equal sums keep the store's emission order.
func (e *Engine) CategoryBreakdown(ctx context.Context, kind core.Kind, monthRaw string) (Breakdown, error) {
	r := e.resolver.ResolveMonth(monthRaw)
	items, err := e.store.SumByCategory(ctx, kind, r)
	if err != nil {
		return Breakdown{}, fmt.Errorf("sum %s by category: %w", kind, err)
	}
	sorted := slices.Clone(items)
	if sorted == nil {
		sorted = []core.LabeledAmount{}
	}
	slices.SortStableFunc(sorted, func(a, b core.LabeledAmount) int {
		return b.Value.Cmp(a.Value)
	})
	return Breakdown{Kind: kind, Range: r, Items: sorted}, nil
}

// DailyCashflow returns one point per day for the last days days, today
// included. days is clamped to [MinDays, MaxDays].
func (e *Engine) DailyCashflow(ctx context.Context, days int) ([]DailyPoint, error) {
	days = ClampDays(days)
	start := e.resolver.Today().AddDays(-(days - 1))

	inc, exp, err := bothKinds(ctx, func(ctx context.Context, kind core.Kind) (map[string]decimal.Decimal, error) {
		m, err := e.store.SumByDay(ctx, kind, start)
		if err != nil {
			return nil, fmt.Errorf("sum %s by day: %w", kind, err)
		}
		return m, nil
	})
	if err != nil {
		return nil, err
	}

	buckets := Densify(DayKeys(start, days), inc, exp)
	out := make([]DailyPoint, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, DailyPoint{
			Day:     b.Key,
			Income:  core.RoundMoney(b.Values[0]),
			Expense: core.RoundMoney(b.Values[1]),
		})
	}
	return out, nil
}

// MonthlyTrend returns per-month totals for at most months months, oldest
// first. Each kind is limited to its own most recent months before the
// union is taken and cut again. months is clamped to [MinMonths, MaxMonths].
func (e *Engine) MonthlyTrend(ctx context.Context, months int) ([]MonthPoint, error) {
	months = ClampMonths(months)

	inc, exp, err := bothKinds(ctx, func(ctx context.Context, kind core.Kind) (map[string]decimal.Decimal, error) {
		m, err := e.store.SumByMonth(ctx, kind, months)
		if err != nil {
			return nil, fmt.Errorf("sum %s by month: %w", kind, err)
		}
		return m, nil
	})
	if err != nil {
		return nil, err
	}

	buckets := Densify(LastKeys(months, inc, exp), inc, exp)
	out := make([]MonthPoint, 0, len(buckets))
	for _, b := range buckets {
		i := core.RoundMoney(b.Values[0])
		x := core.RoundMoney(b.Values[1])
		out = append(out, MonthPoint{Month: b.Key, Income: i, Expense: x, Net: i.Sub(x)})
	}
	return out, nil
}

// bothKinds runs fn for income and expense concurrently. Either failure
// fails the whole call.
func bothKinds[T any](ctx context.Context, fn func(context.Context, core.Kind) (T, error)) (inc, exp T, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := fn(gctx, core.KindIncome)
		inc = v
		return err
	})
	g.Go(func() error {
		v, err := fn(gctx, core.KindExpense)
		exp = v
		return err
	})
	if err = g.Wait(); err != nil {
		var zero T
		return zero, zero, err
	}
	return inc, exp, nil
}
