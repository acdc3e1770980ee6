// Package report turns raw row store sums into the report shapes served to
// clients: range totals, category breakdowns and dense time series.
package report

import (
	"time"

	"cashflow/internal/core"
)

// Clock returns the current instant. The calendar day is taken in the
// instant's own location.
type Clock func() time.Time

// Resolver turns raw, possibly malformed, date parameters into concrete ranges.
// It never fails; bad input degrades to a default range.
type Resolver struct {
	now Clock
}

func NewResolver(now Clock) Resolver {
	if now == nil {
		now = time.Now
	}
	return Resolver{now: now}
}

// Today returns the current calendar day.
func (r Resolver) Today() core.Date {
	return core.DateOf(r.now())
}

// Default is the first day of the current month through today.
func (r Resolver) Default() core.DateRange {
	today := r.Today()
	return core.DateRange{From: today.FirstOfMonth(), To: today}
}

// Resolve parses YYYY-MM-DD bounds. A missing or unparseable bound, or an
// inverted range, yields the default range.
func (r Resolver) Resolve(fromRaw, toRaw string) core.DateRange {
	from, err := core.ParseDate(fromRaw)
	if err != nil {
		return r.Default()
	}
	to, err := core.ParseDate(toRaw)
	if err != nil {
		return r.Default()
	}
	if from.After(to) {
		return r.Default()
	}
	return core.DateRange{From: from, To: to}
}

// ResolveMonth parses a YYYY-MM token into the full calendar month.
// Anything that is not a valid 7 character month selects the current month.
func (r Resolver) ResolveMonth(monthRaw string) core.DateRange {
	first := r.Today().FirstOfMonth()
	if len(monthRaw) == 7 {
		if m, err := core.ParseMonth(monthRaw); err == nil {
			first = m
		}
	}
	return core.DateRange{From: first, To: first.LastOfMonth()}
}
