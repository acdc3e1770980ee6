package core

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// SortOrder orders transactions by date, then id.
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

// ListViewLimit caps interactive transaction listings.
const ListViewLimit = 200

// Filter selects transactions of one kind. All set fields must match.
// The zero value matches everything in ascending order with no limit.
//
// Filters are values; every builder method returns a modified copy.
type Filter struct {
	From       *Date
	To         *Date
	CategoryID *int64
	Limit      int
	Order      SortOrder
}

func NewFilter() Filter {
	return Filter{}
}

func (f Filter) Since(d Date) Filter {
	f.From = &d
	return f
}

func (f Filter) Until(d Date) Filter {
	f.To = &d
	return f
}

func (f Filter) InCategory(id int64) Filter {
	f.CategoryID = &id
	return f
}

func (f Filter) WithLimit(n int) Filter {
	f.Limit = n
	return f
}

func (f Filter) Descending() Filter {
	f.Order = Descending
	return f
}

// FilterFromQuery builds a filter from raw optional request values.
// Each bound is parsed on its own; an unparseable bound is treated as absent.
// The category applies only when it is made entirely of digits.
func FilterFromQuery(fromRaw, toRaw, categoryRaw string) Filter {
	f := NewFilter()
	if d, err := ParseDate(fromRaw); err == nil {
		f = f.Since(d)
	}
	if d, err := ParseDate(toRaw); err == nil {
		f = f.Until(d)
	}
	if id, ok := parseDigits(categoryRaw); ok {
		f = f.InCategory(id)
	}
	return f
}

func parseDigits(s string) (int64, bool) {
	if s == "" || strings.TrimLeft(s, "0123456789") != "" {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Match reports whether tx satisfies every set predicate.
func (f Filter) Match(tx Transaction) bool {
	if f.From != nil && tx.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && tx.Date.After(*f.To) {
		return false
	}
	if f.CategoryID != nil && tx.CategoryID != *f.CategoryID {
		return false
	}
	return true
}

// Apply filters, orders and limits txs in memory. The input is not modified.
func (f Filter) Apply(txs []Transaction) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if f.Match(tx) {
			out = append(out, tx)
		}
	}
	slices.SortFunc(out, func(a, b Transaction) int {
		c := a.Date.Compare(b.Date.Time)
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if f.Order == Descending {
			return -c
		}
		return c
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

// BoundStrings returns the raw bounds for file naming, empty when absent.
func (f Filter) BoundStrings() (from, to string) {
	if f.From != nil {
		from = f.From.String()
	}
	if f.To != nil {
		to = f.To.String()
	}
	return from, to
}
