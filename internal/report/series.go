package report

import (
	"iter"
	"slices"

	"cashflow/internal/core"

	"github.com/shopspring/decimal"
)

// Bucket is one point of a dense series. Values holds one entry per sparse
// source, in the order the sources were given to Densify.
type Bucket struct {
	Key    string
	Values []decimal.Decimal
}

// DayKeys yields n consecutive ISO days starting at start.
func DayKeys(start core.Date, n int) iter.Seq[string] {
	return func(yield func(string) bool) {
		for i := range n {
			if !yield(start.AddDays(i).String()) {
				return
			}
		}
	}
}

// LastKeys yields the union of keys of the given maps, sorted ascending and
// restricted to the last n. n <= 0 keeps all keys.
func LastKeys(n int, sparse ...map[string]decimal.Decimal) iter.Seq[string] {
	seen := make(map[string]struct{})
	for _, m := range sparse {
		for k := range m {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	if n > 0 && len(keys) > n {
		keys = keys[len(keys)-n:]
	}
	return slices.Values(keys)
}

// Densify emits one bucket per generated key, filling absent keys with zero.
func Densify(keys iter.Seq[string], sparse ...map[string]decimal.Decimal) []Bucket {
	out := []Bucket{}
	for k := range keys {
		b := Bucket{Key: k, Values: make([]decimal.Decimal, len(sparse))}
		for i, m := range sparse {
			if v, ok := m[k]; ok {
				b.Values[i] = v
			}
		}
		out = append(out, b)
	}
	return out
}
