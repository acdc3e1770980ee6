package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"cashflow/internal/core"
	"cashflow/internal/storage"

	"github.com/shopspring/decimal"
)

// Store keeps categories and transactions in process memory. It implements
// storage.Store and is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	cats   map[core.Kind][]core.Category
	items  map[core.Kind][]core.Transaction
	nextID int64
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		cats:  map[core.Kind][]core.Category{},
		items: map[core.Kind][]core.Transaction{},
	}
}

// NewFromFiles seeds categories from one text file per kind, one name per
// line. Missing files fall back to a small default set.
func NewFromFiles(base string) *Store {
	s := New()
	seeds := map[core.Kind][]string{
		core.KindExpense: readLines(filepath.Join(base, "seed_expense_categories.txt")),
		core.KindIncome:  readLines(filepath.Join(base, "seed_income_categories.txt")),
	}
	if len(seeds[core.KindExpense]) == 0 {
		seeds[core.KindExpense] = []string{"Groceries", "Rent", "Transport", "Utilities"}
	}
	if len(seeds[core.KindIncome]) == 0 {
		seeds[core.KindIncome] = []string{"Salary"}
	}
	for _, kind := range core.Kinds() {
		for _, name := range seeds[kind] {
			_, _ = s.EnsureCategory(context.Background(), kind, name)
		}
	}
	return s
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

// EnsureCategory returns the existing category with the same name
// (case-insensitive) or creates it.
func (s *Store) EnsureCategory(_ context.Context, kind core.Kind, name string) (core.Category, error) {
	c := core.Category{Kind: kind, Name: strings.TrimSpace(name)}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.cats[kind] {
		if strings.EqualFold(existing.Name, c.Name) {
			return existing, nil
		}
	}
	s.nextID++
	c.ID = s.nextID
	s.cats[kind] = append(s.cats[kind], c)
	return c, nil
}

// AddTransaction stores tx and returns its id. The category must exist.
func (s *Store) AddTransaction(_ context.Context, tx core.Transaction) (int64, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cat, ok := s.category(tx.Kind, tx.CategoryID)
	if !ok {
		return 0, fmt.Errorf("%w: id %d", core.ErrMissingCategory, tx.CategoryID)
	}
	s.nextID++
	tx.ID = s.nextID
	tx.Category = cat.Name
	s.items[tx.Kind] = append(s.items[tx.Kind], tx)
	return tx.ID, nil
}

func (s *Store) category(kind core.Kind, id int64) (core.Category, bool) {
	for _, c := range s.cats[kind] {
		if c.ID == id {
			return c, true
		}
	}
	return core.Category{}, false
}

func (s *Store) ListCategories(_ context.Context, kind core.Kind) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Clone(s.cats[kind])
	slices.SortFunc(out, func(a, b core.Category) int { return compareNames(a.Name, b.Name) })
	if out == nil {
		out = []core.Category{}
	}
	return out, nil
}

func (s *Store) ListTransactions(_ context.Context, kind core.Kind, f core.Filter) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return f.Apply(s.items[kind]), nil
}

func (s *Store) SumAmount(_ context.Context, kind core.Kind, r core.DateRange) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := decimal.Zero
	for _, tx := range s.items[kind] {
		if r.Contains(tx.Date) {
			total = total.Add(tx.Amount)
		}
	}
	return total, nil
}

func (s *Store) SumByCategory(_ context.Context, kind core.Kind, r core.DateRange) ([]core.LabeledAmount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sums := map[string]decimal.Decimal{}
	for _, tx := range s.items[kind] {
		if r.Contains(tx.Date) {
			sums[tx.Category] = sums[tx.Category].Add(tx.Amount)
		}
	}
	out := make([]core.LabeledAmount, 0, len(sums))
	for name, v := range sums {
		out = append(out, core.LabeledAmount{Label: name, Value: v})
	}
	slices.SortFunc(out, func(a, b core.LabeledAmount) int { return compareNames(a.Label, b.Label) })
	return out, nil
}

func (s *Store) SumByDay(_ context.Context, kind core.Kind, start core.Date) (map[string]decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[string]decimal.Decimal{}
	for _, tx := range s.items[kind] {
		if tx.Date.Before(start) {
			continue
		}
		k := tx.Date.String()
		out[k] = out[k].Add(tx.Amount)
	}
	return out, nil
}

func (s *Store) SumByMonth(_ context.Context, kind core.Kind, limit int) (map[string]decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := map[string]decimal.Decimal{}
	for _, tx := range s.items[kind] {
		k := tx.Date.MonthKey()
		all[k] = all[k].Add(tx.Amount)
	}
	if limit <= 0 || len(all) <= limit {
		return all, nil
	}
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	slices.Reverse(keys)
	out := make(map[string]decimal.Decimal, limit)
	for _, k := range keys[:limit] {
		out[k] = all[k]
	}
	return out, nil
}

// compareNames orders case-insensitively, matching the SQL backends.
func compareNames(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return dedupe(out)
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, strings.TrimSpace(v))
	}
	return out
}
