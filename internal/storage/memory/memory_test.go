package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cashflow/internal/core"

	"github.com/shopspring/decimal"
)

func mustAdd(t *testing.T, s *Store, kind core.Kind, cat core.Category, d core.Date, amount string) int64 {
	t.Helper()
	id, err := s.AddTransaction(context.Background(), core.Transaction{
		Kind:       kind,
		Date:       d,
		CategoryID: cat.ID,
		Amount:     decimal.RequireFromString(amount),
	})
	if err != nil {
		t.Fatalf("add transaction: %v", err)
	}
	return id
}

func TestEnsureCategoryIsCaseInsensitive(t *testing.T) {
	s := New()
	ctx := context.Background()
	a, err := s.EnsureCategory(ctx, core.KindIncome, "Tuition fee")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	b, err := s.EnsureCategory(ctx, core.KindIncome, "TUITION FEE")
	if err != nil || a.ID != b.ID {
		t.Fatalf("expected same category, got %v %v err=%v", a, b, err)
	}
	cats, _ := s.ListCategories(ctx, core.KindIncome)
	if len(cats) != 1 {
		t.Fatalf("expected one category, got %v", cats)
	}
	other, _ := s.ListCategories(ctx, core.KindExpense)
	if len(other) != 0 {
		t.Fatalf("kinds must not share categories: %v", other)
	}
}

func TestAddTransactionRequiresCategory(t *testing.T) {
	s := New()
	_, err := s.AddTransaction(context.Background(), core.Transaction{
		Kind: core.KindExpense, Date: core.NewDate(2025, 1, 1), CategoryID: 99, Amount: decimal.NewFromInt(1),
	})
	if err == nil {
		t.Fatalf("expected error for unknown category")
	}
}

func TestAddTransactionRejectsSubCentAmount(t *testing.T) {
	s := New()
	ctx := context.Background()
	cat, _ := s.EnsureCategory(ctx, core.KindExpense, "Food")
	_, err := s.AddTransaction(ctx, core.Transaction{
		Kind: core.KindExpense, Date: core.NewDate(2025, 1, 1), CategoryID: cat.ID, Amount: decimal.RequireFromString("5.005"),
	})
	if !errors.Is(err, core.ErrSubCentAmount) {
		t.Fatalf("expected ErrSubCentAmount, got %v", err)
	}
	if got, _ := s.ListTransactions(ctx, core.KindExpense, core.NewFilter()); len(got) != 0 {
		t.Fatalf("rejected amount was stored: %v", got)
	}
}

func TestAggregates(t *testing.T) {
	ctx := context.Background()
	s := New()
	food, _ := s.EnsureCategory(ctx, core.KindExpense, "food")
	bills, _ := s.EnsureCategory(ctx, core.KindExpense, "Bills")

	mustAdd(t, s, core.KindExpense, food, core.NewDate(2025, 3, 1), "10.10")
	mustAdd(t, s, core.KindExpense, food, core.NewDate(2025, 3, 1), "5.05")
	mustAdd(t, s, core.KindExpense, bills, core.NewDate(2025, 3, 15), "100")
	mustAdd(t, s, core.KindExpense, bills, core.NewDate(2025, 1, 20), "7")

	r := core.DateRange{From: core.NewDate(2025, 3, 1), To: core.NewDate(2025, 3, 31)}
	total, _ := s.SumAmount(ctx, core.KindExpense, r)
	if total.StringFixed(2) != "115.15" {
		t.Fatalf("sum amount: %s", total)
	}
	inc, _ := s.SumAmount(ctx, core.KindIncome, r)
	if !inc.IsZero() {
		t.Fatalf("empty kind should sum to zero, got %s", inc)
	}

	byCat, _ := s.SumByCategory(ctx, core.KindExpense, r)
	if len(byCat) != 2 || byCat[0].Label != "Bills" || byCat[1].Label != "food" {
		t.Fatalf("expected name order Bills, food: %v", byCat)
	}

	byDay, _ := s.SumByDay(ctx, core.KindExpense, core.NewDate(2025, 3, 1))
	if len(byDay) != 2 || byDay["2025-03-01"].StringFixed(2) != "15.15" {
		t.Fatalf("sum by day: %v", byDay)
	}

	byMonth, _ := s.SumByMonth(ctx, core.KindExpense, 1)
	if len(byMonth) != 1 || byMonth["2025-03"].StringFixed(2) != "115.15" {
		t.Fatalf("sum by month limit 1: %v", byMonth)
	}
	all, _ := s.SumByMonth(ctx, core.KindExpense, 0)
	if len(all) != 2 {
		t.Fatalf("uncapped sum by month: %v", all)
	}
}

func TestListTransactionsJoinsCategoryName(t *testing.T) {
	ctx := context.Background()
	s := New()
	food, _ := s.EnsureCategory(ctx, core.KindExpense, "Food")
	mustAdd(t, s, core.KindExpense, food, core.NewDate(2025, 3, 2), "1")
	mustAdd(t, s, core.KindExpense, food, core.NewDate(2025, 3, 1), "2")

	got, err := s.ListTransactions(ctx, core.KindExpense, core.NewFilter())
	if err != nil || len(got) != 2 {
		t.Fatalf("list: %v %v", got, err)
	}
	if got[0].Date != core.NewDate(2025, 3, 1) || got[0].Category != "Food" {
		t.Fatalf("unexpected first row: %+v", got[0])
	}
}

func TestNewFromFilesSeedsAndDedupe(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	// No files -> defaults
	s := NewFromFiles(dir)
	exp, _ := s.ListCategories(ctx, core.KindExpense)
	inc, _ := s.ListCategories(ctx, core.KindIncome)
	if len(exp) == 0 || len(inc) == 0 {
		t.Fatalf("expected defaults when files missing")
	}

	mustWrite := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	mustWrite("seed_expense_categories.txt", "# header\nB\nA\nb\n\n")
	mustWrite("seed_income_categories.txt", "# header\nSalary\nsalary\n")

	s = NewFromFiles(dir)
	exp, _ = s.ListCategories(ctx, core.KindExpense)
	if len(exp) != 2 || exp[0].Name != "A" || exp[1].Name != "B" {
		t.Fatalf("unexpected expense categories: %v", exp)
	}
	inc, _ = s.ListCategories(ctx, core.KindIncome)
	if len(inc) != 1 {
		t.Fatalf("unexpected income categories: %v", inc)
	}
}
