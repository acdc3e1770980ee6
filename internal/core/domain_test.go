package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseKind(t *testing.T) {
	cases := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{"expense", KindExpense, true},
		{"Expenses", KindExpense, true},
		{"income", KindIncome, true},
		{" incomes ", KindIncome, true},
		{"transfer", "", false},
		{"", "", false},
	}
	for i, tc := range cases {
		got, err := ParseKind(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("case %d: got %q, %v; want %q", i, got, err, tc.want)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidKind) {
			t.Fatalf("case %d: expected ErrInvalidKind, got %v", i, err)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-02-28")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != NewDate(2025, 2, 28) {
		t.Fatalf("got %v", d)
	}
	for _, bad := range []string{"", "2025-2-28", "2025-02-30", "28/02/2025", "2025-02"} {
		if _, err := ParseDate(bad); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q: expected ErrInvalidDate, got %v", bad, err)
		}
	}
}

func TestParseMonth(t *testing.T) {
	d, err := ParseMonth("2024-02")
	if err != nil || d != NewDate(2024, 2, 1) {
		t.Fatalf("got %v, %v", d, err)
	}
	if _, err := ParseMonth("2024-13"); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
}

func TestLastOfMonth(t *testing.T) {
	cases := []struct {
		in   Date
		want Date
	}{
		{NewDate(2024, 2, 10), NewDate(2024, 2, 29)},
		{NewDate(2023, 2, 1), NewDate(2023, 2, 28)},
		{NewDate(2025, 12, 31), NewDate(2025, 12, 31)},
		{NewDate(2025, 4, 1), NewDate(2025, 4, 30)},
	}
	for _, tc := range cases {
		if got := tc.in.LastOfMonth(); got != tc.want {
			t.Fatalf("%s: got %s want %s", tc.in, got, tc.want)
		}
	}
}

func TestDateOfUsesLocalCalendarDay(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	ts := time.Date(2025, 3, 1, 1, 0, 0, 0, loc)
	if got := DateOf(ts); got != NewDate(2025, 3, 1) {
		t.Fatalf("got %s", got)
	}
}

func TestDateRangeContainsAndLabel(t *testing.T) {
	r := DateRange{From: NewDate(2025, 3, 1), To: NewDate(2025, 3, 31)}
	if !r.Contains(NewDate(2025, 3, 1)) || !r.Contains(NewDate(2025, 3, 31)) {
		t.Fatalf("bounds must be inclusive")
	}
	if r.Contains(NewDate(2025, 4, 1)) {
		t.Fatalf("day after range must not match")
	}
	if got := r.Label(); got != "2025-03-01 → 2025-03-31" {
		t.Fatalf("label %q", got)
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Kind:       KindExpense,
		Date:       NewDate(2025, 1, 1),
		CategoryID: 1,
		Amount:     decimal.RequireFromString("12.50"),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bad := good
	bad.Amount = decimal.Zero
	if err := bad.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	bad = good
	bad.Amount = decimal.RequireFromString("5.005")
	if err := bad.Validate(); !errors.Is(err, ErrSubCentAmount) {
		t.Fatalf("expected ErrSubCentAmount, got %v", err)
	}
	bad = good
	bad.Amount = decimal.RequireFromString("5.100")
	if err := bad.Validate(); err != nil {
		t.Fatalf("trailing zeros: expected ok, got %v", err)
	}
	bad = good
	bad.CategoryID = 0
	if err := bad.Validate(); !errors.Is(err, ErrMissingCategory) {
		t.Fatalf("expected ErrMissingCategory, got %v", err)
	}
	bad = good
	bad.Kind = "other"
	if err := bad.Validate(); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}
