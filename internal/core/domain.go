package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	KindExpense Kind = "expense"
	KindIncome  Kind = "income"
)

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

type (
	// Kind partitions transactions. Every aggregation is computed
	// separately per kind with the same logic.
	Kind string

	// Date is a calendar day. The underlying time is always midnight UTC.
	Date struct {
		time.Time
	}

	// DateRange is an inclusive span of days.
	DateRange struct {
		From Date
		To   Date
	}

	Category struct {
		ID   int64
		Name string
		Kind Kind
	}

	Transaction struct {
		ID            int64
		Kind          Kind
		Date          Date
		CategoryID    int64
		Category      string // category name, joined at read time
		Amount        decimal.Decimal
		PaymentMethod string // expense only
		Merchant      string // expense only
		Source        string // income only
		Note          string
	}

	// LabeledAmount is one grouped sum, e.g. a category total.
	LabeledAmount struct {
		Label string
		Value decimal.Decimal
	}
)

var (
	ErrInvalidKind     = errors.New("invalid transaction kind")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrSubCentAmount   = errors.New("amount has more than two decimal places")
	ErrEmptyCategory   = errors.New("empty category name")
	ErrMissingCategory = errors.New("category is required")
)

// Kinds returns every transaction kind in a fixed order.
func Kinds() []Kind {
	return []Kind{KindExpense, KindIncome}
}

// ParseKind accepts the singular and plural spellings used in routes.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "expense", "expenses":
		return KindExpense, nil
	case "income", "incomes":
		return KindIncome, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

func (k Kind) IsValid() bool {
	return k == KindExpense || k == KindIncome
}

// FilePrefix is the prefix used for export file names.
func (k Kind) FilePrefix() string {
	if k == KindIncome {
		return "income"
	}
	return "expenses"
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf takes the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a strict YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// ParseMonth parses a YYYY-MM token and returns the first day of that month.
func ParseMonth(s string) (Date, error) {
	t, err := time.Parse(monthLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// MonthKey returns the YYYY-MM bucket the day falls in.
func (d Date) MonthKey() string {
	return d.Format(monthLayout)
}

func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) FirstOfMonth() Date {
	return NewDate(d.Year(), int(d.Month()), 1)
}

// LastOfMonth is the first day of the next month minus one day.
func (d Date) LastOfMonth() Date {
	return Date{Time: d.FirstOfMonth().AddDate(0, 1, 0)}.AddDays(-1)
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }

// Contains reports whether d lies within the inclusive range.
func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.From) && !d.After(r.To)
}

// Label is the human readable form used by summary payloads.
func (r DateRange) Label() string {
	return r.From.String() + " → " + r.To.String()
}

func (c Category) Validate() error {
	if !c.Kind.IsValid() {
		return ErrInvalidKind
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Kind.IsValid() {
		return ErrInvalidKind
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if t.CategoryID <= 0 {
		return ErrMissingCategory
	}
	if t.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if !FitsCents(t.Amount) {
		return ErrSubCentAmount
	}
	return nil
}
