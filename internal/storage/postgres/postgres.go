// Package postgres implements the row store on PostgreSQL through pgxpool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"cashflow/internal/core"
	"cashflow/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Storage struct {
	db *pgxpool.Pool
}

var _ storage.Store = (*Storage)(nil)

func NewStorage(db *pgxpool.Pool) *Storage {
	return &Storage{db: db}
}

// Connect migrates the database at url and opens a pool on it.
func Connect(ctx context.Context, url string) (*Storage, error) {
	if err := Migrate(ctx, url); err != nil {
		return nil, err
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewStorage(pool), nil
}

func (s *Storage) Close() error {
	s.db.Close()
	return nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Storage) SumAmount(ctx context.Context, kind core.Kind, r core.DateRange) (decimal.Decimal, error) {
	t, err := storage.TablesFor(kind)
	if err != nil {
		return decimal.Zero, err
	}
	var cents int64
	err = s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0)::bigint
		FROM `+t.Transactions+`
		WHERE tx_date >= $1 AND tx_date <= $2
	`, r.From.Time, r.To.Time).Scan(&cents)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum %s: %w", t.Transactions, err)
	}
	return core.FromCents(cents), nil
}

func (s *Storage) SumByCategory(ctx context.Context, kind core.Kind, r core.DateRange) ([]core.LabeledAmount, error) {
	t, err := storage.TablesFor(kind)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, `
		SELECT c.name, SUM(t.amount_cents)::bigint
		FROM `+t.Transactions+` t
		JOIN `+t.Categories+` c ON c.id = t.category_id
		WHERE t.tx_date >= $1 AND t.tx_date <= $2
		GROUP BY c.name
		ORDER BY lower(c.name), c.name
	`, r.From.Time, r.To.Time)
	if err != nil {
		return nil, fmt.Errorf("sum %s by category: %w", t.Transactions, err)
	}
	defer rows.Close()

	out := []core.LabeledAmount{}
	for rows.Next() {
		var (
			name  string
			cents int64
		)
		if err := rows.Scan(&name, &cents); err != nil {
			return nil, fmt.Errorf("scan category sum: %w", err)
		}
		out = append(out, core.LabeledAmount{Label: name, Value: core.FromCents(cents)})
	}
	return out, rows.Err()
}

func (s *Storage) SumByDay(ctx context.Context, kind core.Kind, start core.Date) (map[string]decimal.Decimal, error) {
	t, err := storage.TablesFor(kind)
	if err != nil {
		return nil, err
	}
	return s.keyedSums(ctx, `
		SELECT to_char(tx_date, 'YYYY-MM-DD'), SUM(amount_cents)::bigint
		FROM `+t.Transactions+`
		WHERE tx_date >= $1
		GROUP BY tx_date
	`, start.Time)
}

func (s *Storage) SumByMonth(ctx context.Context, kind core.Kind, limit int) (map[string]decimal.Decimal, error) {
	t, err := storage.TablesFor(kind)
	if err != nil {
		return nil, err
	}
	var lim any // NULL means no limit
	if limit > 0 {
		lim = limit
	}
	return s.keyedSums(ctx, `
		SELECT to_char(tx_date, 'YYYY-MM') AS ym, SUM(amount_cents)::bigint
		FROM `+t.Transactions+`
		GROUP BY ym
		ORDER BY ym DESC
		LIMIT $1
	`, lim)
}

func (s *Storage) keyedSums(ctx context.Context, q string, args ...any) (map[string]decimal.Decimal, error) {
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query grouped sums: %w", err)
	}
	defer rows.Close()

	out := map[string]decimal.Decimal{}
	for rows.Next() {
		var (
			key   string
			cents int64
		)
		if err := rows.Scan(&key, &cents); err != nil {
			return nil, fmt.Errorf("scan grouped sum: %w", err)
		}
		out[key] = core.FromCents(cents)
	}
	return out, rows.Err()
}

func (s *Storage) ListTransactions(ctx context.Context, kind core.Kind, f core.Filter) ([]core.Transaction, error) {
	t, err := storage.TablesFor(kind)
	if err != nil {
		return nil, err
	}
	extra := "t.payment_method, t.merchant"
	if kind == core.KindIncome {
		extra = "t.source, ''"
	}
	clauses, args := storage.RenderFilter(f, "t", storage.PostgresDialect)
	q := `SELECT t.id, to_char(t.tx_date, 'YYYY-MM-DD'), t.category_id, c.name, t.amount_cents, ` + extra + `, t.note
		FROM ` + t.Transactions + ` t
		JOIN ` + t.Categories + ` c ON c.id = t.category_id` + clauses

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.Transactions, err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		var (
			tx     = core.Transaction{Kind: kind}
			day    string
			cents  int64
			e1, e2 string
		)
		if err := rows.Scan(&tx.ID, &day, &tx.CategoryID, &tx.Category, &cents, &e1, &e2, &tx.Note); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", t.Transactions, err)
		}
		if tx.Date, err = core.ParseDate(day); err != nil {
			return nil, fmt.Errorf("%s row %d: %w", t.Transactions, tx.ID, err)
		}
		tx.Amount = core.FromCents(cents)
		if kind == core.KindIncome {
			tx.Source = e1
		} else {
			tx.PaymentMethod, tx.Merchant = e1, e2
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (s *Storage) ListCategories(ctx context.Context, kind core.Kind) ([]core.Category, error) {
	t, err := storage.TablesFor(kind)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, `SELECT id, name FROM `+t.Categories+` ORDER BY lower(name), name`)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.Categories, err)
	}
	defer rows.Close()

	out := []core.Category{}
	for rows.Next() {
		c := core.Category{Kind: kind}
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Storage) EnsureCategory(ctx context.Context, kind core.Kind, name string) (core.Category, error) {
	c := core.Category{Kind: kind, Name: strings.TrimSpace(name)}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	t, err := storage.TablesFor(kind)
	if err != nil {
		return core.Category{}, err
	}
	err = s.db.QueryRow(ctx, `
		INSERT INTO `+t.Categories+` (name)
		VALUES ($1)
		ON CONFLICT ((lower(name))) DO NOTHING
		RETURNING id, name
	`, c.Name).Scan(&c.ID, &c.Name)
	if err == nil {
		slog.InfoContext(ctx, "Category created", "kind", kind, "id", c.ID, "name", c.Name)
		return c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	err = s.db.QueryRow(ctx, `SELECT id, name FROM `+t.Categories+` WHERE lower(name) = lower($1)`, c.Name).Scan(&c.ID, &c.Name)
	if err != nil {
		return core.Category{}, fmt.Errorf("load category %q: %w", c.Name, err)
	}
	return c, nil
}

func (s *Storage) AddTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}
	var (
		id  int64
		err error
	)
	if tx.Kind == core.KindIncome {
		err = s.db.QueryRow(ctx, `
			INSERT INTO incomes (tx_date, category_id, amount_cents, source, note)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, tx.Date.Time, tx.CategoryID, core.ToCents(tx.Amount), tx.Source, tx.Note).Scan(&id)
	} else {
		err = s.db.QueryRow(ctx, `
			INSERT INTO expenses (tx_date, category_id, amount_cents, payment_method, merchant, note)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, tx.Date.Time, tx.CategoryID, core.ToCents(tx.Amount), tx.PaymentMethod, tx.Merchant, tx.Note).Scan(&id)
	}
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", tx.Kind, err)
	}
	return id, nil
}
