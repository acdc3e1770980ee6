package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cashflow/internal/core"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

var _ Store = (*SQLiteRepository)(nil)

// SQLiteDSN adds the pragmas every connection needs to a database path.
func SQLiteDSN(dbPath string) string {
	return "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// applies pending migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := SQLiteDSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) SumAmount(ctx context.Context, kind core.Kind, rng core.DateRange) (decimal.Decimal, error) {
	t, err := TablesFor(kind)
	if err != nil {
		return decimal.Zero, err
	}
	var cents int64
	q := `SELECT COALESCE(SUM(amount_cents), 0) FROM ` + t.Transactions + ` WHERE tx_date >= ? AND tx_date <= ?`
	if err := r.db.QueryRowContext(ctx, q, rng.From.String(), rng.To.String()).Scan(&cents); err != nil {
		return decimal.Zero, fmt.Errorf("sum %s: %w", t.Transactions, err)
	}
	return core.FromCents(cents), nil
}

func (r *SQLiteRepository) SumByCategory(ctx context.Context, kind core.Kind, rng core.DateRange) ([]core.LabeledAmount, error) {
	t, err := TablesFor(kind)
	if err != nil {
		return nil, err
	}
	q := `SELECT c.name, SUM(t.amount_cents)
		FROM ` + t.Transactions + ` t
		JOIN ` + t.Categories + ` c ON c.id = t.category_id
		WHERE t.tx_date >= ? AND t.tx_date <= ?
		GROUP BY c.name
		ORDER BY c.name`
	rows, err := r.db.QueryContext(ctx, q, rng.From.String(), rng.To.String())
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

func (r *SQLiteRepository) SumByDay(ctx context.Context, kind core.Kind, start core.Date) (map[string]decimal.Decimal, error) {
	t, err := TablesFor(kind)
	if err != nil {
		return nil, err
	}
	q := `SELECT tx_date, SUM(amount_cents) FROM ` + t.Transactions + ` WHERE tx_date >= ? GROUP BY tx_date`
	return r.keyedSums(ctx, q, start.String())
}

func (r *SQLiteRepository) SumByMonth(ctx context.Context, kind core.Kind, limit int) (map[string]decimal.Decimal, error) {
	t, err := TablesFor(kind)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	q := `SELECT substr(tx_date, 1, 7) AS ym, SUM(amount_cents)
		FROM ` + t.Transactions + `
		GROUP BY ym
		ORDER BY ym DESC
		LIMIT ?`
	return r.keyedSums(ctx, q, limit)
}

func (r *SQLiteRepository) keyedSums(ctx context.Context, q string, args ...any) (map[string]decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
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

func (r *SQLiteRepository) ListTransactions(ctx context.Context, kind core.Kind, f core.Filter) ([]core.Transaction, error) {
	t, err := TablesFor(kind)
	if err != nil {
		return nil, err
	}
	extra := "t.payment_method, t.merchant"
	if kind == core.KindIncome {
		extra = "t.source, ''"
	}
	clauses, args := RenderFilter(f, "t", SQLiteDialect)
	q := `SELECT t.id, t.tx_date, t.category_id, c.name, t.amount_cents, ` + extra + `, t.note
		FROM ` + t.Transactions + ` t
		JOIN ` + t.Categories + ` c ON c.id = t.category_id` + clauses

	rows, err := r.db.QueryContext(ctx, q, args...)
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

func (r *SQLiteRepository) ListCategories(ctx context.Context, kind core.Kind) ([]core.Category, error) {
	t, err := TablesFor(kind)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM `+t.Categories+` ORDER BY name`)
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

func (r *SQLiteRepository) EnsureCategory(ctx context.Context, kind core.Kind, name string) (core.Category, error) {
	c := core.Category{Kind: kind, Name: strings.TrimSpace(name)}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	t, err := TablesFor(kind)
	if err != nil {
		return core.Category{}, err
	}
	// name is COLLATE NOCASE UNIQUE, so both statements match case-insensitively.
	res, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO `+t.Categories+` (name) VALUES (?)`, c.Name)
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, `SELECT id, name FROM `+t.Categories+` WHERE name = ?`, c.Name).Scan(&c.ID, &c.Name); err != nil {
		return core.Category{}, fmt.Errorf("load category %q: %w", c.Name, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		slog.InfoContext(ctx, "Category created", "kind", kind, "id", c.ID, "name", c.Name)
	}
	return c, nil
}

func (r *SQLiteRepository) AddTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}
	t, err := TablesFor(tx.Kind)
	if err != nil {
		return 0, err
	}
	var res sql.Result
	if tx.Kind == core.KindIncome {
		res, err = r.db.ExecContext(ctx,
			`INSERT INTO incomes (tx_date, category_id, amount_cents, source, note) VALUES (?, ?, ?, ?, ?)`,
			tx.Date.String(), tx.CategoryID, core.ToCents(tx.Amount), tx.Source, tx.Note)
	} else {
		res, err = r.db.ExecContext(ctx,
			`INSERT INTO expenses (tx_date, category_id, amount_cents, payment_method, merchant, note) VALUES (?, ?, ?, ?, ?, ?)`,
			tx.Date.String(), tx.CategoryID, core.ToCents(tx.Amount), tx.PaymentMethod, tx.Merchant, tx.Note)
	}
	if err != nil {
		return 0, fmt.Errorf("insert into %s: %w", t.Transactions, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read %s id: %w", t.Transactions, err)
	}
	slog.DebugContext(ctx, "Transaction saved to SQLite", "kind", tx.Kind, "id", id, "date", tx.Date.String())
	return id, nil
}
