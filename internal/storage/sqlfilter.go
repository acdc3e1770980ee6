package storage

import (
	"fmt"
	"strings"

	"cashflow/internal/core"
)

// Dialect captures the differences between SQL backends that matter when
// rendering a core.Filter.
type Dialect struct {
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
	// DateArg converts a date to the driver's bind value.
	DateArg func(d core.Date) any
}

var (
	SQLiteDialect = Dialect{
		Placeholder: func(int) string { return "?" },
		DateArg:     func(d core.Date) any { return d.String() },
	}
	PostgresDialect = Dialect{
		Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
		DateArg:     func(d core.Date) any { return d.Time },
	}
)

// KindTables names the tables backing one kind.
type KindTables struct {
	Transactions string
	Categories   string
}

var kindTables = map[core.Kind]KindTables{
	core.KindExpense: {Transactions: "expenses", Categories: "categories"},
	core.KindIncome:  {Transactions: "incomes", Categories: "income_categories"},
}

// TablesFor returns the tables of kind. Table names never come from input.
func TablesFor(kind core.Kind) (KindTables, error) {
	t, ok := kindTables[kind]
	if !ok {
		return KindTables{}, fmt.Errorf("%w: %q", core.ErrInvalidKind, kind)
	}
	return t, nil
}

// RenderFilter renders f as WHERE, ORDER BY and LIMIT clauses against the
// transaction table aliased as alias. Bind numbering starts at 1.
func RenderFilter(f core.Filter, alias string, d Dialect) (string, []any) {
	var (
		where []string
		args  []any
		sb    strings.Builder
	)
	bind := func(expr string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(expr, d.Placeholder(len(args))))
	}
	if f.From != nil {
		bind(alias+".tx_date >= %s", d.DateArg(*f.From))
	}
	if f.To != nil {
		bind(alias+".tx_date <= %s", d.DateArg(*f.To))
	}
	if f.CategoryID != nil {
		bind(alias+".category_id = %s", *f.CategoryID)
	}
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	dir := "ASC"
	if f.Order == core.Descending {
		dir = "DESC"
	}
	fmt.Fprintf(&sb, " ORDER BY %[1]s.tx_date %[2]s, %[1]s.id %[2]s", alias, dir)
	if f.Limit > 0 {
		args = append(args, f.Limit)
		fmt.Fprintf(&sb, " LIMIT %s", d.Placeholder(len(args)))
	}
	return sb.String(), args
}
