// Package export renders report results and transaction lists into the
// formats served to clients: JSON payloads and spreadsheet-friendly CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"cashflow/internal/core"

	"github.com/shopspring/decimal"
)

// Column headers of the transaction dump, one per kind.
const (
	ExpenseHeader = "id,date,category,amount,method,merchant,note"
	IncomeHeader  = "id,date,category,amount,source,note"
)

// BOM is written first so spreadsheet tools detect UTF-8.
const BOM = "\uFEFF"

const ContentType = "text/csv; charset=utf-8"

// Header returns the column names for kind.
func Header(kind core.Kind) []string {
	if kind == core.KindIncome {
		return strings.Split(IncomeHeader, ",")
	}
	return strings.Split(ExpenseHeader, ",")
}

// Record renders one transaction in header order. Amounts keep their
// stored precision; missing optional fields are empty cells.
func Record(kind core.Kind, tx core.Transaction) []string {
	id := strconv.FormatInt(tx.ID, 10)
	amount := nativeAmount(tx.Amount)
	if kind == core.KindIncome {
		return []string{id, tx.Date.String(), tx.Category, amount, tx.Source, tx.Note}
	}
	return []string{id, tx.Date.String(), tx.Category, amount, tx.PaymentMethod, tx.Merchant, tx.Note}
}

// nativeAmount prints at least two decimals without dropping finer digits.
func nativeAmount(d decimal.Decimal) string {
	if d.Exponent() < -core.MoneyPlaces {
		return d.String()
	}
	return d.StringFixed(core.MoneyPlaces)
}

// WriteTransactions writes the BOM, the header and one row per transaction,
// in the order given.
func WriteTransactions(w io.Writer, kind core.Kind, txs []core.Transaction) error {
	if _, err := io.WriteString(w, BOM); err != nil {
		return fmt.Errorf("writing BOM: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(kind)); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, tx := range txs {
		if err := cw.Write(Record(kind, tx)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Filename encodes the filter's date bounds, empty when a bound is absent.
func Filename(kind core.Kind, f core.Filter) string {
	from, to := f.BoundStrings()
	name := fmt.Sprintf("%s_%s_%s.csv", kind.FilePrefix(), from, to)
	return strings.ReplaceAll(name, ":", "-")
}

// ContentDisposition is the attachment header value for name.
func ContentDisposition(name string) string {
	return fmt.Sprintf("attachment; filename=%q", name)
}

// ExportFilter is the filter used by bulk exports: ascending by date then
// id, never capped.
func ExportFilter(fromRaw, toRaw, categoryRaw string) core.Filter {
	return core.FilterFromQuery(fromRaw, toRaw, categoryRaw)
}

// ListFilter is the filter used by the interactive list view.
func ListFilter(fromRaw, toRaw, categoryRaw string) core.Filter {
	return core.FilterFromQuery(fromRaw, toRaw, categoryRaw).Descending().WithLimit(core.ListViewLimit)
}
