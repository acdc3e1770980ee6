package export

import (
	"encoding/json"

	"cashflow/internal/core"
	"cashflow/internal/report"

	"github.com/shopspring/decimal"
)

// Shape selects how series payloads are laid out.
type Shape string

const (
	// ShapeRecords is an ordered array of label records.
	ShapeRecords Shape = "records"
	// ShapeColumns is parallel label/value arrays, ready for chart libraries.
	ShapeColumns Shape = "columns"
)

// ParseShape defaults to records for anything other than "columns".
func ParseShape(raw string) Shape {
	if raw == string(ShapeColumns) {
		return ShapeColumns
	}
	return ShapeRecords
}

// Money renders a decimal as a JSON number with exactly two decimals.
func Money(d decimal.Decimal) json.Number {
	return json.Number(core.FormatMoney(d))
}

type (
	TotalsPayload struct {
		RangeFrom  string      `json:"range_from"`
		RangeTo    string      `json:"range_to"`
		RangeLabel string      `json:"range_label"`
		Expense    json.Number `json:"expense"`
		Income     json.Number `json:"income"`
		Net        json.Number `json:"net"`
	}

	LabelValue struct {
		Label string      `json:"label"`
		Value json.Number `json:"value"`
	}

	DailyRecord struct {
		Label   string      `json:"label"`
		Income  json.Number `json:"income"`
		Expense json.Number `json:"expense"`
	}

	MonthRecord struct {
		Label   string      `json:"label"`
		Income  json.Number `json:"income"`
		Expense json.Number `json:"expense"`
		Net     json.Number `json:"net"`
	}

	DailyColumns struct {
		Labels  []string      `json:"labels"`
		Income  []json.Number `json:"income"`
		Expense []json.Number `json:"expense"`
	}

	MonthlyColumns struct {
		Labels  []string      `json:"labels"`
		Income  []json.Number `json:"income"`
		Expense []json.Number `json:"expense"`
		Net     []json.Number `json:"net"`
	}

	CategoryRecord struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	TransactionRecord struct {
		ID            int64       `json:"id"`
		Date          string      `json:"date"`
		CategoryID    int64       `json:"category_id"`
		Category      string      `json:"category"`
		Amount        json.Number `json:"amount"`
		PaymentMethod string      `json:"payment_method,omitempty"`
		Merchant      string      `json:"merchant,omitempty"`
		Source        string      `json:"source,omitempty"`
		Note          string      `json:"note"`
	}
)

// Totals keeps the engine's unrounded values until this point.
func Totals(t report.Totals) TotalsPayload {
	return TotalsPayload{
		RangeFrom:  t.Range.From.String(),
		RangeTo:    t.Range.To.String(),
		RangeLabel: t.Range.Label(),
		Expense:    Money(t.Expense),
		Income:     Money(t.Income),
		Net:        Money(t.Net),
	}
}

func Breakdown(b report.Breakdown) []LabelValue {
	out := make([]LabelValue, 0, len(b.Items))
	for _, it := range b.Items {
		out = append(out, LabelValue{Label: it.Label, Value: Money(it.Value)})
	}
	return out
}

// Daily renders the daily series in the requested shape.
func Daily(points []report.DailyPoint, shape Shape) any {
	if shape == ShapeColumns {
		cols := DailyColumns{
			Labels:  make([]string, 0, len(points)),
			Income:  make([]json.Number, 0, len(points)),
			Expense: make([]json.Number, 0, len(points)),
		}
		for _, p := range points {
			cols.Labels = append(cols.Labels, p.Day)
			cols.Income = append(cols.Income, Money(p.Income))
			cols.Expense = append(cols.Expense, Money(p.Expense))
		}
		return cols
	}
	out := make([]DailyRecord, 0, len(points))
	for _, p := range points {
		out = append(out, DailyRecord{Label: p.Day, Income: Money(p.Income), Expense: Money(p.Expense)})
	}
	return out
}

// Monthly renders the trend series in the requested shape.
func Monthly(points []report.MonthPoint, shape Shape) any {
	if shape == ShapeColumns {
		cols := MonthlyColumns{
			Labels:  make([]string, 0, len(points)),
			Income:  make([]json.Number, 0, len(points)),
			Expense: make([]json.Number, 0, len(points)),
			Net:     make([]json.Number, 0, len(points)),
		}
		for _, p := range points {
			cols.Labels = append(cols.Labels, p.Month)
			cols.Income = append(cols.Income, Money(p.Income))
			cols.Expense = append(cols.Expense, Money(p.Expense))
			cols.Net = append(cols.Net, Money(p.Net))
		}
		return cols
	}
	out := make([]MonthRecord, 0, len(points))
	for _, p := range points {
		out = append(out, MonthRecord{Label: p.Month, Income: Money(p.Income), Expense: Money(p.Expense), Net: Money(p.Net)})
	}
	return out
}

func Categories(cats []core.Category) []CategoryRecord {
	out := make([]CategoryRecord, 0, len(cats))
	for _, c := range cats {
		out = append(out, CategoryRecord{ID: c.ID, Name: c.Name})
	}
	return out
}

func Transactions(txs []core.Transaction) []TransactionRecord {
	out := make([]TransactionRecord, 0, len(txs))
	for _, tx := range txs {
		out = append(out, TransactionRecord{
			ID:            tx.ID,
			Date:          tx.Date.String(),
			CategoryID:    tx.CategoryID,
			Category:      tx.Category,
			Amount:        json.Number(nativeAmount(tx.Amount)),
			PaymentMethod: tx.PaymentMethod,
			Merchant:      tx.Merchant,
			Source:        tx.Source,
			Note:          tx.Note,
		})
	}
	return out
}
