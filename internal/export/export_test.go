package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"cashflow/internal/core"
	"cashflow/internal/report"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestWriteTransactionsExpense(t *testing.T) {
	txs := []core.Transaction{
		{ID: 7, Date: core.NewDate(2025, 3, 1), Category: "Café", Amount: core.FromCents(1250), PaymentMethod: "card", Merchant: "Bar, Centrale", Note: ""},
		{ID: 9, Date: core.NewDate(2025, 3, 2), Category: "Rent", Amount: core.FromCents(80000)},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteTransactions(&buf, core.KindExpense, txs))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, BOM), "missing BOM")
	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(out, BOM), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, ExpenseHeader, lines[0])
	assert.Equal(t, `7,2025-03-01,Café,12.50,card,"Bar, Centrale",`, lines[1])
	assert.Equal(t, "9,2025-03-02,Rent,800.00,,,", lines[2])
}

func TestWriteTransactionsIncomeHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTransactions(&buf, core.KindIncome, nil))
	assert.Equal(t, BOM+IncomeHeader+"\n", buf.String())
}

func TestRecordIncome(t *testing.T) {
	got := Record(core.KindIncome, core.Transaction{
		ID: 3, Date: core.NewDate(2024, 12, 31), Category: "Salary", Amount: dec("1000.5"), Source: "ACME", Note: "dec",
	})
	assert.Equal(t, []string{"3", "2024-12-31", "Salary", "1000.50", "ACME", "dec"}, got)
}

func TestRecordKeepsFinerPrecision(t *testing.T) {
	got := Record(core.KindExpense, core.Transaction{ID: 1, Date: core.NewDate(2025, 1, 1), Amount: dec("1.005")})
	assert.Equal(t, "1.005", got[3])
}

func TestFilename(t *testing.T) {
	tests := []struct {
		name string
		kind core.Kind
		f    core.Filter
		want string
	}{
		{"no bounds", core.KindExpense, core.NewFilter(), "expenses__.csv"},
		{"both bounds", core.KindIncome, ExportFilter("2025-01-01", "2025-01-31", ""), "income_2025-01-01_2025-01-31.csv"},
		{"only to", core.KindExpense, ExportFilter("bad", "2025-02-01", "4"), "expenses__2025-02-01.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Filename(tt.kind, tt.f))
		})
	}
	assert.Equal(t, `attachment; filename="expenses__.csv"`, ContentDisposition("expenses__.csv"))
}

func TestListAndExportFilters(t *testing.T) {
	l := ListFilter("", "", "")
	assert.Equal(t, core.ListViewLimit, l.Limit)
	assert.Equal(t, core.Descending, l.Order)

	e := ExportFilter("", "", "12")
	assert.Zero(t, e.Limit)
	assert.Equal(t, core.Ascending, e.Order)
	require.NotNil(t, e.CategoryID)
	assert.Equal(t, int64(12), *e.CategoryID)
}

func TestTotalsPayloadJSON(t *testing.T) {
	p := Totals(report.Totals{
		Range:   core.DateRange{From: core.NewDate(2025, 3, 1), To: core.NewDate(2025, 3, 15)},
		Expense: dec("50"),
		Income:  dec("100.005"),
		Net:     dec("50.005"),
	})
	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"range_from":"2025-03-01","range_to":"2025-03-15","range_label":"2025-03-01 → 2025-03-15","expense":50.00,"income":100.01,"net":50.01}`, string(b))
	assert.Contains(t, string(b), `"expense":50.00`)
}

func TestSeriesShapes(t *testing.T) {
	daily := []report.DailyPoint{{Day: "2025-03-14", Income: dec("1"), Expense: dec("2.5")}}
	b, err := json.Marshal(Daily(daily, ShapeRecords))
	require.NoError(t, err)
	assert.Equal(t, `[{"label":"2025-03-14","income":1.00,"expense":2.50}]`, string(b))

	b, err = json.Marshal(Daily(daily, ShapeColumns))
	require.NoError(t, err)
	assert.Equal(t, `{"labels":["2025-03-14"],"income":[1.00],"expense":[2.50]}`, string(b))

	b, err = json.Marshal(Monthly(nil, ParseShape("columns")))
	require.NoError(t, err)
	assert.Equal(t, `{"labels":[],"income":[],"expense":[],"net":[]}`, string(b))

	b, err = json.Marshal(Monthly(nil, ParseShape("whatever")))
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(b))
}

func TestBreakdownPayload(t *testing.T) {
	b, err := json.Marshal(Breakdown(report.Breakdown{Items: []core.LabeledAmount{{Label: "Food", Value: dec("3")}}}))
	require.NoError(t, err)
	assert.Equal(t, `[{"label":"Food","value":3.00}]`, string(b))

	b, err = json.Marshal(Breakdown(report.Breakdown{}))
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(b))
}
