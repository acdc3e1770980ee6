package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"cashflow/internal/amqp"
	"cashflow/internal/core"
	"cashflow/internal/export"
	applog "cashflow/internal/log"
	"cashflow/internal/report"
	"cashflow/internal/storage/memory"

	"github.com/shopspring/decimal"
)

var fixedNow = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type fixture struct {
	store *memory.Store
	srv   *Server
	jobs  *fakeJobs
	food  core.Category
	sal   core.Category
}

type fakeJobs struct {
	published []*amqp.ExportJobMessage
	err       error
}

func (f *fakeJobs) PublishExportJob(_ context.Context, msg *amqp.ExportJobMessage) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, msg)
	return nil
}

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Level: slog.LevelError, Output: &bytes.Buffer{}})
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	food, err := store.EnsureCategory(ctx, core.KindExpense, "Food")
	if err != nil {
		t.Fatalf("EnsureCategory: %v", err)
	}
	rent, _ := store.EnsureCategory(ctx, core.KindExpense, "Rent")
	sal, _ := store.EnsureCategory(ctx, core.KindIncome, "Salary")

	add := func(kind core.Kind, d core.Date, cat core.Category, amount string) {
		t.Helper()
		if _, err := store.AddTransaction(ctx, core.Transaction{
			Kind: kind, Date: d, CategoryID: cat.ID, Amount: decimal.RequireFromString(amount), Note: "n",
		}); err != nil {
			t.Fatalf("AddTransaction: %v", err)
		}
	}
	add(core.KindExpense, core.NewDate(2025, 3, 2), food, "10.10")
	add(core.KindExpense, core.NewDate(2025, 3, 14), rent, "800")
	add(core.KindExpense, core.NewDate(2025, 2, 20), food, "5.5")
	add(core.KindIncome, core.NewDate(2025, 3, 1), sal, "2500")

	jobs := &fakeJobs{}
	srv := NewServer(":0", Deps{
		Reports:     report.NewEngine(store, report.WithClock(fixedClock)),
		Catalog:     store,
		Jobs:        jobs,
		ReadyChecks: map[string]ReadyCheck{"store": store.Ping},
		Logger:      quietLogger(),
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &fixture{store: store, srv: srv, jobs: jobs, food: food, sal: sal}
}

func (f *fixture) do(t *testing.T, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	f.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealthAndReady(t *testing.T) {
	f := newFixture(t)
	for _, path := range []string{"/health", "/healthz", "/readyz"} {
		rr := f.do(t, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
	if rr := f.do(t, http.MethodGet, "/healthz", ""); rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
	rr := f.do(t, http.MethodGet, "/health", "")
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q, want JSON", ct)
	}
	if got := decode[map[string]string](t, rr); got["status"] != "ok" {
		t.Errorf("body = %v", got)
	}
}

func TestReadyFailsWhenCheckFails(t *testing.T) {
	srv := NewServer(":0", Deps{
		ReadyChecks: map[string]ReadyCheck{"store": func(context.Context) error { return errors.New("down") }},
		Logger:      quietLogger(),
	})
	defer srv.Shutdown(context.Background())

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d, want 503", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"store":"down"`) {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestSummary(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name        string
		query       string
		wantExpense string
		wantIncome  string
		wantNet     string
		wantLabel   string
	}{
		{"default range is month to date", "", "810.10", "2500.00", "1689.90", "2025-03-01 → 2025-03-15"},
		{"explicit range", "?from=2025-02-01&to=2025-02-28", "5.50", "0.00", "-5.50", "2025-02-01 → 2025-02-28"},
		{"inverted range falls back", "?from=2025-03-10&to=2025-03-01", "810.10", "2500.00", "1689.90", "2025-03-01 → 2025-03-15"},
		{"garbage falls back", "?from=yesterday&to=2025-03-01", "810.10", "2500.00", "1689.90", "2025-03-01 → 2025-03-15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := f.do(t, http.MethodGet, "/api/summary"+tt.query, "")
			if rr.Code != http.StatusOK {
				t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
			}
			got := decode[export.TotalsPayload](t, rr)
			if got.Expense.String() != tt.wantExpense || got.Income.String() != tt.wantIncome || got.Net.String() != tt.wantNet {
				t.Errorf("totals = %+v", got)
			}
			if got.RangeLabel != tt.wantLabel {
				t.Errorf("RangeLabel = %q, want %q", got.RangeLabel, tt.wantLabel)
			}
		})
	}

	if rr := f.do(t, http.MethodGet, "/api/summary", ""); rr.Header().Get("Cache-Control") != "no-store" {
		t.Error("api responses should not be cached")
	}
}

func TestBreakdown(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/api/expense_by_category?month=2025-03", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	got := decode[[]export.LabelValue](t, rr)
	if len(got) != 2 || got[0].Label != "Rent" || got[1].Label != "Food" {
		t.Errorf("breakdown = %+v, want Rent then Food", got)
	}

	rr = f.do(t, http.MethodGet, "/api/income_by_category?month=1999-01", "")
	if body := strings.TrimSpace(rr.Body.String()); body != "[]" {
		t.Errorf("empty breakdown body = %s, want []", body)
	}
}

func TestDailyCashflowAndTrend(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/api/cashflow_daily?days=1", "")
	daily := decode[[]export.DailyRecord](t, rr)
	if len(daily) != 1 || daily[0].Label != "2025-03-15" {
		t.Errorf("days=1 clamps to one point ending today, got %+v", daily)
	}

	rr = f.do(t, http.MethodGet, "/api/cashflow_daily?days=abc&shape=columns", "")
	cols := decode[export.DailyColumns](t, rr)
	if len(cols.Labels) != report.DefaultDays || len(cols.Income) != report.DefaultDays {
		t.Errorf("default days = %d labels", len(cols.Labels))
	}

	rr = f.do(t, http.MethodGet, "/api/monthly_totals?months=1", "")
	trend := decode[[]export.MonthRecord](t, rr)
	if len(trend) != 2 {
		t.Fatalf("trend = %+v, want the two months with data", trend)
	}
	if trend[0].Label != "2025-02" || trend[1].Label != "2025-03" || trend[1].Net.String() != "1689.90" {
		t.Errorf("trend = %+v", trend)
	}

	rr = f.do(t, http.MethodGet, "/api/monthly_totals?shape=columns", "")
	mcols := decode[export.MonthlyColumns](t, rr)
	if len(mcols.Net) != len(mcols.Labels) {
		t.Errorf("columns misaligned: %+v", mcols)
	}
}

func TestListAndCategories(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/api/expenses", "")
	list := decode[[]export.TransactionRecord](t, rr)
	if len(list) != 3 || list[0].Date != "2025-03-14" || list[2].Date != "2025-02-20" {
		t.Errorf("list view should be newest first, got %+v", list)
	}
	if list[2].Amount.String() != "5.5" {
		t.Errorf("native precision lost: %s", list[2].Amount)
	}

	rr = f.do(t, http.MethodGet, "/api/expenses?category_id="+url.QueryEscape("1x")+"&from=2025-03-01", "")
	if got := decode[[]export.TransactionRecord](t, rr); len(got) != 2 {
		t.Errorf("invalid category is ignored, from bound applies: got %d rows", len(got))
	}

	rr = f.do(t, http.MethodGet, "/api/income?to=2020-01-01", "")
	if body := strings.TrimSpace(rr.Body.String()); body != "[]" {
		t.Errorf("empty list body = %s, want []", body)
	}

	rr = f.do(t, http.MethodGet, "/api/categories/income", "")
	cats := decode[[]export.CategoryRecord](t, rr)
	if len(cats) != 1 || cats[0].Name != "Salary" || cats[0].ID != f.sal.ID {
		t.Errorf("categories = %+v", cats)
	}

	rr = f.do(t, http.MethodGet, "/api/categories/transfers", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown kind status = %d, want 404", rr.Code)
	}
}

func TestExportCSV(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/export/expenses.csv?from=2025-03-01", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != export.ContentType {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); cd != `attachment; filename="expenses_2025-03-01_.csv"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	body := rr.Body.String()
	if !strings.HasPrefix(body, export.BOM+export.ExpenseHeader+"\n") {
		t.Errorf("body should start with BOM and header, got %q", body)
	}
	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(body, export.BOM)), "\n")
	if len(lines) != 3 || !strings.Contains(lines[1], "2025-03-02") || !strings.Contains(lines[2], "2025-03-14") {
		t.Errorf("rows should be oldest first: %q", lines)
	}

	rr = f.do(t, http.MethodGet, "/export/income.csv", "")
	if !strings.HasPrefix(rr.Body.String(), export.BOM+export.IncomeHeader) {
		t.Errorf("income header missing: %q", rr.Body.String())
	}
	if cd := rr.Header().Get("Content-Disposition"); cd != `attachment; filename="income__.csv"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
}

func TestEnqueueExport(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/api/exports", "kind=income&from=2025-01-01&category_id=3")
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	got := decode[enqueueResponse](t, rr)
	if len(f.jobs.published) != 1 || got.JobID != f.jobs.published[0].ID.String() {
		t.Fatalf("published = %+v, response = %+v", f.jobs.published, got)
	}
	msg := f.jobs.published[0]
	if msg.Kind != core.KindIncome || msg.From != "2025-01-01" || msg.CategoryID != "3" {
		t.Errorf("message = %+v", msg)
	}
	if msg.RequestID == "" || msg.RequestID != rr.Header().Get("X-Request-ID") {
		t.Errorf("message request id = %q, response header = %q", msg.RequestID, rr.Header().Get("X-Request-ID"))
	}

	if rr := f.do(t, http.MethodPost, "/api/exports", "kind=transfer"); rr.Code != http.StatusBadRequest {
		t.Errorf("bad kind status = %d, want 400", rr.Code)
	}

	f.jobs.err = errors.New("broker down")
	if rr := f.do(t, http.MethodPost, "/api/exports", "kind=expense"); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("publish failure status = %d, want 503", rr.Code)
	}

	if rr := f.do(t, http.MethodGet, "/api/exports", ""); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", rr.Code)
	}
}

func TestShutdownLogsRequestMetrics(t *testing.T) {
	var buf bytes.Buffer
	srv := NewServer(":0", Deps{Catalog: memory.New(), Logger: applog.New(applog.Config{Level: slog.LevelInfo, Format: "json", Output: &buf})})

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `"msg":"HTTP server stopped"`) || !strings.Contains(out, `"requests":1`) {
		t.Errorf("shutdown log = %s", out)
	}
}

func TestExportThrottleUsesConfiguredRate(t *testing.T) {
	var buf bytes.Buffer
	srv := NewServer(":0", Deps{
		Catalog:          memory.New(),
		Logger:           applog.New(applog.Config{Level: slog.LevelInfo, Format: "json", Output: &buf}),
		ExportsPerMinute: 1,
	})

	codes := make([]int, 0, 2)
	for range 2 {
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/export/expenses.csv", nil))
		codes = append(codes, rr.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("status codes = %v, want [200 429]", codes)
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !strings.Contains(buf.String(), `"rate_limited":1`) {
		t.Errorf("shutdown log = %s", buf.String())
	}
}

func TestEnqueueExportWithoutQueue(t *testing.T) {
	srv := NewServer(":0", Deps{Catalog: memory.New(), Logger: quietLogger()})
	defer srv.Shutdown(context.Background())

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/exports?kind=expense", nil)
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rr.Code)
	}
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodGet, "/api/dashboard", "")
	got := decode[dashboardPayload](t, rr)
	if got.Summary.Expense.String() != "810.10" || got.Summary.RangeFrom != "2025-03-01" {
		t.Errorf("summary = %+v", got.Summary)
	}
	if len(got.RecentExpenses) != 2 || len(got.RecentIncome) != 1 {
		t.Fatalf("recent = %d expenses, %d income", len(got.RecentExpenses), len(got.RecentIncome))
	}
	for _, tx := range got.RecentExpenses {
		if tx.Date < got.Summary.RangeFrom || tx.Date > got.Summary.RangeTo {
			t.Errorf("recent expense %d dated %s outside %s..%s", tx.ID, tx.Date, got.Summary.RangeFrom, got.Summary.RangeTo)
		}
	}
	if got.RecentExpenses[0].Date != "2025-03-14" {
		t.Errorf("first recent expense = %s, want newest", got.RecentExpenses[0].Date)
	}
}

func TestDashboardHonorsRange(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodGet, "/api/dashboard?from=2025-02-01&to=2025-02-28", "")
	got := decode[dashboardPayload](t, rr)
	if got.Summary.RangeFrom != "2025-02-01" || got.Summary.RangeTo != "2025-02-28" {
		t.Errorf("range = %s..%s", got.Summary.RangeFrom, got.Summary.RangeTo)
	}
	if got.Summary.Expense.String() != "5.50" || got.Summary.Income.String() != "0.00" {
		t.Errorf("summary = %+v", got.Summary)
	}
	if len(got.RecentExpenses) != 1 || got.RecentExpenses[0].Date != "2025-02-20" {
		t.Errorf("recent expenses = %+v", got.RecentExpenses)
	}
	if len(got.RecentIncome) != 0 {
		t.Errorf("recent income = %+v", got.RecentIncome)
	}
}

type failingReports struct{}

func (failingReports) TotalsFor(context.Context, string, string) (report.Totals, error) {
	return report.Totals{}, errors.New("db gone")
}

func (failingReports) CategoryBreakdown(context.Context, core.Kind, string) (report.Breakdown, error) {
	return report.Breakdown{}, errors.New("db gone")
}

func (failingReports) DailyCashflow(context.Context, int) ([]report.DailyPoint, error) {
	return nil, errors.New("db gone")
}

func (failingReports) MonthlyTrend(context.Context, int) ([]report.MonthPoint, error) {
	return nil, errors.New("db gone")
}

func TestStoreFailureIs500(t *testing.T) {
	srv := NewServer(":0", Deps{Reports: failingReports{}, Catalog: memory.New(), Logger: quietLogger()})
	defer srv.Shutdown(context.Background())

	for _, path := range []string{"/api/summary", "/api/expense_by_category", "/api/cashflow_daily", "/api/monthly_totals"} {
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusInternalServerError {
			t.Errorf("%s status = %d, want 500", path, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), `"error"`) {
			t.Errorf("%s body = %s, want JSON error", path, rr.Body.String())
		}
	}
}

func TestNotFoundIsJSON(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodGet, "/nope", "")
	if rr.Code != http.StatusNotFound || !strings.Contains(rr.Body.String(), `"error":"not found"`) {
		t.Errorf("status=%d body=%s", rr.Code, rr.Body.String())
	}
}
