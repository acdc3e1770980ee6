package http

import (
	"net/http"

	"cashflow/internal/core"
	"cashflow/internal/export"
	applog "cashflow/internal/log"
	"cashflow/internal/report"

	"golang.org/x/sync/errgroup"
)

// dashboardRecent is how many of the latest transactions per kind the
// dashboard carries.
const dashboardRecent = 10

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.withTimeout(r)
	defer cancel()

	from, to := param(r, "from"), param(r, "to")
	totals, err := s.reports.TotalsFor(ctx, from, to)
	if err != nil {
		s.fail(w, r, applog.OpSummary, err, applog.LogFields{applog.FieldRangeFrom: from, applog.FieldRangeTo: to})
		return
	}
	NewJSONResponse().Body(export.Totals(totals)).Write(w)
}

func (s *Server) handleBreakdown(kind core.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := s.withTimeout(r)
		defer cancel()

		b, err := s.reports.CategoryBreakdown(ctx, kind, param(r, "month"))
		if err != nil {
			fields := applog.NewFields()
			fields[applog.FieldKind] = string(kind)
			s.fail(w, r, applog.OpBreakdown, err, fields)
			return
		}
		NewJSONResponse().Body(export.Breakdown(b)).Write(w)
	}
}

func (s *Server) handleDailyCashflow(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.withTimeout(r)
	defer cancel()

	days := report.ParseDays(param(r, "days"))
	points, err := s.reports.DailyCashflow(ctx, days)
	if err != nil {
		s.fail(w, r, applog.OpCashflow, err, applog.LogFields{applog.FieldDays: days})
		return
	}
	NewJSONResponse().Body(export.Daily(points, export.ParseShape(param(r, "shape")))).Write(w)
}

func (s *Server) handleMonthlyTotals(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.withTimeout(r)
	defer cancel()

	months := report.ParseMonths(param(r, "months"))
	points, err := s.reports.MonthlyTrend(ctx, months)
	if err != nil {
		s.fail(w, r, applog.OpTrend, err, applog.LogFields{applog.FieldMonths: months})
		return
	}
	NewJSONResponse().Body(export.Monthly(points, export.ParseShape(param(r, "shape")))).Write(w)
}

type dashboardPayload struct {
	Summary        export.TotalsPayload       `json:"summary"`
	RecentExpenses []export.TransactionRecord `json:"recent_expenses"`
	RecentIncome   []export.TransactionRecord `json:"recent_income"`
}

// handleDashboard returns the summary for the requested range with the
// latest transactions of each kind inside that same range.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.withTimeout(r)
	defer cancel()

	from, to := param(r, "from"), param(r, "to")
	totals, err := s.reports.TotalsFor(ctx, from, to)
	if err != nil {
		s.fail(w, r, applog.OpSummary, err, applog.LogFields{applog.FieldRangeFrom: from, applog.FieldRangeTo: to})
		return
	}

	var expenses, income []core.Transaction
	recent := core.NewFilter().
		Since(totals.Range.From).
		Until(totals.Range.To).
		Descending().
		WithLimit(dashboardRecent)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		expenses, err = s.catalog.ListTransactions(gctx, core.KindExpense, recent)
		return err
	})
	g.Go(func() (err error) {
		income, err = s.catalog.ListTransactions(gctx, core.KindIncome, recent)
		return err
	})
	if err := g.Wait(); err != nil {
		s.fail(w, r, applog.OpSummary, err, nil)
		return
	}

	NewJSONResponse().Body(dashboardPayload{
		Summary:        export.Totals(totals),
		RecentExpenses: export.Transactions(expenses),
		RecentIncome:   export.Transactions(income),
	}).Write(w)
}
