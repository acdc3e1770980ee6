// Package http exposes reports, transaction lists and CSV exports over a
// chi router.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"cashflow/internal/amqp"
	"cashflow/internal/core"
	applog "cashflow/internal/log"
	"cashflow/internal/middleware/ratelimit"
	"cashflow/internal/middleware/security"
	"cashflow/internal/middleware/trace"
	"cashflow/internal/report"
	"cashflow/internal/storage"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

const defaultRequestTimeout = 7 * time.Second

// Reports is the aggregation surface the handlers read from.
type Reports interface {
	TotalsFor(ctx context.Context, fromRaw, toRaw string) (report.Totals, error)
	CategoryBreakdown(ctx context.Context, kind core.Kind, monthRaw string) (report.Breakdown, error)
	DailyCashflow(ctx context.Context, days int) ([]report.DailyPoint, error)
	MonthlyTrend(ctx context.Context, months int) ([]report.MonthPoint, error)
}

// Catalog lists raw transactions and category choices.
type Catalog interface {
	storage.TransactionLister
	storage.CategoryLister
}

// JobPublisher queues async export jobs.
type JobPublisher interface {
	PublishExportJob(ctx context.Context, msg *amqp.ExportJobMessage) error
}

// ReadyCheck is one readiness probe; a non-nil error fails /readyz.
type ReadyCheck func(ctx context.Context) error

type Deps struct {
	Reports Reports
	Catalog Catalog
	// Jobs is optional; without it POST /api/exports answers 503.
	Jobs           JobPublisher
	ReadyChecks    map[string]ReadyCheck
	Logger         *applog.Logger
	RequestTimeout time.Duration
	// ExportsPerMinute bounds CSV downloads and job submissions per client.
	ExportsPerMinute int
}

type Server struct {
	http.Server
	reports     Reports
	catalog     Catalog
	jobs        JobPublisher
	readyChecks map[string]ReadyCheck
	logger      *applog.Logger
	timeout     time.Duration

	tracer      *trace.Middleware
	limiter     *ratelimit.Limiter
	stopLimiter context.CancelFunc

	shutdownOnce sync.Once
}

// NewServer wires the routes and returns a server ready for ListenAndServe.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	timeout := deps.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	clientIP := security.NewClientIP()
	s := &Server{
		reports:     deps.Reports,
		catalog:     deps.Catalog,
		jobs:        deps.Jobs,
		readyChecks: deps.ReadyChecks,
		logger:      logger.WithComponent(applog.ComponentHTTP),
		timeout:     timeout,
		limiter:     ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.ExportsPerMinute}),
	}
	s.tracer = trace.NewMiddleware(s.logger, clientIP.Extract)

	limiterCtx, cancel := context.WithCancel(context.Background())
	s.stopLimiter = cancel
	go s.limiter.Run(limiterCtx)

	throttle := s.limiter.Middleware(clientIP.Extract, func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded", applog.FieldClientIP, clientIP.Extract(r))
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
	})

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(s.tracer.Handler)
	r.Use(security.Headers(security.DefaultHeadersConfig()))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		MethodNotAllowedError().Write(w)
	})

	r.Get("/health", handleHealth)
	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(security.NoStore)

		r.Get("/summary", s.handleSummary)
		r.Get("/expense_by_category", s.handleBreakdown(core.KindExpense))
		r.Get("/income_by_category", s.handleBreakdown(core.KindIncome))
		r.Get("/cashflow_daily", s.handleDailyCashflow)
		r.Get("/monthly_totals", s.handleMonthlyTotals)
		r.Get("/dashboard", s.handleDashboard)

		r.Get("/expenses", s.handleList(core.KindExpense))
		r.Get("/income", s.handleList(core.KindIncome))
		r.Get("/categories/{kind}", s.handleCategories)

		r.With(throttle).Post("/exports", s.handleEnqueueExport)
	})

	r.Route("/export", func(r chi.Router) {
		r.Use(security.NoStore, throttle)
		r.Get("/expenses.csv", s.handleExportCSV(core.KindExpense))
		r.Get("/income.csv", s.handleExportCSV(core.KindIncome))
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// withTimeout bounds store work for one request.
func (s *Server) withTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.timeout)
}

// fail logs err against the request and answers 500 without details.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error, fields applog.LogFields) {
	sl := applog.NewStructuredLogger(applog.FromContext(r.Context()))
	sl.LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, op, fields)
	InternalServerError("failed to " + op).Write(w)
}

// Shutdown stops background work and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.stopLimiter()
		err = s.Server.Shutdown(ctx)
		m := s.tracer.GetMetrics()
		lm := s.limiter.GetMetrics()
		s.logger.InfoContext(ctx, "HTTP server stopped",
			"requests", m.TotalRequests,
			"avg_response_ms", m.AverageResponseTime.Milliseconds(),
			"rate_limited", lm.TotalHits)
	})
	return err
}
