package http

import (
	"bytes"
	"net/http"
	"strconv"

	"cashflow/internal/amqp"
	"cashflow/internal/core"
	"cashflow/internal/export"
	applog "cashflow/internal/log"
	"cashflow/internal/middleware/trace"
)

// handleList serves the interactive list view: newest first, capped.
func (s *Server) handleList(kind core.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := s.withTimeout(r)
		defer cancel()

		p := ParseFilterParams(r)
		txs, err := s.catalog.ListTransactions(ctx, kind, export.ListFilter(p.From, p.To, p.CategoryID))
		if err != nil {
			s.fail(w, r, applog.OpList, err, applog.NewFields().WithExport(string(kind), p.From, p.To, 0))
			return
		}
		NewJSONResponse().Body(export.Transactions(txs)).Write(w)
	}
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		NotFoundError("unknown kind").Write(w)
		return
	}

	ctx, cancel := s.withTimeout(r)
	defer cancel()

	cats, err := s.catalog.ListCategories(ctx, kind)
	if err != nil {
		s.fail(w, r, applog.OpList, err, applog.LogFields{applog.FieldKind: string(kind)})
		return
	}
	NewJSONResponse().Body(export.Categories(cats)).Write(w)
}

// handleExportCSV streams every matching transaction, oldest first. The
// body is rendered in full before headers go out so a failure is a clean 500.
func (s *Server) handleExportCSV(kind core.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := s.withTimeout(r)
		defer cancel()

		p := ParseFilterParams(r)
		f := export.ExportFilter(p.From, p.To, p.CategoryID)
		txs, err := s.catalog.ListTransactions(ctx, kind, f)
		if err != nil {
			s.fail(w, r, applog.OpExport, err, applog.NewFields().WithExport(string(kind), p.From, p.To, 0))
			return
		}

		var buf bytes.Buffer
		if err := export.WriteTransactions(&buf, kind, txs); err != nil {
			s.fail(w, r, applog.OpExport, err, nil)
			return
		}

		name := export.Filename(kind, f)
		w.Header().Set("Content-Type", export.ContentType)
		w.Header().Set("Content-Disposition", export.ContentDisposition(name))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)

		from, to := f.BoundStrings()
		applog.NewStructuredLogger(applog.FromContext(ctx)).LogExport(ctx, string(kind), from, to, len(txs), name)
	}
}

type enqueueResponse struct {
	JobID  string    `json:"job_id"`
	Kind   core.Kind `json:"kind"`
	Status string    `json:"status"`
}

// handleEnqueueExport queues an async CSV export and answers 202.
func (s *Server) handleEnqueueExport(w http.ResponseWriter, r *http.Request) {
	if s.jobs == nil {
		ServiceUnavailableError("export queue not configured").Write(w)
		return
	}

	kind, err := core.ParseKind(param(r, "kind"))
	if err != nil {
		BadRequestError("kind must be expense or income").Write(w)
		return
	}

	ctx, cancel := s.withTimeout(r)
	defer cancel()

	p := ParseFilterParams(r)
	msg := amqp.NewExportJobMessage(kind, p.From, p.To, p.CategoryID)
	msg.RequestID = trace.GetRequestID(ctx)
	if err := s.jobs.PublishExportJob(ctx, msg); err != nil {
		sl := applog.NewStructuredLogger(applog.FromContext(ctx))
		sl.LogError(ctx, "Export job not queued", err, applog.ComponentAMQP, applog.OpEnqueue,
			applog.LogFields{applog.FieldJobID: msg.ID.String()})
		ServiceUnavailableError("export queue unavailable").Write(w)
		return
	}

	applog.FromContext(ctx).InfoContext(ctx, "Export job queued", applog.FieldJobID, msg.ID.String(), applog.FieldKind, string(kind))
	NewJSONResponse().
		Status(http.StatusAccepted).
		Body(enqueueResponse{JobID: msg.ID.String(), Kind: kind, Status: "queued"}).
		Write(w)
}
