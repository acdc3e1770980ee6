package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"cashflow/internal/amqp"
	"cashflow/internal/export"
	applog "cashflow/internal/log"
	"cashflow/internal/sheets"
	"cashflow/internal/storage"
)

// ExportWorker turns queued export jobs into CSV files and, when a sink is
// configured, spreadsheet rows.
type ExportWorker struct {
	catalog storage.TransactionLister
	dir     string
	sink    sheets.RowAppender
	logger  *applog.Logger
}

// NewExportWorker creates a worker writing into dir. sink may be nil.
func NewExportWorker(catalog storage.TransactionLister, dir string, sink sheets.RowAppender, logger *applog.Logger) *ExportWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &ExportWorker{
		catalog: catalog,
		dir:     dir,
		sink:    sink,
		logger:  logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleJob processes a single export job from AMQP. Jobs with the same
// bounds write the same file; the last one wins.
func (w *ExportWorker) HandleJob(ctx context.Context, msg *amqp.ExportJobMessage) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	logger := w.logger.With(applog.FieldJobID, msg.ID.String(), applog.FieldKind, string(msg.Kind))
	if msg.RequestID != "" {
		logger = logger.With(applog.FieldRequestID, msg.RequestID)
	}
	ctx = applog.NewContext(ctx, logger)

	f := export.ExportFilter(msg.From, msg.To, msg.CategoryID)
	txs, err := w.catalog.ListTransactions(ctx, msg.Kind, f)
	if err != nil {
		return fmt.Errorf("list %s: %w", msg.Kind, err)
	}

	name := export.Filename(msg.Kind, f)
	path, err := w.writeFile(name, func(file *os.File) error {
		return export.WriteTransactions(file, msg.Kind, txs)
	})
	if err != nil {
		return err
	}

	from, to := f.BoundStrings()
	sl := applog.NewStructuredLogger(logger)
	sl.LogExport(ctx, string(msg.Kind), from, to, len(txs), path)

	if w.sink == nil {
		return nil
	}

	rows := make([][]string, 0, len(txs)+1)
	rows = append(rows, export.Header(msg.Kind))
	for _, tx := range txs {
		rows = append(rows, export.Record(msg.Kind, tx))
	}
	ref, err := w.sink.AppendRows(ctx, rows)
	if err != nil {
		sl.LogError(ctx, "Sheets append failed", err, applog.ComponentSheets, applog.OpExport, nil)
		return fmt.Errorf("append to sheets: %w", err)
	}
	logger.InfoContext(ctx, "Export appended to sheet", "range", ref, applog.FieldRows, len(txs))
	return nil
}

// writeFile writes through a temp file in the target directory and renames
// it into place, so readers never see a partial export.
func (w *ExportWorker) writeFile(name string, write func(*os.File) error) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	tmp, err := os.CreateTemp(w.dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("create temp export: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}

	path := filepath.Join(w.dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename %s: %w", name, err)
	}
	return path, nil
}
