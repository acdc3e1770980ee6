package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"cashflow/internal/core"
	"cashflow/internal/export"
	"cashflow/internal/storage"
)

func newExportCommand(a *app) *cobra.Command {
	var kindRaw, from, to, categoryID, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Dump transactions of one kind as CSV",
		Long: "Dump transactions of one kind as CSV, oldest first.\n" +
			"--out may name a file or an existing directory; in the latter case the\n" +
			"standard export file name is used.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := core.ParseKind(kindRaw)
			if err != nil {
				return fmt.Errorf("--kind: %w", err)
			}
			return a.withStore(cmd, func(ctx context.Context, store storage.Store) error {
				return runExport(ctx, cmd.OutOrStdout(), store, kind, export.ExportFilter(from, to, categoryID), out)
			})
		},
	}

	cmd.Flags().StringVar(&kindRaw, "kind", string(core.KindExpense), "expense or income")
	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD")
	cmd.Flags().StringVar(&categoryID, "category-id", "", "only this category id")
	cmd.Flags().StringVar(&out, "out", "", "output file or directory (default: stdout)")

	return cmd
}

func runExport(ctx context.Context, stdout io.Writer, lister storage.TransactionLister, kind core.Kind, f core.Filter, out string) error {
	txs, err := lister.ListTransactions(ctx, kind, f)
	if err != nil {
		return fmt.Errorf("list %s: %w", kind, err)
	}

	if out == "" {
		return export.WriteTransactions(stdout, kind, txs)
	}

	if info, err := os.Stat(out); err == nil && info.IsDir() {
		out = filepath.Join(out, export.Filename(kind, f))
	}
	file, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", out, err)
	}
	if err := export.WriteTransactions(file, kind, txs); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", out, err)
	}
	fmt.Fprintf(stdout, "wrote %d rows to %s\n", len(txs), out)
	return nil
}
