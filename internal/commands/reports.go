package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"cashflow/internal/core"
	"cashflow/internal/export"
	"cashflow/internal/storage"
)

func newSummaryCommand(a *app) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Expense, income and net totals over a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(ctx context.Context, store storage.Store) error {
				totals, err := a.newEngine(store).TotalsFor(ctx, from, to)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), export.Totals(totals))
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD (default: first of this month)")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD (default: today)")

	return cmd
}

func newCategoriesCommand(a *app) *cobra.Command {
	var kindRaw, month string

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Per-category totals for one month, largest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := core.ParseKind(kindRaw)
			if err != nil {
				return fmt.Errorf("--kind: %w", err)
			}
			return a.withStore(cmd, func(ctx context.Context, store storage.Store) error {
				b, err := a.newEngine(store).CategoryBreakdown(ctx, kind, month)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), export.Breakdown(b))
			})
		},
	}

	cmd.Flags().StringVar(&kindRaw, "kind", string(core.KindExpense), "expense or income")
	cmd.Flags().StringVar(&month, "month", "", "month, YYYY-MM (default: this month)")

	return cmd
}

func newCashflowCommand(a *app) *cobra.Command {
	var (
		days  int
		shape string
	)

	cmd := &cobra.Command{
		Use:   "cashflow",
		Short: "Daily income and expense for the last N days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(ctx context.Context, store storage.Store) error {
				points, err := a.newEngine(store).DailyCashflow(ctx, days)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), export.Daily(points, export.ParseShape(shape)))
			})
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "number of days, clamped to 1..90")
	cmd.Flags().StringVar(&shape, "shape", string(export.ShapeRecords), "records or columns")

	return cmd
}

func newTrendCommand(a *app) *cobra.Command {
	var (
		months int
		shape  string
	)

	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Monthly income, expense and net, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(ctx context.Context, store storage.Store) error {
				points, err := a.newEngine(store).MonthlyTrend(ctx, months)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), export.Monthly(points, export.ParseShape(shape)))
			})
		},
	}

	cmd.Flags().IntVar(&months, "months", 12, "number of months, clamped to 3..24")
	cmd.Flags().StringVar(&shape, "shape", string(export.ShapeRecords), "records or columns")

	return cmd
}
