package storage

import (
	"context"
	"fmt"
	"log/slog"

	"cashflow/internal/core"
)

// DefaultIncomeCategories are ensured at startup unless configured otherwise.
var DefaultIncomeCategories = []string{"Tuition fee"}

// Bootstrap ensures the given income categories exist. It runs once per
// process, after the store is opened and before any request is served.
func Bootstrap(ctx context.Context, seeder CategorySeeder, incomeCategories []string) error {
	for _, name := range incomeCategories {
		c, err := seeder.EnsureCategory(ctx, core.KindIncome, name)
		if err != nil {
			return fmt.Errorf("ensure income category %q: %w", name, err)
		}
		slog.DebugContext(ctx, "Income category ensured", "id", c.ID, "name", c.Name)
	}
	return nil
}
