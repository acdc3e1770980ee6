package sheets

import "context"

// Ports for outbound adapters.
type (
	// RowAppender appends string rows after the last used row of a tab.
	RowAppender interface {
		// AppendRows returns the A1 range that was written.
		AppendRows(ctx context.Context, rows [][]string) (updatedRange string, err error)
	}
)
