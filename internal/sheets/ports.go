// Package sheets defines the outbound ports for spreadsheet report export.
package sheets

import (
	"context"

	"homeexpenses/internal/summary"
)

// ReportWriter publishes a dashboard snapshot to an external spreadsheet.
// Each call replaces the previous report.
type ReportWriter interface {
	WriteReport(ctx context.Context, d summary.Dashboard) error
}
