package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"homeexpenses/internal/amqp"
	"homeexpenses/internal/core"
	"homeexpenses/internal/log"
	"homeexpenses/internal/sheets"
	"homeexpenses/internal/summary"
)

// DashboardSource builds dashboards from the persisted collection.
// *services.ExpenseService implements it.
type DashboardSource interface {
	Dashboard(ctx context.Context, state core.FilterState) (summary.Dashboard, error)
}

// ReportWorker rebuilds the unfiltered dashboard and exports it whenever an
// import event arrives.
type ReportWorker struct {
	source DashboardSource
	writer sheets.ReportWriter
	now    func() time.Time

	mu         sync.Mutex
	lastExport time.Time
}

func NewReportWorker(source DashboardSource, writer sheets.ReportWriter) *ReportWorker {
	return &ReportWorker{
		source: source,
		writer: writer,
		now:    time.Now,
	}
}

// HandleImportEvent exports a fresh report. Events published before the
// last successful export are already reflected in it and are skipped.
func (w *ReportWorker) HandleImportEvent(ctx context.Context, ev *amqp.ImportEvent) error {
	w.mu.Lock()
	last := w.lastExport
	w.mu.Unlock()

	if !last.IsZero() && ev.Timestamp.Before(last) {
		slog.InfoContext(ctx, "Import already covered by last export, skipping",
			"batch_id", ev.BatchID,
			"event_time", ev.Timestamp,
			"last_export", last)
		return nil
	}

	if err := w.Export(ctx); err != nil {
		return fmt.Errorf("export after import %s: %w", ev.BatchID, err)
	}
	return nil
}

// Export writes the report for the whole collection.
func (w *ReportWorker) Export(ctx context.Context) error {
	started := w.now()

	d, err := w.source.Dashboard(ctx, core.FilterState{})
	if err != nil {
		return fmt.Errorf("build dashboard: %w", err)
	}
	if err := w.writer.WriteReport(ctx, d); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	w.mu.Lock()
	w.lastExport = started
	w.mu.Unlock()

	slog.InfoContext(ctx, "Report exported",
		log.FieldOperation, log.OpExport,
		"expenses", d.Count,
		"total", d.Total,
		"duration_ms", w.now().Sub(started).Milliseconds())
	return nil
}
