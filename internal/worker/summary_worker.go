// Package worker maintains an on-disk daily summary snapshot alongside
// the canteen counter. The snapshot is regenerated whenever a token
// event arrives over AMQP and on a fixed interval as a backup, so the
// export directory always carries a recent CSV even if messages are
// lost.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"tokendesk/internal/amqp"
	"tokendesk/internal/core"
	"tokendesk/internal/export"
	applog "tokendesk/internal/log"
	"tokendesk/internal/storage"
)

// SummaryWorker rebuilds the daily summary snapshot from stored state.
type SummaryWorker struct {
	store     storage.StateStore
	exportDir string
	now       func() time.Time
}

func NewSummaryWorker(store storage.StateStore, exportDir string) *SummaryWorker {
	return &SummaryWorker{
		store:     store,
		exportDir: exportDir,
		now:       time.Now,
	}
}

// HandleTokenEvent regenerates today's snapshot in response to a token
// mutation.
func (w *SummaryWorker) HandleTokenEvent(ctx context.Context, msg *amqp.TokenEvent) error {
	slog.InfoContext(ctx, "Processing token event",
		"kind", msg.Kind,
		applog.FieldTokenID, msg.TokenID,
		applog.FieldComponent, applog.ComponentWorker)

	return w.WriteSnapshot(ctx, w.now())
}

// WriteSnapshot loads the stored state, projects the daily summary for
// the given day and writes it as CSV into the export directory. A day
// with no tokens leaves no file behind.
func (w *SummaryWorker) WriteSnapshot(ctx context.Context, day time.Time) error {
	st, err := w.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	rows := core.DailySummary(st.Tokens, day)
	date := day.Format("2006-01-02")
	table := export.DailySummaryTable("Daily Summary "+date, rows)

	path := filepath.Join(w.exportDir, "daily-summary-"+date+".csv")
	if len(rows) == 0 {
		slog.InfoContext(ctx, "No tokens for day, skipping snapshot", "date", date)
		return nil
	}

	if err := os.MkdirAll(w.exportDir, 0755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	if err := export.WriteCSV(f, table); err != nil {
		f.Close()
		os.Remove(tmp)
		if errors.Is(err, export.ErrEmptyTable) {
			return nil
		}
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close snapshot file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace snapshot file: %w", err)
	}

	slog.InfoContext(ctx, "Wrote daily summary snapshot",
		"path", path,
		"meal_types", len(rows))

	return nil
}

// Run regenerates the snapshot on a fixed interval until ctx is
// cancelled. This is the backup path for lost AMQP messages and the
// only path when no broker is configured.
func (w *SummaryWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// One pass up front so a restart repairs a missing snapshot
	// immediately.
	if err := w.WriteSnapshot(ctx, w.now()); err != nil {
		slog.ErrorContext(ctx, "Startup snapshot failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping summary worker", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if err := w.WriteSnapshot(ctx, w.now()); err != nil {
				slog.ErrorContext(ctx, "Periodic snapshot failed", "error", err)
			}
		}
	}
}
