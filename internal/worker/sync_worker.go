package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"consultas/internal/amqp"
	"consultas/internal/core"
	"consultas/internal/sheets"
)

// AppointmentReader is the read side of the record store.
type AppointmentReader interface {
	Get(ctx context.Context, id int64) (core.Appointment, error)
	ListAll(ctx context.Context) ([]core.Appointment, error)
}

// SyncWorker mirrors appointment events from AMQP into a spreadsheet.
type SyncWorker struct {
	storage AppointmentReader
	mirror  sheets.AppointmentMirror
}

func NewSyncWorker(storage AppointmentReader, mirror sheets.AppointmentMirror) *SyncWorker {
	return &SyncWorker{storage: storage, mirror: mirror}
}

// HandleEvent applies one event. A returned error requeues the delivery.
func (w *SyncWorker) HandleEvent(ctx context.Context, e *amqp.AppointmentEvent) error {
	switch e.Type {
	case amqp.EventRecorded:
		return w.syncAppointment(ctx, e.IDs[0])
	case amqp.EventDeleted:
		if err := w.mirror.Remove(ctx, e.IDs); err != nil {
			return fmt.Errorf("remove from mirror: %w", err)
		}
		slog.InfoContext(ctx, "Removed appointments from mirror", "ids", e.IDs)
		return nil
	default:
		slog.WarnContext(ctx, "Ignoring unknown event type", "type", e.Type)
		return nil
	}
}

func (w *SyncWorker) syncAppointment(ctx context.Context, id int64) error {
	a, err := w.storage.Get(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted before the worker caught up; the delete event follows.
		slog.WarnContext(ctx, "Appointment no longer exists, skipping", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get appointment from storage: %w", err)
	}

	if err := w.mirror.Upsert(ctx, a); err != nil {
		return fmt.Errorf("upsert into mirror: %w", err)
	}

	slog.InfoContext(ctx, "Successfully synced appointment",
		"id", a.ID,
		"amount_cents", a.AmountPaid.Cents)
	return nil
}

// StartupSync pushes every stored appointment to the mirror so rows missed
// while the worker was down are caught up. Individual failures are counted,
// not fatal.
func (w *SyncWorker) StartupSync(ctx context.Context) error {
	all, err := w.storage.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list appointments for startup sync: %w", err)
	}

	var synced, failed int
	for i := len(all) - 1; i >= 0; i-- { // oldest first
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.mirror.Upsert(ctx, all[i]); err != nil {
			slog.ErrorContext(ctx, "Failed to sync appointment during startup",
				"id", all[i].ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(all),
		"synced", synced,
		"errors", failed)
	return nil
}
