package worker

import (
	"context"
	"errors"
	"testing"

	"consultas/internal/amqp"
	"consultas/internal/core"
	"consultas/internal/sheets/memory"
)

type fakeReader struct {
	rows map[int64]core.Appointment
	err  error
}

func (f *fakeReader) Get(_ context.Context, id int64) (core.Appointment, error) {
	if f.err != nil {
		return core.Appointment{}, f.err
	}
	a, ok := f.rows[id]
	if !ok {
		return core.Appointment{}, core.ErrNotFound
	}
	return a, nil
}

func (f *fakeReader) ListAll(context.Context) ([]core.Appointment, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []core.Appointment
	for id := int64(len(f.rows)); id >= 1; id-- {
		if a, ok := f.rows[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

type failingMirror struct{}

func (failingMirror) Upsert(context.Context, core.Appointment) error { return errors.New("quota exceeded") }
func (failingMirror) Remove(context.Context, []int64) error         { return errors.New("quota exceeded") }

func TestHandleEvent(t *testing.T) {
	reader := &fakeReader{rows: map[int64]core.Appointment{
		1: {ID: 1, PatientName: "Ana"},
		2: {ID: 2, PatientName: "Bruno"},
	}}
	mirror := memory.New()
	w := NewSyncWorker(reader, mirror)
	ctx := context.Background()

	for _, id := range []int64{1, 2} {
		if err := w.HandleEvent(ctx, amqp.NewRecordedEvent(id)); err != nil {
			t.Fatalf("recorded %d: %v", id, err)
		}
	}
	if got := len(mirror.Rows()); got != 2 {
		t.Fatalf("expected 2 mirrored rows, got %d", got)
	}

	if err := w.HandleEvent(ctx, amqp.NewDeletedEvent([]int64{1})); err != nil {
		t.Fatalf("deleted: %v", err)
	}
	rows := mirror.Rows()
	if len(rows) != 1 || rows[0].ID != 2 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestHandleEventMissingAppointmentIsAcked(t *testing.T) {
	w := NewSyncWorker(&fakeReader{rows: map[int64]core.Appointment{}}, memory.New())
	if err := w.HandleEvent(context.Background(), amqp.NewRecordedEvent(9)); err != nil {
		t.Fatalf("missing appointment should not requeue, got %v", err)
	}
}

func TestHandleEventFailuresRequeue(t *testing.T) {
	ctx := context.Background()

	w := NewSyncWorker(&fakeReader{err: errors.New("database is locked")}, memory.New())
	if err := w.HandleEvent(ctx, amqp.NewRecordedEvent(1)); err == nil {
		t.Fatal("expected storage error")
	}

	w = NewSyncWorker(&fakeReader{rows: map[int64]core.Appointment{1: {ID: 1}}}, failingMirror{})
	if err := w.HandleEvent(ctx, amqp.NewRecordedEvent(1)); err == nil {
		t.Fatal("expected mirror error on upsert")
	}
	if err := w.HandleEvent(ctx, amqp.NewDeletedEvent([]int64{1})); err == nil {
		t.Fatal("expected mirror error on remove")
	}
}

func TestStartupSync(t *testing.T) {
	reader := &fakeReader{rows: map[int64]core.Appointment{
		1: {ID: 1, PatientName: "Ana"},
		2: {ID: 2, PatientName: "Bruno"},
		3: {ID: 3, PatientName: "Carla"},
	}}
	mirror := memory.New()
	if err := NewSyncWorker(reader, mirror).StartupSync(context.Background()); err != nil {
		t.Fatalf("StartupSync: %v", err)
	}
	if got := len(mirror.Rows()); got != 3 {
		t.Fatalf("expected 3 rows, got %d", got)
	}

	if err := NewSyncWorker(reader, failingMirror{}).StartupSync(context.Background()); err != nil {
		t.Fatalf("individual failures must not fail startup: %v", err)
	}
	if err := NewSyncWorker(&fakeReader{err: errors.New("boom")}, mirror).StartupSync(context.Background()); err == nil {
		t.Fatal("expected list error")
	}
}
