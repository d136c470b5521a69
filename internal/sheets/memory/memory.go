// Package memory is an in-process AppointmentMirror, used by tests and when
// the worker runs without a spreadsheet.
package memory

import (
	"context"
	"sort"
	"sync"

	"consultas/internal/core"
	ports "consultas/internal/sheets"
)

var _ ports.AppointmentMirror = (*Mirror)(nil)

type Mirror struct {
	mu   sync.Mutex
	rows map[int64]core.Appointment
}

func New() *Mirror {
	return &Mirror{rows: map[int64]core.Appointment{}}
}

func (m *Mirror) Upsert(_ context.Context, a core.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[a.ID] = a
	return nil
}

func (m *Mirror) Remove(_ context.Context, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.rows, id)
	}
	return nil
}

// Rows returns the mirrored appointments ordered by id.
func (m *Mirror) Rows() []core.Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Appointment, 0, len(m.rows))
	for _, a := range m.rows {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
