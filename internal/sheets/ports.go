package sheets

import (
	"context"

	"consultas/internal/core"
)

// Ports for outbound adapters.
type (
	// AppointmentMirror keeps an external copy of the appointment log keyed
	// by appointment id.
	AppointmentMirror interface {
		// Upsert writes a, replacing any existing row with the same id.
		Upsert(ctx context.Context, a core.Appointment) error
		// Remove clears the rows of ids. Unknown ids are ignored.
		Remove(ctx context.Context, ids []int64) error
	}
)

// MirrorHeader is the first row of the mirror sheet. Column A holds the id.
var MirrorHeader = []any{"ID", "Paciente", "CPF", "Descrição", "Valor pago", "Data/hora"}
