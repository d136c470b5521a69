package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EventType names what happened to the referenced appointments.
type EventType string

const (
	EventRecorded EventType = "appointment.recorded"
	EventDeleted  EventType = "appointment.deleted"
)

// AppointmentEvent references appointments by id only; consumers read the
// full rows from the database.
type AppointmentEvent struct {
	Type      EventType `json:"type"`
	IDs       []int64   `json:"ids"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRecordedEvent(id int64) *AppointmentEvent {
	return &AppointmentEvent{Type: EventRecorded, IDs: []int64{id}, Timestamp: time.Now()}
}

func NewDeletedEvent(ids []int64) *AppointmentEvent {
	cp := make([]int64, len(ids))
	copy(cp, ids)
	return &AppointmentEvent{Type: EventDeleted, IDs: cp, Timestamp: time.Now()}
}

func (e *AppointmentEvent) Validate() error {
	switch e.Type {
	case EventRecorded:
		if len(e.IDs) != 1 {
			return fmt.Errorf("%s event needs exactly one id, got %d", e.Type, len(e.IDs))
		}
	case EventDeleted:
		if len(e.IDs) == 0 {
			return errors.New("delete event without ids")
		}
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	for _, id := range e.IDs {
		if id <= 0 {
			return fmt.Errorf("invalid appointment id %d", id)
		}
	}
	return nil
}

// ToJSON converts the event to JSON bytes
func (e *AppointmentEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// AppointmentEventFromJSON decodes and validates an event.
func AppointmentEventFromJSON(data []byte) (*AppointmentEvent, error) {
	var e AppointmentEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}
