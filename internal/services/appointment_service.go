package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"

	"consultas/internal/cache"
	"consultas/internal/core"
	"consultas/internal/metrics"
)

// AppointmentStore is the persistence the service needs.
type AppointmentStore interface {
	Insert(ctx context.Context, a core.Appointment) (core.Appointment, error)
	ListAll(ctx context.Context) ([]core.Appointment, error)
	Get(ctx context.Context, id int64) (core.Appointment, error)
	Delete(ctx context.Context, ids []int64) (int64, error)
	SumByMonth(ctx context.Context, year int) ([12]core.Money, error)
}

// EventPublisher announces changes to other processes. Failures never fail
// the originating request.
type EventPublisher interface {
	PublishRecorded(ctx context.Context, id int64) error
	PublishDeleted(ctx context.Context, ids []int64) error
}

// RecordRequest is the raw Add form.
type RecordRequest struct {
	PatientName string `validate:"notblank,max=200"`
	NationalID  string `validate:"notblank"`
	Description string `validate:"max=2000"`
	AmountPaid  string
}

// AppointmentService orchestrates appointment operations across SQLite and AMQP.
type AppointmentService struct {
	store     AppointmentStore
	publisher EventPublisher
	metrics   *metrics.Metrics
	validate  *validator.Validate
	summaries cache.Cache[int, core.YearSummary]
	// generation is bumped by every write; a summary read that saw a
	// different generation is served but not cached.
	generation atomic.Uint64
	now        func() time.Time
}

type Option func(*AppointmentService)

func WithPublisher(p EventPublisher) Option {
	return func(s *AppointmentService) { s.publisher = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *AppointmentService) { s.metrics = m }
}

// WithSummaryCache keeps computed year summaries in c until the next write.
func WithSummaryCache(c cache.Cache[int, core.YearSummary]) Option {
	return func(s *AppointmentService) { s.summaries = c }
}

func WithClock(now func() time.Time) Option {
	return func(s *AppointmentService) { s.now = now }
}

func NewAppointmentService(store AppointmentStore, opts ...Option) *AppointmentService {
	s := &AppointmentService{
		store:    store,
		validate: newValidator(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// Now is the service clock, used for the displayed timestamp and the
// summary year.
func (s *AppointmentService) Now() time.Time {
	return s.now()
}

// Record validates req, formats the national id and stores the appointment.
func (s *AppointmentService) Record(ctx context.Context, req RecordRequest) (core.Appointment, error) {
	req.PatientName = strings.TrimSpace(req.PatientName)
	req.Description = strings.TrimSpace(req.Description)
	req.NationalID = core.FormatNationalID(req.NationalID)

	if err := s.validate.StructCtx(ctx, req); err != nil {
		return core.Appointment{}, validationError(err)
	}

	amount, err := core.ParseAmount(req.AmountPaid)
	if err != nil {
		return core.Appointment{}, err
	}

	saved, err := s.store.Insert(ctx, core.Appointment{
		PatientName: req.PatientName,
		NationalID:  req.NationalID,
		Description: req.Description,
		AmountPaid:  amount,
	})
	if err != nil {
		if core.IsValidation(err) {
			return core.Appointment{}, err
		}
		return core.Appointment{}, fmt.Errorf("save appointment: %w", err)
	}

	s.invalidateSummaries()

	if s.metrics != nil {
		s.metrics.AppointmentsRecorded.Inc()
		s.metrics.AmountRecordedCents.Add(float64(saved.AmountPaid.Cents))
	}

	if s.publisher != nil {
		s.observePublish(ctx, "recorded", s.publisher.PublishRecorded(ctx, saved.ID), "id", saved.ID)
	} else {
		slog.DebugContext(ctx, "Event publisher not configured, skipping recorded event")
	}

	return saved, nil
}

// validationError maps the first failing field to its domain error.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate appointment: %w", err)
	}
	fe := verrs[0]
	switch fe.Field() {
	case "PatientName":
		if fe.Tag() == "max" {
			return core.ErrPatientNameTooLong
		}
		return core.ErrEmptyPatientName
	case "NationalID":
		return core.ErrEmptyNationalID
	case "Description":
		return core.ErrDescriptionTooLong
	}
	return fmt.Errorf("validate appointment: %w", err)
}

// List returns every appointment, newest first.
func (s *AppointmentService) List(ctx context.Context) ([]core.Appointment, error) {
	list, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return list, nil
}

// Get returns one appointment or core.ErrNotFound.
func (s *AppointmentService) Get(ctx context.Context, id int64) (core.Appointment, error) {
	return s.store.Get(ctx, id)
}

// Delete removes the selected appointments. An empty selection is
// core.ErrNoSelection and touches nothing.
func (s *AppointmentService) Delete(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, core.ErrNoSelection
	}

	removed, err := s.store.Delete(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("delete appointments: %w", err)
	}

	if removed > 0 {
		s.invalidateSummaries()
	}

	if s.metrics != nil {
		s.metrics.AppointmentsDeleted.Add(float64(removed))
	}

	if removed > 0 && s.publisher != nil {
		s.observePublish(ctx, "deleted", s.publisher.PublishDeleted(ctx, ids), "ids", ids)
	}

	return removed, nil
}

// YearSummary buckets the revenue of year by month.
func (s *AppointmentService) YearSummary(ctx context.Context, year int) (core.YearSummary, error) {
	if s.summaries != nil {
		if sum, ok := s.summaries.Get(year); ok {
			return sum, nil
		}
	}

	gen := s.generation.Load()
	months, err := s.store.SumByMonth(ctx, year)
	if err != nil {
		return core.YearSummary{}, fmt.Errorf("summarize %d: %w", year, err)
	}
	sum := core.YearSummary{Year: year, Months: months}
	if s.summaries != nil && s.generation.Load() == gen {
		s.summaries.Set(year, sum)
	}
	return sum, nil
}

// CurrentYearSummary is YearSummary for the year of the service clock.
func (s *AppointmentService) CurrentYearSummary(ctx context.Context) (core.YearSummary, error) {
	return s.YearSummary(ctx, s.now().Year())
}

func (s *AppointmentService) invalidateSummaries() {
	s.generation.Add(1)
	if s.summaries != nil {
		s.summaries.Purge()
	}
}

func (s *AppointmentService) observePublish(ctx context.Context, kind string, err error, args ...any) {
	status := "ok"
	if err != nil {
		status = "error"
		slog.ErrorContext(ctx, "Failed to publish appointment event",
			append([]any{"type", kind, "error", err}, args...)...)
	}
	if s.metrics != nil {
		s.metrics.EventsPublished.WithLabelValues(kind, status).Inc()
	}
}
