package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"consultas/internal/core"

	_ "modernc.org/sqlite"
)

const (
	insertAppointment = `INSERT INTO appointments (patient_name, national_id, description, amount_cents, recorded_at)
VALUES (?, ?, ?, ?, ?)`

	selectAppointments = `SELECT id, patient_name, national_id, description, amount_cents, recorded_at
FROM appointments ORDER BY id DESC`

	selectAppointment = `SELECT id, patient_name, national_id, description, amount_cents, recorded_at
FROM appointments WHERE id = ?`

	deleteAppointment = `DELETE FROM appointments WHERE id = ?`

	// recorded_at is DD/MM/YYYY HH:MM:SS: month at offset 4, year at offset 7.
	sumByMonth = `SELECT CAST(substr(recorded_at, 4, 2) AS INTEGER) AS month, COALESCE(SUM(amount_cents), 0)
FROM appointments
WHERE substr(recorded_at, 7, 4) = ?
GROUP BY month`
)

// SQLiteRepository persists appointments in a single SQLite file.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

type Option func(*SQLiteRepository)

// WithClock overrides the clock used to stamp new appointments.
func WithClock(now func() time.Time) Option {
	return func(r *SQLiteRepository) {
		if now != nil {
			r.now = now
		}
	}
}

func NewSQLiteRepository(dbPath string, opts ...Option) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between concurrent requests.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return newRepository(db, opts...), nil
}

func newRepository(db *sql.DB, opts ...Option) *SQLiteRepository {
	r := &SQLiteRepository{db: db, now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping implements the readiness check.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Insert stores a validated appointment and returns it with ID and RecordedAt set.
// A RecordedAt already present on a is replaced by the repository clock.
func (r *SQLiteRepository) Insert(ctx context.Context, a core.Appointment) (core.Appointment, error) {
	if err := a.Validate(); err != nil {
		return core.Appointment{}, err
	}
	a.RecordedAt = core.Timestamp(r.now())

	res, err := r.db.ExecContext(ctx, insertAppointment,
		a.PatientName, a.NationalID, a.Description, a.AmountPaid.Cents, a.RecordedAt)
	if err != nil {
		return core.Appointment{}, fmt.Errorf("insert appointment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Appointment{}, fmt.Errorf("read appointment id: %w", err)
	}
	a.ID = id

	slog.InfoContext(ctx, "Appointment saved to SQLite",
		"id", a.ID,
		"amount_cents", a.AmountPaid.Cents,
		"recorded_at", a.RecordedAt)

	return a, nil
}

// ListAll returns every appointment, newest id first.
func (r *SQLiteRepository) ListAll(ctx context.Context) ([]core.Appointment, error) {
	rows, err := r.db.QueryContext(ctx, selectAppointments)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var out []core.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appointments: %w", err)
	}
	return out, nil
}

// Get returns one appointment or core.ErrNotFound.
func (r *SQLiteRepository) Get(ctx context.Context, id int64) (core.Appointment, error) {
	a, err := scanAppointment(r.db.QueryRowContext(ctx, selectAppointment, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Appointment{}, core.ErrNotFound
	}
	if err != nil {
		return core.Appointment{}, fmt.Errorf("get appointment %d: %w", id, err)
	}
	return a, nil
}

// Delete removes the given ids in one transaction. Unknown ids are ignored;
// the number of rows actually removed is returned.
func (r *SQLiteRepository) Delete(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, deleteAppointment)
	if err != nil {
		return 0, fmt.Errorf("prepare delete: %w", err)
	}
	defer stmt.Close()

	var removed int64
	for _, id := range ids {
		res, err := stmt.ExecContext(ctx, id)
		if err != nil {
			return 0, fmt.Errorf("delete appointment %d: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		removed += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete: %w", err)
	}

	slog.InfoContext(ctx, "Appointments deleted from SQLite",
		"requested", len(ids),
		"removed", removed)

	return removed, nil
}

// SumByMonth totals amount paid per calendar month of year. Months without
// records are zero.
func (r *SQLiteRepository) SumByMonth(ctx context.Context, year int) ([12]core.Money, error) {
	var months [12]core.Money

	rows, err := r.db.QueryContext(ctx, sumByMonth, fmt.Sprintf("%04d", year))
	if err != nil {
		return months, fmt.Errorf("sum by month: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var month, cents int64
		if err := rows.Scan(&month, &cents); err != nil {
			return months, fmt.Errorf("scan month sum: %w", err)
		}
		if month < 1 || month > 12 {
			slog.WarnContext(ctx, "Skipping malformed month in recorded_at", "month", month, "year", year)
			continue
		}
		months[month-1] = core.Money{Cents: cents}
	}
	if err := rows.Err(); err != nil {
		return months, fmt.Errorf("iterate month sums: %w", err)
	}
	return months, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAppointment(s scanner) (core.Appointment, error) {
	var a core.Appointment
	err := s.Scan(&a.ID, &a.PatientName, &a.NationalID, &a.Description, &a.AmountPaid.Cents, &a.RecordedAt)
	return a, err
}
