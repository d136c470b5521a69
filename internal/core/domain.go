package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// TimestampLayout is the DD/MM/YYYY HH:MM:SS layout used for RecordedAt.
const TimestampLayout = "02/01/2006 15:04:05"

const (
	MaxPatientNameLength = 200
	MaxDescriptionLength = 2000
)

type (
	Money struct {
		Cents int64
	}

	Appointment struct {
		ID          int64
		PatientName string
		NationalID  string // formatted XXX.XXX.XXX-XX
		Description string
		AmountPaid  Money
		RecordedAt  string // TimestampLayout, set at save time
	}
)

var (
	ErrEmptyPatientName   = errors.New("patient name is required")
	ErrEmptyNationalID    = errors.New("national id is required")
	ErrPatientNameTooLong = errors.New("patient name too long (max 200 characters)")
	ErrDescriptionTooLong = errors.New("description too long (max 2000 characters)")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrNoSelection        = errors.New("no appointments selected")
	ErrNotFound           = errors.New("appointment not found")
)

// IsValidation reports whether err is a user-facing validation failure.
func IsValidation(err error) bool {
	switch {
	case errors.Is(err, ErrEmptyPatientName),
		errors.Is(err, ErrEmptyNationalID),
		errors.Is(err, ErrPatientNameTooLong),
		errors.Is(err, ErrDescriptionTooLong),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrNoSelection):
		return true
	}
	return false
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (a Appointment) Validate() error {
	if strings.TrimSpace(a.PatientName) == "" {
		return ErrEmptyPatientName
	}
	if utf8.RuneCountInString(a.PatientName) > MaxPatientNameLength {
		return ErrPatientNameTooLong
	}
	if strings.TrimSpace(a.NationalID) == "" {
		return ErrEmptyNationalID
	}
	if utf8.RuneCountInString(a.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return a.AmountPaid.Validate()
}

// RecordedTime parses RecordedAt in the given location.
func (a Appointment) RecordedTime(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(TimestampLayout, a.RecordedAt, loc)
}

// Timestamp renders t in TimestampLayout.
func Timestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
