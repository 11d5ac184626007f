package appointment

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Appointment is a booked visit.
type Appointment struct {
	ID          int64     `json:"id"`
	PatientID   int64     `json:"patient_id"`
	DoctorID    int64     `json:"doctor_id"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"-"`
}

// MaxDescriptionLength bounds the free-text description.
const MaxDescriptionLength = 1000

var (
	// ErrDateInPast is returned when the appointment date precedes now.
	ErrDateInPast = errors.New("appointment date cannot be in the past")

	// ErrInvalidDate is returned when a date string cannot be parsed.
	ErrInvalidDate = errors.New("invalid appointment date")

	// ErrInvalidDescription is returned when the description fails validation.
	ErrInvalidDescription = errors.New("invalid description")

	// ErrPatientNotFound is returned when the referenced patient does not exist.
	ErrPatientNotFound = errors.New("patient not found")
)

// dateLayouts are accepted in order. Layouts without a zone are UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseDate parses an RFC 3339 timestamp or a zone-less
// YYYY-MM-DDTHH:MM[:SS] value, which is taken as UTC. The result is UTC
// truncated to whole seconds.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Truncate(time.Second), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: expected RFC 3339 or YYYY-MM-DDTHH:MM[:SS]", ErrInvalidDate)
}

// NormaliseDescription trims the description and checks it is 1..1000 characters.
func NormaliseDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", fmt.Errorf("%w: description cannot be empty", ErrInvalidDescription)
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return "", fmt.Errorf("%w: description exceeds %d characters", ErrInvalidDescription, MaxDescriptionLength)
	}
	return description, nil
}

// CheckNotPast returns ErrDateInPast when date is before now.
func CheckNotPast(date, now time.Time) error {
	if date.Before(now) {
		return ErrDateInPast
	}
	return nil
}
