package pipeline

import (
	"errors"
	"fmt"
	"time"
)

// Validation errors returned before any provider call is made.
var (
	ErrInvalidYear  = errors.New("year out of range")
	ErrInvalidMonth = errors.New("month out of range")
	ErrInvalidDate  = errors.New("invalid date")
	ErrInvalidRange = errors.New("invalid date range")
)

const (
	MinYear = 1900
	MaxYear = 2100
)

// ValidateYear rejects years outside MinYear..MaxYear.
func ValidateYear(year int) error {
	if year < MinYear || year > MaxYear {
		return fmt.Errorf("%w: %d (want %d-%d)", ErrInvalidYear, year, MinYear, MaxYear)
	}
	return nil
}

// ValidateMonth rejects months outside 1..12.
func ValidateMonth(month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: %d (want 1-12)", ErrInvalidMonth, month)
	}
	return nil
}

// MonthRange returns the first and last calendar day of the month as YYYY-MM-DD.
// The last day is the day before the first of the next month, so leap years come
// out of the calendar arithmetic.
func MonthRange(year, month int) (string, string) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first.Format(time.DateOnly), last.Format(time.DateOnly)
}

// ParseDateRange validates a start/end pair of YYYY-MM-DD dates. The start must
// not come after the end, and both years must pass ValidateYear.
func ParseDateRange(start, end string) (time.Time, time.Time, error) {
	s, err := time.Parse(time.DateOnly, start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start %q", ErrInvalidDate, start)
	}
	e, err := time.Parse(time.DateOnly, end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end %q", ErrInvalidDate, end)
	}

	if err := ValidateYear(s.Year()); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if err := ValidateYear(e.Year()); err != nil {
		return time.Time{}, time.Time{}, err
	}

	if e.Before(s) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %s is after %s", ErrInvalidRange, start, end)
	}
	return s, e, nil
}

// IsValidationError reports whether err came from request validation.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidYear) ||
		errors.Is(err, ErrInvalidMonth) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidRange)
}
