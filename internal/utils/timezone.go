package utils

import (
	"errors"
	"fmt"
	"time"
)

const (
	DateLayout      = "2006-01-02"
	TimeOfDayLayout = "15:04"
	displayLayout   = "Mon, 02 Jan 2006 15:04 MST"
)

var (
	ErrInvalidTimezone = errors.New("invalid timezone")
	ErrInvalidDate     = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidTime     = errors.New("invalid time, expected HH:MM")
)

// LoadLocation resolves an IANA timezone name. The empty string is rejected
// instead of silently meaning UTC.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" {
		return nil, ErrInvalidTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, ErrInvalidTimezone
	}
	return loc, nil
}

// SessionStart combines a local calendar date and time of day in timezone
// into an absolute UTC instant.
func SessionStart(date, timeOfDay, timezone string) (time.Time, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return time.Time{}, err
	}

	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	tod, err := time.Parse(TimeOfDayLayout, timeOfDay)
	if err != nil {
		return time.Time{}, ErrInvalidTime
	}

	// Interpret the stored clock reading in the session's own zone, not in
	// the zone of whatever parsed it.
	local := time.Date(
		d.Year(), d.Month(), d.Day(),
		tod.Hour(), tod.Minute(), 0, 0,
		loc,
	)
	return local.UTC(), nil
}

// SessionWindow returns the absolute start and end of a session.
func SessionWindow(date, timeOfDay, timezone string, durationMinutes int) (time.Time, time.Time, error) {
	start, err := SessionStart(date, timeOfDay, timezone)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.Add(time.Duration(durationMinutes) * time.Minute), nil
}

// TodayIn returns the calendar date (YYYY-MM-DD) that now falls on in timezone.
func TodayIn(now time.Time, timezone string) (string, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return "", err
	}
	return now.In(loc).Format(DateLayout), nil
}

// DateBefore reports whether a is an earlier calendar date than b. Both are
// YYYY-MM-DD, so the comparison is on parsed dates, never on instants in
// different zones.
func DateBefore(a, b string) (bool, error) {
	da, err := time.Parse(DateLayout, a)
	if err != nil {
		return false, ErrInvalidDate
	}
	db, err := time.Parse(DateLayout, b)
	if err != nil {
		return false, ErrInvalidDate
	}
	return da.Before(db), nil
}

// FormatTimeInTimezone renders t for display in the given zone.
func FormatTimeInTimezone(t time.Time, timezone string) (string, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return "", fmt.Errorf("format time: %w", err)
	}
	return t.In(loc).Format(displayLayout), nil
}
