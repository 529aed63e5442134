package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidTimeOfDay = errors.New("model: invalid time of day")
	ErrInvalidDate      = errors.New("model: invalid date")
)

// TimeOfDay is a wall-clock time in 24-hour HH:MM form.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses a "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("%w: %q, expected HH:MM", ErrInvalidTimeOfDay, s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return TimeOfDay{}, fmt.Errorf("%w: bad hour in %q", ErrInvalidTimeOfDay, s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: bad minute in %q", ErrInvalidTimeOfDay, s)
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// MustTimeOfDay is a ParseTimeOfDay that panics. For literals in wiring and tests.
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Compact returns the colon-free "HHMM" form used in notification identifiers.
func (t TimeOfDay) Compact() string {
	return fmt.Sprintf("%02d%02d", t.Hour, t.Minute)
}

// TotalMinutes is the offset from midnight in minutes.
func (t TimeOfDay) TotalMinutes() int {
	return t.Hour*60 + t.Minute
}

// OnDate places the time of day on the calendar day of ref, in ref's location.
func (t TimeOfDay) OnDate(ref time.Time) time.Time {
	return time.Date(ref.Year(), ref.Month(), ref.Day(), t.Hour, t.Minute, 0, 0, ref.Location())
}

// NextOccurrence returns the soonest instant at or after now that matches the
// wall-clock time. A match on the current minute counts as today.
func (t TimeOfDay) NextOccurrence(now time.Time) time.Time {
	target := t.OnDate(now)
	if now.After(target) {
		target = target.AddDate(0, 0, 1)
	}
	return target
}

// NextOccurrenceMinus returns the instant lead minutes before the next
// occurrence. It reports false when lead is zero or when the lead point for
// today's occurrence has already elapsed: in that case tonight's reset still
// fires tonight, and silently targeting tomorrow's lead point would be wrong.
func (t TimeOfDay) NextOccurrenceMinus(lead int, now time.Time) (time.Time, bool) {
	if lead <= 0 {
		return time.Time{}, false
	}

	total := t.TotalMinutes() - lead
	if total < 0 {
		total += 24 * 60
	}
	before := TimeOfDay{Hour: total / 60, Minute: total % 60}
	target := before.OnDate(now)

	reset := t.NextOccurrence(now)
	if sameDay(reset, now) && target.Before(now) {
		return time.Time{}, false
	}
	if now.After(target) {
		target = target.AddDate(0, 0, 1)
	}
	return target, true
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(t.String())), nil
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTimeOfDay, data)
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Date is a calendar date without a time component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	parsed, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q, expected YYYY-MM-DD", ErrInvalidDate, s)
	}
	return Date{Year: parsed.Year(), Month: parsed.Month(), Day: parsed.Day()}, nil
}

// DateOf truncates an instant to its calendar date.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Compact returns the dash-free "YYYYMMDD" form used in notification identifiers.
func (d Date) Compact() string {
	return fmt.Sprintf("%04d%02d%02d", d.Year, int(d.Month), d.Day)
}

// At places a time of day on this date in the given location.
func (d Date) At(t TimeOfDay, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, t.Hour, t.Minute, 0, 0, loc)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, data)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
