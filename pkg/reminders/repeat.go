package reminders

import (
	"encoding/json"
	"fmt"
	"time"
)

// Repeat is the recurrence policy of a reminder.
type Repeat string

const (
	RepeatNone    Repeat = "none"
	RepeatDaily   Repeat = "daily"
	RepeatWeekly  Repeat = "weekly"
	RepeatMonthly Repeat = "monthly"
)

// ParseRepeat parses a repeat kind. The empty string is RepeatNone.
func ParseRepeat(s string) (Repeat, error) {
	switch Repeat(s) {
	case "", RepeatNone:
		return RepeatNone, nil
	case RepeatDaily, RepeatWeekly, RepeatMonthly:
		return Repeat(s), nil
	default:
		return "", fmt.Errorf("unknown repeat kind %q", s)
	}
}

func (r Repeat) Valid() bool {
	_, err := ParseRepeat(string(r))
	return err == nil
}

func (r Repeat) String() string {
	if r == "" {
		return string(RepeatNone)
	}
	return string(r)
}

// UnmarshalJSON accepts a missing or null repeat as RepeatNone.
func (r *Repeat) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == nil {
		*r = RepeatNone
		return nil
	}
	v, err := ParseRepeat(*s)
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// NextOccurrence returns the date of the occurrence after date.
// Monthly keeps the day of month, clamped to the last day of a shorter month.
// RepeatNone returns date unchanged.
func NextOccurrence(date string, repeat Repeat) (string, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", &ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
	}
	return advance(d, repeat).Format(DateLayout), nil
}

func advance(d time.Time, repeat Repeat) time.Time {
	switch repeat {
	case RepeatDaily:
		return d.AddDate(0, 0, 1)
	case RepeatWeekly:
		return d.AddDate(0, 0, 7)
	case RepeatMonthly:
		return addMonthClamped(d)
	default:
		return d
	}
}

func addMonthClamped(d time.Time) time.Time {
	y, m, day := d.Date()
	first := time.Date(y, m+1, 1, 0, 0, 0, 0, d.Location())
	last := first.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, d.Hour(), d.Minute(), d.Second(), d.Nanosecond(), d.Location())
}
