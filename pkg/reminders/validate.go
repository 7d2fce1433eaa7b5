package reminders

import (
	"regexp"
	"time"
)

var timeRe = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// Validate checks normalized fields. The first problem found is returned as a
// *ValidationError.
func (f Fields) Validate() error {
	if f.Title == "" {
		return &ValidationError{Field: "title", Reason: "is required"}
	}
	if _, err := time.Parse(DateLayout, f.Date); err != nil || len(f.Date) != len(DateLayout) {
		return &ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
	}
	if !timeRe.MatchString(f.Time) {
		return &ValidationError{Field: "time", Reason: "must be HH:MM (24h)"}
	}
	if !f.Repeat.Valid() {
		return &ValidationError{Field: "repeat", Reason: "must be one of none, daily, weekly, monthly"}
	}
	if f.UserID == "" {
		return &ValidationError{Field: "userId", Reason: "is required"}
	}
	return nil
}

// TriggerTime combines a YYYY-MM-DD date and an HH:MM time into an instant in loc.
func TriggerTime(date, hm string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	d, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
	}
	if !timeRe.MatchString(hm) {
		return time.Time{}, &ValidationError{Field: "time", Reason: "must be HH:MM (24h)"}
	}
	hour, minute := clockOf(hm)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, loc), nil
}

// clockOf splits a time already matched by timeRe.
func clockOf(hm string) (hour, minute int) {
	hour = int(hm[0]-'0')*10 + int(hm[1]-'0')
	minute = int(hm[3]-'0')*10 + int(hm[4]-'0')
	return hour, minute
}
