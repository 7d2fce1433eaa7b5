package reminders

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no reminder has the requested id.
var ErrNotFound = errors.New("reminder not found")

// ValidationError reports malformed reminder input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// SchedulingError reports that the platform refused or failed to schedule a
// trigger. The reminder itself is still persisted.
type SchedulingError struct {
	ReminderID string
	Err        error
}

func (e *SchedulingError) Error() string {
	return fmt.Sprintf("schedule notification for reminder %s: %v", e.ReminderID, e.Err)
}

func (e *SchedulingError) Unwrap() error { return e.Err }
