// Package notify defines the notification platform capability used by the
// reminder scheduler, and an in-process implementation of it.
package notify

import (
	"context"
	"errors"

	"reminderd/pkg/reminders"
)

var (
	// ErrPermissionDenied is returned by Schedule when notifications are not allowed.
	ErrPermissionDenied = errors.New("notification permission not granted")
	// ErrUnknownID is returned by Cancel for an id that is not scheduled.
	ErrUnknownID = errors.New("unknown notification id")
)

// ChannelReminders is the channel used for reminder notifications.
const ChannelReminders = "reminders"

// Content is what the user sees when the notification fires.
type Content struct {
	Title   string `json:"title"`
	Body    string `json:"body"`
	Channel string `json:"channel,omitempty"`
	// Data is opaque metadata handed back on delivery.
	Data map[string]string `json:"data,omitempty"`
}

type Request struct {
	Content Content
	Trigger reminders.TriggerSpec
}

// Platform schedules and cancels notification triggers. Delivery is best
// effort and unordered.
type Platform interface {
	// Schedule registers a trigger and returns its id.
	Schedule(ctx context.Context, req Request) (string, error)
	// Cancel removes a trigger. Cancelling an id that already fired may fail with ErrUnknownID.
	Cancel(ctx context.Context, id string) error
	CancelAll(ctx context.Context) error
	// ListScheduled returns the ids of the triggers that are still pending.
	ListScheduled(ctx context.Context) ([]string, error)
	// SupportsCalendar reports whether recurring calendar triggers are supported natively.
	SupportsCalendar() bool
}

// Delivery is a notification that fired.
type Delivery struct {
	ID      string
	Content Content
}
