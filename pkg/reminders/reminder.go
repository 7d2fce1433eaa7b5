package reminders

import (
	"strings"
	"time"
)

// DateLayout is the calendar date format of Reminder.Date.
const DateLayout = "2006-01-02"

type Reminder struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Repeat      Repeat `json:"repeat"`
	IsCompleted bool   `json:"isCompleted"`
	UserID      string `json:"userId"`

	// NotificationID is the handle of the live platform trigger, empty when there is none.
	NotificationID string `json:"notificationId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// Fields are the user-editable parts of a reminder.
type Fields struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Repeat      Repeat `json:"repeat"`
	UserID      string `json:"userId"`
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Date        *string `json:"date,omitempty"`
	Time        *string `json:"time,omitempty"`
	Repeat      *Repeat `json:"repeat,omitempty"`
}

// Normalize trims the free text fields and maps an empty repeat to RepeatNone.
func (f Fields) Normalize() Fields {
	f.Title = strings.TrimSpace(f.Title)
	f.Description = strings.TrimSpace(f.Description)
	f.Date = strings.TrimSpace(f.Date)
	f.Time = strings.TrimSpace(f.Time)
	f.UserID = strings.TrimSpace(f.UserID)
	if f.Repeat == "" {
		f.Repeat = RepeatNone
	}
	return f
}

// Fields returns the editable fields of r.
func (r Reminder) Fields() Fields {
	return Fields{
		Title:       r.Title,
		Description: r.Description,
		Date:        r.Date,
		Time:        r.Time,
		Repeat:      r.Repeat,
		UserID:      r.UserID,
	}
}

// Apply returns a copy of r with the patch applied, and whether the change
// touches the schedule (date, time or repeat).
func (r Reminder) Apply(p Patch) (Reminder, bool) {
	out := r
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Date != nil {
		out.Date = *p.Date
	}
	if p.Time != nil {
		out.Time = *p.Time
	}
	if p.Repeat != nil {
		out.Repeat = *p.Repeat
	}

	f := out.Fields().Normalize()
	out.Title, out.Description = f.Title, f.Description
	out.Date, out.Time, out.Repeat = f.Date, f.Time, f.Repeat

	changed := out.Date != r.Date || out.Time != r.Time || out.Repeat != r.Repeat
	return out, changed
}

// IsRecurring reports whether the reminder repeats.
func (r Reminder) IsRecurring() bool {
	return r.Repeat != RepeatNone && r.Repeat != ""
}

// ScheduledTime returns the instant of the reminder's current occurrence in loc.
// It returns the zero time when the date or time is malformed.
func (r Reminder) ScheduledTime(loc *time.Location) time.Time {
	t, err := TriggerTime(r.Date, r.Time, loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Body is the notification text shown for the reminder.
func (r Reminder) Body() string {
	if r.Description != "" {
		return r.Title + " — " + r.Description
	}
	return r.Title
}
