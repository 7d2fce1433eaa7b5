package reminders

import (
	"fmt"
	"time"
)

// TriggerKind distinguishes one-shot from calendar-recurring triggers.
type TriggerKind string

const (
	TriggerOnce      TriggerKind = "once"
	TriggerRecurring TriggerKind = "recurring"
)

// TriggerSpec describes when the platform should fire a notification.
//
// A once trigger uses FireAt. A recurring trigger fires every day at
// Hour:Minute, narrowed to Weekday for weekly and DayOfMonth for monthly.
type TriggerSpec struct {
	Kind   TriggerKind `json:"kind"`
	FireAt time.Time   `json:"fireAt,omitempty"`

	Repeat     Repeat        `json:"repeat,omitempty"`
	Hour       int           `json:"hour"`
	Minute     int           `json:"minute"`
	Weekday    *time.Weekday `json:"weekday,omitempty"`
	DayOfMonth int           `json:"dayOfMonth,omitempty"`
}

func (t TriggerSpec) String() string {
	switch t.Kind {
	case TriggerOnce:
		return "once@" + t.FireAt.Format(time.RFC3339)
	case TriggerRecurring:
		s := fmt.Sprintf("%s@%02d:%02d", t.Repeat, t.Hour, t.Minute)
		if t.Weekday != nil {
			s += "/" + t.Weekday.String()
		}
		if t.DayOfMonth > 0 {
			s += fmt.Sprintf("/day%d", t.DayOfMonth)
		}
		return s
	default:
		return "none"
	}
}

// PastDuePolicy decides what happens to a one-shot trigger whose instant is
// not in the future.
type PastDuePolicy int

const (
	// PastDueSkip schedules nothing.
	PastDueSkip PastDuePolicy = iota
	// PastDueNudge schedules the trigger a short delay after now.
	PastDueNudge
)

// DefaultPastDueDelay is the offset used by PastDueNudge.
const DefaultPastDueDelay = 5 * time.Second

func ParsePastDuePolicy(s string) (PastDuePolicy, error) {
	switch s {
	case "", "skip":
		return PastDueSkip, nil
	case "nudge":
		return PastDueNudge, nil
	default:
		return PastDueSkip, fmt.Errorf("unknown past-due policy %q", s)
	}
}

func (p PastDuePolicy) String() string {
	if p == PastDueNudge {
		return "nudge"
	}
	return "skip"
}

// TriggerOptions configure BuildTrigger.
type TriggerOptions struct {
	Location     *time.Location
	PastDue      PastDuePolicy
	PastDueDelay time.Duration
	// Calendar is false when the platform cannot repeat on its own; recurring
	// reminders then get a one-shot trigger at their next instant.
	Calendar bool
}

// BuildTrigger computes the trigger for r's current occurrence.
// ok is false when nothing should be scheduled.
func BuildTrigger(r Reminder, now time.Time, opts TriggerOptions) (spec TriggerSpec, ok bool, err error) {
	at, err := TriggerTime(r.Date, r.Time, opts.Location)
	if err != nil {
		return TriggerSpec{}, false, err
	}

	if !r.IsRecurring() {
		if at.After(now) {
			return TriggerSpec{Kind: TriggerOnce, FireAt: at}, true, nil
		}
		if opts.PastDue == PastDueNudge {
			delay := opts.PastDueDelay
			if delay <= 0 {
				delay = DefaultPastDueDelay
			}
			return TriggerSpec{Kind: TriggerOnce, FireAt: now.Add(delay)}, true, nil
		}
		return TriggerSpec{}, false, nil
	}

	if !opts.Calendar {
		return TriggerSpec{Kind: TriggerOnce, FireAt: NextFireAfter(at, r.Repeat, now)}, true, nil
	}

	spec = TriggerSpec{
		Kind:   TriggerRecurring,
		Repeat: r.Repeat,
		Hour:   at.Hour(),
		Minute: at.Minute(),
	}
	switch r.Repeat {
	case RepeatWeekly:
		wd := at.Weekday()
		spec.Weekday = &wd
	case RepeatMonthly:
		spec.DayOfMonth = at.Day()
	}
	return spec, true, nil
}

// NextFireAfter advances at by the repeat rule until it is strictly after now.
func NextFireAfter(at time.Time, repeat Repeat, now time.Time) time.Time {
	if repeat == RepeatNone || repeat == "" {
		return at
	}
	for !at.After(now) {
		at = advance(at, repeat)
	}
	return at
}
