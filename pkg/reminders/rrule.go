package reminders

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

var rruleDays = map[time.Weekday]string{
	time.Sunday:    "SU",
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
}

// RRule renders a recurring trigger as an RFC 5545 RRULE value.
// It returns "" for a once trigger.
func (t TriggerSpec) RRule() string {
	if t.Kind != TriggerRecurring {
		return ""
	}

	var parts []string
	switch t.Repeat {
	case RepeatWeekly:
		parts = append(parts, "FREQ=WEEKLY")
	case RepeatMonthly:
		parts = append(parts, "FREQ=MONTHLY")
	default:
		parts = append(parts, "FREQ=DAILY")
	}
	parts = append(parts,
		fmt.Sprintf("BYHOUR=%d", t.Hour),
		fmt.Sprintf("BYMINUTE=%d", t.Minute),
		"BYSECOND=0",
	)
	if t.Weekday != nil {
		parts = append(parts, "BYDAY="+rruleDays[*t.Weekday])
	}
	if t.DayOfMonth > 0 {
		parts = append(parts, fmt.Sprintf("BYMONTHDAY=%d", t.DayOfMonth))
	}
	return strings.Join(parts, ";")
}

// Occurrences returns up to n instants after now at which the trigger fires.
// Recurring triggers are expanded with the platform's calendar semantics: a
// monthly trigger on day 31 does not fire in shorter months.
func (t TriggerSpec) Occurrences(now time.Time, n int) ([]time.Time, error) {
	if n <= 0 {
		return nil, nil
	}
	switch t.Kind {
	case TriggerOnce:
		if !t.FireAt.After(now) {
			return nil, nil
		}
		return []time.Time{t.FireAt}, nil
	case TriggerRecurring:
	default:
		return nil, nil
	}

	opt, err := rrule.StrToROption(t.RRule())
	if err != nil {
		return nil, fmt.Errorf("parse rrule: %w", err)
	}
	opt.Dtstart = now.Truncate(time.Minute)
	rule, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("build rrule: %w", err)
	}

	out := make([]time.Time, 0, n)
	next := rule.Iterator()
	for len(out) < n {
		at, ok := next()
		if !ok {
			break
		}
		if at.After(now) {
			out = append(out, at)
		}
	}
	return out, nil
}
