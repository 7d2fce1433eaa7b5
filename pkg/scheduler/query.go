package scheduler

import (
	"context"
	"sort"
	"strings"
	"time"

	"reminderd/pkg/reminders"
)

// DefaultUpcomingDays is the window used by Upcoming when days <= 0.
const DefaultUpcomingDays = 7

func (s *Scheduler) List(ctx context.Context) ([]reminders.Reminder, error) {
	return s.filter(ctx, func(reminders.Reminder) bool { return true })
}

func (s *Scheduler) Get(ctx context.Context, id string) (reminders.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, idx, err := s.find(ctx, id)
	if err != nil {
		return reminders.Reminder{}, err
	}
	return list[idx], nil
}

// Upcoming returns the pending reminders dated between today and today+days.
func (s *Scheduler) Upcoming(ctx context.Context, days int) ([]reminders.Reminder, error) {
	if days <= 0 {
		days = DefaultUpcomingDays
	}
	today := s.today()
	return s.filter(ctx, func(r reminders.Reminder) bool {
		if r.IsCompleted {
			return false
		}
		diff, ok := daysBetween(today, r.Date)
		return ok && diff >= 0 && diff <= days
	})
}

// Today returns the reminders dated today.
func (s *Scheduler) Today(ctx context.Context) ([]reminders.Reminder, error) {
	today := s.today()
	return s.filter(ctx, func(r reminders.Reminder) bool { return r.Date == today })
}

// Search matches query case-insensitively against title and description.
// An empty query returns every reminder.
func (s *Scheduler) Search(ctx context.Context, query string) ([]reminders.Reminder, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	return s.filter(ctx, func(r reminders.Reminder) bool {
		if q == "" {
			return true
		}
		return strings.Contains(strings.ToLower(r.Title), q) ||
			strings.Contains(strings.ToLower(r.Description), q)
	})
}

func (s *Scheduler) FilterCompleted(ctx context.Context, completed bool) ([]reminders.Reminder, error) {
	return s.filter(ctx, func(r reminders.Reminder) bool { return r.IsCompleted == completed })
}

// Occurrences returns up to n future instants at which the reminder's trigger fires.
func (s *Scheduler) Occurrences(ctx context.Context, id string, n int) ([]time.Time, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.IsCompleted && !r.IsRecurring() {
		return []time.Time{}, nil
	}

	now := s.clock.Now()
	if r.IsRecurring() && !s.platform.SupportsCalendar() {
		return s.rearmTimes(r, now, n)
	}

	spec, ok, err := reminders.BuildTrigger(r, now, s.triggerOptions())
	if err != nil {
		return nil, err
	}
	if !ok {
		return []time.Time{}, nil
	}
	out, err := spec.Occurrences(now.In(s.opts.Location), n)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []time.Time{}
	}
	return out, nil
}

// rearmTimes lists the one-shot fire times a repeating reminder goes through
// on a platform without calendar triggers, where each is re-armed after the
// previous one fires.
func (s *Scheduler) rearmTimes(r reminders.Reminder, now time.Time, n int) ([]time.Time, error) {
	at, err := reminders.TriggerTime(r.Date, r.Time, s.opts.Location)
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, 0, max(n, 0))
	for at = reminders.NextFireAfter(at, r.Repeat, now); len(out) < n; at = reminders.NextFireAfter(at, r.Repeat, at) {
		out = append(out, at)
	}
	return out, nil
}

func (s *Scheduler) filter(ctx context.Context, keep func(reminders.Reminder) bool) ([]reminders.Reminder, error) {
	s.mu.Lock()
	list, err := s.load(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([]reminders.Reminder, 0, len(list))
	for _, r := range list {
		if keep(r) {
			out = append(out, r)
		}
	}
	sortByTrigger(out, s.opts.Location)
	return out, nil
}

func (s *Scheduler) today() string {
	return s.clock.Now().In(s.opts.Location).Format(reminders.DateLayout)
}

// daysBetween returns the number of calendar days from a to b.
func daysBetween(a, b string) (int, bool) {
	ta, err := time.Parse(reminders.DateLayout, a)
	if err != nil {
		return 0, false
	}
	tb, err := time.Parse(reminders.DateLayout, b)
	if err != nil {
		return 0, false
	}
	return int(tb.Sub(ta).Hours() / 24), true
}

// sortByTrigger orders reminders by their current occurrence, then by id.
func sortByTrigger(list []reminders.Reminder, loc *time.Location) {
	sort.SliceStable(list, func(i, j int) bool {
		ti, tj := list[i].ScheduledTime(loc), list[j].ScheduledTime(loc)
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return list[i].ID < list[j].ID
	})
}
