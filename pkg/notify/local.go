package notify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"reminderd/pkg/reminders"
)

// LocalOptions configure a Local platform.
type LocalOptions struct {
	Clock    clock.Clock
	Location *time.Location
	// Calendar enables native recurring triggers.
	Calendar bool
	// Disabled makes every Schedule call fail with ErrPermissionDenied.
	Disabled bool
	// OnDeliver is invoked for every notification that fires.
	OnDeliver func(Delivery)
}

// Local is an in-process platform. One-shot triggers run on clock timers,
// recurring ones on a cron runner.
type Local struct {
	clock     clock.Clock
	cron      *cron.Cron
	log       zerolog.Logger
	calendar  bool
	disabled  bool
	onDeliver func(Delivery)

	mu      sync.Mutex
	pending map[string]*localTrigger
}

type localTrigger struct {
	req   Request
	timer *clock.Timer
	entry cron.EntryID
}

func NewLocal(opts LocalOptions, log zerolog.Logger) *Local {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Local{
		clock:     opts.Clock,
		cron:      cron.New(cron.WithLocation(opts.Location)),
		log:       log.With().Str("component", "notify").Logger(),
		calendar:  opts.Calendar,
		disabled:  opts.Disabled,
		onDeliver: opts.OnDeliver,
		pending:   make(map[string]*localTrigger),
	}
}

// Start runs the cron runner for recurring triggers.
func (l *Local) Start() {
	l.cron.Start()
}

// Stop halts the cron runner and every pending timer. Scheduled ids are kept.
func (l *Local) Stop() {
	ctx := l.cron.Stop()
	<-ctx.Done()

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, p := range l.pending {
		if p.timer != nil {
			p.timer.Stop()
		}
	}
}

func (l *Local) SupportsCalendar() bool {
	return l.calendar
}

func (l *Local) Schedule(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if l.disabled {
		return "", ErrPermissionDenied
	}

	id := uuid.NewString()
	p := &localTrigger{req: req}

	switch req.Trigger.Kind {
	case reminders.TriggerOnce:
		delay := req.Trigger.FireAt.Sub(l.clock.Now())
		if delay < 0 {
			delay = 0
		}
		l.mu.Lock()
		l.pending[id] = p
		l.mu.Unlock()
		// A mock clock may run the callback before AfterFunc returns, so the
		// lock must not be held here.
		timer := l.clock.AfterFunc(delay, func() { l.fire(id, true) })
		l.mu.Lock()
		p.timer = timer
		l.mu.Unlock()

	case reminders.TriggerRecurring:
		if !l.calendar {
			return "", errors.New("calendar triggers are not supported")
		}
		spec, err := CronSpec(req.Trigger)
		if err != nil {
			return "", err
		}
		l.mu.Lock()
		entry, err := l.cron.AddFunc(spec, func() { l.fire(id, false) })
		if err != nil {
			l.mu.Unlock()
			return "", fmt.Errorf("add cron entry %q: %w", spec, err)
		}
		p.entry = entry
		l.pending[id] = p
		l.mu.Unlock()

	default:
		return "", fmt.Errorf("unknown trigger kind %q", req.Trigger.Kind)
	}

	l.log.Debug().
		Str("id", id).
		Stringer("trigger", req.Trigger).
		Str("title", req.Content.Title).
		Msg("Notification scheduled")
	return id, nil
}

func (l *Local) Cancel(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.pending[id]
	if !ok {
		return ErrUnknownID
	}
	l.stopLocked(p)
	delete(l.pending, id)
	l.log.Debug().Str("id", id).Msg("Notification cancelled")
	return nil
}

func (l *Local) CancelAll(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for id, p := range l.pending {
		l.stopLocked(p)
		delete(l.pending, id)
	}
	l.log.Debug().Msg("All notifications cancelled")
	return nil
}

func (l *Local) ListScheduled(_ context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := make([]string, 0, len(l.pending))
	for id := range l.pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (l *Local) stopLocked(p *localTrigger) {
	if p.timer != nil {
		p.timer.Stop()
	}
	if p.entry != 0 {
		l.cron.Remove(p.entry)
	}
}

func (l *Local) fire(id string, once bool) {
	l.mu.Lock()
	p, ok := l.pending[id]
	if ok && once {
		delete(l.pending, id)
	}
	l.mu.Unlock()
	if !ok {
		return
	}

	l.log.Info().
		Str("id", id).
		Str("channel", p.req.Content.Channel).
		Str("title", p.req.Content.Title).
		Msg("Notification delivered")
	if l.onDeliver != nil {
		l.onDeliver(Delivery{ID: id, Content: p.req.Content})
	}
}

// CronSpec converts a recurring trigger to a five-field cron expression.
func CronSpec(t reminders.TriggerSpec) (string, error) {
	if t.Kind != reminders.TriggerRecurring {
		return "", fmt.Errorf("trigger kind %q has no cron form", t.Kind)
	}
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
		return "", fmt.Errorf("invalid time %02d:%02d", t.Hour, t.Minute)
	}

	switch t.Repeat {
	case reminders.RepeatDaily:
		return fmt.Sprintf("%d %d * * *", t.Minute, t.Hour), nil
	case reminders.RepeatWeekly:
		if t.Weekday == nil {
			return "", errors.New("weekly trigger without weekday")
		}
		return fmt.Sprintf("%d %d * * %d", t.Minute, t.Hour, *t.Weekday), nil
	case reminders.RepeatMonthly:
		if t.DayOfMonth < 1 || t.DayOfMonth > 31 {
			return "", fmt.Errorf("invalid day of month %d", t.DayOfMonth)
		}
		return fmt.Sprintf("%d %d %d * *", t.Minute, t.Hour, t.DayOfMonth), nil
	default:
		return "", fmt.Errorf("repeat %q is not recurring", t.Repeat)
	}
}
