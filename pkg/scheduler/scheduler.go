// Package scheduler keeps persisted reminders and their platform notification
// triggers consistent.
//
// The persisted reminder is the source of truth. A trigger is derived from it
// and can always be recomputed, so platform failures never abort a reminder
// operation: they leave the reminder without a trigger and are reported as a
// warning on the Result.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"reminderd/pkg/notify"
	"reminderd/pkg/reminders"
	"reminderd/pkg/store"
)

const defaultResyncInterval = 5 * time.Minute

// Options configure a Scheduler.
type Options struct {
	// Location is the wall-clock zone reminder dates and times are read in.
	Location       *time.Location
	PastDue        reminders.PastDuePolicy
	PastDueDelay   time.Duration
	ResyncInterval time.Duration
}

// Result is the outcome of a reminder operation. Warning is a
// *reminders.SchedulingError when the reminder was saved without a trigger.
type Result struct {
	Reminder reminders.Reminder
	Warning  error
}

type Scheduler struct {
	store    store.Store
	platform notify.Platform
	clock    clock.Clock
	log      zerolog.Logger
	opts     Options

	// mu serializes every read-modify-write of the collection.
	mu sync.Mutex
}

func New(st store.Store, platform notify.Platform, clk clock.Clock, opts Options, log zerolog.Logger) *Scheduler {
	if clk == nil {
		clk = clock.New()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.PastDueDelay <= 0 {
		opts.PastDueDelay = reminders.DefaultPastDueDelay
	}
	if opts.ResyncInterval <= 0 {
		opts.ResyncInterval = defaultResyncInterval
	}
	return &Scheduler{
		store:    st,
		platform: platform,
		clock:    clk,
		log:      log.With().Str("component", "scheduler").Logger(),
		opts:     opts,
	}
}

func (s *Scheduler) triggerOptions() reminders.TriggerOptions {
	return reminders.TriggerOptions{
		Location:     s.opts.Location,
		PastDue:      s.opts.PastDue,
		PastDueDelay: s.opts.PastDueDelay,
		Calendar:     s.platform.SupportsCalendar(),
	}
}

// Create validates fields, stores a new reminder and schedules its trigger.
func (s *Scheduler) Create(ctx context.Context, fields reminders.Fields) (Result, error) {
	f := fields.Normalize()
	if err := f.Validate(); err != nil {
		return Result{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return Result{}, err
	}

	now := s.clock.Now()
	r := reminders.Reminder{
		ID:          uuid.NewString(),
		Title:       f.Title,
		Description: f.Description,
		Date:        f.Date,
		Time:        f.Time,
		Repeat:      f.Repeat,
		UserID:      f.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r, warn := s.reconcile(ctx, r, "")

	list = append(list, r)
	if err := s.save(ctx, list); err != nil {
		s.rollback(ctx, r.NotificationID, "")
		return Result{}, err
	}

	s.log.Info().Str("reminder", r.ID).Str("title", r.Title).Msg("Reminder created")
	return Result{Reminder: r, Warning: warn}, nil
}

// Update applies a patch. The trigger is only replaced when the date, time or
// repeat changed.
func (s *Scheduler) Update(ctx context.Context, id string, patch reminders.Patch) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, idx, err := s.find(ctx, id)
	if err != nil {
		return Result{}, err
	}

	current := list[idx]
	updated, changed := current.Apply(patch)
	if err := updated.Fields().Validate(); err != nil {
		return Result{}, err
	}
	updated.UpdatedAt = s.clock.Now()
	if updated.IsCompleted && updated.IsRecurring() {
		// A repeating reminder is never done.
		updated.IsCompleted = false
	}

	var warn error
	if changed {
		updated, warn = s.reconcile(ctx, updated, current.NotificationID)
	}

	list[idx] = updated
	if err := s.save(ctx, list); err != nil {
		s.rollback(ctx, updated.NotificationID, current.NotificationID)
		return Result{}, err
	}

	s.log.Info().Str("reminder", id).Bool("rescheduled", changed).Msg("Reminder updated")
	return Result{Reminder: updated, Warning: warn}, nil
}

// Complete closes a one-shot reminder, or advances a repeating one to its
// next occurrence with a fresh trigger.
func (s *Scheduler) Complete(ctx context.Context, id string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, idx, err := s.find(ctx, id)
	if err != nil {
		return Result{}, err
	}

	res, err := s.onComplete(ctx, list[idx])
	if err != nil {
		return Result{}, err
	}

	prev := list[idx].NotificationID
	updated := res.Reminder
	list[idx] = updated
	if err := s.save(ctx, list); err != nil {
		s.rollback(ctx, updated.NotificationID, prev)
		return Result{}, err
	}

	s.log.Info().
		Str("reminder", id).
		Bool("completed", updated.IsCompleted).
		Str("date", updated.Date).
		Msg("Reminder completed")
	return res, nil
}

func (s *Scheduler) onComplete(ctx context.Context, r reminders.Reminder) (Result, error) {
	prev := r.NotificationID
	r.UpdatedAt = s.clock.Now()

	if !r.IsRecurring() {
		s.cancel(ctx, prev)
		r.IsCompleted = true
		r.NotificationID = ""
		return Result{Reminder: r}, nil
	}

	next, err := reminders.NextOccurrence(r.Date, r.Repeat)
	if err != nil {
		return Result{}, err
	}
	r.Date = next
	r.IsCompleted = false
	r, warn := s.reconcile(ctx, r, prev)
	return Result{Reminder: r, Warning: warn}, nil
}

// Reopen marks a completed reminder as pending again and schedules it.
func (s *Scheduler) Reopen(ctx context.Context, id string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, idx, err := s.find(ctx, id)
	if err != nil {
		return Result{}, err
	}

	r := list[idx]
	if !r.IsCompleted {
		return Result{Reminder: r}, nil
	}
	prev := r.NotificationID
	r.IsCompleted = false
	r.UpdatedAt = s.clock.Now()
	r, warn := s.reconcile(ctx, r, prev)

	list[idx] = r
	if err := s.save(ctx, list); err != nil {
		s.rollback(ctx, r.NotificationID, prev)
		return Result{}, err
	}

	s.log.Info().Str("reminder", id).Msg("Reminder reopened")
	return Result{Reminder: r, Warning: warn}, nil
}

// Delete cancels any outstanding trigger and removes the reminder.
func (s *Scheduler) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, idx, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	s.cancel(ctx, list[idx].NotificationID)
	list = append(list[:idx], list[idx+1:]...)
	if err := s.save(ctx, list); err != nil {
		return err
	}

	s.log.Info().Str("reminder", id).Msg("Reminder deleted")
	return nil
}

// Clear cancels every platform trigger and removes all reminders.
func (s *Scheduler) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.platform.CancelAll(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Failed to cancel all notifications")
	}
	if err := s.save(ctx, nil); err != nil {
		return err
	}

	s.log.Info().Msg("Reminders cleared")
	return nil
}

// Reconcile cancels the reminder's trigger and schedules a replacement from
// its current fields. Completed one-shot reminders are left without a trigger.
func (s *Scheduler) Reconcile(ctx context.Context, id string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, idx, err := s.find(ctx, id)
	if err != nil {
		return Result{}, err
	}

	prev := list[idx].NotificationID
	r, warn := s.reconcile(ctx, list[idx], prev)
	list[idx] = r
	if err := s.save(ctx, list); err != nil {
		s.rollback(ctx, r.NotificationID, prev)
		return Result{}, err
	}
	return Result{Reminder: r, Warning: warn}, nil
}

// reconcile cancels prev, then schedules r unless it is a completed one-shot.
// The returned reminder carries the new notification id, or none.
func (s *Scheduler) reconcile(ctx context.Context, r reminders.Reminder, prev string) (reminders.Reminder, error) {
	s.cancel(ctx, prev)
	r.NotificationID = ""
	if r.IsCompleted && !r.IsRecurring() {
		return r, nil
	}

	id, warn := s.schedule(ctx, r)
	r.NotificationID = id
	return r, warn
}

// schedule registers r's trigger. It returns "" without a warning when the
// past-due policy skips the reminder.
func (s *Scheduler) schedule(ctx context.Context, r reminders.Reminder) (string, error) {
	spec, ok, err := reminders.BuildTrigger(r, s.clock.Now(), s.triggerOptions())
	if err != nil {
		return "", &reminders.SchedulingError{ReminderID: r.ID, Err: err}
	}
	if !ok {
		s.log.Debug().Str("reminder", r.ID).Msg("Reminder is past due, not scheduled")
		return "", nil
	}

	id, err := s.platform.Schedule(ctx, notify.Request{
		Content: notify.Content{
			Title:   r.Title,
			Body:    r.Body(),
			Channel: notify.ChannelReminders,
			Data:    map[string]string{"reminderId": r.ID},
		},
		Trigger: spec,
	})
	if err != nil {
		warn := &reminders.SchedulingError{ReminderID: r.ID, Err: err}
		s.log.Warn().Err(err).Str("reminder", r.ID).Msg("Failed to schedule notification")
		return "", warn
	}

	s.log.Debug().
		Str("reminder", r.ID).
		Str("notification", id).
		Stringer("trigger", spec).
		Msg("Notification scheduled")
	return id, nil
}

// rollback cancels a trigger scheduled by an operation whose save failed, so
// the stored reminder does not end up with a second live trigger on retry.
func (s *Scheduler) rollback(ctx context.Context, id, prev string) {
	if id == "" || id == prev {
		return
	}
	s.cancel(ctx, id)
}

// cancel removes a trigger. Failures are not actionable and only logged.
func (s *Scheduler) cancel(ctx context.Context, id string) {
	if id == "" {
		return
	}
	if err := s.platform.Cancel(ctx, id); err != nil {
		s.log.Debug().Err(err).Str("notification", id).Msg("Ignoring cancel failure")
	}
}

func (s *Scheduler) load(ctx context.Context) ([]reminders.Reminder, error) {
	list, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reminders: %w", err)
	}
	return list, nil
}

func (s *Scheduler) save(ctx context.Context, list []reminders.Reminder) error {
	sortByTrigger(list, s.opts.Location)
	if err := s.store.Save(ctx, list); err != nil {
		return fmt.Errorf("save reminders: %w", err)
	}
	return nil
}

func (s *Scheduler) find(ctx context.Context, id string) ([]reminders.Reminder, int, error) {
	list, err := s.load(ctx)
	if err != nil {
		return nil, -1, err
	}
	for i := range list {
		if list[i].ID == id {
			return list, i, nil
		}
	}
	return nil, -1, fmt.Errorf("%w: %s", reminders.ErrNotFound, id)
}

// IsSoft reports whether err is a warning that leaves the reminder valid.
func IsSoft(err error) bool {
	var se *reminders.SchedulingError
	return errors.As(err, &se)
}
