package scheduler

import (
	"context"
	"fmt"

	"reminderd/pkg/reminders"
)

// Report summarizes a recovery or resync pass.
type Report struct {
	// Scheduled is the number of reminders that received a new trigger.
	Scheduled int `json:"scheduled"`
	// Stale is the number of notification ids that were no longer live.
	Stale int `json:"stale"`
	// Orphans is the number of live triggers no reminder referenced.
	Orphans  int     `json:"orphans"`
	Warnings []error `json:"-"`
}

// Recover schedules a trigger for every pending reminder that has none and
// is still due in the future. Reminders that already have an id are left alone.
func (s *Scheduler) Recover(ctx context.Context) (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return Report{}, err
	}

	var rep Report
	s.recoverLocked(ctx, list, &rep)
	if rep.Scheduled > 0 {
		if err := s.save(ctx, list); err != nil {
			return rep, err
		}
	}

	s.log.Info().Int("scheduled", rep.Scheduled).Int("warnings", len(rep.Warnings)).Msg("Recovery pass finished")
	return rep, nil
}

// Resync reconciles the collection with the platform's pending triggers:
// ids that already fired are cleared, unreferenced triggers are cancelled and
// the recovery pass re-arms whatever is missing.
func (s *Scheduler) Resync(ctx context.Context) (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	live, err := s.platform.ListScheduled(ctx)
	if err != nil {
		return Report{}, &reminders.SchedulingError{Err: fmt.Errorf("list scheduled: %w", err)}
	}
	liveSet := make(map[string]struct{}, len(live))
	for _, id := range live {
		liveSet[id] = struct{}{}
	}

	list, err := s.load(ctx)
	if err != nil {
		return Report{}, err
	}

	var rep Report
	referenced := make(map[string]struct{}, len(list))
	for i := range list {
		id := list[i].NotificationID
		if id == "" {
			continue
		}
		if _, ok := liveSet[id]; !ok {
			list[i].NotificationID = ""
			rep.Stale++
			continue
		}
		referenced[id] = struct{}{}
	}

	for _, id := range live {
		if _, ok := referenced[id]; !ok {
			s.cancel(ctx, id)
			rep.Orphans++
		}
	}

	s.recoverLocked(ctx, list, &rep)
	if rep.Scheduled > 0 || rep.Stale > 0 {
		if err := s.save(ctx, list); err != nil {
			return rep, err
		}
	}

	s.log.Debug().
		Int("scheduled", rep.Scheduled).
		Int("stale", rep.Stale).
		Int("orphans", rep.Orphans).
		Msg("Resync finished")
	return rep, nil
}

func (s *Scheduler) recoverLocked(ctx context.Context, list []reminders.Reminder, rep *Report) {
	now := s.clock.Now()
	for i := range list {
		r := list[i]
		if r.NotificationID != "" || r.IsCompleted {
			continue
		}
		if !r.IsRecurring() && !r.ScheduledTime(s.opts.Location).After(now) {
			continue
		}

		id, warn := s.schedule(ctx, r)
		if warn != nil {
			rep.Warnings = append(rep.Warnings, warn)
			continue
		}
		if id == "" {
			continue
		}
		list[i].NotificationID = id
		rep.Scheduled++
	}
}

// Run resyncs on every tick of the resync interval until ctx is done.
// This is a blocking function that should be called in a background goroutine.
func (s *Scheduler) Run(ctx context.Context) {
	t := s.clock.Ticker(s.opts.ResyncInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-t.C:
			if _, err := s.Resync(ctx); err != nil {
				s.log.Warn().Err(err).Msg("Resync failed")
			}
		}
	}
}
