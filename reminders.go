package main

import (
	"context"
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"reminderd/pkg/config"
	"reminderd/pkg/notify"
	"reminderd/pkg/scheduler"
	"reminderd/pkg/store"
)

type Reminders struct {
	store     store.Store
	platform  *notify.Local
	scheduler *scheduler.Scheduler
	log       zerolog.Logger
}

func NewReminders(cfg *config.Config, log zerolog.Logger, onDeliver func(notify.Delivery)) (*Reminders, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(store.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: cfg.Storage.BusyTimeout,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	clk := clock.New()
	platform := notify.NewLocal(notify.LocalOptions{
		Clock:     clk,
		Location:  loc,
		Calendar:  cfg.Notifications.Calendar,
		Disabled:  !cfg.Notifications.Enabled,
		OnDeliver: onDeliver,
	}, log)

	sched := scheduler.New(st, platform, clk, scheduler.Options{
		Location:       loc,
		PastDue:        cfg.PastDuePolicy(),
		PastDueDelay:   cfg.Scheduler.PastDueDelay,
		ResyncInterval: cfg.Scheduler.ResyncInterval,
	}, log)

	return &Reminders{
		store:     st,
		platform:  platform,
		scheduler: sched,
		log:       log,
	}, nil
}

// Start resyncs once and launches the background resync loop. The in-process
// platform starts empty, so the first resync clears the ids left over from the
// previous run and re-arms every pending reminder.
func (r *Reminders) Start(ctx context.Context) {
	r.platform.Start()

	if _, err := r.scheduler.Resync(ctx); err != nil {
		r.log.Warn().Err(err).Msg("Initial resync failed")
	}

	go r.scheduler.Run(ctx)
}

func (r *Reminders) Close() {
	r.platform.Stop()
	if err := r.store.Close(); err != nil {
		r.log.Warn().Err(err).Msg("Error closing store")
	}
}
