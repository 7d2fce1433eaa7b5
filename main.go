package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"reminderd/pkg/config"
	"reminderd/pkg/logging"
	"reminderd/pkg/notify"
)

func main() {
	configPath := flag.String("config", "reminderd.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := logging.New(logging.Config{Console: true})
		bootLog.Fatal().Err(err).Msg("Failed to load config")
	}

	log := logging.New(logging.Config{Level: cfg.Log.Level, Console: cfg.Log.Console})

	// Create the reminders object
	reminders, err := NewReminders(cfg, log, executeReminder(log))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize reminders")
	}
	defer reminders.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Rebuild missing triggers, then keep resyncing in the background
	reminders.Start(ctx)

	// Start a server to get user input
	go reminders.startServer(ctx, cfg.Listen)

	// Sleep until context is canceled
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Info().Msg("Shutting down")
}

// Invoked when a reminder notification fires.
func executeReminder(log zerolog.Logger) func(notify.Delivery) {
	return func(d notify.Delivery) {
		log.Info().
			Str("notification", d.ID).
			Str("reminder", d.Content.Data["reminderId"]).
			Str("body", d.Content.Body).
			Msg("Reminder fired")
	}
}
