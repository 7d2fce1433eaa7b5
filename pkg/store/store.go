// Package store persists the reminder collection as a single JSON document.
//
// Every write replaces the whole collection; callers serialize their
// read-modify-write cycles.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"reminderd/pkg/reminders"
)

// CollectionKey is the key the reminder collection is stored under.
const CollectionKey = "reminders"

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store closed")

// Config configures storage.
//
// Driver values:
//   - "sqlite": SQLite database file (default)
//   - "file": JSON document on disk
//   - "memory": in-process only, lost on exit
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Store loads and saves the full reminder collection.
type Store interface {
	Load(ctx context.Context) ([]reminders.Reminder, error)
	Save(ctx context.Context, list []reminders.Reminder) error
	Close() error
}

// Open initializes the configured store.
func Open(cfg Config, log zerolog.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	log = log.With().Str("component", "store").Str("driver", driver).Logger()

	switch driver {
	case "", "sqlite", "sqlite3":
		return OpenSQLite(cfg, log)
	case "file", "json":
		return OpenFile(cfg, log)
	case "memory", "none":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", driver)
	}
}
