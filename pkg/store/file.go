package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"reminderd/pkg/reminders"
)

// File stores the collection as a JSON document. Writes go to a temp file
// that is renamed over the target.
type File struct {
	log  zerolog.Logger
	path string

	mu     sync.Mutex
	closed bool
}

func OpenFile(cfg Config, log zerolog.Logger) (*File, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &File{log: log, path: path}, nil
}

func (f *File) Load(ctx context.Context) ([]reminders.Reminder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrClosed
	}

	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return []reminders.Reminder{}, nil
	}
	if err != nil {
		return nil, err
	}

	list := []reminders.Reminder{}
	if len(raw) == 0 {
		return list, nil
	}
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return list, nil
}

func (f *File) Save(ctx context.Context, list []reminders.Reminder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if list == nil {
		list = []reminders.Reminder{}
	}
	raw, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return err
	}
	f.log.Trace().Int("count", len(list)).Msg("Reminders saved")
	return nil
}

func (f *File) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}
