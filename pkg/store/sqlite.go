package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"reminderd/pkg/reminders"
)

const defaultBusyTimeout = 2 * time.Second

// SQLite stores the collection as one JSON blob in a key/value table.
type SQLite struct {
	db  *sql.DB
	log zerolog.Logger
}

func OpenSQLite(cfg Config, log zerolog.Logger) (*SQLite, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for sqlite driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", connectionString(path, cfg.BusyTimeout))
	if err != nil {
		return nil, err
	}
	// SQLite prefers a single writer.
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db, log: log}
	if err := s.ensureTable(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure table: %w", err)
	}
	log.Debug().Str("path", path).Msg("SQLite store opened")
	return s, nil
}

func connectionString(file string, busyTimeout time.Duration) string {
	if busyTimeout <= 0 {
		busyTimeout = defaultBusyTimeout
	}
	qs := url.Values{
		"_txlock": []string{"immediate"},
		"_pragma": []string{
			"journal_mode(WAL)",
			fmt.Sprintf("busy_timeout(%d)", busyTimeout.Milliseconds()),
		},
	}

	return "file:" + file + "?" + qs.Encode()
}

func (s *SQLite) ensureTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT NOT NULL PRIMARY KEY,
			value BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		) WITHOUT ROWID;`,
	)
	return err
}

func (s *SQLite) Load(ctx context.Context) ([]reminders.Reminder, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, CollectionKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []reminders.Reminder{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", CollectionKey, err)
	}

	list := []reminders.Reminder{}
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode %s: %w", CollectionKey, err)
	}
	return list, nil
}

func (s *SQLite) Save(ctx context.Context, list []reminders.Reminder) error {
	if list == nil {
		list = []reminders.Reminder{}
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode %s: %w", CollectionKey, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		CollectionKey, raw, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save %s: %w", CollectionKey, err)
	}
	s.log.Trace().Int("count", len(list)).Msg("Reminders saved")
	return nil
}

func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
