package store

import (
	"context"
	"sync"

	"reminderd/pkg/reminders"
)

// Memory keeps the collection in process memory.
type Memory struct {
	mu     sync.Mutex
	list   []reminders.Reminder
	closed bool
}

func NewMemory(initial ...reminders.Reminder) *Memory {
	return &Memory{list: clone(initial)}
}

func (m *Memory) Load(ctx context.Context) ([]reminders.Reminder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	return clone(m.list), nil
}

func (m *Memory) Save(ctx context.Context, list []reminders.Reminder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.list = clone(list)
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

func clone(list []reminders.Reminder) []reminders.Reminder {
	out := make([]reminders.Reminder, len(list))
	copy(out, list)
	return out
}
