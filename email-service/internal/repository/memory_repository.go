package repository

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository keeps notification logs in memory. Used by tests and
// local development without a database.
type MemoryRepository struct {
	mu     sync.RWMutex
	logs   []NotificationLog
	nextID int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{nextID: 1}
}

func (m *MemoryRepository) Append(_ context.Context, log *NotificationLog) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *log
	stored.ID = m.nextID
	m.nextID++
	m.logs = append(m.logs, stored)
	return stored.ID, nil
}

func (m *MemoryRepository) ListByEmail(_ context.Context, email string) ([]NotificationLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []NotificationLog
	for _, l := range m.logs {
		if l.Email == email {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SentAt.Equal(out[j].SentAt) {
			return out[i].SentAt.After(out[j].SentAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *MemoryRepository) Close() error { return nil }
