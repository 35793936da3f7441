package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"convostore/pkg/models"
)

// Memory is an in-process backend with the same semantics as the Qdrant
// backend. It backs the --memory development mode and the test suite.
type Memory struct {
	mu    sync.RWMutex
	convs map[int64]models.Conversation
}

func NewMemory() *Memory {
	return &Memory{convs: map[int64]models.Conversation{}}
}

func (m *Memory) EnsureCollection(ctx context.Context) error { return nil }

func (m *Memory) Close() error { return nil }

func (m *Memory) Save(ctx context.Context, c models.Conversation) error {
	if c.Messages == nil {
		c.Messages = []models.Message{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.convs[c.ID] = c
	return nil
}

func (m *Memory) Get(ctx context.Context, id int64) (models.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.convs[id]
	if !ok {
		return models.Conversation{}, ErrNotFound
	}
	return c, nil
}

func (m *Memory) ListByUser(ctx context.Context, userID string, limit int) ([]models.Conversation, error) {
	if limit <= 0 {
		limit = 50
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Conversation, 0)
	for _, c := range m.convs {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	// Stable order so limit truncation is deterministic.
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt > out[j].UpdatedAt })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.convs, id)
	return nil
}

func (m *Memory) Collections(ctx context.Context) (int, error) { return 1, nil }

func (m *Memory) PurgeOlderThan(ctx context.Context, cutoff time.Time, batch int, dryRun bool) (int, error) {
	if batch <= 0 {
		batch = 100
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	purged := 0
	for id, c := range m.convs {
		t, err := time.Parse(time.RFC3339, c.UpdatedAt)
		if err != nil || !t.Before(cutoff) {
			continue
		}
		purged++
		if !dryRun {
			delete(m.convs, id)
		}
		if purged >= batch {
			break
		}
	}
	return purged, nil
}
