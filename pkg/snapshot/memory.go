package snapshot

import (
	"context"
	"fmt"
	"sync"
)

type InMemoryStore struct {
	lock     sync.RWMutex
	snapshot *Snapshot
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (m *InMemoryStore) Get(ctx context.Context) (*Snapshot, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	if m.snapshot == nil {
		return nil, ErrNoSnapshot
	}
	return m.snapshot.Copy(), nil
}

func (m *InMemoryStore) Set(ctx context.Context, snapshot *Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("snapshot is nil")
	}

	m.lock.Lock()
	defer m.lock.Unlock()
	m.snapshot = snapshot
	return nil
}
