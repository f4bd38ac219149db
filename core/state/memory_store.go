package state

import (
	"context"
	"sync"

	"SyncMusic/model"
)

// MemoryStore 进程内存储，重启后依赖恢复文件
type MemoryStore struct {
	mu   sync.Mutex
	snap *model.Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(ctx context.Context) (*model.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.snap == nil {
		return &model.Snapshot{}, nil
	}
	return m.snap.Clone(), nil
}

func (m *MemoryStore) Save(ctx context.Context, snap *model.Snapshot) error {
	m.mu.Lock()
	m.snap = snap.Clone()
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
