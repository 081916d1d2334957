package storage

import (
	"context"
	"strconv"
	"sync"

	"github.com/austinstudio/meeting-actions-sub000/domain"
)

// Memory keeps collections in process. It is used for local runs and tests.
type Memory struct {
	mu    sync.Mutex
	blobs map[string]domain.Blob
	seq   uint64
}

func NewMemory() *Memory {
	return &Memory{blobs: map[string]domain.Blob{}}
}

func (m *Memory) Get(ctx context.Context, name string) (domain.Blob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[name]
	if !ok {
		return domain.Blob{}, nil
	}
	return domain.Blob{Data: append([]byte(nil), b.Data...), Version: b.Version}, nil
}

func (m *Memory) Put(ctx context.Context, name string, data []byte, ifVersion string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !versionMatches(m.blobs[name].Version, ifVersion) {
		return "", domain.ErrConcurrencyConflict
	}
	m.seq++
	v := strconv.FormatUint(m.seq, 10)
	m.blobs[name] = domain.Blob{Data: append([]byte(nil), data...), Version: v}
	return v, nil
}

func (m *Memory) Ping(context.Context) error { return nil }
