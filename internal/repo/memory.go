package repo

import (
	"context"
	"sync"
)

// MemoryResultRepository keeps the log for the lifetime of the process.
// Appends are serialized; List returns a copy.
type MemoryResultRepository struct {
	mu      sync.RWMutex
	records []Record
}

func NewMemoryResultRepository() *MemoryResultRepository {
	return &MemoryResultRepository{}
}

func (m *MemoryResultRepository) Append(ctx context.Context, rec Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	rec = stamp(rec)
	m.mu.Lock()
	m.records = append(m.records, rec)
	m.mu.Unlock()
	return rec, nil
}

func (m *MemoryResultRepository) List(ctx context.Context) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out, nil
}

func (m *MemoryResultRepository) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.records = nil
	m.mu.Unlock()
	return nil
}
