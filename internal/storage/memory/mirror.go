package memory

import (
	"context"
	"sync"

	"github.com/Claw16z/claw16z-trading-agent/internal/domain"
	"github.com/Claw16z/claw16z-trading-agent/internal/storage"
)

// PositionMirror is an in-memory implementation of storage.PositionMirror.
// It keeps the last saved snapshot; useful in tests and as a null backend.
type PositionMirror struct {
	mu       sync.RWMutex
	snapshot []*domain.Position
}

// NewPositionMirror creates a new in-memory position mirror.
func NewPositionMirror() *PositionMirror {
	return &PositionMirror{}
}

// Save replaces the held snapshot with a copy of the given positions.
func (m *PositionMirror) Save(_ context.Context, positions []*domain.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make([]*domain.Position, 0, len(positions))
	for _, p := range positions {
		if p == nil {
			return storage.ErrInvalidInput
		}
		positionCopy := *p
		snapshot = append(snapshot, &positionCopy)
	}
	m.snapshot = snapshot
	return nil
}

// Load returns a copy of the last saved snapshot.
func (m *PositionMirror) Load(_ context.Context) ([]*domain.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*domain.Position, 0, len(m.snapshot))
	for _, p := range m.snapshot {
		positionCopy := *p
		result = append(result, &positionCopy)
	}
	return result, nil
}

var _ storage.PositionMirror = (*PositionMirror)(nil)
