// Package file provides file-backed persistence: a JSON position snapshot
// rewritten in full on every save, and a newline-delimited trade log.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Claw16z/claw16z-trading-agent/internal/domain"
	"github.com/Claw16z/claw16z-trading-agent/internal/storage"
)

// PositionMirror implements storage.PositionMirror on a single JSON file.
// Saves go through a temp file and rename, so a reader never observes a
// partially written snapshot.
type PositionMirror struct {
	path string
	mu   sync.Mutex
}

// NewPositionMirror creates a mirror writing to path. The parent directory
// is created if missing.
func NewPositionMirror(path string) (*PositionMirror, error) {
	if path == "" {
		return nil, storage.ErrInvalidInput
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &PositionMirror{path: path}, nil
}

// Save replaces the snapshot file with the given positions.
func (m *PositionMirror) Save(_ context.Context, positions []*domain.Position) error {
	for _, p := range positions {
		if p == nil {
			return storage.ErrInvalidInput
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.MarshalIndent(positions, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// Load reads the last saved snapshot. A missing file yields an empty slice.
func (m *PositionMirror) Load(_ context.Context) ([]*domain.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []*domain.Position{}, nil
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var positions []*domain.Position
	if err := json.Unmarshal(data, &positions); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return positions, nil
}

var _ storage.PositionMirror = (*PositionMirror)(nil)
