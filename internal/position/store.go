// Package position owns the position lifecycle: the in-memory store of open
// positions and the manager that opens, evaluates, and closes them.
package position

import (
	"context"
	"log"
	"sort"
	"sync"

	"github.com/Claw16z/claw16z-trading-agent/internal/domain"
	"github.com/Claw16z/claw16z-trading-agent/internal/storage"
)

// Store holds all open positions keyed by token address. It is the runtime
// source of truth; every mutation is mirrored through to the configured
// PositionMirror so a restart can rehydrate. Mirror failures are logged and
// do not roll back the in-memory change.
type Store struct {
	mu        sync.RWMutex
	positions map[string]*domain.Position

	mirror storage.PositionMirror
	logger *log.Logger
}

// NewStore creates an empty store backed by the given mirror.
func NewStore(mirror storage.PositionMirror, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{
		positions: make(map[string]*domain.Position),
		mirror:    mirror,
		logger:    logger,
	}
}

// Load replaces the store contents with the mirror's last snapshot.
// Called once at startup, before the scan loop starts.
func (s *Store) Load(ctx context.Context) error {
	positions, err := s.mirror.Load(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions = make(map[string]*domain.Position, len(positions))
	for _, p := range positions {
		cp := *p
		s.positions[cp.Address] = &cp
	}
	return nil
}

// Add inserts a new position. Returns storage.ErrDuplicateKey when a
// position for the address already exists.
func (s *Store) Add(ctx context.Context, p *domain.Position) error {
	if p == nil || p.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.positions[p.Address]; exists {
		return storage.ErrDuplicateKey
	}
	cp := *p
	s.positions[cp.Address] = &cp
	s.saveLocked(ctx)
	return nil
}

// Remove deletes the position for the address. Returns storage.ErrNotFound
// when no such position exists.
func (s *Store) Remove(ctx context.Context, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.positions[address]; !exists {
		return storage.ErrNotFound
	}
	delete(s.positions, address)
	s.saveLocked(ctx)
	return nil
}

// Get returns a copy of the position for the address.
func (s *Store) Get(address string) (*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, exists := s.positions[address]
	if !exists {
		return nil, storage.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// Has reports whether an open position exists for the address.
func (s *Store) Has(address string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.positions[address]
	return exists
}

// Count returns the number of open positions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.positions)
}

// List returns copies of all open positions ordered by entry time.
func (s *Store) List() []*domain.Position {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// saveLocked mirrors the current state. Caller must hold the write lock.
func (s *Store) saveLocked(ctx context.Context) {
	if err := s.mirror.Save(ctx, s.snapshotLocked()); err != nil {
		s.logger.Printf("position mirror save failed: %v", err)
	}
}

func (s *Store) snapshotLocked() []*domain.Position {
	out := make([]*domain.Position, 0, len(s.positions))
	for _, p := range s.positions {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].EntryTime.Before(out[j].EntryTime)
	})
	return out
}
