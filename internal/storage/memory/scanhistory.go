package memory

import (
	"context"
	"sync"

	"github.com/Claw16z/claw16z-trading-agent/internal/storage"
)

// ScanHistory is an in-memory implementation of storage.ScanHistory.
type ScanHistory struct {
	mu        sync.RWMutex
	snapshots []*storage.CandidateSnapshot
}

// NewScanHistory creates a new in-memory scan history.
func NewScanHistory() *ScanHistory {
	return &ScanHistory{}
}

// InsertTick appends all candidate snapshots observed in one tick.
func (h *ScanHistory) InsertTick(_ context.Context, snapshots []*storage.CandidateSnapshot) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, s := range snapshots {
		if s == nil {
			return storage.ErrInvalidInput
		}
		snapshotCopy := *s
		h.snapshots = append(h.snapshots, &snapshotCopy)
	}
	return nil
}

// Snapshots returns a copy of all stored snapshots in insertion order.
func (h *ScanHistory) Snapshots() []*storage.CandidateSnapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()

	result := make([]*storage.CandidateSnapshot, 0, len(h.snapshots))
	for _, s := range h.snapshots {
		snapshotCopy := *s
		result = append(result, &snapshotCopy)
	}
	return result
}

var _ storage.ScanHistory = (*ScanHistory)(nil)
