package memory

import (
	"context"
	"sync"

	"github.com/Claw16z/claw16z-trading-agent/internal/domain"
	"github.com/Claw16z/claw16z-trading-agent/internal/storage"
)

// TradeLog is an in-memory implementation of storage.TradeLog.
type TradeLog struct {
	mu      sync.RWMutex
	records []*domain.TradeRecord
}

// NewTradeLog creates a new in-memory trade log.
func NewTradeLog() *TradeLog {
	return &TradeLog{}
}

// Append adds one trade record. Returns ErrInvalidInput on nil records.
func (l *TradeLog) Append(_ context.Context, rec *domain.TradeRecord) error {
	if rec == nil {
		return storage.ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	recCopy := *rec
	l.records = append(l.records, &recCopy)
	return nil
}

// Records returns a copy of all appended records in append order.
func (l *TradeLog) Records() []*domain.TradeRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*domain.TradeRecord, 0, len(l.records))
	for _, r := range l.records {
		recCopy := *r
		result = append(result, &recCopy)
	}
	return result
}

var _ storage.TradeLog = (*TradeLog)(nil)
