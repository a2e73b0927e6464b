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

// TradeLog implements storage.TradeLog as a newline-delimited JSON file.
// One record per line, appended with O_APPEND, never rewritten.
type TradeLog struct {
	path string
	mu   sync.Mutex
}

// NewTradeLog creates a trade log appending to path. The parent directory
// is created if missing.
func NewTradeLog(path string) (*TradeLog, error) {
	if path == "" {
		return nil, storage.ErrInvalidInput
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create trade log dir: %w", err)
	}
	return &TradeLog{path: path}, nil
}

// Append writes one trade record as a single JSON line.
func (l *TradeLog) Append(_ context.Context, rec *domain.TradeRecord) error {
	if rec == nil {
		return storage.ErrInvalidInput
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal trade record: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open trade log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append trade record: %w", err)
	}
	return nil
}

var _ storage.TradeLog = (*TradeLog)(nil)
