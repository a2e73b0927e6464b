package postgres

import (
	"context"
	"fmt"

	"github.com/Claw16z/claw16z-trading-agent/internal/domain"
	"github.com/Claw16z/claw16z-trading-agent/internal/storage"
)

// PositionMirror implements storage.PositionMirror using PostgreSQL.
// Each save rewrites the positions table in full inside one transaction, so
// a concurrent Load sees either the previous or the new snapshot, never a mix.
type PositionMirror struct {
	pool *Pool
}

// NewPositionMirror creates a new PositionMirror.
func NewPositionMirror(pool *Pool) *PositionMirror {
	return &PositionMirror{pool: pool}
}

// Compile-time interface check.
var _ storage.PositionMirror = (*PositionMirror)(nil)

// Save replaces the persisted snapshot with the given positions.
func (m *PositionMirror) Save(ctx context.Context, positions []*domain.Position) error {
	for _, p := range positions {
		if p == nil {
			return storage.ErrInvalidInput
		}
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM positions`); err != nil {
		return fmt.Errorf("clear positions: %w", err)
	}

	query := `
		INSERT INTO positions (
			address, token, entry_price, entry_time,
			amount, usdc_invested, execution_ref, stop_loss
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, p := range positions {
		if _, err := tx.Exec(ctx, query,
			p.Address, p.Token, p.EntryPrice, p.EntryTime,
			p.Amount, p.USDCInvested, p.Signature, p.StopLoss,
		); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert position: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Load returns the last persisted snapshot ordered by entry time.
func (m *PositionMirror) Load(ctx context.Context) ([]*domain.Position, error) {
	query := `
		SELECT address, token, entry_price, entry_time,
		       amount, usdc_invested, execution_ref, stop_loss
		FROM positions
		ORDER BY entry_time ASC
	`

	rows, err := m.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}
	defer rows.Close()

	positions := []*domain.Position{}
	for rows.Next() {
		var p domain.Position
		if err := rows.Scan(
			&p.Address, &p.Token, &p.EntryPrice, &p.EntryTime,
			&p.Amount, &p.USDCInvested, &p.Signature, &p.StopLoss,
		); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		positions = append(positions, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate positions: %w", err)
	}
	return positions, nil
}
