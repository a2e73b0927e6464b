package position

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Claw16z/claw16z-trading-agent/internal/domain"
	"github.com/Claw16z/claw16z-trading-agent/internal/executor"
	"github.com/Claw16z/claw16z-trading-agent/internal/observability"
	"github.com/Claw16z/claw16z-trading-agent/internal/storage"
)

// Exit rule constants. Rules are checked in order: stop loss, then time
// exit, then profit taking; the first match wins.
const (
	maxHoldDuration   = 4 * time.Hour
	timeExitMaxPnLPct = 20.0
	profitTargetPct   = 50.0
)

// ErrCapacity means the maximum number of concurrent positions is reached.
// Not a failure; the candidate is simply skipped this tick.
var ErrCapacity = errors.New("position capacity reached")

// ManagerConfig holds sizing and risk parameters.
type ManagerConfig struct {
	PositionSizeUSDC float64
	StopLossPct      float64 // percent below entry, e.g. 10 for -10%
	MaxPositions     int
	QuoteMint        string // mint spent on entry and received on exit
}

// Manager opens, evaluates, and closes positions. All swap failures leave
// the store untouched; the same decision is retried naturally on a later
// tick when conditions still hold.
type Manager struct {
	cfg     ManagerConfig
	store   *Store
	exec    executor.Executor
	trades  storage.TradeLog
	metrics *observability.Metrics
	logger  *log.Logger
}

func NewManager(cfg ManagerConfig, store *Store, exec executor.Executor,
	trades storage.TradeLog, metrics *observability.Metrics, logger *log.Logger) *Manager {
	if metrics == nil {
		metrics = observability.Nop()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		cfg:     cfg,
		store:   store,
		exec:    exec,
		trades:  trades,
		metrics: metrics,
		logger:  logger,
	}
}

// Store exposes the underlying position store for membership queries.
func (m *Manager) Store() *Store {
	return m.store
}

// Open buys into a candidate. Returns ErrCapacity without side effects when
// the position limit is reached; the check happens at open time, against
// current store state, not against a count captured at tick start.
func (m *Manager) Open(ctx context.Context, c domain.Candidate) error {
	if m.store.Count() >= m.cfg.MaxPositions {
		return ErrCapacity
	}
	// Checked again here, not just in the filter: the same token can reach
	// Open twice in one tick through two pools, and a buy with no stored
	// position would be untracked funds.
	if m.store.Has(c.Address) {
		return fmt.Errorf("open %s: already holding %s: %w", c.Symbol, c.Address, storage.ErrDuplicateKey)
	}

	res, err := m.exec.Swap(ctx, executor.SwapRequest{
		Side:       executor.SideBuy,
		InputMint:  m.cfg.QuoteMint,
		OutputMint: c.Address,
		Amount:     m.cfg.PositionSizeUSDC,
		QuotePrice: c.PriceUSD,
	})
	if err != nil {
		m.metrics.ExecutionErrors.Inc()
		return fmt.Errorf("open %s: %w", c.Symbol, err)
	}
	m.metrics.SwapDuration.Observe(res.Elapsed.Seconds())

	now := time.Now().UTC()
	p := &domain.Position{
		Token:        c.Symbol,
		Address:      c.Address,
		EntryPrice:   c.PriceUSD,
		EntryTime:    now,
		Amount:       res.OutputAmount,
		USDCInvested: m.cfg.PositionSizeUSDC,
		Signature:    res.Signature,
		StopLoss:     c.PriceUSD * (1 - m.cfg.StopLossPct/100),
	}
	if err := m.store.Add(ctx, p); err != nil {
		return fmt.Errorf("store position %s: %w", c.Symbol, err)
	}

	m.metrics.EntriesTotal.Inc()
	m.metrics.OpenPositions.Set(float64(m.store.Count()))
	m.logger.Printf("opened %s @ %.10f: invested=%.2f amount=%f stopLoss=%.10f ref=%s",
		c.Symbol, c.PriceUSD, p.USDCInvested, p.Amount, p.StopLoss, p.Signature)

	m.appendTrade(ctx, &domain.TradeRecord{
		Timestamp:  now,
		Type:       domain.TradeTypeEntry,
		Token:      c.Symbol,
		Address:    c.Address,
		EntryPrice: c.PriceUSD,
		EntryTime:  now,
		Invested:   p.USDCInvested,
		Signature:  res.Signature,
	})
	return nil
}

// EvaluateExit applies the exit rules to a position at the current price.
// Returns the exit reason and true when the position should close.
func (m *Manager) EvaluateExit(p *domain.Position, currentPrice float64, now time.Time) (string, bool) {
	if currentPrice <= p.StopLoss {
		return domain.ExitReasonStopLoss, true
	}
	pnl := p.PnLPct(currentPrice)
	if p.Age(now) > maxHoldDuration && pnl < timeExitMaxPnLPct {
		return domain.ExitReasonTimeExit, true
	}
	if pnl > profitTargetPct {
		return domain.ExitReasonProfitTaking, true
	}
	return "", false
}

// Close sells the full position. On swap failure the position stays open
// and is re-evaluated next tick.
func (m *Manager) Close(ctx context.Context, p *domain.Position, currentPrice float64, reason string) error {
	res, err := m.exec.Swap(ctx, executor.SwapRequest{
		Side:       executor.SideSell,
		InputMint:  p.Address,
		OutputMint: m.cfg.QuoteMint,
		Amount:     p.Amount,
		QuotePrice: currentPrice,
	})
	if err != nil {
		m.metrics.ExecutionErrors.Inc()
		return fmt.Errorf("close %s: %w", p.Token, err)
	}
	m.metrics.SwapDuration.Observe(res.Elapsed.Seconds())

	if err := m.store.Remove(ctx, p.Address); err != nil {
		return fmt.Errorf("remove position %s: %w", p.Token, err)
	}

	finalValue := res.OutputAmount
	pnl := finalValue - p.USDCInvested
	pnlPct := p.PnLPct(currentPrice)
	now := time.Now().UTC()

	m.metrics.ExitsTotal.WithLabelValues(reason).Inc()
	m.metrics.OpenPositions.Set(float64(m.store.Count()))
	m.metrics.RealizedPnLUSDC.Add(pnl)
	m.logger.Printf("closed %s @ %.10f (%s): invested=%.2f final=%.2f pnl=%+.2f (%+.2f%%) ref=%s",
		p.Token, currentPrice, reason, p.USDCInvested, finalValue, pnl, pnlPct, res.Signature)

	m.appendTrade(ctx, &domain.TradeRecord{
		Timestamp:  now,
		Type:       domain.TradeTypeExit,
		Token:      p.Token,
		Address:    p.Address,
		Reason:     reason,
		EntryPrice: p.EntryPrice,
		EntryTime:  p.EntryTime,
		ExitTime:   &now,
		Invested:   p.USDCInvested,
		FinalValue: &finalValue,
		PnL:        &pnl,
		PnLPercent: &pnlPct,
		Signature:  res.Signature,
	})
	return nil
}

// appendTrade writes to the trade log. Log failures never unwind a swap
// that already confirmed, so they are logged and swallowed.
func (m *Manager) appendTrade(ctx context.Context, rec *domain.TradeRecord) {
	if err := m.trades.Append(ctx, rec); err != nil {
		m.logger.Printf("trade log append failed for %s %s: %v", rec.Type, rec.Token, err)
	}
}
