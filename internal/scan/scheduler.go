package scan

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Claw16z/claw16z-trading-agent/internal/domain"
	"github.com/Claw16z/claw16z-trading-agent/internal/feed"
	"github.com/Claw16z/claw16z-trading-agent/internal/observability"
	"github.com/Claw16z/claw16z-trading-agent/internal/position"
	"github.com/Claw16z/claw16z-trading-agent/internal/storage"
)

// errorBackoff is the fixed sleep after a failed tick.
const errorBackoff = 5 * time.Second

// evalParallelism bounds concurrent position evaluations within one tick.
const evalParallelism = 4

// PairSource fetches the raw candidate pool for one tick.
type PairSource interface {
	Fetch(ctx context.Context) ([]feed.Pair, error)
}

// PriceSource fetches the current USD price for a token address.
type PriceSource interface {
	FetchPrice(ctx context.Context, address string) (float64, error)
}

// SchedulerConfig holds scan loop parameters.
type SchedulerConfig struct {
	ChainID  string
	Interval time.Duration
}

// Scheduler runs the scan/monitor loop. Ticks are strictly sequential: a
// slow feed or swap delays the next tick instead of overlapping it.
type Scheduler struct {
	cfg     SchedulerConfig
	pairs   PairSource
	prices  PriceSource
	filter  *Filter
	manager *position.Manager
	history storage.ScanHistory
	metrics *observability.Metrics
	logger  *log.Logger
}

// NewScheduler wires the loop. history may be nil when scan history is not
// configured.
func NewScheduler(cfg SchedulerConfig, pairs PairSource, prices PriceSource,
	filter *Filter, manager *position.Manager, history storage.ScanHistory,
	metrics *observability.Metrics, logger *log.Logger) *Scheduler {
	if metrics == nil {
		metrics = observability.Nop()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{
		cfg:     cfg,
		pairs:   pairs,
		prices:  prices,
		filter:  filter,
		manager: manager,
		history: history,
		metrics: metrics,
		logger:  logger,
	}
}

// Run executes ticks until the context is cancelled. The loop never
// terminates on a tick error: failures are logged and followed by a fixed
// backoff. Cancellation is checked between ticks; an in-flight tick always
// completes.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Printf("scan loop started: interval=%s chain=%s", s.cfg.Interval, s.cfg.ChainID)

	for {
		s.metrics.TicksTotal.Inc()
		start := time.Now()
		err := s.safeTick(ctx)
		s.metrics.TickDuration.Observe(time.Since(start).Seconds())

		wait := s.cfg.Interval
		if err != nil {
			s.metrics.TickErrors.Inc()
			s.logger.Printf("tick failed: %v", err)
			wait = errorBackoff
		} else {
			s.metrics.LastTickSuccess.SetToCurrentTime()
		}

		select {
		case <-ctx.Done():
			s.logger.Printf("scan loop stopped")
			return nil
		case <-time.After(wait):
		}
	}
}

// safeTick converts a panicking tick into a tick error.
func (s *Scheduler) safeTick(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tick panic: %v", r)
		}
	}()
	return s.tick(ctx)
}

// tick is one full scan/monitor pass: fetch, normalize, open entries,
// evaluate open positions.
func (s *Scheduler) tick(ctx context.Context) error {
	candidates := s.scan(ctx)
	s.openPositions(ctx, candidates)
	if err := s.monitorPositions(ctx); err != nil {
		return err
	}

	s.logger.Printf("tick done: candidates=%d open=%d", len(candidates), s.manager.Store().Count())
	return nil
}

// scan fetches and normalizes the candidate pool. Feed failures are treated
// as an empty pool for this tick, not as a tick error.
func (s *Scheduler) scan(ctx context.Context) []domain.Candidate {
	pairs, err := s.pairs.Fetch(ctx)
	if err != nil {
		s.metrics.FeedErrors.Inc()
		s.logger.Printf("candidate fetch failed, skipping scan this tick: %v", err)
		return nil
	}

	candidates := Normalize(pairs, s.cfg.ChainID)
	s.metrics.CandidatesSeen.Add(float64(len(candidates)))
	s.recordHistory(ctx, candidates)
	return candidates
}

// openPositions takes qualifying candidates in feed order and opens until
// the per-tick cap or the position limit is hit. Individual open failures
// don't stop later candidates.
func (s *Scheduler) openPositions(ctx context.Context, candidates []domain.Candidate) {
	selected := s.filter.Select(candidates, s.manager.Store())
	s.metrics.Opportunities.Add(float64(len(selected)))

	for _, c := range selected {
		err := s.manager.Open(ctx, c)
		if errors.Is(err, position.ErrCapacity) {
			s.logger.Printf("skipping %s: %v", c.Symbol, err)
			return
		}
		if err != nil {
			s.logger.Printf("open failed for %s: %v", c.Symbol, err)
		}
	}
}

// monitorPositions evaluates every open position against its current price.
// Evaluations run in parallel with bounded concurrency; store transitions
// stay atomic behind the store's lock. A failed price lookup skips only
// that position.
func (s *Scheduler) monitorPositions(ctx context.Context) error {
	open := s.manager.Store().List()
	if len(open) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(evalParallelism)
	for _, p := range open {
		g.Go(func() error {
			s.evaluate(gctx, p)
			return nil
		})
	}
	return g.Wait()
}

func (s *Scheduler) evaluate(ctx context.Context, p *domain.Position) {
	price, err := s.prices.FetchPrice(ctx, p.Address)
	if err != nil {
		s.metrics.FeedErrors.Inc()
		s.logger.Printf("price lookup failed for %s, skipping: %v", p.Token, err)
		return
	}

	s.logger.Printf("position %s: entry=%.10f current=%.10f pnl=%+.2f%% age=%s",
		p.Token, p.EntryPrice, price, p.PnLPct(price), p.Age(time.Now().UTC()).Round(time.Second))

	reason, exit := s.manager.EvaluateExit(p, price, time.Now().UTC())
	if !exit {
		return
	}
	if err := s.manager.Close(ctx, p, price, reason); err != nil {
		s.logger.Printf("close failed for %s (%s), position stays open: %v", p.Token, reason, err)
	}
}

// recordHistory persists the tick's candidates best-effort.
func (s *Scheduler) recordHistory(ctx context.Context, candidates []domain.Candidate) {
	if s.history == nil || len(candidates) == 0 {
		return
	}

	now := time.Now().UTC()
	snapshots := make([]*storage.CandidateSnapshot, 0, len(candidates))
	for _, c := range candidates {
		snapshots = append(snapshots, &storage.CandidateSnapshot{
			ScannedAt:      now,
			Address:        c.Address,
			Symbol:         c.Symbol,
			PriceUSD:       c.PriceUSD,
			PriceChange24h: c.PriceChange24h,
			Volume24h:      c.Volume24h,
			Liquidity:      c.Liquidity,
			MarketCap:      c.MarketCap,
			Pool:           c.Pool,
			Qualified:      s.filter.Qualifies(c, s.manager.Store()),
		})
	}
	if err := s.history.InsertTick(ctx, snapshots); err != nil {
		s.logger.Printf("scan history write failed: %v", err)
	}
}
