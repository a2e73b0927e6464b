package scan

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Claw16z/claw16z-trading-agent/internal/domain"
	"github.com/Claw16z/claw16z-trading-agent/internal/executor"
	"github.com/Claw16z/claw16z-trading-agent/internal/feed"
	"github.com/Claw16z/claw16z-trading-agent/internal/observability"
	"github.com/Claw16z/claw16z-trading-agent/internal/position"
	"github.com/Claw16z/claw16z-trading-agent/internal/storage/memory"
)

type fakePairs struct {
	pairs []feed.Pair
	err   error
	panic bool
	calls atomic.Int32
}

func (f *fakePairs) Fetch(context.Context) ([]feed.Pair, error) {
	f.calls.Add(1)
	if f.panic {
		panic("feed exploded")
	}
	return f.pairs, f.err
}

type fakePrices struct {
	prices map[string]float64
}

func (f *fakePrices) FetchPrice(_ context.Context, address string) (float64, error) {
	p, ok := f.prices[address]
	if !ok {
		return 0, feed.ErrUnavailable
	}
	return p, nil
}

type schedulerFixture struct {
	scheduler *Scheduler
	store     *position.Store
	trades    *memory.TradeLog
	history   *memory.ScanHistory
	pairs     *fakePairs
	prices    *fakePrices
}

func newSchedulerFixture(t *testing.T, maxPositions int) *schedulerFixture {
	t.Helper()
	metrics := observability.NewMetrics("", prometheus.NewRegistry())
	store := position.NewStore(memory.NewPositionMirror(), nil)
	trades := memory.NewTradeLog()
	history := memory.NewScanHistory()
	pairs := &fakePairs{}
	prices := &fakePrices{prices: map[string]float64{}}

	manager := position.NewManager(position.ManagerConfig{
		PositionSizeUSDC: 10,
		StopLossPct:      10,
		MaxPositions:     maxPositions,
		QuoteMint:        "USDC",
	}, store, executor.NewSimulator(nil), trades, metrics, nil)

	filter := NewFilter(FilterConfig{
		MinLiquidityUSD:   100000,
		MinVolume24hUSD:   50000,
		MinPriceChangePct: 5,
		MinMarketCapUSD:   100000,
	})

	s := NewScheduler(SchedulerConfig{
		ChainID:  "solana",
		Interval: time.Hour,
	}, pairs, prices, filter, manager, history, metrics, nil)

	return &schedulerFixture{
		scheduler: s,
		store:     store,
		trades:    trades,
		history:   history,
		pairs:     pairs,
		prices:    prices,
	}
}

func qualifyingPair(i int) feed.Pair {
	return feed.Pair{
		ChainID:     "solana",
		PairAddress: fmt.Sprintf("pool-%d", i),
		BaseToken:   feed.Token{Address: fmt.Sprintf("mint-%d", i), Symbol: fmt.Sprintf("TOK%d", i)},
		PriceUSD:    "1.0",
		Volume:      &feed.PairVolume{H24: 60000},
		Liquidity:   &feed.PairLiquidity{USD: 120000},
		PriceChange: &feed.PriceChange{H24: 8},
		FDV:         250000,
	}
}

func TestTickOpensCappedEntriesInFeedOrder(t *testing.T) {
	f := newSchedulerFixture(t, 10)
	for i := 0; i < 5; i++ {
		f.pairs.pairs = append(f.pairs.pairs, qualifyingPair(i))
	}

	if err := f.scheduler.tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if f.store.Count() != 3 {
		t.Fatalf("opened %d positions, want 3", f.store.Count())
	}
	for _, addr := range []string{"mint-0", "mint-1", "mint-2"} {
		if !f.store.Has(addr) {
			t.Errorf("expected position for %s", addr)
		}
	}
}

func TestTickRespectsMaxPositions(t *testing.T) {
	f := newSchedulerFixture(t, 2)
	for i := 0; i < 5; i++ {
		f.pairs.pairs = append(f.pairs.pairs, qualifyingPair(i))
	}

	if err := f.scheduler.tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if f.store.Count() != 2 {
		t.Errorf("opened %d positions, want 2 (maxPositions)", f.store.Count())
	}
}

// A feed failure means an empty pool this tick, not a tick error: open
// positions are still evaluated.
func TestTickFeedFailureStillMonitorsPositions(t *testing.T) {
	f := newSchedulerFixture(t, 10)
	f.pairs.err = feed.ErrUnavailable

	seedPosition(t, f, "mint-held", 1.0)
	f.prices.prices["mint-held"] = 0.5 // below stop loss

	if err := f.scheduler.tick(context.Background()); err != nil {
		t.Fatalf("tick should not fail on feed error: %v", err)
	}
	if f.store.Has("mint-held") {
		t.Error("stop loss should have closed the position despite feed failure")
	}
}

func TestTickPriceFailureSkipsPosition(t *testing.T) {
	f := newSchedulerFixture(t, 10)
	seedPosition(t, f, "mint-held", 1.0)
	// No price registered: lookup fails.

	if err := f.scheduler.tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if !f.store.Has("mint-held") {
		t.Error("position must survive a failed price lookup")
	}
}

func TestTickDoesNotReenterHeldToken(t *testing.T) {
	f := newSchedulerFixture(t, 10)
	f.pairs.pairs = []feed.Pair{qualifyingPair(0)}
	seedPosition(t, f, "mint-0", 1.0)
	f.prices.prices["mint-0"] = 1.05 // holds

	if err := f.scheduler.tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if f.store.Count() != 1 {
		t.Errorf("held token re-entered: count=%d", f.store.Count())
	}
	if len(f.trades.Records()) != 1 {
		t.Errorf("no new trades expected, got %d", len(f.trades.Records()))
	}
}

// The same token listed in two pools within one tick buys once: one
// position, one ENTRY record.
func TestTickSameTokenInTwoPools(t *testing.T) {
	f := newSchedulerFixture(t, 10)
	a := qualifyingPair(0)
	b := qualifyingPair(0)
	b.PairAddress = "pool-0b"
	f.pairs.pairs = []feed.Pair{a, b}
	f.prices.prices["mint-0"] = 1.05

	if err := f.scheduler.tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if f.store.Count() != 1 {
		t.Errorf("positions = %d, want 1", f.store.Count())
	}
	if len(f.trades.Records()) != 1 {
		t.Errorf("trade records = %d, want 1", len(f.trades.Records()))
	}
}

// Metrics are optional: a scheduler built without a bundle still ticks.
func TestTickWithNilMetrics(t *testing.T) {
	store := position.NewStore(memory.NewPositionMirror(), nil)
	manager := position.NewManager(position.ManagerConfig{
		PositionSizeUSDC: 10,
		StopLossPct:      10,
		MaxPositions:     3,
		QuoteMint:        "USDC",
	}, store, executor.NewSimulator(nil), memory.NewTradeLog(), nil, nil)
	filter := NewFilter(FilterConfig{
		MinLiquidityUSD:   100000,
		MinVolume24hUSD:   50000,
		MinPriceChangePct: 5,
		MinMarketCapUSD:   100000,
	})
	pairs := &fakePairs{pairs: []feed.Pair{qualifyingPair(0)}}
	s := NewScheduler(SchedulerConfig{ChainID: "solana", Interval: time.Hour},
		pairs, &fakePrices{prices: map[string]float64{}}, filter, manager, nil, nil, nil)

	if err := s.tick(context.Background()); err != nil {
		t.Fatalf("tick with nil metrics: %v", err)
	}
	if store.Count() != 1 {
		t.Errorf("positions = %d, want 1", store.Count())
	}
}

func TestSafeTickRecoversPanic(t *testing.T) {
	f := newSchedulerFixture(t, 10)
	f.pairs.panic = true

	err := f.scheduler.safeTick(context.Background())
	if err == nil {
		t.Fatal("panicking tick should surface as an error")
	}
}

func TestTickRecordsScanHistory(t *testing.T) {
	f := newSchedulerFixture(t, 10)
	good := qualifyingPair(0)
	bad := qualifyingPair(1)
	bad.Volume = &feed.PairVolume{H24: 0}
	f.pairs.pairs = []feed.Pair{good, bad}

	if err := f.scheduler.tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}

	snaps := f.history.Snapshots()
	if len(snaps) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snaps))
	}
	if !snaps[0].Qualified || snaps[1].Qualified {
		t.Errorf("qualification flags wrong: %+v, %+v", snaps[0], snaps[1])
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	f := newSchedulerFixture(t, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.scheduler.Run(ctx) }()

	// Let at least one tick start, then cancel.
	deadline := time.After(2 * time.Second)
	for f.pairs.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("no tick started")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v, want nil on graceful shutdown", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func seedPosition(t *testing.T, f *schedulerFixture, address string, entryPrice float64) {
	t.Helper()
	err := f.store.Add(context.Background(), &domain.Position{
		Token:        "HELD",
		Address:      address,
		EntryPrice:   entryPrice,
		EntryTime:    time.Now().Add(-time.Minute),
		Amount:       10,
		USDCInvested: 10,
		StopLoss:     entryPrice * 0.9,
	})
	if err != nil {
		t.Fatalf("seed position: %v", err)
	}
}
