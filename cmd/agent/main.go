package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Claw16z/claw16z-trading-agent/internal/config"
	"github.com/Claw16z/claw16z-trading-agent/internal/executor"
	"github.com/Claw16z/claw16z-trading-agent/internal/feed"
	"github.com/Claw16z/claw16z-trading-agent/internal/observability"
	"github.com/Claw16z/claw16z-trading-agent/internal/position"
	"github.com/Claw16z/claw16z-trading-agent/internal/scan"
	"github.com/Claw16z/claw16z-trading-agent/internal/solana"
	"github.com/Claw16z/claw16z-trading-agent/internal/storage"
	chstore "github.com/Claw16z/claw16z-trading-agent/internal/storage/clickhouse"
	filestore "github.com/Claw16z/claw16z-trading-agent/internal/storage/file"
	"github.com/Claw16z/claw16z-trading-agent/internal/storage/migrations"
	pgstore "github.com/Claw16z/claw16z-trading-agent/internal/storage/postgres"
	"github.com/Claw16z/claw16z-trading-agent/internal/wallet"
)

func main() {
	logger := log.New(os.Stdout, "[agent] ", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		logger.Printf("Configuration error: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals; a second signal forces immediate exit.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		select {
		case sig := <-sigCh:
			logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
			cancel()
		case <-done:
			return
		}
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-done:
		}
	}()

	err = run(ctx, cfg, logger)
	close(done)
	if err != nil {
		logger.Printf("Startup failed: %v", err)
		os.Exit(1)
	}
	logger.Println("Shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	metrics := observability.NewMetrics("", prometheus.DefaultRegisterer)
	if cfg.MetricsAddr != "" {
		startMetricsServer(cfg.MetricsAddr, logger)
	}

	mirror, trades, cleanup, err := buildPersistence(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	history, historyCleanup, err := buildScanHistory(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer historyCleanup()

	feedBase := cfg.FeedBaseURL
	if feedBase == "" {
		feedBase = feed.DefaultBaseURL
	}
	feedClient := feed.NewClient(feedBase)
	sources := feed.NewSources(
		log.New(os.Stdout, "[feed] ", log.LstdFlags),
		feed.NewTrendingSource(feedClient, cfg.ChainID),
		feed.NewSearchSource(feedClient, cfg.ChainID),
	)
	prices := feed.NewPriceLookup(feedClient, cfg.ChainID)

	exec, err := buildExecutor(cfg, logger)
	if err != nil {
		return err
	}

	store := position.NewStore(mirror, log.New(os.Stdout, "[store] ", log.LstdFlags))
	if err := store.Load(ctx); err != nil {
		return fmt.Errorf("load positions: %w", err)
	}
	logger.Printf("Restored %d open position(s)", store.Count())
	metrics.OpenPositions.Set(float64(store.Count()))

	manager := position.NewManager(position.ManagerConfig{
		PositionSizeUSDC: cfg.PositionSizeUSDC,
		StopLossPct:      cfg.StopLossPct,
		MaxPositions:     cfg.MaxPositions,
		QuoteMint:        solana.USDCMint,
	}, store, exec, trades, metrics, log.New(os.Stdout, "[position] ", log.LstdFlags))

	filter := scan.NewFilter(scan.FilterConfig{
		MinLiquidityUSD:   cfg.MinLiquidityUSD,
		MinVolume24hUSD:   cfg.MinVolume24hUSD,
		MinPriceChangePct: cfg.MinPriceChangePct,
		MinMarketCapUSD:   cfg.MinMarketCapUSD,
		Blacklist:         cfg.Blacklist,
	})

	scheduler := scan.NewScheduler(scan.SchedulerConfig{
		ChainID:  cfg.ChainID,
		Interval: cfg.ScanInterval,
	}, sources, prices, filter, manager, history, metrics,
		log.New(os.Stdout, "[scan] ", log.LstdFlags))

	logger.Printf("Starting agent: dryRun=%v positionSize=%.2f maxPositions=%d interval=%s",
		cfg.DryRun, cfg.PositionSizeUSDC, cfg.MaxPositions, cfg.ScanInterval)
	return scheduler.Run(ctx)
}

// buildPersistence selects the position mirror and trade log backend:
// PostgreSQL when a DSN is configured, local files otherwise.
func buildPersistence(ctx context.Context, cfg *config.Config, logger *log.Logger) (storage.PositionMirror, storage.TradeLog, func(), error) {
	if cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		logger.Println("Using PostgreSQL persistence")
		return pgstore.NewPositionMirror(pool), pgstore.NewTradeLog(pool), pool.Close, nil
	}

	mirror, err := filestore.NewPositionMirror(filepath.Join(cfg.DataDir, "positions.json"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("position file: %w", err)
	}
	trades, err := filestore.NewTradeLog(filepath.Join(cfg.DataDir, "trades.ndjson"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("trade log file: %w", err)
	}
	logger.Printf("Using file persistence in %s", cfg.DataDir)
	return mirror, trades, func() {}, nil
}

// buildScanHistory returns a ClickHouse-backed scan history when configured,
// nil otherwise. Scan history is optional; the loop runs without it.
func buildScanHistory(ctx context.Context, cfg *config.Config, logger *log.Logger) (storage.ScanHistory, func(), error) {
	if cfg.ClickhouseDSN == "" {
		return nil, func() {}, nil
	}
	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}
	logger.Println("Recording scan history to ClickHouse")
	return chstore.NewScanHistoryStore(conn), func() { conn.Close() }, nil
}

// buildExecutor returns the simulator in dry-run mode, otherwise the live
// swap client. A missing or invalid wallet in live mode is fatal.
func buildExecutor(cfg *config.Config, logger *log.Logger) (executor.Executor, error) {
	if cfg.DryRun {
		logger.Println("DRY RUN: swaps will be simulated")
		return executor.NewSimulator(log.New(os.Stdout, "[sim] ", log.LstdFlags)), nil
	}

	w, err := wallet.Load(cfg.WalletPath)
	if err != nil {
		return nil, fmt.Errorf("load wallet: %w", err)
	}
	logger.Printf("Wallet loaded: %s", w.PublicKey())

	rpc := solana.NewHTTPClient(cfg.SolanaRPCEndpoint)
	confirmer := solana.NewWSConfirmer(cfg.SolanaWSEndpoint, nil)
	decimals := solana.NewDecimalsResolver(rpc)

	opts := []executor.SwapClientOption{
		executor.WithMaxSlippagePct(cfg.MaxSlippagePct),
	}
	if cfg.SwapBaseURL != "" {
		opts = append(opts, executor.WithSwapBaseURL(cfg.SwapBaseURL))
	}
	return executor.NewSwapClient(w, rpc, confirmer, decimals,
		log.New(os.Stdout, "[swap] ", log.LstdFlags), opts...), nil
}

func startMetricsServer(addr string, logger *log.Logger) {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler())
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok"))
		})
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		logger.Printf("Starting metrics server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("Metrics server error: %v", err)
		}
	}()
}
