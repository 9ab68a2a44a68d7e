// Package main runs the whale watcher: it subscribes to the monitored
// launch program's log stream, maintains wallet and token state, scores
// wallets and delivers alerts. It also serves the query API and
// Prometheus metrics.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"solana-whale-watch/internal/alert"
	"solana-whale-watch/internal/api"
	"solana-whale-watch/internal/config"
	"solana-whale-watch/internal/detector"
	"solana-whale-watch/internal/ingestion"
	"solana-whale-watch/internal/logging"
	"solana-whale-watch/internal/observability"
	"solana-whale-watch/internal/orchestrator"
	"solana-whale-watch/internal/solana"
	"solana-whale-watch/internal/storage"
	chstore "solana-whale-watch/internal/storage/clickhouse"
	"solana-whale-watch/internal/storage/memory"
	"solana-whale-watch/internal/storage/migrations"
	pgstore "solana-whale-watch/internal/storage/postgres"
)

type stores struct {
	wallets      storage.WalletStore
	tokens       storage.TokenStore
	interactions storage.InteractionStore
	alerts       storage.AlertStore
	archive      storage.InteractionArchive
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	if err := logging.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	log := logging.Named("watcher")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Infow("shutdown signal received", "signal", sig.String())
		cancel()
		sig = <-sigCh
		log.Fatalw("second signal, forcing exit", "signal", sig.String())
	}()

	st, cleanup, err := buildStores(ctx, cfg)
	if err != nil {
		log.Fatalw("storage setup failed", "error", err)
	}
	defer cleanup()

	if err := run(ctx, cfg, st); err != nil && err != context.Canceled {
		log.Fatalw("watcher failed", "error", err)
	}
	log.Info("shutdown complete")
}

// buildStores selects in-memory or PostgreSQL-backed stores, runs
// migrations on the real backends and optionally attaches the
// ClickHouse archive.
func buildStores(ctx context.Context, cfg *config.Config) (*stores, func(), error) {
	if cfg.Postgres.UseMemory {
		st := &stores{
			wallets:      memory.NewWalletStore(),
			tokens:       memory.NewTokenStore(),
			interactions: memory.NewInteractionStore(),
			alerts:       memory.NewAlertStore(),
		}
		return st, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	st := &stores{
		wallets:      pgstore.NewWalletStore(pool),
		tokens:       pgstore.NewTokenStore(pool),
		interactions: pgstore.NewInteractionStore(pool),
		alerts:       pgstore.NewAlertStore(pool),
	}
	cleanup := func() { pool.Close() }

	if cfg.Analytics.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Analytics.ClickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		st.archive = chstore.NewInteractionArchive(conn)
		cleanup = func() {
			conn.Close()
			pool.Close()
		}
	}

	return st, cleanup, nil
}

// run wires the pipeline and serves until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, st *stores) error {
	log := logging.Named("watcher")

	rpc := solana.NewHTTPClient(cfg.Solana.RPCEndpoint)

	ws, err := solana.NewWSClient(ctx, cfg.Solana.WSEndpoint, nil)
	if err != nil {
		return fmt.Errorf("connect websocket: %w", err)
	}
	defer ws.Close()

	source := ingestion.NewWSEventSource(ws, rpc, cfg.Solana.Program)
	resolver := solana.NewCreationTimeResolver(rpc)

	sink, closeSinks, err := buildSinks(cfg)
	if err != nil {
		return fmt.Errorf("alert sinks: %w", err)
	}
	defer closeSinks()

	params := detector.InsiderParams{
		EarlyEntryWindowSeconds: cfg.Detection.EarlyEntryWindowSeconds,
		MinBuySizeSol:           cfg.Detection.MinBuySizeSol,
		MinInsiderRepetitions:   cfg.Detection.MinInsiderRepetitions,
	}

	orch := orchestrator.New(orchestrator.Options{
		Wallets:             st.wallets,
		Tokens:              st.tokens,
		Interactions:        st.interactions,
		Alerts:              st.alerts,
		Archive:             st.archive,
		Scorer:              detector.NewScorer(detector.DefaultWeights(), st.wallets, st.interactions),
		Insider:             detector.NewInsiderDetector(params, st.wallets, st.interactions),
		Resolver:            resolver,
		Sink:                sink,
		Dedup:               ingestion.NewDeduplicator(),
		WhaleScoreThreshold: cfg.Detection.WhaleScoreThreshold,
	})

	queryAPI := api.New(api.Options{
		Wallets:      st.wallets,
		Tokens:       st.tokens,
		Interactions: st.interactions,
		Alerts:       st.alerts,
		Archive:      st.archive,
	})

	errCh := make(chan error, 3)

	go func() {
		if err := orch.Run(ctx, source); err != nil {
			errCh <- fmt.Errorf("pipeline: %w", err)
		}
	}()
	go func() {
		if err := queryAPI.Run(ctx, cfg.API.Addr); err != nil {
			errCh <- fmt.Errorf("query api: %w", err)
		}
	}()
	go func() {
		if err := serveMetrics(ctx, cfg.App.MetricsAddr); err != nil {
			errCh <- fmt.Errorf("metrics: %w", err)
		}
	}()

	log.Infow("watcher started",
		"program", cfg.Solana.Program,
		"api_addr", cfg.API.Addr,
		"metrics_addr", cfg.App.MetricsAddr,
		"memory_stores", cfg.Postgres.UseMemory)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// buildSinks assembles the alert fan-out from configuration. Console is
// always on; file and Telegram join when configured.
func buildSinks(cfg *config.Config) (alert.Sink, func(), error) {
	sinks := []alert.Sink{alert.NewConsoleSink()}
	var closers []func()

	if cfg.Alerts.FilePath != "" {
		fs, err := alert.NewFileSink(cfg.Alerts.FilePath)
		if err != nil {
			return nil, nil, fmt.Errorf("file sink: %w", err)
		}
		sinks = append(sinks, fs)
		closers = append(closers, func() { _ = fs.Close() })
	}

	if cfg.Alerts.TelegramToken != "" {
		tg, err := alert.NewTelegramSink(cfg.Alerts.TelegramToken, cfg.Alerts.TelegramChatID)
		if err != nil {
			return nil, nil, fmt.Errorf("telegram sink: %w", err)
		}
		sinks = append(sinks, tg)
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	return alert.NewFanOut(sinks...), closeAll, nil
}

// serveMetrics exposes Prometheus metrics and a liveness endpoint.
func serveMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
