package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kongtrade/kongbot/config"
	"github.com/kongtrade/kongbot/internal"
	"github.com/kongtrade/kongbot/internal/services/alerts"
	"github.com/kongtrade/kongbot/internal/services/orders"
	"github.com/kongtrade/kongbot/internal/services/settlement"
	"github.com/kongtrade/kongbot/internal/services/wallet"
	"github.com/kongtrade/kongbot/internal/setup"
	"github.com/kongtrade/kongbot/internal/storage/outcomes"
	"github.com/kongtrade/kongbot/internal/web"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Get()
	if err != nil {
		logger.Fatal("failed to get configuration", zap.Error(err))
	}

	if cfg.Setup {
		if err := setup.RunTUI(); err != nil {
			logger.Fatal("setup wizard failed", zap.Error(err))
		}
		return
	}

	if err := run(cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("bot stopped with error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("bot stopped")
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	feeds, err := internal.NewFeeds(cfg)
	if err != nil {
		return err
	}

	journal, err := outcomes.NewWALStore(cfg.WalDir)
	if err != nil {
		return err
	}
	defer journal.Close()

	ledger := wallet.NewLedger()
	for _, grant := range cfg.Faucet {
		if _, err := ledger.Deposit(grant.Owner, grant.Token, grant.Amount); err != nil {
			return err
		}
	}

	var settler settlement.Settler = settlement.NopSettler{}
	if cfg.Settlement.Enabled() {
		ethSettler, err := settlement.NewEthSettler(
			cfg.Settlement.RPCURL,
			cfg.Settlement.PrivateKey,
			cfg.Settlement.Tokens,
			cfg.Settlement.Recipients,
			cfg.Settlement.TokenDecimals,
			logger,
		)
		if err != nil {
			return err
		}
		if cfg.Settlement.ApproveSpender != "" {
			for token := range cfg.Settlement.Tokens {
				if err := ethSettler.Approve(ctx, token, cfg.Settlement.ApproveSpender, cfg.Settlement.ApproveAmount); err != nil {
					logger.Warn("startup approval failed", zap.String("token", token), zap.Error(err))
				}
			}
		}
		settler = ethSettler
	}

	store := orders.NewStore()
	engine := orders.NewEngine(ledger, store, feeds.Pricer, journal, settler, logger)
	scanner := orders.NewScanner(engine, store, feeds.Pricer, cfg.ScanInterval, logger)

	registry := alerts.NewRegistry()
	monitor := alerts.NewMonitor(registry, feeds.CoinPricer, alerts.NewLogNotifier(logger), cfg.AlertInterval, cfg.AlertJitter, logger)

	server := web.NewServer(cfg.HTTPAddr, engine, ledger, registry, nil, journal, logger)
	if feeds.Market != nil {
		server.Market = feeds.Market
	}

	logger.Info("bot started",
		zap.String("platform", cfg.Platform),
		zap.String("http_addr", cfg.HTTPAddr))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Start(ctx) })
	g.Go(func() error { return scanner.Run(ctx) })
	g.Go(func() error { return monitor.Run(ctx) })

	return g.Wait()
}
