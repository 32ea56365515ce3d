package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/paperdesk/paperdesk/internal/analyst"
	"github.com/paperdesk/paperdesk/internal/analyst/factory"
	"github.com/paperdesk/paperdesk/internal/app"
	"github.com/paperdesk/paperdesk/internal/broker"
	"github.com/paperdesk/paperdesk/internal/config"
	"github.com/paperdesk/paperdesk/internal/core"
	"github.com/paperdesk/paperdesk/internal/ledger"
	"github.com/paperdesk/paperdesk/internal/logger"
	"github.com/paperdesk/paperdesk/internal/market"
	"github.com/paperdesk/paperdesk/internal/metrics"
	"github.com/paperdesk/paperdesk/internal/notifier"
	"github.com/paperdesk/paperdesk/internal/notifier/email"
	"github.com/paperdesk/paperdesk/internal/notifier/telegram"
	"github.com/paperdesk/paperdesk/internal/notifier/webhook"
	"github.com/paperdesk/paperdesk/internal/storage"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the trading desk",
	Long:  "Run trading cycles on the configured interval until interrupted",
	RunE:  runDesk,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runDesk(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Ledger, restored from the latest snapshot when one exists.
	l := ledger.New(core.Funds{
		Stock:  cfg.Funds.Stock,
		MCX:    cfg.Funds.MCX,
		Forex:  cfg.Funds.Forex,
		Crypto: cfg.Funds.Crypto,
	})

	snapshots, err := buildSnapshotStore(cfg)
	if err != nil {
		return fmt.Errorf("creating snapshot store: %w", err)
	}
	if snap, ok, err := snapshots.Load(ctx); err != nil {
		log.Warn("snapshot restore failed, starting fresh", zap.Error(err))
	} else if ok {
		l.Restore(snap)
		log.Info("ledger restored from snapshot",
			zap.Int("positions", len(snap.Holdings)),
			zap.Int("transactions", len(snap.Transactions)),
		)
	}

	source := buildMarketChain(cfg, log)
	calendar := buildCalendar(cfg, log)
	notifiers := buildNotifiers(cfg, log)

	narrator, err := buildNarrator(cfg, log)
	if err != nil {
		return fmt.Errorf("creating analyst: %w", err)
	}

	reg := metrics.NewRegistry()
	if cfg.Metrics.Enabled {
		startMetricsServer(cfg, reg, log)
	}

	desk := app.New(cfg, log, app.Deps{
		Ledger:    l,
		Source:    source,
		Gateway:   broker.NewPaper(cfg.Desk.BrokerID, l),
		Calendar:  calendar,
		Narrator:  narrator,
		Notifiers: notifiers,
		Snapshots: snapshots,
		Metrics:   reg,
	})

	log.Info("starting paper desk",
		zap.String("broker", cfg.Desk.BrokerID),
		zap.Duration("cycle_interval", cfg.Desk.CycleInterval),
		zap.Int("universe", len(cfg.Universe)),
	)

	if err := desk.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func loadConfig(log *zap.Logger) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Warn("no config file specified, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func buildSnapshotStore(cfg *config.Config) (*storage.SnapshotStore, error) {
	var store storage.Store
	var err error

	switch cfg.Storage.Type {
	case "s3":
		store, err = storage.NewS3(cfg.Storage.S3)
	default:
		store, err = storage.NewLocalFS(cfg.Storage.Path)
	}
	if err != nil {
		return nil, err
	}
	return storage.NewSnapshotStore(store), nil
}

func buildMarketChain(cfg *config.Config, log *zap.Logger) *market.Chain {
	var providers []market.Provider
	for _, name := range cfg.Market.Providers {
		switch name {
		case "memory":
			providers = append(providers, market.NewMemoryProvider(nil))
		default:
			log.Warn("unknown market provider, skipping", zap.String("provider", name))
		}
	}

	chain := market.NewChain(log, providers...)
	if cfg.Market.FetchTimeout > 0 {
		chain = chain.WithTimeout(cfg.Market.FetchTimeout)
	}
	return chain
}

func buildCalendar(cfg *config.Config, log *zap.Logger) market.Calendar {
	loc, err := time.LoadLocation(cfg.Market.Timezone)
	if err != nil {
		log.Warn("invalid timezone, session calendar falls back to UTC",
			zap.String("timezone", cfg.Market.Timezone),
			zap.Error(err),
		)
		loc = nil
	}
	return market.NewSessionCalendar(loc)
}

func buildNotifiers(cfg *config.Config, log *zap.Logger) *notifier.Registry {
	registry := notifier.NewRegistry()

	for name, nc := range cfg.Notifiers {
		if !nc.Enabled {
			continue
		}

		var n notifier.Notifier
		switch name {
		case "telegram":
			n = telegram.New(nc.BotToken, nc.ChatID)
		case "webhook":
			n = webhook.New(nc.URL, nc.Headers)
		case "email":
			n = email.New(nc.Host, nc.Port, nc.Username, nc.Password, nc.From, nc.To)
		default:
			log.Warn("unknown notifier, skipping", zap.String("notifier", name))
			continue
		}

		if err := registry.Register(n); err != nil {
			log.Warn("registering notifier failed", zap.String("notifier", name), zap.Error(err))
			continue
		}
		log.Info("notifier enabled", zap.String("notifier", name))
	}

	return registry
}

func buildNarrator(cfg *config.Config, log *zap.Logger) (*analyst.Narrator, error) {
	provider, err := factory.New(analyst.Settings{
		Provider: cfg.Analyst.Provider,
		APIKey:   cfg.Analyst.APIKey,
		Model:    cfg.Analyst.Model,
		Endpoint: cfg.Analyst.Endpoint,
	})
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, nil
	}

	log.Info("analyst narration enabled", zap.String("provider", provider.Name()))
	return analyst.NewNarrator(provider, log), nil
}

func startMetricsServer(cfg *config.Config, reg *metrics.Registry, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	go func() {
		log.Info("metrics server listening",
			zap.String("addr", cfg.Metrics.Addr),
			zap.String("path", cfg.Metrics.Path),
		)
		if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
			log.Error("metrics server error", zap.Error(err))
		}
	}()
}
