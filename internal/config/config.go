package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/paperdesk/paperdesk/internal/core"
	"github.com/paperdesk/paperdesk/internal/storage"
)

type Config struct {
	Desk      DeskConfig                `mapstructure:"desk"`
	Funds     FundsConfig               `mapstructure:"funds"`
	Engine    EngineConfig              `mapstructure:"engine"`
	Scalp     ScalpConfig               `mapstructure:"scalp"`
	Backtest  BacktestConfig            `mapstructure:"backtest"`
	Universe  []UniverseItem            `mapstructure:"universe"`
	Market    MarketConfig              `mapstructure:"market"`
	Notifiers map[string]NotifierConfig `mapstructure:"notifiers"`
	Analyst   AnalystConfig             `mapstructure:"analyst"`
	Storage   StorageConfig             `mapstructure:"storage"`
	Metrics   MetricsConfig             `mapstructure:"metrics"`
}

// DeskConfig holds top-level runtime settings.
type DeskConfig struct {
	// CycleInterval is the wall-clock period between trading cycles.
	CycleInterval time.Duration `mapstructure:"cycle_interval"`

	// BrokerID names the paper gateway positions are booked under.
	BrokerID string `mapstructure:"broker_id"`

	// Development switches the logger to human-readable output.
	Development bool `mapstructure:"development"`
}

// FundsConfig seeds the per-class pools on first start. Ignored when a
// snapshot is restored.
type FundsConfig struct {
	Stock  float64 `mapstructure:"stock"`
	MCX    float64 `mapstructure:"mcx"`
	Forex  float64 `mapstructure:"forex"`
	Crypto float64 `mapstructure:"crypto"`
}

// EngineConfig tunes the main auto-trade engine.
type EngineConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	MaxPositions      int     `mapstructure:"max_positions"`
	StopLossPercent   float64 `mapstructure:"stop_loss_percent"`
	TargetPercent     float64 `mapstructure:"target_percent"`
	BreakdownScore    float64 `mapstructure:"breakdown_score"`
	MinEntryScore     float64 `mapstructure:"min_entry_score"`
	TopPickAllocation float64 `mapstructure:"top_pick_allocation"`
	BaseAllocation    float64 `mapstructure:"base_allocation"`
}

// ScalpConfig tunes the intraday scalp engine.
type ScalpConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	MaxPositions  int     `mapstructure:"max_positions"`
	TargetPercent float64 `mapstructure:"target_percent"`
	StopPercent   float64 `mapstructure:"stop_percent"`
	Brokerage     float64 `mapstructure:"brokerage"`
	MinRSI        float64 `mapstructure:"min_rsi"`
	MinRelVolume  float64 `mapstructure:"min_rel_volume"`
	MinScore      float64 `mapstructure:"min_score"`
	Allocation    float64 `mapstructure:"allocation"`
}

// BacktestConfig holds replay defaults for the backtest command.
type BacktestConfig struct {
	InitialCapital    float64 `mapstructure:"initial_capital"`
	MinScore          float64 `mapstructure:"min_score"`
	ADXThreshold      float64 `mapstructure:"adx_threshold"`
	TargetATRMultiple float64 `mapstructure:"target_atr_multiple"`
	StopATRMultiple   float64 `mapstructure:"stop_atr_multiple"`
	MinTargetPercent  float64 `mapstructure:"min_target_percent"`
	Brokerage         float64 `mapstructure:"brokerage"`
}

// UniverseItem is one tradable instrument.
type UniverseItem struct {
	Symbol     string `mapstructure:"symbol"`
	Name       string `mapstructure:"name"`
	AssetClass string `mapstructure:"asset_class"`
	LotSize    int    `mapstructure:"lot_size"`
}

// MarketConfig selects data providers and the exchange calendar.
type MarketConfig struct {
	// Providers is the fallback order; the first healthy provider wins.
	Providers []string `mapstructure:"providers"`

	// FetchTimeout bounds one provider call.
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`

	// Timezone locates the session calendar, e.g. "Asia/Kolkata".
	Timezone string `mapstructure:"timezone"`

	// Interval is the candle interval requested from providers.
	Interval string `mapstructure:"interval"`
}

type NotifierConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	URL      string `mapstructure:"url"`
	// Email notifier fields
	Host     string            `mapstructure:"host"`
	Port     int               `mapstructure:"port"`
	Username string            `mapstructure:"username"`
	Password string            `mapstructure:"password"`
	From     string            `mapstructure:"from"`
	To       []string          `mapstructure:"to"`
	// Webhook notifier fields
	Headers  map[string]string `mapstructure:"headers"`
}

// AnalystConfig selects the narration backend.
type AnalystConfig struct {
	Provider string `mapstructure:"provider"`
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
	Endpoint string `mapstructure:"endpoint"`
}

// StorageConfig selects the snapshot backend.
type StorageConfig struct {
	Type string           `mapstructure:"type"` // "localfs" or "s3"
	Path string           `mapstructure:"path"` // For localfs
	S3   storage.S3Config `mapstructure:"s3"`   // For S3
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Desk: DeskConfig{
			CycleInterval: 5 * time.Minute,
			BrokerID:      "paper",
		},
		Funds: FundsConfig{
			Stock:  100000,
			MCX:    50000,
			Forex:  25000,
			Crypto: 25000,
		},
		Engine: EngineConfig{
			Enabled:           true,
			MaxPositions:      5,
			StopLossPercent:   3,
			TargetPercent:     8,
			BreakdownScore:    25,
			MinEntryScore:     60,
			TopPickAllocation: 0.25,
			BaseAllocation:    0.15,
		},
		Scalp: ScalpConfig{
			Enabled:       true,
			MaxPositions:  2,
			TargetPercent: 0.5,
			StopPercent:   0.3,
			Brokerage:     20,
			MinRSI:        65,
			MinRelVolume:  2.0,
			MinScore:      110,
			Allocation:    0.10,
		},
		Backtest: BacktestConfig{
			InitialCapital:    100000,
			MinScore:          40,
			ADXThreshold:      20,
			TargetATRMultiple: 3.5,
			StopATRMultiple:   2.0,
			MinTargetPercent:  1.0,
			Brokerage:         20,
		},
		Market: MarketConfig{
			Providers:    []string{"memory"},
			FetchTimeout: 5 * time.Second,
			Timezone:     "Asia/Kolkata",
			Interval:     "1d",
		},
		Storage: StorageConfig{
			Type: "localfs",
			Path: "data",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9090",
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Desk.CycleInterval <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("cycle_interval must be positive, got %s", c.Desk.CycleInterval))
	}

	if c.Engine.MaxPositions < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("engine max_positions cannot be negative, got %d", c.Engine.MaxPositions))
	}
	if c.Engine.TopPickAllocation < 0 || c.Engine.TopPickAllocation > 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("top_pick_allocation must be between 0 and 1, got %f", c.Engine.TopPickAllocation))
	}
	if c.Engine.BaseAllocation < 0 || c.Engine.BaseAllocation > 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("base_allocation must be between 0 and 1, got %f", c.Engine.BaseAllocation))
	}

	if c.Scalp.Allocation < 0 || c.Scalp.Allocation > 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("scalp allocation must be between 0 and 1, got %f", c.Scalp.Allocation))
	}

	for _, item := range c.Universe {
		if item.Symbol == "" {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("universe item missing symbol"))
		}
		switch core.AssetClass(item.AssetClass) {
		case core.AssetStock, core.AssetMCX, core.AssetForex, core.AssetCrypto:
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("universe item %s has unknown asset_class %q", item.Symbol, item.AssetClass))
		}
	}

	switch c.Storage.Type {
	case "localfs":
		if c.Storage.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("storage path required for localfs"))
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("s3 bucket required when storage type is s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown storage type %q", c.Storage.Type))
	}

	if c.Analyst.Provider != "" {
		switch c.Analyst.Provider {
		case "claude", "openai":
			if c.Analyst.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("%s api_key required", c.Analyst.Provider))
			}
		case "ollama":
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown analyst provider %q", c.Analyst.Provider))
		}
	}

	return nil
}
