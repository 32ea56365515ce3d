package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/paperdesk/paperdesk/internal/backtest"
	"github.com/paperdesk/paperdesk/internal/config"
	"github.com/paperdesk/paperdesk/internal/core"
	"github.com/paperdesk/paperdesk/internal/logger"
)

var (
	backtestSymbol string
	backtestClass  string
	backtestTrades bool
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay the entry and exit rules over historical candles",
	Long:  "Replay a symbol's candle history through the scoring rules and show performance statistics",
	RunE:  runBacktest,
}

func init() {
	backtestCmd.Flags().StringVar(&backtestSymbol, "symbol", "", "Symbol to backtest (required)")
	backtestCmd.Flags().StringVar(&backtestClass, "class", "STOCK", "Asset class (STOCK, MCX, FOREX, CRYPTO)")
	backtestCmd.Flags().BoolVar(&backtestTrades, "trades", false, "Print every closed trade")

	backtestCmd.MarkFlagRequired("symbol")

	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	class := core.AssetClass(strings.ToUpper(backtestClass))

	ctx := context.Background()
	source := buildMarketChain(cfg, log)
	candles, err := source.FetchCandles(ctx, backtestSymbol, class, cfg.Market.Interval)
	if err != nil {
		return fmt.Errorf("fetching candles: %w", err)
	}

	result, err := backtest.New(nil).Run(ctx, backtestSymbol, class, candles, backtestRules(cfg))
	if err != nil {
		return err
	}

	fmt.Println("=== Paper Desk Backtest ===")
	fmt.Printf("Symbol:  %s (%s)\n", result.Symbol, result.AssetClass)
	fmt.Printf("Period:  %s to %s\n",
		result.StartTime.Format("2006-01-02"), result.EndTime.Format("2006-01-02"))
	fmt.Printf("Candles: %d\n", len(candles))
	fmt.Println()

	if backtestTrades {
		for _, t := range result.Trades {
			fmt.Printf("  %s  %4.0f @ %.2f  to  %.2f  %+10.2f  %s\n",
				t.EntryTime.Format("2006-01-02"), t.Quantity, t.EntryPrice,
				t.ExitPrice, t.PnL, t.ExitReason)
		}
		fmt.Println()
	}

	s := result.Stats
	fmt.Printf("Trades:        %d (%d won, %d lost)\n", s.TotalTrades, s.WinningTrades, s.LosingTrades)
	fmt.Printf("Win rate:      %.1f%%\n", s.WinRate)
	fmt.Printf("Net P&L:       %.2f\n", s.TotalPnL)
	fmt.Printf("Final equity:  %.2f\n", s.FinalEquity)
	fmt.Printf("Return:        %.2f%%\n", s.ReturnPercent)
	fmt.Printf("Max drawdown:  %.2f%%\n", s.MaxDrawdown)
	fmt.Printf("Sharpe ratio:  %.2f\n", s.SharpeRatio)

	return nil
}

// backtestRules overlays configured values onto the defaults. Zero values
// keep the default.
func backtestRules(cfg *config.Config) backtest.Rules {
	rules := backtest.DefaultRules()

	if cfg.Backtest.InitialCapital > 0 {
		rules.InitialCapital = cfg.Backtest.InitialCapital
	}
	if cfg.Backtest.MinScore > 0 {
		rules.MinScore = cfg.Backtest.MinScore
	}
	if cfg.Backtest.ADXThreshold > 0 {
		rules.ADXThreshold = cfg.Backtest.ADXThreshold
	}
	if cfg.Backtest.TargetATRMultiple > 0 {
		rules.TargetATRMultiple = cfg.Backtest.TargetATRMultiple
	}
	if cfg.Backtest.StopATRMultiple > 0 {
		rules.StopATRMultiple = cfg.Backtest.StopATRMultiple
	}
	if cfg.Backtest.MinTargetPercent > 0 {
		rules.MinTargetPercent = cfg.Backtest.MinTargetPercent
	}
	if cfg.Backtest.Brokerage > 0 {
		rules.Brokerage = cfg.Backtest.Brokerage
	}

	return rules
}
