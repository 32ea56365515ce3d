package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "paperdesk",
	Short: "Paper Desk - virtual multi-asset trading desk",
	Long: `Paper Desk runs an automated paper-trading desk over a configurable
instrument universe. It scores symbols from technical indicators, trades
them against a virtual ledger and reports the results.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
