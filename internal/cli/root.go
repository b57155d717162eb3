// Package cli implements the guestdex command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"guestdex/internal/config"
	"guestdex/internal/logging"

	"go.uber.org/zap"
)

var (
	// Global flags
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "guestdex",
	Short: "guestdex - guestbook record indexer for ledger accounts",
	Long: `guestdex discovers guestbook records stored as accounts on a remote
ledger, keeps a sorted index of them, and serves stable pages of decoded
records over JSON-RPC or the command line.`,
	Version: "0.2.0",
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
}

// loadEnv loads config and the logger for a command invocation.
func loadEnv() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.Log.Level, verbose)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
