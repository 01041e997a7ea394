package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"xfollowers/pkg/config"
	"xfollowers/pkg/history"
	"xfollowers/pkg/kv"
	"xfollowers/pkg/logger"
	"xfollowers/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile     string
	logLevel       string
	storageBackend string
	quiet          bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "xfollowers",
	Short: "Export X followers and track how your audience changes",
	Long: `xfollowers exports the followers of an X account as CSV and tracks how
the audience splits between tech/VC, medical and everyone else over time.

Run 'xfollowers serve' to host the run server, then 'xfollowers scrape <handle>'
from anywhere that can reach it. Every analytics scrape adds a snapshot to the
local timeline shown by 'xfollowers trends'.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			ui.Out = io.Discard
		}
		if cmd.Name() != "version" && cmd.Name() != "help" {
			ui.PrintLogo()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.Out = os.Stderr
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.xfollowers.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&storageBackend, "storage", "", "history backend (file, sqlite, redis, memory)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.SetVersionTemplate(`xfollowers {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig merges the global flags with extra command flags and
// initializes the process logger
func loadConfig(extra map[string]interface{}) (*config.Config, logger.Logger, error) {
	flags := map[string]interface{}{
		"log-level": logLevel,
		"storage":   storageBackend,
	}
	for k, v := range extra {
		flags[k] = v
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, nil, err
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger.GetLogger(), nil
}

// stores bundles the history backends opened for one command
type stores struct {
	backend   kv.Store
	timeline  *history.Store
	overrides *history.Overrides
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	backend, err := kv.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
	}
	return &stores{
		backend:   backend,
		timeline:  history.NewStore(backend),
		overrides: history.NewOverrides(backend),
	}, nil
}

func (s *stores) Close() error {
	return s.backend.Close()
}
