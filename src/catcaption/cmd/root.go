package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/q-controller/catcaption/src/pkg/config"
	"github.com/q-controller/catcaption/src/pkg/history"
	"github.com/q-controller/catcaption/src/pkg/logging"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "catcaption",
	Short: "Renders a captioned cat picture, uploads it to cloud storage and records its metadata",
}

func Execute() {
	slog.SetDefault(logging.CreateLogger())
	err := rootCmd.Execute()
	if err != nil {
		slog.Error("failed to execute command", "error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, configPathErr := cmd.Flags().GetString("config")
	if configPathErr != nil {
		return nil, fmt.Errorf("failed to get config: %w", configPathErr)
	}

	cfg, cfgErr := config.Load(configPath)
	if cfgErr != nil {
		return nil, cfgErr
	}
	slog.Debug("Read config", "config", cfg)
	return cfg, nil
}

// openHistory returns nil when history is disabled.
func openHistory(cfg *config.Config) (history.Store, error) {
	if cfg.History.Root == "" {
		return nil, nil
	}
	store, err := history.NewBadgerStore(cfg.History.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return store, nil
}

func closeHistory(store history.Store) {
	if store == nil {
		return
	}
	if err := store.Close(); err != nil {
		slog.Error("Failed to close history", "error", err)
	}
}
