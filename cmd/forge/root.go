package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"weaponforge/internal/config"
	"weaponforge/internal/logging"
)

var (
	configPath string
	verbose    bool
	cfg        *config.Config
	logger     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:          "forge",
	Short:        "Generate, extract and price Skyrim-style weapons",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if verbose {
			cfg.LogLevel = "debug"
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		logger = logging.New(cfg.LogLevel, cfg.LogFile)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to TOML configuration file (default $FORGE_CONFIG or forge.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}
