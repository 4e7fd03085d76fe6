package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/ai-chat-archive/internal/config"
	"github.com/Zuo-Peng/ai-chat-archive/internal/logger"
	"github.com/Zuo-Peng/ai-chat-archive/internal/store"
)

var version = "dev"

// flagOverrides holds root flags that win over the config file.
var flagOverrides config.Config

func main() {
	rootCmd := &cobra.Command{
		Use:           "aca",
		Short:         "AI chat archive - import, merge and search exported AI conversations",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flagOverrides.Backend, "backend", "", "Storage backend (sqlite/bolt)")
	rootCmd.PersistentFlags().StringVar(&flagOverrides.DBPath, "db", "", "SQLite database path")
	rootCmd.PersistentFlags().StringVar(&flagOverrides.BoltPath, "bolt", "", "Bolt database path")
	rootCmd.PersistentFlags().StringVar(&flagOverrides.LogLevel, "log-level", "", "Log level (debug/info/warn/error)")

	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(previewCmd())
	rootCmd.AddCommand(renameCmd())
	rootCmd.AddCommand(starCmd())
	rootCmd.AddCommand(deletePairCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(clearCmd())
	rootCmd.AddCommand(doctorCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, applies root flags and sets up logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Override(flagOverrides); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	logger.Configure(logger.ParseLevel(cfg.LogLevel), cfg.LogPretty)
	return cfg, nil
}

func openStore() (*config.Config, store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	s, err := store.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}
	return cfg, s, nil
}
