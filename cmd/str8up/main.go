package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zahlentech/str8up_server/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "str8up",
	Short: "str8up Map assessment client",
	Long: `Client tooling for the str8up Map assessment.

Available subcommands:
  assess  - Run the assessment in the terminal against a str8up server
  preview - Print the offline report for a given onboarding input
  token   - Mint a back-office admin token`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "path to config.yaml")
	rootCmd.AddCommand(assessCmd, previewCmd, tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig falls back to defaults when the file does not exist.
func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		cfg := &config.Config{}
		cfg.ApplyDefaults()
		return cfg, nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", configPath, err)
	}
	return cfg, nil
}
