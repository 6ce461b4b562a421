// Package main provides the eggdata command.
//
// Overview:
//   - Responsibility: Load settings, start the configured backends, report or serve them
//   - Key Types: Cobra command tree
//   - Concurrency Model: Commands run sequentially; serve handles requests concurrently
//   - Error Semantics: Non-zero exit with the setup error on failure
//   - Performance Notes: Backends start concurrently during setup
//
// Usage:
//
//	eggdata check --config eggdata.yaml
//	eggdata serve --config eggdata.yaml --addr :8080
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go.eggybyte.com/eggdata/core/log"
	"go.eggybyte.com/eggdata/ormx"
)

// Version is set at build time.
var Version = "dev"

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "eggdata",
	Short:         "Start and check persistence backends",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `eggdata classifies the demo models, starts every enabled backend
(redis, gorm, entity, collection) concurrently and tears them down together.

Settings come from an optional YAML or JSON file and EGGDATA_ environment
variables, which take precedence.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML or JSON settings file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
}

// loadRuntime reads settings and builds the logger they describe.
func loadRuntime(ctx context.Context) (*ormx.Settings, log.Logger, error) {
	settings, err := ormx.LoadSettings(ctx, log.Nop(), configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if logLevel != "" {
		settings.LogLevel = logLevel
	}
	return settings, settings.Logger(), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "eggdata: %v\n", err)
		os.Exit(1)
	}
}
