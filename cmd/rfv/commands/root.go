package commands

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/RennanRnz/rfv-project/internal/actions"
	"github.com/RennanRnz/rfv-project/internal/analysis"
	"github.com/RennanRnz/rfv-project/internal/rfv"
	"github.com/RennanRnz/rfv-project/pkg/config"
	"github.com/RennanRnz/rfv-project/pkg/logger"
	"github.com/RennanRnz/rfv-project/pkg/redis"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rfv",
	Short: "RFV - customer segmentation by Recency, Frequency and Value",
	Long: `RFV Unified CLI

Segments customers from a transaction ledger into quartile grades
and maps every RFV score to a marketing action.

Usage:
  go run ./cmd/rfv [command]

Examples:
  go run ./cmd/rfv analyze ledger.csv
  go run ./cmd/rfv api
  go run ./cmd/rfv scheduler start
  go run ./cmd/rfv watch --dir ./inbox
  go run ./cmd/rfv test-db`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig applies the global flags on top of config.Load
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if configFile != "" {
		if err := godotenv.Overload(configFile); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if cmd.Flags().Changed("env") {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// newService builds the analysis service with the configured action table.
// actionsFile overrides RFV_ACTIONS_FILE when set.
func newService(cfg *config.Config, cache *redis.Cache, actionsFile string, log *logger.Logger) (*analysis.Service, error) {
	if actionsFile == "" {
		actionsFile = cfg.RFV.ActionsFile
	}

	table := rfv.DefaultActionTable()
	if actionsFile != "" {
		f, _, err := actions.Load(actionsFile)
		if err != nil {
			return nil, fmt.Errorf("load action table: %w", err)
		}
		for _, w := range actions.Warn(f) {
			log.WithField("code", w.Code).Warn(w.Message)
		}
		if table, err = actions.Table(f); err != nil {
			return nil, fmt.Errorf("load action table: %w", err)
		}
	}

	return analysis.NewService(rfv.NewEngine(table), cache, cfg.RFV.CacheTTL, log)
}
