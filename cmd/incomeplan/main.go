package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rpgo/etf-income-planner/internal/calculation"
	"github.com/rpgo/etf-income-planner/internal/config"
	"github.com/rpgo/etf-income-planner/internal/logging"
	"github.com/rpgo/etf-income-planner/internal/market"
)

const version = "0.1.0"

// app carries what every subcommand needs once the root pre-run has loaded
// settings and configured logging.
type app struct {
	envFile  string
	logLevel string
	verbose  bool

	settings *config.Settings
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:     "incomeplan",
		Short:   "Monthly income planner for ETF investors",
		Version: version,
		Long: `incomeplan estimates the gross and after-tax income of a basket of
income ETFs, projects a 12-month distribution calendar and, when price data is
available, overlays the basket's historical performance.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "Dotenv file with planner settings (missing file is ignored)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug|info|warn|error); overrides PLANNER_LOG_LEVEL")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Shorthand for --log-level debug")

	rootCmd.AddCommand(
		newPlanCmd(a),
		newScheduleCmd(a),
		newPerformanceCmd(a),
		newReferenceCmd(a),
		newServeCmd(a),
	)
	return rootCmd
}

func (a *app) init() error {
	settings, err := config.LoadSettings(a.envFile)
	if err != nil {
		return err
	}
	a.settings = settings

	level := settings.LogLevel
	if a.logLevel != "" {
		level = a.logLevel
	}
	if a.verbose {
		level = "debug"
	}
	if err := logging.Setup(level, term.IsTerminal(int(os.Stderr.Fd()))); err != nil {
		return err
	}
	log.Debug().Interface("settings", settings.Masked()).Msg("settings loaded")
	return nil
}

// loadReference returns the built-in tables or the override file.
func (a *app) loadReference(path string) (*calculation.ReferenceData, error) {
	if path == "" {
		return calculation.DefaultReferenceData(), nil
	}
	ref, err := config.NewInputParser().LoadReferenceData(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference data: %w", err)
	}
	return ref, nil
}

// priceSource wires the configured price providers. priceDir overrides
// PLANNER_PRICE_DIR.
func (a *app) priceSource(priceDir string, useAlpaca bool) calculation.PriceSource {
	if priceDir == "" {
		priceDir = a.settings.PriceDir
	}
	if useAlpaca && !a.settings.HasAlpacaCredentials() {
		log.Warn().Msg("Alpaca requested but APCA_API_KEY_ID/APCA_API_SECRET_KEY are not set; skipping")
		useAlpaca = false
	}
	return market.Build(market.Options{
		PriceDir:  priceDir,
		UseAlpaca: useAlpaca,
		CacheTTL:  a.settings.PriceCacheTTL,
		Guard:     market.DefaultGuardConfig(),
	})
}

// newPlanner builds a planner over ref with logging and, optionally, prices.
func (a *app) newPlanner(ref *calculation.ReferenceData, prices calculation.PriceSource) *calculation.Planner {
	planner := calculation.NewPlanner(ref)
	planner.SetLogger(logging.Global("planner"))
	planner.Prices = prices
	return planner
}
