// Package cmd provides CLI commands for amortize.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/beancount-amortize/pkg/amortize"
	"github.com/shunichi-ikebuchi/beancount-amortize/pkg/beancount"
	"github.com/shunichi-ikebuchi/beancount-amortize/pkg/config"
)

var (
	cfgFile string
	debug   bool

	today    string
	workers  int
	rounding string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "amortize",
	Short: "Spread Beancount transactions over monthly installments",
	Long: `amortize expands transactions tagged with "amortize_months: N" into
N monthly installments, each carrying an exact share of the original amount.
Installments dated after today (or --today) are left out.

It supports:
- Printing the expanded ledger
- Appending newly due installments to monthly Beancount files
- Preventing duplicate writes with SQLite history
- Showing full installment schedules

Example:
  amortize expand ledger.yaml --today 2017-07-25
  amortize expand --write
  amortize schedule ledger.yaml
  amortize stats`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(debug)
	},
}

// setupLogging installs a text logger on stderr as the default logger.
func setupLogging(debug bool) {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&today, "today", "", "evaluation date (YYYY-MM-DD, default is AMORTIZE_TODAY or the current date)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "concurrent expansions (default is AMORTIZE_WORKERS)")
	rootCmd.PersistentFlags().StringVar(&rounding, "rounding", "", "rounding mode: half_even or half_up (default is AMORTIZE_ROUNDING)")

	// Add subcommands
	rootCmd.AddCommand(expandCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(statsCmd)
}

// Helper function to get config file path.
func getConfigFile() string {
	if cfgFile != "" {
		return cfgFile
	}
	return "" // Will use default .env loading
}

// loadConfig loads configuration and applies command-line overrides.
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	flags := cmd.Flags()
	if flags.Changed("today") {
		cfg.Amortize.Today = today
	}
	if flags.Changed("workers") {
		cfg.Amortize.Workers = workers
	}
	if flags.Changed("rounding") {
		cfg.Amortize.Rounding = rounding
	}
	if cfg.Debug && !debug {
		// DEBUG=true in the environment enables debug logging too
		setupLogging(true)
	}
	return cfg
}

// ledgerFiles returns the files given as arguments, falling back to BEANCOUNT_INPUT_FILE.
func ledgerFiles(cfg *config.Config, args []string) []string {
	if len(args) > 0 {
		return args
	}
	exitOnError(cfg.Validate([]string{"ledger", "inputFiles"}), "invalid configuration")
	return cfg.Ledger.InputFiles
}

// newAmortizer creates an Amortizer from the amortization settings.
func newAmortizer(cfg *config.Config) *amortize.Amortizer {
	var evalDate beancount.Date
	if cfg.Amortize.Today != "" {
		d, err := beancount.ParseDate(cfg.Amortize.Today)
		exitOnError(err, "invalid evaluation date")
		evalDate = d
	}

	mode, err := amortize.ParseRoundingMode(cfg.Amortize.Rounding)
	exitOnError(err, "invalid rounding mode")

	return amortize.New(amortize.Config{
		Today:    evalDate,
		Rounding: mode,
		Workers:  cfg.Amortize.Workers,
		Logger:   slog.Default(),
	})
}

// reportErrors prints error records to stderr and returns how many there were.
func reportErrors(errs []error) int {
	for _, err := range errs {
		slog.Error("Failed to amortize transaction", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return len(errs)
}

// Helper function to handle errors and exit.
func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}
