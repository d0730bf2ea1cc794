package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/beancount-amortize/pkg/beancount"
	"github.com/shunichi-ikebuchi/beancount-amortize/pkg/db"
	"github.com/shunichi-ikebuchi/beancount-amortize/pkg/pathutil"
)

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display write statistics",
	Long: `Display statistics about written installments.

Shows:
- Total number of written installments
- Total number of amortization schedules
- Monthly files for the year of the last run
- Last write timestamp and evaluation date

Example:
  amortize stats`,
	Run: runStats,
}

func runStats(cmd *cobra.Command, args []string) {
	slog.Info("Loading configuration")
	cfg := loadConfig(cmd)

	if err := cfg.Validate([]string{"beancount", "root"}); err != nil {
		exitOnError(err, "invalid configuration")
	}

	pathResolver := pathutil.New(pathutil.Config{
		BeancountRoot: cfg.Beancount.Root,
		DatabasePath:  cfg.Beancount.DBPath,
	})

	dbPath := pathResolver.GetDatabasePath()
	slog.Debug("Opening database", "path", dbPath)

	conn, err := db.Open(dbPath)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	history := db.NewInstallmentHistory(conn)

	stats, err := history.GetStats()
	exitOnError(err, "failed to get statistics")

	lastToday, err := history.GetMetadata(lastTodayKey)
	exitOnError(err, "failed to get last run date")

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\n=== Amortization Statistics ===")
	fmt.Fprintf(out, "Total installments:    %d\n", stats.TotalInstallments)
	fmt.Fprintf(out, "Total schedules:       %d\n", stats.TotalSchedules)

	if stats.LastWrite.Valid {
		fmt.Fprintf(out, "Last write:            %s\n", stats.LastWrite.String)
	} else {
		fmt.Fprintf(out, "Last write:            (never)\n")
	}

	if d, err := beancount.ParseDate(lastToday); err == nil {
		fmt.Fprintf(out, "Last evaluation date:  %s\n", d)

		repo := beancount.NewFileSystemRepository(pathResolver)
		year := fmt.Sprintf("%04d", d.Year)
		months, err := repo.GetMonthFilesInYear(year)
		exitOnError(err, "failed to list monthly files")
		fmt.Fprintf(out, "Monthly files in %s:  %d %v\n", year, len(months), months)
	}

	fmt.Fprintln(out)

	slog.Info("Statistics displayed successfully")
}
