package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/beancount-amortize/pkg/amortize"
	"github.com/shunichi-ikebuchi/beancount-amortize/pkg/beancount"
	"github.com/shunichi-ikebuchi/beancount-amortize/pkg/config"
	"github.com/shunichi-ikebuchi/beancount-amortize/pkg/converter"
	"github.com/shunichi-ikebuchi/beancount-amortize/pkg/db"
	"github.com/shunichi-ikebuchi/beancount-amortize/pkg/pathutil"
)

// scheduleCmd represents the schedule command.
var scheduleCmd = &cobra.Command{
	Use:   "schedule [ledger.yaml...]",
	Short: "Show installment schedules",
	Long: `Show the full installment schedule of every amortized transaction,
including installments dated after the evaluation date.

Each installment is marked as written (with the file it was appended to),
due, or future. Written installments come from the history database, when
one exists.

Example:
  amortize schedule ledger.yaml --today 2017-07-25`,
	Run: runSchedule,
}

func runSchedule(cmd *cobra.Command, args []string) {
	cfg := loadConfig(cmd)
	files := ledgerFiles(cfg, args)
	amortizer := newAmortizer(cfg)

	entries, err := converter.NewConverter(slog.Default()).LoadFiles(files)
	exitOnError(err, "failed to load ledger")

	history, closeHistory := openHistory(cfg)
	defer closeHistory()

	out := cmd.OutOrStdout()
	var errs []error
	for _, entry := range entries {
		if !amortize.IsTagged(entry) {
			continue
		}
		txn := entry.(beancount.Transaction)

		schedule, err := amortize.ScheduleOf(txn, amortizer.Rounding())
		if err != nil {
			errs = append(errs, err)
			continue
		}

		written := make(map[int]db.InstallmentRecord)
		if history != nil {
			records, err := history.GetRecordsBySchedule(amortize.ScheduleID(txn).String())
			exitOnError(err, "failed to get installment history")
			for _, r := range records {
				written[r.InstallmentIndex] = r
			}
		}

		fmt.Fprintf(out, "%s %q (%s) %d months, %s\n",
			txn.Date, txn.Narration, txn.Meta.Source(), len(schedule.Pieces), schedule.Amount)
		for n, piece := range schedule.Pieces {
			status := "due"
			if r, ok := written[n]; ok {
				status = "written to " + r.BeancountFile
			} else if schedule.Dates[n].After(amortizer.Today()) {
				status = "future"
			}
			amount := beancount.NewAmount(piece, schedule.Amount.Currency)
			fmt.Fprintf(out, "  %d/%d  %s  %16s  %s\n", n+1, len(schedule.Pieces), schedule.Dates[n], amount, status)
		}
		fmt.Fprintln(out)
	}

	if reportErrors(errs) > 0 {
		os.Exit(1)
	}
}

// openHistory opens the installment history if there is one. A SQLite file
// that does not exist yet is not created; the returned history is nil then.
func openHistory(cfg *config.Config) (*db.InstallmentHistory, func()) {
	pathResolver := pathutil.New(pathutil.Config{
		BeancountRoot: cfg.Beancount.Root,
		DatabasePath:  cfg.Beancount.DBPath,
	})

	dbPath := pathResolver.GetDatabasePath()
	if db.DriverFor(dbPath) == db.DriverSQLite && !pathResolver.FileExists(dbPath) {
		slog.Debug("No installment history", "path", dbPath)
		return nil, func() {}
	}

	conn, err := db.Open(dbPath)
	exitOnError(err, "failed to open database")
	return db.NewInstallmentHistory(conn), func() { conn.Close() }
}
