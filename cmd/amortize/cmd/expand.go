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

var (
	write  bool
	dryRun bool
)

// lastTodayKey records the evaluation date of the last --write run.
const lastTodayKey = "last_today"

// expandCmd represents the expand command.
var expandCmd = &cobra.Command{
	Use:   "expand [ledger.yaml...]",
	Short: "Expand amortized transactions",
	Long: `Expand every transaction tagged with amortize_months into monthly installments.

By default the whole ledger is printed as Beancount text with tagged
transactions replaced by their installments.

With --write, installments that are due and not yet written are appended to
monthly Beancount files under BEANCOUNT_ROOT, and recorded in SQLite so that
later runs only append newly due installments.

Ledger files default to BEANCOUNT_INPUT_FILE (comma-separated).

Example:
  amortize expand ledger.yaml --today 2017-07-25
  amortize expand --write
  amortize expand --write --dry-run`,
	Run: runExpand,
}

func init() {
	expandCmd.Flags().BoolVar(&write, "write", false, "Append due installments to monthly Beancount files")
	expandCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Dry run mode (no file writes)")
}

func runExpand(cmd *cobra.Command, args []string) {
	cfg := loadConfig(cmd)
	files := ledgerFiles(cfg, args)
	amortizer := newAmortizer(cfg)

	slog.Info("Loading ledger", "files", files, "today", amortizer.Today().String())
	entries, err := converter.NewConverter(slog.Default()).LoadFiles(files)
	exitOnError(err, "failed to load ledger")
	slog.Info("Loaded ledger", "directives", len(entries))

	if write {
		if reportErrors(writeInstallments(cfg, amortizer, entries)) > 0 {
			os.Exit(1)
		}
		return
	}

	newEntries, errs := amortizer.Process(entries)
	out := cmd.OutOrStdout()
	for _, entry := range newEntries {
		fmt.Fprintln(out, beancount.FormatDirective(entry))
	}

	slog.Info("Expansion completed", "directives_in", len(entries), "directives_out", len(newEntries), "errors", len(errs))
	if reportErrors(errs) > 0 {
		os.Exit(1)
	}
}

// writeInstallments appends due installments that are not yet in the history
// and returns the expansion errors.
func writeInstallments(cfg *config.Config, amortizer *amortize.Amortizer, entries []beancount.Directive) []error {
	exitOnError(cfg.Validate([]string{"beancount", "root"}), "invalid configuration")

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
	repo := beancount.NewFileSystemRepository(pathResolver)

	installments, errs := amortizer.Installments(entries)

	recorded, err := history.GetRecordedIDs()
	exitOnError(err, "failed to get recorded installments")

	var pending []amortize.Installment
	for _, inst := range installments {
		if !recorded[inst.ID.String()] {
			pending = append(pending, inst)
		}
	}

	slog.Info("Installments to write",
		"due", len(installments),
		"new", len(pending),
		"skipped", len(installments)-len(pending),
	)

	written := 0
	for _, inst := range pending {
		// Written installments must not be expanded again when the files are loaded.
		txn := inst.Transaction.WithMeta(inst.Transaction.Meta.Without(amortize.MetaKey))
		comment := fmt.Sprintf("installment %d/%d", inst.Index+1, inst.Periods)
		if source := inst.Source.Meta.Source(); source != "" {
			comment += " of " + source
		}

		if dryRun {
			yearMonth := txn.Date.YearMonth()
			path, _ := pathResolver.GetMonthFilePath(yearMonth)
			action := "append to"
			if !repo.MonthFileExists(yearMonth) {
				action = "create"
			}
			fmt.Printf("[DRY RUN] Would %s %s\n", action, path)
			fmt.Println(beancount.FormatTransaction(txn))
			continue
		}

		filePath, err := repo.AppendTransaction(txn, comment)
		if err != nil {
			slog.Error("Failed to append installment", "date", txn.Date.String(), "narration", txn.Narration, "error", err)
			continue
		}

		units := txn.Postings[0].Units
		if err := history.RecordInstallment(db.InstallmentRecord{
			InstallmentID:    inst.ID.String(),
			ScheduleID:       inst.ScheduleID.String(),
			Source:           inst.Source.Meta.Source(),
			Narration:        txn.Narration,
			InstallmentIndex: inst.Index,
			Periods:          inst.Periods,
			InstallmentDate:  txn.Date.String(),
			Amount:           units.Number.Abs().StringFixed(units.Places()),
			Currency:         units.Currency,
			BeancountFile:    filePath,
		}); err != nil {
			slog.Error("Failed to record installment", "installment_id", inst.ID, "error", err)
			continue
		}
		written++
	}

	if !dryRun {
		if err := history.SetMetadata(lastTodayKey, amortizer.Today().String()); err != nil {
			slog.Error("Failed to record run date", "error", err)
		}
	}

	slog.Info("Write completed", "written", written, "errors", len(errs))
	return errs
}
