package amortize

import (
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/shunichi-ikebuchi/beancount-amortize/pkg/beancount"
)

// Config represents the configuration for Amortizer.
type Config struct {
	// Today is the evaluation date. Installments dated after it are dropped.
	// Zero means the current local date.
	Today beancount.Date
	// Rounding is the quantization rule for installment amounts.
	Rounding RoundingMode
	// Workers bounds concurrent expansion. Values below 2 expand sequentially.
	Workers int
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Amortizer replaces tagged transactions in a directive list by their installments.
type Amortizer struct {
	today    beancount.Date
	rounding RoundingMode
	workers  int
	logger   *slog.Logger
}

// New creates a new Amortizer.
func New(config Config) *Amortizer {
	today := config.Today
	if today.IsZero() {
		today = beancount.Today(nil)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Amortizer{
		today:    today,
		rounding: config.Rounding,
		workers:  config.Workers,
		logger:   logger,
	}
}

// Today returns the evaluation date.
func (a *Amortizer) Today() beancount.Date {
	return a.today
}

// Rounding returns the quantization rule for installment amounts.
func (a *Amortizer) Rounding() RoundingMode {
	return a.rounding
}

// AmortizeOver runs an Amortizer with default settings evaluated at today.
func AmortizeOver(entries []beancount.Directive, today beancount.Date) ([]beancount.Directive, []error) {
	return New(Config{Today: today}).Process(entries)
}

// Process returns entries with every tagged transaction replaced by its
// installments, in the original order. A tagged transaction that cannot be
// expanded is kept unchanged and its error is reported; the rest of the
// batch is still processed.
func (a *Amortizer) Process(entries []beancount.Directive) ([]beancount.Directive, []error) {
	results := make([][]beancount.Directive, len(entries))
	errs := make([]error, len(entries))

	expand := func(i int) {
		results[i], errs[i] = a.expandEntry(entries[i])
	}

	if a.workers > 1 {
		var g errgroup.Group
		g.SetLimit(a.workers)
		for i, entry := range entries {
			if !IsTagged(entry) {
				continue
			}
			i := i
			g.Go(func() error {
				expand(i)
				return nil
			})
		}
		_ = g.Wait() // errors are collected per entry
	}

	newEntries := make([]beancount.Directive, 0, len(entries))
	var collected []error
	for i, entry := range entries {
		if !IsTagged(entry) {
			newEntries = append(newEntries, entry)
			continue
		}
		if a.workers <= 1 {
			expand(i)
		}
		if errs[i] != nil {
			collected = append(collected, errs[i])
		}
		newEntries = append(newEntries, results[i]...)
	}

	a.logger.Debug("Amortization complete",
		"today", a.today.String(),
		"entries_in", len(entries),
		"entries_out", len(newEntries),
		"errors", len(collected),
	)

	return newEntries, collected
}

func (a *Amortizer) expandEntry(entry beancount.Directive) ([]beancount.Directive, error) {
	txn := entry.(beancount.Transaction)

	installments, err := Expand(txn, a.today, a.rounding)
	if err != nil {
		a.logger.Debug("Failed to amortize transaction", "date", txn.Date.String(), "narration", txn.Narration, "error", err)
		return []beancount.Directive{entry}, err
	}

	a.logger.Debug("Amortized transaction",
		"date", txn.Date.String(),
		"narration", txn.Narration,
		"installments", len(installments),
	)

	out := make([]beancount.Directive, len(installments))
	for i, installment := range installments {
		out[i] = installment
	}
	return out, nil
}
