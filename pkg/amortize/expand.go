// Package amortize expands transactions tagged with amortize_months into
// monthly installments.
//
// A transaction such as
//
//	2017-06-01 * "Amortize car insurance over three months"
//	  amortize_months: 3
//	  Assets:Prepaid-Expenses     -600.00 USD
//	  Expenses:Insurance:Auto      600.00 USD
//
// is replaced by installments of -200.00/200.00 USD dated 2017-06-01,
// 2017-07-01 and 2017-08-01. Installments dated after the evaluation date
// are left out.
package amortize

import (
	"github.com/shopspring/decimal"

	"github.com/shunichi-ikebuchi/beancount-amortize/pkg/beancount"
)

// MetaKey is the metadata key that tags a transaction for amortization.
const MetaKey = "amortize_months"

// MaxPeriods is the largest accepted amortize_months value (100 years).
const MaxPeriods = 1200

// IsTagged reports whether d is a transaction carrying MetaKey.
func IsTagged(d beancount.Directive) bool {
	txn, ok := d.(beancount.Transaction)
	if !ok {
		return false
	}
	_, ok = txn.Meta[MetaKey]
	return ok
}

// Periods returns the number of months from txn's amortize_months metadata.
// Integer values and integral decimals from 1 to MaxPeriods are accepted;
// anything else is ErrInvalidMetadata.
func Periods(txn beancount.Transaction) (int, error) {
	raw, ok := txn.Meta[MetaKey]
	if !ok {
		return 0, newError(ErrInvalidMetadata, txn, "%s is missing", MetaKey)
	}

	var n int64
	switch v := raw.(type) {
	case int:
		n = int64(v)
	case int64:
		n = v
	case decimal.Decimal:
		if !v.IsInteger() || !v.BigInt().IsInt64() {
			return 0, newError(ErrInvalidMetadata, txn, "%s must be an integer, got %s", MetaKey, v)
		}
		n = v.IntPart()
	default:
		return 0, newError(ErrInvalidMetadata, txn, "%s must be an integer, got %v", MetaKey, raw)
	}

	if n < 1 || n > MaxPeriods {
		return 0, newError(ErrInvalidMetadata, txn, "%s must be between 1 and %d, got %d", MetaKey, MaxPeriods, n)
	}
	return int(n), nil
}

// Schedule describes every installment of a tagged transaction regardless of date.
type Schedule struct {
	Amount beancount.Amount // units of the first posting
	Dates  []beancount.Date
	Pieces []decimal.Decimal
}

// ScheduleOf validates a tagged transaction and computes its full installment schedule.
func ScheduleOf(txn beancount.Transaction, mode RoundingMode) (Schedule, error) {
	if len(txn.Postings) != 2 {
		return Schedule{}, newError(ErrInvalidStructure, txn,
			"amortized transactions must have exactly two postings, got %d", len(txn.Postings))
	}
	for i, posting := range txn.Postings {
		if posting.Units == nil {
			return Schedule{}, newError(ErrInvalidStructure, txn, "posting %d (%s) has no amount", i, posting.Account)
		}
	}

	periods, err := Periods(txn)
	if err != nil {
		return Schedule{}, err
	}

	units := *txn.Postings[0].Units
	pieces, err := Split(units.Number.Abs(), periods, mode)
	if err != nil {
		return Schedule{}, newError(ErrInvalidStructure, txn, "failed to split %s: %v", units, err)
	}

	dates := make([]beancount.Date, periods)
	for n := range dates {
		dates[n] = txn.Date.AddMonths(n)
	}
	return Schedule{Amount: units, Dates: dates, Pieces: pieces}, nil
}

// Expand returns the installments that replace txn, excluding those dated after today.
func Expand(txn beancount.Transaction, today beancount.Date, mode RoundingMode) ([]beancount.Transaction, error) {
	schedule, err := ScheduleOf(txn, mode)
	if err != nil {
		return nil, err
	}

	var installments []beancount.Transaction
	for n, piece := range schedule.Pieces {
		date := schedule.Dates[n]
		if date.After(today) {
			// Later installments are later still.
			break
		}

		postings := make([]beancount.Posting, len(txn.Postings))
		for i, posting := range txn.Postings {
			number := piece
			if posting.Units.Number.IsNegative() {
				number = piece.Neg()
			}
			postings[i] = posting.WithUnits(beancount.NewAmount(number, schedule.Amount.Currency))
		}

		installments = append(installments, txn.WithPostings(postings).WithDate(date))
	}

	return installments, nil
}
