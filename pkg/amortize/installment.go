package amortize

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/shunichi-ikebuchi/beancount-amortize/pkg/beancount"
)

// scheduleNamespace scopes the name-based UUIDs of amortization schedules.
var scheduleNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("beancount-amortize:schedule"))

// Installment is one derived transaction together with its position in the schedule.
type Installment struct {
	ID          uuid.UUID // stable across runs for the same source and index
	ScheduleID  uuid.UUID
	Index       int
	Periods     int
	Source      beancount.Transaction
	Transaction beancount.Transaction
}

// ScheduleID derives a stable identifier from the content of a tagged
// transaction, ignoring its source location.
func ScheduleID(txn beancount.Transaction) uuid.UUID {
	var sb strings.Builder
	sb.WriteString(txn.Date.String())
	sb.WriteString("\x00" + txn.Payee)
	sb.WriteString("\x00" + txn.Narration)
	sb.WriteString("\x00" + strings.Join(txn.Tags, ","))
	sb.WriteString("\x00" + strings.Join(txn.Links, ","))
	sb.WriteString("\x00" + beancount.FormatDirective(txn.WithMeta(txn.Meta.Without(beancount.MetaFilename, beancount.MetaLineno))))
	return uuid.NewSHA1(scheduleNamespace, []byte(sb.String()))
}

// InstallmentID derives the identifier of the index-th installment of a schedule.
func InstallmentID(scheduleID uuid.UUID, index int) uuid.UUID {
	return uuid.NewSHA1(scheduleID, []byte(strconv.Itoa(index)))
}

// Installments expands every tagged transaction in entries and returns the
// installments due by the evaluation date, in input order. Untagged entries
// are skipped.
func (a *Amortizer) Installments(entries []beancount.Directive) ([]Installment, []error) {
	var (
		installments []Installment
		errs         []error
	)
	for _, entry := range entries {
		if !IsTagged(entry) {
			continue
		}
		txn := entry.(beancount.Transaction)

		expanded, err := Expand(txn, a.today, a.rounding)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		// Expand validated the metadata already.
		periods, _ := Periods(txn)
		scheduleID := ScheduleID(txn)
		for n, installment := range expanded {
			installments = append(installments, Installment{
				ID:          InstallmentID(scheduleID, n),
				ScheduleID:  scheduleID,
				Index:       n,
				Periods:     periods,
				Source:      txn,
				Transaction: installment,
			})
		}
	}
	return installments, errs
}
