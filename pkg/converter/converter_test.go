package converter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/shunichi-ikebuchi/beancount-amortize/pkg/beancount"
)

const insuranceLedger = `directives:
  - open:
      date: 2017-01-01
      account: Assets:Prepaid-Expenses
      currencies: [USD]
  - transaction:
      date: 2017-06-01
      flag: "*"
      narration: Amortize car insurance over three months
      tags: [insurance]
      meta:
        amortize_months: 3
        rate: 1.50
        reviewed: true
        starts: 2017-06-01
        note: quarterly
      postings:
        - account: Assets:Prepaid-Expenses
          units: -600.00 USD
        - account: Expenses:Insurance:Auto
  - balance: {date: 2017-07-02, account: Assets:Prepaid-Expenses, amount: -600.00 USD}
  - price: {date: 2017-07-02, currency: EUR, amount: 1.10 USD}
  - commodity: {date: 2017-01-01, currency: USD}
  - note: {date: 2017-07-02, account: Assets:Prepaid-Expenses, comment: renewed}
  - close: {date: 2018-01-01, account: Assets:Prepaid-Expenses}
`

func TestConvert(t *testing.T) {
	directives, err := NewConverter(nil).Convert("ledger.yaml", []byte(insuranceLedger))
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}

	kinds := []beancount.Kind{
		beancount.KindOpen,
		beancount.KindTransaction,
		beancount.KindBalance,
		beancount.KindPrice,
		beancount.KindCommodity,
		beancount.KindNote,
		beancount.KindClose,
	}
	if len(directives) != len(kinds) {
		t.Fatalf("Convert() returned %d directives, expected %d", len(directives), len(kinds))
	}
	for i, kind := range kinds {
		if directives[i].Kind() != kind {
			t.Errorf("directive %d kind = %s, expected %s", i, directives[i].Kind(), kind)
		}
	}

	txn := directives[1].(beancount.Transaction)
	if txn.Date.String() != "2017-06-01" {
		t.Errorf("date = %s", txn.Date)
	}
	if txn.Narration != "Amortize car insurance over three months" || txn.Flag != "*" {
		t.Errorf("header = %q %q", txn.Flag, txn.Narration)
	}
	if len(txn.Tags) != 1 || txn.Tags[0] != "insurance" {
		t.Errorf("tags = %v", txn.Tags)
	}
	if got := txn.Meta.Source(); got != "ledger.yaml:6" {
		t.Errorf("source = %q, expected ledger.yaml:6", got)
	}

	if v, ok := txn.Meta["amortize_months"].(int64); !ok || v != 3 {
		t.Errorf("amortize_months = %#v, expected int64(3)", txn.Meta["amortize_months"])
	}
	if v, ok := txn.Meta["rate"].(decimal.Decimal); !ok || v.String() != "1.5" || v.Exponent() != -2 {
		t.Errorf("rate = %#v, expected exact decimal 1.50", txn.Meta["rate"])
	}
	if v, ok := txn.Meta["reviewed"].(bool); !ok || !v {
		t.Errorf("reviewed = %#v", txn.Meta["reviewed"])
	}
	if v, ok := txn.Meta["starts"].(beancount.Date); !ok || v.String() != "2017-06-01" {
		t.Errorf("starts = %#v", txn.Meta["starts"])
	}
	if v, ok := txn.Meta["note"].(string); !ok || v != "quarterly" {
		t.Errorf("note = %#v", txn.Meta["note"])
	}

	if got := txn.Postings[0].Units.String(); got != "-600.00 USD" {
		t.Errorf("posting 0 = %s", got)
	}
	if txn.Postings[1].Units == nil || txn.Postings[1].Units.String() != "600.00 USD" {
		t.Errorf("elided posting was not interpolated: %v", txn.Postings[1].Units)
	}

	open := directives[0].(beancount.Open)
	if open.Account != "Assets:Prepaid-Expenses" || len(open.Currencies) != 1 {
		t.Errorf("open = %+v", open)
	}
	balance := directives[2].(beancount.Balance)
	if balance.Amount.String() != "-600.00 USD" {
		t.Errorf("balance amount = %s", balance.Amount)
	}
}

func TestConvertErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"bad yaml", "directives: [", "failed to parse YAML"},
		{"unknown kind", "directives:\n  - custom: {date: 2017-01-01}\n", "unknown directive kind"},
		{"missing date", "directives:\n  - open: {account: Assets:Bank}\n", "date is required"},
		{"bad date", "directives:\n  - open: {date: 2017-02-30, account: Assets:Bank}\n", "invalid date"},
		{"bad amount", "directives:\n  - balance: {date: 2017-01-01, account: A, amount: 12}\n", "invalid amount"},
		{"two elided", "directives:\n  - transaction:\n      date: 2017-01-01\n      postings: [{account: A}, {account: B}]\n", "only one posting"},
		{"mixed currencies", "directives:\n  - transaction:\n      date: 2017-01-01\n      postings: [{account: A, units: 1 USD}, {account: B, units: 1 EUR}, {account: C}]\n", "several currencies"},
		{"reserved meta", "directives:\n  - open: {date: 2017-01-01, account: A, meta: {lineno: 3}}\n", "reserved"},
		{"missing account", "directives:\n  - transaction:\n      date: 2017-01-01\n      postings: [{units: 1 USD}]\n", "has no account"},
		{"two kinds", "directives:\n  - {open: {date: 2017-01-01}, close: {date: 2017-01-01}}\n", "single kind key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConverter(nil).Convert("ledger.yaml", []byte(tt.yaml))
			if err == nil {
				t.Fatal("Convert() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Convert() error = %q, expected to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestConvertErrorHasLocation(t *testing.T) {
	yaml := "directives:\n  - open: {date: 2017-01-01, account: A}\n  - open: {account: B}\n"
	_, err := NewConverter(nil).Convert("ledger.yaml", []byte(yaml))
	if err == nil || !strings.HasPrefix(err.Error(), "ledger.yaml:3:") {
		t.Errorf("Convert() error = %v, expected ledger.yaml:3 prefix", err)
	}
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.yaml")
	second := filepath.Join(dir, "b.yaml")
	if err := os.WriteFile(first, []byte("directives:\n  - commodity: {date: 2017-01-01, currency: USD}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(second, []byte(insuranceLedger), 0644); err != nil {
		t.Fatal(err)
	}

	directives, err := NewConverter(nil).LoadFiles([]string{first, second})
	if err != nil {
		t.Fatalf("LoadFiles() error: %v", err)
	}
	if len(directives) != 8 {
		t.Fatalf("LoadFiles() returned %d directives, expected 8", len(directives))
	}
	if got := directives[0].DirectiveMeta().Source(); got != first+":2" {
		t.Errorf("first source = %q", got)
	}

	if _, err := NewConverter(nil).LoadFiles([]string{filepath.Join(dir, "missing.yaml")}); err == nil {
		t.Error("LoadFiles() expected error for missing file")
	}
}
