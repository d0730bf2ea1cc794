// Package beancount provides the ledger directive model and Beancount file operations.
package beancount

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Reserved metadata keys carrying the source location of a directive.
const (
	MetaFilename = "filename"
	MetaLineno   = "lineno"
)

// Kind names a directive variant.
type Kind string

const (
	KindTransaction Kind = "transaction"
	KindOpen        Kind = "open"
	KindClose       Kind = "close"
	KindBalance     Kind = "balance"
	KindPrice       Kind = "price"
	KindCommodity   Kind = "commodity"
	KindNote        Kind = "note"
)

// Directive is one ledger entry. The set of variants is closed: only the
// types in this package implement it.
type Directive interface {
	Kind() Kind
	DirectiveDate() Date
	DirectiveMeta() Metadata

	directive()
}

// Metadata holds key-value metadata attached to a directive or posting.
// Values are int64, decimal.Decimal, bool, Date or string.
type Metadata map[string]any

// Clone returns a shallow copy of m. Metadata values are immutable, so a
// shallow copy does not alias mutable state.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	return maps.Clone(m)
}

// Without returns a copy of m with the given keys removed.
func (m Metadata) Without(keys ...string) Metadata {
	out := m.Clone()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// Source returns "filename:lineno" when both location keys are present.
func (m Metadata) Source() string {
	filename, _ := m[MetaFilename].(string)
	if filename == "" {
		return ""
	}
	if line, ok := m[MetaLineno].(int64); ok {
		return fmt.Sprintf("%s:%d", filename, line)
	}
	return filename
}

// Amount is an exact decimal number paired with a currency.
type Amount struct {
	Number   decimal.Decimal
	Currency string
}

// NewAmount creates an Amount.
func NewAmount(number decimal.Decimal, currency string) Amount {
	return Amount{Number: number, Currency: currency}
}

// ParseAmount parses an amount such as "-600.00 USD".
func ParseAmount(s string) (Amount, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Amount{}, fmt.Errorf("invalid amount %q: expected \"<number> <currency>\"", s)
	}
	number, err := decimal.NewFromString(fields[0])
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount number %q: %w", fields[0], err)
	}
	return Amount{Number: number, Currency: fields[1]}, nil
}

// Places returns the number of decimal places implied by the number's
// representation ("600.00" has 2, "600" has 0).
func (a Amount) Places() int32 {
	return Places(a.Number)
}

// Neg returns the amount with its number negated.
func (a Amount) Neg() Amount {
	return Amount{Number: a.Number.Neg(), Currency: a.Currency}
}

// String formats the amount keeping its quantization, e.g. "-200.00 USD".
func (a Amount) String() string {
	return a.Number.StringFixed(a.Places()) + " " + a.Currency
}

// Places returns the number of decimal places implied by d's exponent.
func Places(d decimal.Decimal) int32 {
	if exp := d.Exponent(); exp < 0 {
		return -exp
	}
	return 0
}

// Posting is one leg of a transaction.
type Posting struct {
	Flag    string
	Account string
	Units   *Amount // nil when the amount is elided
	Meta    Metadata
}

// WithUnits returns a copy of p with its units replaced.
func (p Posting) WithUnits(units Amount) Posting {
	out := p.clone()
	out.Units = &units
	return out
}

func (p Posting) clone() Posting {
	out := p
	if p.Units != nil {
		units := *p.Units
		out.Units = &units
	}
	out.Meta = p.Meta.Clone()
	return out
}

// Transaction records a balanced movement of value across postings.
type Transaction struct {
	Date      Date
	Flag      string
	Payee     string
	Narration string
	Tags      []string
	Links     []string
	Meta      Metadata
	Postings  []Posting
}

// WithDate returns a copy of t dated d.
func (t Transaction) WithDate(d Date) Transaction {
	out := t.clone()
	out.Date = d
	return out
}

// WithPostings returns a copy of t with its postings replaced.
func (t Transaction) WithPostings(postings []Posting) Transaction {
	out := t.clone()
	out.Postings = make([]Posting, len(postings))
	for i, p := range postings {
		out.Postings[i] = p.clone()
	}
	return out
}

// WithMeta returns a copy of t with its metadata replaced.
func (t Transaction) WithMeta(meta Metadata) Transaction {
	out := t.clone()
	out.Meta = meta.Clone()
	return out
}

func (t Transaction) clone() Transaction {
	out := t
	out.Tags = slices.Clone(t.Tags)
	out.Links = slices.Clone(t.Links)
	out.Meta = t.Meta.Clone()
	if t.Postings != nil {
		out.Postings = make([]Posting, len(t.Postings))
		for i, p := range t.Postings {
			out.Postings[i] = p.clone()
		}
	}
	return out
}

func (t Transaction) Kind() Kind              { return KindTransaction }
func (t Transaction) DirectiveDate() Date     { return t.Date }
func (t Transaction) DirectiveMeta() Metadata { return t.Meta }
func (Transaction) directive()                {}

// Open opens an account.
type Open struct {
	Date       Date
	Account    string
	Currencies []string
	Booking    string
	Meta       Metadata
}

func (o Open) Kind() Kind              { return KindOpen }
func (o Open) DirectiveDate() Date     { return o.Date }
func (o Open) DirectiveMeta() Metadata { return o.Meta }
func (Open) directive()                {}

// Close closes an account.
type Close struct {
	Date    Date
	Account string
	Meta    Metadata
}

func (c Close) Kind() Kind              { return KindClose }
func (c Close) DirectiveDate() Date     { return c.Date }
func (c Close) DirectiveMeta() Metadata { return c.Meta }
func (Close) directive()                {}

// Balance asserts an account balance at the start of a date.
type Balance struct {
	Date    Date
	Account string
	Amount  Amount
	Meta    Metadata
}

func (b Balance) Kind() Kind              { return KindBalance }
func (b Balance) DirectiveDate() Date     { return b.Date }
func (b Balance) DirectiveMeta() Metadata { return b.Meta }
func (Balance) directive()                {}

// Price records the price of a commodity in another currency.
type Price struct {
	Date     Date
	Currency string
	Amount   Amount
	Meta     Metadata
}

func (p Price) Kind() Kind              { return KindPrice }
func (p Price) DirectiveDate() Date     { return p.Date }
func (p Price) DirectiveMeta() Metadata { return p.Meta }
func (Price) directive()                {}

// Commodity declares a currency or commodity.
type Commodity struct {
	Date     Date
	Currency string
	Meta     Metadata
}

func (c Commodity) Kind() Kind              { return KindCommodity }
func (c Commodity) DirectiveDate() Date     { return c.Date }
func (c Commodity) DirectiveMeta() Metadata { return c.Meta }
func (Commodity) directive()                {}

// Note attaches a comment to an account.
type Note struct {
	Date    Date
	Account string
	Comment string
	Meta    Metadata
}

func (n Note) Kind() Kind              { return KindNote }
func (n Note) DirectiveDate() Date     { return n.Date }
func (n Note) DirectiveMeta() Metadata { return n.Meta }
func (Note) directive()                {}
