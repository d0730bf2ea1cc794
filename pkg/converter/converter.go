// Package converter converts YAML ledger documents into Beancount directives.
//
// A document lists directives under a "directives" key, each a single-key
// mapping naming its kind:
//
//	directives:
//	  - open: {date: 2017-01-01, account: Assets:Prepaid-Expenses, currencies: [USD]}
//	  - transaction:
//	      date: 2017-06-01
//	      narration: Amortize car insurance over three months
//	      meta: {amortize_months: 3}
//	      postings:
//	        - {account: Assets:Prepaid-Expenses, units: -600.00 USD}
//	        - {account: Expenses:Insurance:Auto}
package converter

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/shunichi-ikebuchi/beancount-amortize/pkg/beancount"
)

type document struct {
	Directives []yaml.Node `yaml:"directives"`
}

type transactionSpec struct {
	Date      string               `yaml:"date"`
	Flag      string               `yaml:"flag"`
	Payee     string               `yaml:"payee"`
	Narration string               `yaml:"narration"`
	Tags      []string             `yaml:"tags"`
	Links     []string             `yaml:"links"`
	Meta      map[string]yaml.Node `yaml:"meta"`
	Postings  []postingSpec        `yaml:"postings"`
}

type postingSpec struct {
	Flag    string               `yaml:"flag"`
	Account string               `yaml:"account"`
	Units   string               `yaml:"units"`
	Meta    map[string]yaml.Node `yaml:"meta"`
}

type openSpec struct {
	Date       string               `yaml:"date"`
	Account    string               `yaml:"account"`
	Currencies []string             `yaml:"currencies"`
	Booking    string               `yaml:"booking"`
	Meta       map[string]yaml.Node `yaml:"meta"`
}

type closeSpec struct {
	Date    string               `yaml:"date"`
	Account string               `yaml:"account"`
	Meta    map[string]yaml.Node `yaml:"meta"`
}

type balanceSpec struct {
	Date    string               `yaml:"date"`
	Account string               `yaml:"account"`
	Amount  string               `yaml:"amount"`
	Meta    map[string]yaml.Node `yaml:"meta"`
}

type priceSpec struct {
	Date     string               `yaml:"date"`
	Currency string               `yaml:"currency"`
	Amount   string               `yaml:"amount"`
	Meta     map[string]yaml.Node `yaml:"meta"`
}

type commoditySpec struct {
	Date     string               `yaml:"date"`
	Currency string               `yaml:"currency"`
	Meta     map[string]yaml.Node `yaml:"meta"`
}

type noteSpec struct {
	Date    string               `yaml:"date"`
	Account string               `yaml:"account"`
	Comment string               `yaml:"comment"`
	Meta    map[string]yaml.Node `yaml:"meta"`
}

// Converter converts YAML ledger documents to Beancount directives.
type Converter struct {
	logger *slog.Logger
}

// NewConverter creates a new Converter. A nil logger means slog.Default().
func NewConverter(logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{logger: logger}
}

// LoadFiles loads every file in order and concatenates their directives.
func (c *Converter) LoadFiles(paths []string) ([]beancount.Directive, error) {
	var directives []beancount.Directive
	for _, path := range paths {
		loaded, err := c.LoadFile(path)
		if err != nil {
			return nil, err
		}
		directives = append(directives, loaded...)
	}
	return directives, nil
}

// LoadFile reads and converts one YAML ledger file.
func (c *Converter) LoadFile(path string) ([]beancount.Directive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger file: %w", err)
	}
	directives, err := c.Convert(path, data)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("Loaded ledger file", "path", path, "directives", len(directives))
	return directives, nil
}

// Convert converts a YAML ledger document. filename is recorded in each
// directive's metadata together with its line number.
func (c *Converter) Convert(filename string, data []byte) ([]beancount.Directive, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML %s: %w", filename, err)
	}

	directives := make([]beancount.Directive, 0, len(doc.Directives))
	for i := range doc.Directives {
		node := &doc.Directives[i]
		d, err := convertDirective(filename, node)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", filename, node.Line, err)
		}
		directives = append(directives, d)
	}
	return directives, nil
}

func convertDirective(filename string, node *yaml.Node) (beancount.Directive, error) {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return nil, fmt.Errorf("directive must be a mapping with a single kind key")
	}
	kind := beancount.Kind(node.Content[0].Value)
	body := node.Content[1]
	location := beancount.Metadata{
		beancount.MetaFilename: filename,
		beancount.MetaLineno:   int64(node.Line),
	}

	switch kind {
	case beancount.KindTransaction:
		var spec transactionSpec
		if err := body.Decode(&spec); err != nil {
			return nil, fmt.Errorf("invalid transaction: %w", err)
		}
		return convertTransaction(spec, location)
	case beancount.KindOpen:
		var spec openSpec
		if err := body.Decode(&spec); err != nil {
			return nil, fmt.Errorf("invalid open: %w", err)
		}
		date, meta, err := header(spec.Date, spec.Meta, location)
		if err != nil {
			return nil, err
		}
		return beancount.Open{Date: date, Account: spec.Account, Currencies: spec.Currencies, Booking: spec.Booking, Meta: meta}, nil
	case beancount.KindClose:
		var spec closeSpec
		if err := body.Decode(&spec); err != nil {
			return nil, fmt.Errorf("invalid close: %w", err)
		}
		date, meta, err := header(spec.Date, spec.Meta, location)
		if err != nil {
			return nil, err
		}
		return beancount.Close{Date: date, Account: spec.Account, Meta: meta}, nil
	case beancount.KindBalance:
		var spec balanceSpec
		if err := body.Decode(&spec); err != nil {
			return nil, fmt.Errorf("invalid balance: %w", err)
		}
		date, meta, err := header(spec.Date, spec.Meta, location)
		if err != nil {
			return nil, err
		}
		amount, err := beancount.ParseAmount(spec.Amount)
		if err != nil {
			return nil, err
		}
		return beancount.Balance{Date: date, Account: spec.Account, Amount: amount, Meta: meta}, nil
	case beancount.KindPrice:
		var spec priceSpec
		if err := body.Decode(&spec); err != nil {
			return nil, fmt.Errorf("invalid price: %w", err)
		}
		date, meta, err := header(spec.Date, spec.Meta, location)
		if err != nil {
			return nil, err
		}
		amount, err := beancount.ParseAmount(spec.Amount)
		if err != nil {
			return nil, err
		}
		return beancount.Price{Date: date, Currency: spec.Currency, Amount: amount, Meta: meta}, nil
	case beancount.KindCommodity:
		var spec commoditySpec
		if err := body.Decode(&spec); err != nil {
			return nil, fmt.Errorf("invalid commodity: %w", err)
		}
		date, meta, err := header(spec.Date, spec.Meta, location)
		if err != nil {
			return nil, err
		}
		return beancount.Commodity{Date: date, Currency: spec.Currency, Meta: meta}, nil
	case beancount.KindNote:
		var spec noteSpec
		if err := body.Decode(&spec); err != nil {
			return nil, fmt.Errorf("invalid note: %w", err)
		}
		date, meta, err := header(spec.Date, spec.Meta, location)
		if err != nil {
			return nil, err
		}
		return beancount.Note{Date: date, Account: spec.Account, Comment: spec.Comment, Meta: meta}, nil
	}

	return nil, fmt.Errorf("unknown directive kind %q", kind)
}

func convertTransaction(spec transactionSpec, location beancount.Metadata) (beancount.Transaction, error) {
	date, meta, err := header(spec.Date, spec.Meta, location)
	if err != nil {
		return beancount.Transaction{}, err
	}

	postings := make([]beancount.Posting, 0, len(spec.Postings))
	for i, ps := range spec.Postings {
		if ps.Account == "" {
			return beancount.Transaction{}, fmt.Errorf("posting %d has no account", i)
		}
		posting := beancount.Posting{Flag: ps.Flag, Account: ps.Account}
		if ps.Units != "" {
			units, err := beancount.ParseAmount(ps.Units)
			if err != nil {
				return beancount.Transaction{}, fmt.Errorf("posting %d: %w", i, err)
			}
			posting.Units = &units
		}
		if len(ps.Meta) > 0 {
			if posting.Meta, err = convertMeta(ps.Meta); err != nil {
				return beancount.Transaction{}, fmt.Errorf("posting %d: %w", i, err)
			}
		}
		postings = append(postings, posting)
	}

	if err := interpolate(postings); err != nil {
		return beancount.Transaction{}, err
	}

	return beancount.Transaction{
		Date:      date,
		Flag:      spec.Flag,
		Payee:     spec.Payee,
		Narration: spec.Narration,
		Tags:      spec.Tags,
		Links:     spec.Links,
		Meta:      meta,
		Postings:  postings,
	}, nil
}

// header parses the date and metadata shared by every directive kind and
// merges in the source location.
func header(rawDate string, rawMeta map[string]yaml.Node, location beancount.Metadata) (beancount.Date, beancount.Metadata, error) {
	if rawDate == "" {
		return beancount.Date{}, nil, fmt.Errorf("date is required")
	}
	date, err := beancount.ParseDate(rawDate)
	if err != nil {
		return beancount.Date{}, nil, err
	}
	meta, err := convertMeta(rawMeta)
	if err != nil {
		return beancount.Date{}, nil, err
	}
	if meta == nil {
		meta = beancount.Metadata{}
	}
	for k, v := range location {
		meta[k] = v
	}
	return date, meta, nil
}
