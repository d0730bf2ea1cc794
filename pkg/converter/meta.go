package converter

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/shunichi-ikebuchi/beancount-amortize/pkg/beancount"
)

// convertMeta converts YAML scalars to metadata values: integers become
// int64, floats become exact decimals, timestamps become dates.
func convertMeta(raw map[string]yaml.Node) (beancount.Metadata, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	meta := make(beancount.Metadata, len(raw))
	for key, node := range raw {
		if key == beancount.MetaFilename || key == beancount.MetaLineno {
			return nil, fmt.Errorf("metadata key %q is reserved", key)
		}
		value, err := convertMetaValue(&node)
		if err != nil {
			return nil, fmt.Errorf("metadata %q: %w", key, err)
		}
		meta[key] = value
	}
	return meta, nil
}

func convertMetaValue(node *yaml.Node) (any, error) {
	if node.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("value must be a scalar")
	}

	switch node.ShortTag() {
	case "!!int":
		var n int64
		if err := node.Decode(&n); err != nil {
			return nil, err
		}
		return n, nil
	case "!!float":
		d, err := decimal.NewFromString(node.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", node.Value, err)
		}
		return d, nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return nil, err
		}
		return b, nil
	case "!!timestamp":
		if d, err := beancount.ParseDate(node.Value); err == nil {
			return d, nil
		}
	case "!!null":
		return nil, fmt.Errorf("value must not be null")
	}
	return node.Value, nil
}

// interpolate fills in the amount of a single elided posting so the
// transaction balances. The other postings must share one currency.
func interpolate(postings []beancount.Posting) error {
	missing := -1
	sum := decimal.Zero
	currency := ""
	for i, p := range postings {
		if p.Units == nil {
			if missing >= 0 {
				return fmt.Errorf("only one posting may omit its amount")
			}
			missing = i
			continue
		}
		if currency == "" {
			currency = p.Units.Currency
		} else if p.Units.Currency != currency {
			currency = "*"
		}
		sum = sum.Add(p.Units.Number)
	}

	switch {
	case missing < 0:
		return nil
	case currency == "":
		return fmt.Errorf("cannot infer an amount: no posting has one")
	case currency == "*":
		return fmt.Errorf("cannot infer an amount across several currencies")
	}
	postings[missing] = postings[missing].WithUnits(beancount.NewAmount(sum.Neg(), currency))
	return nil
}
