package beancount

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// accountColumn is the width amounts are right-aligned against.
const accountColumn = 60

// FormatDirective formats a directive as Beancount text.
func FormatDirective(d Directive) string {
	switch v := d.(type) {
	case Transaction:
		return FormatTransaction(v)
	case Open:
		line := fmt.Sprintf("%s open %s", v.Date, v.Account)
		if len(v.Currencies) > 0 {
			line += " " + strings.Join(v.Currencies, ",")
		}
		if v.Booking != "" {
			line += fmt.Sprintf(" %q", v.Booking)
		}
		return line + "\n" + formatMeta(v.Meta, "  ")
	case Close:
		return fmt.Sprintf("%s close %s\n", v.Date, v.Account) + formatMeta(v.Meta, "  ")
	case Balance:
		return fmt.Sprintf("%s balance %s %s\n", v.Date, v.Account, v.Amount) + formatMeta(v.Meta, "  ")
	case Price:
		return fmt.Sprintf("%s price %s %s\n", v.Date, v.Currency, v.Amount) + formatMeta(v.Meta, "  ")
	case Commodity:
		return fmt.Sprintf("%s commodity %s\n", v.Date, v.Currency) + formatMeta(v.Meta, "  ")
	case Note:
		return fmt.Sprintf("%s note %s %q\n", v.Date, v.Account, v.Comment) + formatMeta(v.Meta, "  ")
	}
	return ""
}

// FormatTransaction formats a transaction as Beancount text.
func FormatTransaction(txn Transaction) string {
	var sb strings.Builder

	// Transaction header
	sb.WriteString(txn.Date.String())
	flag := txn.Flag
	if flag == "" {
		flag = "*"
	}
	sb.WriteString(" " + flag)
	if txn.Payee != "" {
		sb.WriteString(fmt.Sprintf(" %q", txn.Payee))
	}
	sb.WriteString(fmt.Sprintf(" %q", txn.Narration))
	for _, tag := range txn.Tags {
		sb.WriteString(" #" + tag)
	}
	for _, link := range txn.Links {
		sb.WriteString(" ^" + link)
	}
	sb.WriteString("\n")
	sb.WriteString(formatMeta(txn.Meta, "  "))

	// Postings
	for _, posting := range txn.Postings {
		sb.WriteString("  ")
		if posting.Flag != "" {
			sb.WriteString(posting.Flag + " ")
		}
		sb.WriteString(posting.Account)

		if posting.Units != nil {
			number := posting.Units.Number.StringFixed(posting.Units.Places())
			// Right-align the number (typical Beancount style)
			spaces := max(1, accountColumn-len(posting.Account)-len(number))
			sb.WriteString(strings.Repeat(" ", spaces))
			sb.WriteString(number + " " + posting.Units.Currency)
		}
		sb.WriteString("\n")
		sb.WriteString(formatMeta(posting.Meta, "    "))
	}

	return sb.String()
}

// formatMeta renders metadata lines in key order, skipping source location keys.
func formatMeta(meta Metadata, indent string) string {
	if len(meta) == 0 {
		return ""
	}
	keys := make([]string, 0, len(meta))
	for k := range meta {
		if k == MetaFilename || k == MetaLineno {
			continue
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("%s%s: %s\n", indent, k, formatMetaValue(meta[k])))
	}
	return sb.String()
}

func formatMetaValue(v any) string {
	switch val := v.(type) {
	case string:
		return strconv.Quote(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	case decimal.Decimal:
		return val.StringFixed(Places(val))
	case Date:
		return val.String()
	case Amount:
		return val.String()
	}
	return strconv.Quote(fmt.Sprint(v))
}
