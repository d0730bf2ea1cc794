package amortize

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/shunichi-ikebuchi/beancount-amortize/pkg/beancount"
)

// RoundingMode selects how a piece is quantized when it falls between two
// representable values.
type RoundingMode int

const (
	// RoundHalfEven rounds ties to the even neighbour.
	RoundHalfEven RoundingMode = iota
	// RoundHalfUp rounds ties away from zero.
	RoundHalfUp
)

// ParseRoundingMode parses "half_even" or "half_up". An empty string selects RoundHalfEven.
func ParseRoundingMode(s string) (RoundingMode, error) {
	switch s {
	case "", "half_even":
		return RoundHalfEven, nil
	case "half_up":
		return RoundHalfUp, nil
	}
	return 0, fmt.Errorf("unknown rounding mode %q: expected half_even or half_up", s)
}

func (m RoundingMode) String() string {
	if m == RoundHalfUp {
		return "half_up"
	}
	return "half_even"
}

// Split splits amount into periods pieces quantized to amount's decimal places.
// Each piece is the rounded share of what is left, so the pieces always sum to
// amount exactly.
func Split(amount decimal.Decimal, periods int, mode RoundingMode) ([]decimal.Decimal, error) {
	if periods < 1 {
		return nil, fmt.Errorf("periods must be positive, got %d", periods)
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("amount must not be negative, got %s", amount)
	}
	places := beancount.Places(amount)
	pieces := make([]decimal.Decimal, 0, periods)
	// Each piece is taken from what the previous pieces left over.
	for ; periods > 1; periods-- {
		piece := quantizedShare(amount, int64(periods), places, mode)
		pieces = append(pieces, piece)
		amount = amount.Sub(piece)
	}
	return append(pieces, amount), nil
}

// quantizedShare returns amount/n rounded to places decimal places.
func quantizedShare(amount decimal.Decimal, n int64, places int32, mode RoundingMode) decimal.Decimal {
	divisor := decimal.NewFromInt(n)
	unit := decimal.New(1, -places)

	// amount = divisor*q + r with q truncated to places and 0 <= r < divisor*unit.
	q, r := amount.QuoRem(divisor, places)

	twice := r.Mul(decimal.NewFromInt(2))
	switch twice.Cmp(divisor.Mul(unit)) {
	case 1:
		return q.Add(unit)
	case 0:
		if mode == RoundHalfUp || isOdd(q, places) {
			return q.Add(unit)
		}
	}
	return q
}

// isOdd reports whether the last quantized digit of q is odd.
func isOdd(q decimal.Decimal, places int32) bool {
	return q.Shift(places).BigInt().Bit(0) == 1
}
