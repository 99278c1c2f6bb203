// Package money holds the fixed-precision rules for prices and bid amounts.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Precision is the number of decimal places an amount may carry.
const Precision int32 = 2

// maxIntegerDigits matches the NUMERIC(14, 2) columns amounts are stored in.
const maxIntegerDigits = 12

// MaxAmount is the largest amount the store can hold.
var MaxAmount = decimal.RequireFromString("999999999999.99")

var (
	ErrNotPositive = errors.New("amount must be positive")
	ErrPrecision   = fmt.Errorf("amount must have at most %d decimal places", Precision)
	ErrTooLarge    = fmt.Errorf("amount must not exceed %s", MaxAmount.StringFixed(Precision))
)

// integerDigits is the position of the leading digit relative to the decimal
// point, read from the coefficient and exponent without rescaling.
func integerDigits(d decimal.Decimal) int64 {
	return int64(d.NumDigits()) + int64(d.Exponent())
}

// OutOfRange reports whether d is too large to store, or so small that it
// has no digit at or above the smallest unit. Both checks are cheap for any
// exponent, so it is safe to call before formatting or converting d.
func OutOfRange(d decimal.Decimal) bool {
	if d.IsZero() {
		return false
	}
	digits := integerDigits(d)
	return digits > maxIntegerDigits || digits < -int64(Precision)
}

// Validate checks that d is strictly positive, no larger than MaxAmount and
// carries no more than Precision decimal places.
func Validate(d decimal.Decimal) error {
	if !d.IsPositive() {
		return ErrNotPositive
	}

	digits := integerDigits(d)
	if digits > maxIntegerDigits {
		return ErrTooLarge
	}
	// every digit sits below the smallest unit
	if digits < -int64(Precision) {
		return ErrPrecision
	}

	if !d.Equal(d.Truncate(Precision)) {
		return ErrPrecision
	}
	if d.GreaterThan(MaxAmount) {
		return ErrTooLarge
	}
	return nil
}

// MinimumIncrement is the smallest amount by which a bid can exceed another.
func MinimumIncrement() decimal.Decimal {
	return decimal.New(1, -Precision)
}

// NextValidBid is the lowest amount that beats current.
func NextValidBid(current decimal.Decimal) decimal.Decimal {
	return current.Add(MinimumIncrement())
}
