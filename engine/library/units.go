package library

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

const Decimals = 18

// ParseUnits converts a human readable token amount ("1000", "0.5") into base units.
func ParseUnits(s string) (*uint256.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q: negative", s)
	}
	scaled := d.Shift(Decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("invalid amount %q: more than %d decimals", s, Decimals)
	}
	u, overflow := uint256.FromBig(scaled.BigInt())
	if overflow {
		return nil, fmt.Errorf("invalid amount %q: %w", s, ErrSupplyOverflow)
	}
	return u, nil
}

// MustParseUnits is ParseUnits for constants.
func MustParseUnits(s string) *uint256.Int {
	u, err := ParseUnits(s)
	if err != nil {
		panic(err)
	}
	return u
}

// FormatUnits renders base units as a human readable token amount.
func FormatUnits(x *uint256.Int) string {
	if x == nil {
		return "0"
	}
	return decimal.NewFromBigInt(x.ToBig(), -Decimals).String()
}
