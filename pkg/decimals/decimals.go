package decimals

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/collectible-ledger/common/errs"
	"github.com/gaze-network/uint128"
	"github.com/shopspring/decimal"
)

const (
	DefaultDivPrecision = 36

	// NativeDecimals is the number of decimals of the host platform's native unit.
	NativeDecimals = 18
)

func init() {
	decimal.DivisionPrecision = DefaultDivPrecision
}

// max precision is 36
var powerOfTen = func() map[int32]decimal.Decimal {
	m := make(map[int32]decimal.Decimal, 2*DefaultDivPrecision+1)
	for n := int32(-DefaultDivPrecision); n <= DefaultDivPrecision; n++ {
		m[n] = decimal.New(1, n)
	}
	return m
}()

// PowerOfTen returns 10^n, served from a precomputed table for |n| <= 36.
func PowerOfTen(n int32) decimal.Decimal {
	if val, ok := powerOfTen[n]; ok {
		return val
	}
	return decimal.New(1, n)
}

// ToDecimal converts an amount in the smallest unit into whole units.
func ToDecimal(amount uint128.Uint128, decimals int32) decimal.Decimal {
	return decimal.NewFromBigInt(amount.Big(), -decimals)
}

// ToUint128 converts a whole-unit amount into the smallest unit.
// The amount must be non-negative, representable without rounding and fit in 128 bits.
func ToUint128(amount decimal.Decimal, decimals int32) (uint128.Uint128, error) {
	if amount.IsNegative() {
		return uint128.Uint128{}, errors.Wrapf(errs.InvalidArgument, "negative amount %s", amount.String())
	}
	scaled := amount.Mul(PowerOfTen(decimals))
	if !scaled.Equal(scaled.Truncate(0)) {
		return uint128.Uint128{}, errors.Wrapf(errs.InvalidArgument, "amount %s has more than %d decimals", amount.String(), decimals)
	}
	result, err := uint128.FromBig(scaled.BigInt())
	if err != nil {
		return uint128.Uint128{}, errors.Join(err, errs.OverflowUint128)
	}
	return result, nil
}

// ParseAmount parses a whole-unit decimal string into the smallest unit.
func ParseAmount(s string, decimals int32) (uint128.Uint128, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return uint128.Uint128{}, errors.Wrapf(errs.InvalidArgument, "invalid amount %q", s)
	}
	return ToUint128(amount, decimals)
}

// FormatAmount renders a smallest-unit amount as a whole-unit decimal string.
func FormatAmount(amount uint128.Uint128, decimals int32) string {
	return ToDecimal(amount, decimals).String()
}
