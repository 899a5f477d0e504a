package decimals

import (
	"fmt"
	"testing"

	"github.com/gaze-network/collectible-ledger/common/errs"
	"github.com/gaze-network/uint128"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPowerOfTen(t *testing.T) {
	for n := int32(-DefaultDivPrecision); n <= DefaultDivPrecision; n++ {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			assert.Equal(t, powerOfTenString(n), PowerOfTen(n).String())
		})
	}
	t.Run("outside_table", func(t *testing.T) {
		assert.Equal(t, powerOfTenString(40), PowerOfTen(40).String())
	})
}

func powerOfTenString(n int32) string {
	s := "1"
	if n < 0 {
		for i := int32(0); i < -n-1; i++ {
			s = "0" + s
		}
		return "0." + s
	}
	for i := int32(0); i < n; i++ {
		s += "0"
	}
	return s
}

func TestToDecimal(t *testing.T) {
	testcases := []struct {
		value    uint128.Uint128
		decimals int32
		expected string
	}{
		{uint128.From64(1), 0, "1"},
		{uint128.From64(1), 3, "0.001"},
		{uint128.From64(1_000_000_000_000_000), NativeDecimals, "0.001"},
		{uint128.From64(2_000_000_000_000_000_000), NativeDecimals, "2"},
		{uint128.Max, 0, "340282366920938463463374607431768211455"},
		{uint128.Max, NativeDecimals, "340282366920938463463.374607431768211455"},
	}
	for _, tc := range testcases {
		t.Run(fmt.Sprintf("%d_%s", tc.decimals, tc.value), func(t *testing.T) {
			assert.Equal(t, tc.expected, ToDecimal(tc.value, tc.decimals).String())
		})
	}
}

func TestParseAmount(t *testing.T) {
	type testcase struct {
		name        string
		input       string
		expected    uint128.Uint128
		expectedErr error
	}
	testcases := []testcase{
		{name: "base unit", input: "0.001", expected: uint128.From64(1_000_000_000_000_000)},
		{name: "whole units", input: "2.0", expected: uint128.From64(2_000_000_000_000_000_000)},
		{name: "zero", input: "0", expected: uint128.Zero},
		{name: "smallest unit", input: "0.000000000000000001", expected: uint128.From64(1)},
		{name: "too many decimals", input: "0.0000000000000000001", expectedErr: errs.InvalidArgument},
		{name: "negative", input: "-1", expectedErr: errs.InvalidArgument},
		{name: "not a number", input: "one", expectedErr: errs.InvalidArgument},
		{name: "overflow", input: "340282366920938463464", expectedErr: errs.OverflowUint128},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			actual, err := ParseAmount(tc.input, NativeDecimals)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestFormatAmount(t *testing.T) {
	amount, err := ParseAmount("1.234", NativeDecimals)
	require.NoError(t, err)
	assert.Equal(t, "1.234", FormatAmount(amount, NativeDecimals))
}
