package ledger

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/collectible-ledger/common/errs"
	"github.com/gaze-network/collectible-ledger/pkg/decimals"
	"github.com/gaze-network/uint128"
)

const (
	// MaxSupply is the fixed number of items in the collection.
	MaxSupply uint64 = 100

	NativeDecimals = decimals.NativeDecimals
)

// BaseUnit is 0.001 native unit in the smallest unit.
var BaseUnit = uint128.From64(1_000_000_000_000_000)

// Price returns the exact payment required for the n-th claim: BaseUnit * n^2.
func Price(n uint64) (uint128.Uint128, error) {
	if n == 0 || n > MaxSupply {
		return uint128.Uint128{}, errors.Wrapf(errs.InvalidArgument, "claim number %d is outside [1, %d]", n, MaxSupply)
	}
	square, overflow := uint128.From64(n).MulOverflow(uint128.From64(n))
	if overflow {
		return uint128.Uint128{}, errors.WithStack(errs.OverflowUint128)
	}
	price, overflow := BaseUnit.MulOverflow(square)
	if overflow {
		return uint128.Uint128{}, errors.WithStack(errs.OverflowUint128)
	}
	return price, nil
}

// Interface selectors answered by SupportsInterface.
const (
	InterfaceIntrospection = "0x01ffc9a7"
	InterfaceOwnership     = "0x80ac58cd"
	InterfaceMetadata      = "0x5b5e139f"
)

var supportedInterfaces = map[uint32]struct{}{
	0x01ffc9a7: {},
	0x80ac58cd: {},
	0x5b5e139f: {},
}

// SupportsInterface reports whether the 4-byte selector names a supported capability.
// Anything else, including the reserved 0xffffffff, is unsupported.
func SupportsInterface(selector uint32) bool {
	_, ok := supportedInterfaces[selector]
	return ok
}
