package entity

import (
	"encoding/hex"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/collectible-ledger/common/errs"
)

const addressLength = 20

// Address identifies an account: a 0x-prefixed, 20-byte hex string kept in lowercase.
type Address string

// ZeroAddress is the "none" identity. It never owns an item.
const ZeroAddress = Address("0x0000000000000000000000000000000000000000")

// NewAddress validates and normalizes an account identity.
func NewAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if len(s) != 2+2*addressLength || !strings.EqualFold(s[:2], "0x") {
		return "", errors.Wrapf(errs.InvalidArgument, "malformed address %q", s)
	}
	if _, err := hex.DecodeString(s[2:]); err != nil {
		return "", errors.Wrapf(errs.InvalidArgument, "malformed address %q", s)
	}
	return Address("0x" + strings.ToLower(s[2:])), nil
}

func (a Address) IsZero() bool {
	return a == "" || a == ZeroAddress
}

func (a Address) String() string {
	if a == "" {
		return string(ZeroAddress)
	}
	return string(a)
}
