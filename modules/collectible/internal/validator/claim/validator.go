package claimvalidator

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/collectible-ledger/common/errs"
	"github.com/gaze-network/collectible-ledger/modules/collectible/internal/validator"
	"github.com/gaze-network/uint128"
)

type ClaimValidator struct {
	validator.Validator
}

func New() *ClaimValidator {
	v := validator.New()
	return &ClaimValidator{
		Validator: *v,
	}
}

func (v *ClaimValidator) SupplyAvailable(issuedCount uint64, maxSupply uint64) bool {
	if !v.Valid {
		return false
	}
	if issuedCount >= maxSupply {
		return v.Reject(errors.Wrapf(errs.SupplyExhausted, "all %d items have been claimed", maxSupply))
	}
	return v.Valid
}

// ExactPayment requires payment to equal price. Both over and under payment are rejected.
func (v *ClaimValidator) ExactPayment(payment uint128.Uint128, price uint128.Uint128) bool {
	if !v.Valid {
		return false
	}
	if payment.Cmp(price) != 0 {
		return v.Reject(errors.Wrapf(errs.IncorrectPayment, "expected %s, got %s", price, payment))
	}
	return v.Valid
}
