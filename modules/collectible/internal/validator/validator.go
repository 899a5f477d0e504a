package validator

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/collectible-ledger/common/errs"
	"github.com/gaze-network/collectible-ledger/modules/collectible/datagateway"
	"github.com/gaze-network/collectible-ledger/modules/collectible/internal/entity"
	"github.com/samber/lo"
)

// Validator runs a chain of checks. Once a check fails the following ones are skipped
// and Err holds the reason. Errors returned by the check methods are datastore failures,
// not rejections.
type Validator struct {
	Valid bool
	Err   error
}

func New() *Validator {
	return &Validator{
		Valid: true,
	}
}

// Reject marks the validator as failed with reason.
func (v *Validator) Reject(reason error) bool {
	v.Valid = false
	v.Err = reason
	return v.Valid
}

// Authorized passes only when caller is one of allowed. It is the single access check
// shared by item, offer and administrative operations.
func (v *Validator) Authorized(caller entity.Address, kind errs.ErrorKind, allowed ...entity.Address) bool {
	if !v.Valid {
		return false
	}
	if caller.IsZero() || !lo.Contains(allowed, caller) {
		return v.Reject(errors.Wrapf(kind, "caller %s", caller))
	}
	return v.Valid
}

// NotZeroAddress rejects the zero identity for the named argument.
func (v *Validator) NotZeroAddress(address entity.Address, name string) bool {
	if !v.Valid {
		return false
	}
	if address.IsZero() {
		return v.Reject(errors.Wrapf(errs.InvalidArgument, "%s must not be the zero address", name))
	}
	return v.Valid
}

// ItemExists loads the item, rejecting ids outside [1, maxSupply] and unclaimed ids with NoSuchItem.
func (v *Validator) ItemExists(ctx context.Context, qtx datagateway.CollectibleReaderDataGateway, id uint64, maxSupply uint64) (bool, *entity.Item, error) {
	if !v.Valid {
		return false, nil, nil
	}
	if id == 0 || id > maxSupply {
		return v.Reject(errors.Wrapf(errs.NoSuchItem, "item %d is out of range", id)), nil, nil
	}
	item, err := qtx.GetItem(ctx, id)
	if errors.Is(err, errs.NotFound) {
		return v.Reject(errors.Wrapf(errs.NoSuchItem, "item %d", id)), nil, nil
	}
	if err != nil {
		v.Valid = false
		return v.Valid, nil, errors.Wrap(err, "failed to get item")
	}
	return v.Valid, item, nil
}

// OwnerOrApproved passes when caller owns item, is its approved delegate, or is an operator of the owner.
func (v *Validator) OwnerOrApproved(ctx context.Context, qtx datagateway.CollectibleReaderDataGateway, caller entity.Address, item *entity.Item) (bool, error) {
	if !v.Valid {
		return false, nil
	}
	if caller == item.Owner || (!item.Approved.IsZero() && caller == item.Approved) {
		return v.Valid, nil
	}
	return v.OwnerOrOperator(ctx, qtx, caller, item)
}

// OwnerOrOperator passes when caller owns item or is an operator of the owner.
func (v *Validator) OwnerOrOperator(ctx context.Context, qtx datagateway.CollectibleReaderDataGateway, caller entity.Address, item *entity.Item) (bool, error) {
	if !v.Valid {
		return false, nil
	}
	allowed := []entity.Address{item.Owner}
	if caller != item.Owner && !caller.IsZero() {
		isOperator, err := qtx.IsOperator(ctx, item.Owner, caller)
		if err != nil {
			v.Valid = false
			return v.Valid, errors.Wrap(err, "failed to check operator")
		}
		if isOperator {
			allowed = append(allowed, caller)
		}
	}
	return v.Authorized(caller, errs.NotOwnerOrApproved, allowed...), nil
}
