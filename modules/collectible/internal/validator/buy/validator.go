package buyvalidator

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/collectible-ledger/common/errs"
	"github.com/gaze-network/collectible-ledger/modules/collectible/datagateway"
	"github.com/gaze-network/collectible-ledger/modules/collectible/internal/entity"
	"github.com/gaze-network/collectible-ledger/modules/collectible/internal/validator"
	"github.com/gaze-network/uint128"
)

type BuyValidator struct {
	validator.Validator
}

func New() *BuyValidator {
	v := validator.New()
	return &BuyValidator{
		Validator: *v,
	}
}

// OfferActive loads the item and its offer. An offer made by a previous owner is not active.
func (v *BuyValidator) OfferActive(ctx context.Context, qtx datagateway.CollectibleReaderDataGateway, id uint64, maxSupply uint64) (bool, *entity.Item, *entity.Offer, error) {
	if !v.Valid {
		return false, nil, nil, nil
	}
	if id == 0 || id > maxSupply {
		return v.Reject(errors.Wrapf(errs.ItemNotForSale, "item %d", id)), nil, nil, nil
	}
	item, err := qtx.GetItem(ctx, id)
	if errors.Is(err, errs.NotFound) {
		return v.Reject(errors.Wrapf(errs.ItemNotForSale, "item %d", id)), nil, nil, nil
	}
	if err != nil {
		v.Valid = false
		return v.Valid, nil, nil, errors.Wrap(err, "failed to get item")
	}
	offer, err := qtx.GetOffer(ctx, id)
	if errors.Is(err, errs.NotFound) {
		return v.Reject(errors.Wrapf(errs.ItemNotForSale, "item %d", id)), nil, nil, nil
	}
	if err != nil {
		v.Valid = false
		return v.Valid, nil, nil, errors.Wrap(err, "failed to get offer")
	}
	if offer.Seller != item.Owner {
		return v.Reject(errors.Wrapf(errs.ItemNotForSale, "item %d", id)), nil, nil, nil
	}
	return v.Valid, item, offer, nil
}

// SufficientPayment accepts any payment at or above the asking price.
func (v *BuyValidator) SufficientPayment(payment uint128.Uint128, offer *entity.Offer) bool {
	if !v.Valid {
		return false
	}
	if payment.Cmp(offer.Price) < 0 {
		return v.Reject(errors.Wrapf(errs.InsufficientPayment, "asking %s, got %s", offer.Price, payment))
	}
	return v.Valid
}

func (v *BuyValidator) DesignatedBuyer(caller entity.Address, offer *entity.Offer) bool {
	if !v.Valid {
		return false
	}
	if !offer.IsDesignated() {
		return v.Valid
	}
	return v.Authorized(caller, errs.UnauthorizedBuyer, offer.Buyer)
}
