package ledger

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/collectible-ledger/common/errs"
	"github.com/gaze-network/collectible-ledger/modules/collectible/datagateway"
	"github.com/gaze-network/collectible-ledger/modules/collectible/internal/entity"
	"github.com/gaze-network/collectible-ledger/modules/collectible/internal/validator"
	buyvalidator "github.com/gaze-network/collectible-ledger/modules/collectible/internal/validator/buy"
	"github.com/gaze-network/uint128"
)

// OfferBook lists issued items for sale and settles purchases through the ledger's transfer path.
type OfferBook struct {
	ledger *Ledger
}

func NewOfferBook(ledger *Ledger) *OfferBook {
	return &OfferBook{ledger: ledger}
}

// MakeOffer lists item id at price, replacing any previous offer. A zero buyer lets anyone buy.
func (b *OfferBook) MakeOffer(ctx context.Context, caller entity.Address, id uint64, price uint128.Uint128, buyer entity.Address) (*Receipt, error) {
	return b.ledger.execute(ctx, "make_offer", func(ctx context.Context, qtx datagateway.CollectibleDataGatewayWithTx) (*Receipt, error) {
		v := validator.New()
		_, item, err := v.ItemExists(ctx, qtx, id, MaxSupply)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if v.Valid {
			if _, err := v.OwnerOrApproved(ctx, qtx, caller, item); err != nil {
				return nil, errors.WithStack(err)
			}
		}
		if !v.Valid {
			return nil, v.Err
		}

		if buyer.IsZero() {
			buyer = entity.ZeroAddress
		}
		if err := qtx.SetOffer(ctx, entity.Offer{
			ItemID: id,
			Seller: item.Owner,
			Price:  price,
			Buyer:  buyer,
		}); err != nil {
			return nil, errors.Wrap(err, "failed to set offer")
		}
		return &Receipt{
			ItemID: id,
			Events: []entity.Event{{Kind: entity.EventKindOfferCreated, ItemID: id, From: item.Owner, To: buyer, Price: price}},
		}, nil
	})
}

// OfferFor returns the active offer on item id.
func (b *OfferBook) OfferFor(ctx context.Context, id uint64) (*entity.Offer, error) {
	v := buyvalidator.New()
	_, _, offer, err := v.OfferActive(ctx, b.ledger.dg, id, MaxSupply)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if !v.Valid {
		return nil, errors.Wrapf(errs.NoActiveOffer, "item %d", id)
	}
	return offer, nil
}

// Buy settles the active offer on item id: ownership moves to caller and the offer is consumed.
// Any amount above the asking price is kept by the seller.
func (b *OfferBook) Buy(ctx context.Context, caller entity.Address, id uint64, payment uint128.Uint128) (*Receipt, error) {
	return b.ledger.execute(ctx, "buy", func(ctx context.Context, qtx datagateway.CollectibleDataGatewayWithTx) (*Receipt, error) {
		v := buyvalidator.New()
		_, item, offer, err := v.OfferActive(ctx, qtx, id, MaxSupply)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if v.Valid {
			v.SufficientPayment(payment, offer)
			v.DesignatedBuyer(caller, offer)
		}
		v.NotZeroAddress(caller, "caller")
		if !v.Valid {
			return nil, v.Err
		}

		seller := item.Owner
		events, err := transfer(ctx, qtx, item, caller)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		events = append(events, entity.Event{
			Kind:   entity.EventKindSale,
			ItemID: id,
			From:   seller,
			To:     caller,
			Price:  payment,
		})
		return &Receipt{ItemID: id, Events: events}, nil
	})
}
