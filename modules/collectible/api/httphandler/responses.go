package httphandler

import (
	"github.com/gaze-network/collectible-ledger/modules/collectible/internal/entity"
	"github.com/gaze-network/collectible-ledger/modules/collectible/ledger"
	"github.com/gaze-network/collectible-ledger/pkg/decimals"
	"github.com/gaze-network/uint128"
	"github.com/samber/lo"
)

type offerResponse struct {
	ItemID uint64  `json:"itemId"`
	Seller string  `json:"seller"`
	Price  string  `json:"price"`
	Buyer  *string `json:"buyer"`
}

type receiptResponse struct {
	ItemID uint64                `json:"itemId,omitempty"`
	Events []ledger.EventMessage `json:"events"`
}

func formatAmount(amount uint128.Uint128) string {
	return decimals.FormatAmount(amount, ledger.NativeDecimals)
}

func mapOffer(offer *entity.Offer) *offerResponse {
	if offer == nil {
		return nil
	}
	resp := &offerResponse{
		ItemID: offer.ItemID,
		Seller: offer.Seller.String(),
		Price:  formatAmount(offer.Price),
	}
	if offer.IsDesignated() {
		resp.Buyer = lo.ToPtr(offer.Buyer.String())
	}
	return resp
}

func mapReceipt(receipt *ledger.Receipt) receiptResponse {
	return receiptResponse{
		ItemID: receipt.ItemID,
		Events: lo.Map(receipt.Events, func(event entity.Event, _ int) ledger.EventMessage {
			return ledger.NewEventMessage(event)
		}),
	}
}
