package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/collectible-ledger/common"
	"github.com/gofiber/fiber/v2"
)

func (h *handler) offerHandler(ctx *fiber.Ctx) error {
	id, err := itemID(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	offer, err := h.book.OfferFor(ctx.UserContext(), id)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(ctx.JSON(common.NewHttpResponse(mapOffer(offer))))
}

type makeOfferRequest struct {
	Price string `json:"price" validate:"required,numeric"`
	// Buyer restricts the offer to one buyer. Empty lets anyone buy.
	Buyer string `json:"buyer" validate:"omitempty,eth_addr"`
}

func (h *handler) makeOfferHandler(ctx *fiber.Ctx) error {
	var req makeOfferRequest
	if err := h.bind(ctx, &req); err != nil {
		return errors.WithStack(err)
	}
	id, err := itemID(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	seller, err := caller(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	price, err := amount(req.Price, "price")
	if err != nil {
		return errors.WithStack(err)
	}
	buyer, err := optionalAddress(req.Buyer, "buyer")
	if err != nil {
		return errors.WithStack(err)
	}
	receipt, err := h.book.MakeOffer(ctx.UserContext(), seller, id, price, buyer)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(ctx.Status(fiber.StatusCreated).JSON(common.NewHttpResponse(mapReceipt(receipt))))
}

type buyRequest struct {
	Payment string `json:"payment" validate:"required,numeric"`
}

func (h *handler) buyHandler(ctx *fiber.Ctx) error {
	var req buyRequest
	if err := h.bind(ctx, &req); err != nil {
		return errors.WithStack(err)
	}
	id, err := itemID(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	buyer, err := caller(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	payment, err := amount(req.Payment, "payment")
	if err != nil {
		return errors.WithStack(err)
	}
	receipt, err := h.book.Buy(ctx.UserContext(), buyer, id, payment)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(ctx.JSON(common.NewHttpResponse(mapReceipt(receipt))))
}
