package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/collectible-ledger/common"
	"github.com/gaze-network/collectible-ledger/common/errs"
	"github.com/gofiber/fiber/v2"
)

type itemResponse struct {
	ID         uint64         `json:"id"`
	Owner      string         `json:"owner"`
	Approved   string         `json:"approved"`
	TokenURI   string         `json:"tokenUri"`
	ClaimPrice string         `json:"claimPrice"`
	Offer      *offerResponse `json:"offer"`
}

func (h *handler) itemHandler(ctx *fiber.Ctx) error {
	id, err := itemID(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	item, err := h.ledger.Item(ctx.UserContext(), id)
	if err != nil {
		return errors.WithStack(err)
	}
	tokenURI, err := h.ledger.TokenURI(ctx.UserContext(), id)
	if err != nil {
		return errors.WithStack(err)
	}
	offer, err := h.book.OfferFor(ctx.UserContext(), id)
	if err != nil && !errors.Is(err, errs.NoActiveOffer) {
		return errors.WithStack(err)
	}
	return errors.WithStack(ctx.JSON(common.NewHttpResponse(itemResponse{
		ID:         item.ID,
		Owner:      item.Owner.String(),
		Approved:   item.Approved.String(),
		TokenURI:   tokenURI,
		ClaimPrice: formatAmount(item.ClaimPrice),
		Offer:      mapOffer(offer),
	})))
}

type balanceResponse struct {
	Address string `json:"address"`
	Balance uint64 `json:"balance"`
}

func (h *handler) balanceHandler(ctx *fiber.Ctx) error {
	owner, err := address(ctx.Params("address"), "address")
	if err != nil {
		return errors.WithStack(err)
	}
	balance, err := h.ledger.BalanceOf(ctx.UserContext(), owner)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(ctx.JSON(common.NewHttpResponse(balanceResponse{
		Address: owner.String(),
		Balance: balance,
	})))
}

type operatorResponse struct {
	Owner    string `json:"owner"`
	Operator string `json:"operator"`
	Approved bool   `json:"approved"`
}

func (h *handler) operatorHandler(ctx *fiber.Ctx) error {
	owner, err := address(ctx.Params("owner"), "owner")
	if err != nil {
		return errors.WithStack(err)
	}
	operator, err := address(ctx.Params("operator"), "operator")
	if err != nil {
		return errors.WithStack(err)
	}
	approved, err := h.ledger.IsApprovedForAll(ctx.UserContext(), owner, operator)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(ctx.JSON(common.NewHttpResponse(operatorResponse{
		Owner:    owner.String(),
		Operator: operator.String(),
		Approved: approved,
	})))
}

type claimRequest struct {
	Payment string `json:"payment" validate:"required,numeric"`
}

func (h *handler) claimHandler(ctx *fiber.Ctx) error {
	var req claimRequest
	if err := h.bind(ctx, &req); err != nil {
		return errors.WithStack(err)
	}
	from, err := caller(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	payment, err := amount(req.Payment, "payment")
	if err != nil {
		return errors.WithStack(err)
	}
	receipt, err := h.ledger.Claim(ctx.UserContext(), from, payment)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(ctx.Status(fiber.StatusCreated).JSON(common.NewHttpResponse(mapReceipt(receipt))))
}

type transferRequest struct {
	From string `json:"from" validate:"required,eth_addr"`
	To   string `json:"to" validate:"required,eth_addr"`
}

func (h *handler) transferHandler(ctx *fiber.Ctx) error {
	var req transferRequest
	if err := h.bind(ctx, &req); err != nil {
		return errors.WithStack(err)
	}
	id, err := itemID(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	sender, err := caller(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	from, err := address(req.From, "from")
	if err != nil {
		return errors.WithStack(err)
	}
	to, err := address(req.To, "to")
	if err != nil {
		return errors.WithStack(err)
	}
	receipt, err := h.ledger.Transfer(ctx.UserContext(), sender, from, to, id)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(ctx.JSON(common.NewHttpResponse(mapReceipt(receipt))))
}

type approveRequest struct {
	// To is the new approved delegate. Empty or the zero address clears the approval.
	To string `json:"to" validate:"omitempty,eth_addr"`
}

func (h *handler) approveHandler(ctx *fiber.Ctx) error {
	var req approveRequest
	if err := h.bind(ctx, &req); err != nil {
		return errors.WithStack(err)
	}
	id, err := itemID(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	sender, err := caller(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	to, err := optionalAddress(req.To, "to")
	if err != nil {
		return errors.WithStack(err)
	}
	receipt, err := h.ledger.Approve(ctx.UserContext(), sender, to, id)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(ctx.JSON(common.NewHttpResponse(mapReceipt(receipt))))
}

type setOperatorRequest struct {
	Operator string `json:"operator" validate:"required,eth_addr"`
	Approved bool   `json:"approved"`
}

func (h *handler) setOperatorHandler(ctx *fiber.Ctx) error {
	var req setOperatorRequest
	if err := h.bind(ctx, &req); err != nil {
		return errors.WithStack(err)
	}
	owner, err := caller(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	operator, err := address(req.Operator, "operator")
	if err != nil {
		return errors.WithStack(err)
	}
	receipt, err := h.ledger.SetApprovalForAll(ctx.UserContext(), owner, operator, req.Approved)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(ctx.JSON(common.NewHttpResponse(mapReceipt(receipt))))
}

