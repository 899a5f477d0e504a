package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/collectible-ledger/common"
	"github.com/gofiber/fiber/v2"
)

type setContractURIRequest struct {
	URI string `json:"uri" validate:"required,max=2048"`
}

func (h *handler) setContractURIHandler(ctx *fiber.Ctx) error {
	var req setContractURIRequest
	if err := h.bind(ctx, &req); err != nil {
		return errors.WithStack(err)
	}
	sender, err := caller(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	receipt, err := h.ledger.SetContractURI(ctx.UserContext(), sender, req.URI)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(ctx.JSON(common.NewHttpResponse(mapReceipt(receipt))))
}
