package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/collectible-ledger/common"
	"github.com/gaze-network/collectible-ledger/modules/collectible/internal/entity"
	"github.com/gaze-network/collectible-ledger/modules/collectible/ledger"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

type eventsRequest struct {
	ItemID uint64 `query:"itemId"`
	Limit  int32  `query:"limit" validate:"gte=0,lte=1000"`
	Offset int32  `query:"offset" validate:"gte=0"`
}

func (h *handler) eventsHandler(ctx *fiber.Ctx) error {
	var req eventsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return invalidArgument("cannot parse query")
	}
	if err := h.validate.Struct(req); err != nil {
		return invalidArgument("limit must be in [0, %d] and offset must not be negative", ledger.MaxEventsLimit)
	}

	filter := ledger.EventsFilter{
		Limit:  req.Limit,
		Offset: req.Offset,
	}
	if req.ItemID != 0 {
		filter.ItemID = &req.ItemID
	}
	events, err := h.ledger.Events(ctx.UserContext(), filter)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(ctx.JSON(common.NewHttpResponse(lo.Map(events, func(event entity.Event, _ int) ledger.EventMessage {
		return ledger.NewEventMessage(event)
	}))))
}
