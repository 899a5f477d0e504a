package errorhandler

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/collectible-ledger/common/errs"
	"github.com/gaze-network/collectible-ledger/pkg/logger"
	"github.com/gaze-network/collectible-ledger/pkg/logger/slogx"
	"github.com/gofiber/fiber/v2"
)

type kindResponse struct {
	status int
	code   string
}

var kindResponses = map[errs.ErrorKind]kindResponse{
	errs.NotFound:            {http.StatusNotFound, "NOT_FOUND"},
	errs.InvalidArgument:     {http.StatusBadRequest, "INVALID_ARGUMENT"},
	errs.OverflowUint128:     {http.StatusBadRequest, "INVALID_ARGUMENT"},
	errs.Unsupported:         {http.StatusBadRequest, "UNSUPPORTED"},
	errs.Conflict:            {http.StatusConflict, "CONFLICT"},
	errs.SupplyExhausted:     {http.StatusConflict, "SUPPLY_EXHAUSTED"},
	errs.IncorrectPayment:    {http.StatusPaymentRequired, "INCORRECT_PAYMENT"},
	errs.InsufficientPayment: {http.StatusPaymentRequired, "INSUFFICIENT_PAYMENT"},
	errs.NotOwnerOrApproved:  {http.StatusForbidden, "NOT_OWNER_OR_APPROVED"},
	errs.UnauthorizedBuyer:   {http.StatusForbidden, "UNAUTHORIZED_BUYER"},
	errs.NotAdministrator:    {http.StatusForbidden, "NOT_ADMINISTRATOR"},
	errs.ItemNotForSale:      {http.StatusConflict, "ITEM_NOT_FOR_SALE"},
	errs.NoActiveOffer:       {http.StatusNotFound, "NO_ACTIVE_OFFER"},
	errs.NoSuchItem:          {http.StatusNotFound, "NO_SUCH_ITEM"},
}

// Code returns the stable error code reported to clients for the given kind.
func Code(kind errs.ErrorKind) string {
	if r, ok := kindResponses[kind]; ok {
		return r.code
	}
	return "INTERNAL"
}

func NewHTTPErrorHandler() func(ctx *fiber.Ctx, err error) error {
	return func(ctx *fiber.Ctx, err error) error {
		if e := new(errs.PublicError); errors.As(err, &e) {
			status, code := http.StatusBadRequest, e.Code()
			if kind, ok := errs.KindOf(err); ok {
				if r, ok := kindResponses[kind]; ok {
					status, code = r.status, r.code
				}
			}
			return errors.WithStack(ctx.Status(status).JSON(fiber.Map{
				"error": e.Message(),
				"code":  code,
			}))
		}
		if kind, ok := errs.KindOf(err); ok {
			if r, ok := kindResponses[kind]; ok {
				return errors.WithStack(ctx.Status(r.status).JSON(fiber.Map{
					"error": kind.Error(),
					"code":  r.code,
				}))
			}
		}
		if e := new(fiber.Error); errors.As(err, &e) {
			return errors.WithStack(ctx.Status(e.Code).JSON(fiber.Map{
				"error": e.Message,
			}))
		}

		logger.ErrorContext(ctx.UserContext(), "Something went wrong, unhandled api error", err,
			slogx.String("event", "api_unhandled_error"),
		)

		return errors.WithStack(ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal Server Error",
			"code":  "INTERNAL",
		}))
	}
}
