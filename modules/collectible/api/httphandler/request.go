package httphandler

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/collectible-ledger/common/errs"
	"github.com/gaze-network/collectible-ledger/modules/collectible/internal/entity"
	"github.com/gaze-network/collectible-ledger/modules/collectible/ledger"
	"github.com/gaze-network/collectible-ledger/pkg/decimals"
	"github.com/gaze-network/collectible-ledger/pkg/middleware/requestcontext"
	"github.com/gaze-network/uint128"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

func newValidate() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return validate
}

func invalidArgument(format string, args ...any) error {
	return errs.WithPublicMessage(errors.Wrapf(errs.InvalidArgument, format, args...), "")
}

// bind decodes the JSON body into req and validates it.
func (h *handler) bind(ctx *fiber.Ctx, req any) error {
	if err := ctx.BodyParser(req); err != nil {
		return invalidArgument("cannot parse request body")
	}
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return invalidArgument("field %q failed on %q", verrs[0].Field(), verrs[0].Tag())
		}
		return invalidArgument("invalid request")
	}
	return nil
}

// caller returns the validated calling identity of the request.
func caller(ctx *fiber.Ctx) (entity.Address, error) {
	raw := requestcontext.GetCaller(ctx.UserContext())
	if raw == "" {
		return "", invalidArgument("missing caller")
	}
	address, err := entity.NewAddress(raw)
	if err != nil {
		return "", invalidArgument("malformed caller %q", raw)
	}
	return address, nil
}

func address(raw string, name string) (entity.Address, error) {
	address, err := entity.NewAddress(raw)
	if err != nil {
		return "", invalidArgument("malformed %s %q", name, raw)
	}
	return address, nil
}

// optionalAddress returns the zero address for an empty value.
func optionalAddress(raw string, name string) (entity.Address, error) {
	if raw == "" {
		return entity.ZeroAddress, nil
	}
	return address(raw, name)
}

func itemID(ctx *fiber.Ctx) (uint64, error) {
	raw := ctx.Params("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, invalidArgument("malformed item id %q", raw)
	}
	return id, nil
}

func amount(raw string, name string) (uint128.Uint128, error) {
	value, err := decimals.ParseAmount(raw, ledger.NativeDecimals)
	if err != nil {
		return uint128.Uint128{}, invalidArgument("malformed %s %q", name, raw)
	}
	return value, nil
}

// selector parses a 4-byte interface id with or without the 0x prefix.
func selector(raw string) (uint32, error) {
	s := strings.TrimPrefix(strings.ToLower(raw), "0x")
	if len(s) != 8 {
		return 0, invalidArgument("malformed selector %q", raw)
	}
	value, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, invalidArgument("malformed selector %q", raw)
	}
	return uint32(value), nil
}
