package requestcontext

import (
	"context"
	"net/http"
	"strings"

	"github.com/gaze-network/collectible-ledger/pkg/logger"
	"github.com/gofiber/fiber/v2"
)

// DefaultCallerHeader carries the calling identity of a request.
const DefaultCallerHeader = "X-Caller"

type callerKey struct{}

// GetCaller returns the raw calling identity of the request, or empty string if the request is anonymous.
//
// Warning: Request context should be setup before using this function
func GetCaller(ctx context.Context) string {
	if caller, ok := ctx.Value(callerKey{}).(string); ok {
		return caller
	}
	return ""
}

// WithCaller reads the calling identity from the given header (DefaultCallerHeader if empty).
// Identity validation is left to the handlers that require one.
func WithCaller(header string) Option {
	if header == "" {
		header = DefaultCallerHeader
	}
	return func(ctx context.Context, c *fiber.Ctx) (context.Context, error) {
		caller := strings.TrimSpace(c.Get(header))
		if caller == "" {
			return ctx, nil
		}
		if len(caller) > 256 {
			return ctx, NewError(http.StatusBadRequest, "caller header too long")
		}
		ctx = context.WithValue(ctx, callerKey{}, caller)
		ctx = logger.WithContext(ctx, "caller", caller)
		return ctx, nil
	}
}
