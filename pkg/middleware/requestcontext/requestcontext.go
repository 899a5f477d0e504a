package requestcontext

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/collectible-ledger/pkg/logger"
	"github.com/gofiber/fiber/v2"
)

type Response struct {
	Error string `json:"error,omitempty"`
}

// Option extracts one piece of request information into the request context.
type Option func(ctx context.Context, c *fiber.Ctx) (context.Context, error)

type requestcontextError struct {
	status  int
	message string
}

func (r requestcontextError) Error() string {
	return r.message
}

// NewError returns an error that aborts the request with the given status.
func NewError(status int, message string) error {
	return requestcontextError{status: status, message: message}
}

func New(opts ...Option) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var err error
		ctx := c.UserContext()
		for i, opt := range opts {
			ctx, err = opt(ctx, c)
			if err != nil {
				rErr := requestcontextError{}
				if errors.As(err, &rErr) {
					return c.Status(rErr.status).JSON(Response{Error: rErr.message})
				}

				logger.ErrorContext(ctx, "failed to extract request context",
					err,
					slog.String("event", "requestcontext/error"),
					slog.Int("optionIndex", i),
				)
				return c.Status(http.StatusInternalServerError).JSON(Response{Error: "internal server error"})
			}
		}
		c.SetUserContext(ctx)
		return c.Next()
	}
}
