package httphandler

import (
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/collectible-ledger/common"
	"github.com/gaze-network/collectible-ledger/modules/collectible/ledger"
	"github.com/gofiber/fiber/v2"
)

type infoResponse struct {
	Name          string  `json:"name"`
	Symbol        string  `json:"symbol"`
	Administrator string  `json:"administrator"`
	ContractURI   string  `json:"contractUri"`
	TotalSupply   uint64  `json:"totalSupply"`
	TokenCount    uint64  `json:"tokenCount"`
	NextPrice     *string `json:"nextPrice"` // null once every item is claimed
}

func (h *handler) infoHandler(ctx *fiber.Ctx) error {
	deployment, err := h.ledger.Deployment(ctx.UserContext())
	if err != nil {
		return errors.WithStack(err)
	}
	resp := infoResponse{
		Name:          deployment.Name,
		Symbol:        deployment.Symbol,
		Administrator: deployment.Administrator.String(),
		ContractURI:   deployment.ContractURI,
		TotalSupply:   h.ledger.TotalSupply(),
		TokenCount:    deployment.IssuedCount,
	}
	if deployment.IssuedCount < ledger.MaxSupply {
		price, err := ledger.Price(deployment.IssuedCount + 1)
		if err != nil {
			return errors.WithStack(err)
		}
		next := formatAmount(price)
		resp.NextPrice = &next
	}
	return errors.WithStack(ctx.JSON(common.NewHttpResponse(resp)))
}

type supportsInterfaceResponse struct {
	Selector  string `json:"selector"`
	Supported bool   `json:"supported"`
}

func (h *handler) supportsInterfaceHandler(ctx *fiber.Ctx) error {
	id, err := selector(ctx.Params("selector"))
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(ctx.JSON(common.NewHttpResponse(supportsInterfaceResponse{
		Selector:  "0x" + leftPad(strconv.FormatUint(uint64(id), 16), 8),
		Supported: ledger.SupportsInterface(id),
	})))
}

type priceResponse struct {
	ID    uint64 `json:"id"`
	Price string `json:"price"`
}

func (h *handler) priceHandler(ctx *fiber.Ctx) error {
	id, err := itemID(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	price, err := ledger.Price(id)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(ctx.JSON(common.NewHttpResponse(priceResponse{
		ID:    id,
		Price: formatAmount(price),
	})))
}

func leftPad(s string, n int) string {
	for len(s) < n {
		s = "0" + s
	}
	return s
}
