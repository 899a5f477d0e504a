package httphandler

import (
	"github.com/gofiber/fiber/v2"
)

func (h *handler) Mount(router fiber.Router) error {
	r := router.Group("/collectible/v1")

	r.Get("/info", h.infoHandler)
	r.Get("/interfaces/:selector", h.supportsInterfaceHandler)
	r.Get("/prices/:id", h.priceHandler)
	r.Get("/events", h.eventsHandler)

	r.Get("/items/:id", h.itemHandler)
	r.Get("/items/:id/offer", h.offerHandler)
	r.Get("/balances/:address", h.balanceHandler)
	r.Get("/operators/:owner/:operator", h.operatorHandler)

	r.Post("/claim", h.claimHandler)
	r.Post("/items/:id/transfer", h.transferHandler)
	r.Post("/items/:id/approve", h.approveHandler)
	r.Post("/operators", h.setOperatorHandler)
	r.Post("/items/:id/offer", h.makeOfferHandler)
	r.Post("/items/:id/buy", h.buyHandler)
	r.Put("/contract-uri", h.setContractURIHandler)

	return nil
}
