package httphandler

import (
	"github.com/gaze-network/collectible-ledger/modules/collectible/ledger"
	"github.com/go-playground/validator/v10"
)

type handler struct {
	ledger   *ledger.Ledger
	book     *ledger.OfferBook
	validate *validator.Validate
}

func New(l *ledger.Ledger, book *ledger.OfferBook) *handler {
	return &handler{
		ledger:   l,
		book:     book,
		validate: newValidate(),
	}
}
