package ledger

import (
	"time"

	"github.com/gaze-network/collectible-ledger/modules/collectible/internal/entity"
	"github.com/gaze-network/collectible-ledger/pkg/decimals"
)

// EventMessage is the published form of an event. Amounts are whole native units.
type EventMessage struct {
	Sequence  uint64    `json:"sequence"`
	Kind      string    `json:"kind"`
	ItemID    uint64    `json:"itemId,omitempty"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to,omitempty"`
	Price     string    `json:"price,omitempty"`
	Approved  *bool     `json:"approved,omitempty"`
	URI       string    `json:"uri,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewEventMessage(event entity.Event) EventMessage {
	msg := EventMessage{
		Sequence:  event.Sequence,
		Kind:      string(event.Kind),
		ItemID:    event.ItemID,
		URI:       event.URI,
		CreatedAt: event.CreatedAt,
	}
	switch event.Kind {
	case entity.EventKindTransfer, entity.EventKindApproval, entity.EventKindSale, entity.EventKindOfferCreated:
		msg.From = event.From.String()
		msg.To = event.To.String()
	case entity.EventKindApprovalForAll:
		msg.From = event.From.String()
		msg.To = event.To.String()
		approved := event.Approved
		msg.Approved = &approved
	}
	if event.Kind == entity.EventKindSale || event.Kind == entity.EventKindOfferCreated {
		msg.Price = decimals.FormatAmount(event.Price, NativeDecimals)
	}
	return msg
}
