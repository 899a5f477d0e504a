package entity

import (
	"time"

	"github.com/gaze-network/uint128"
)

type EventKind string

const (
	EventKindTransfer           EventKind = "transfer"
	EventKindOfferCreated       EventKind = "offer_created"
	EventKindSale               EventKind = "sale"
	EventKindApproval           EventKind = "approval"
	EventKindApprovalForAll     EventKind = "approval_for_all"
	EventKindContractURIUpdated EventKind = "contract_uri_updated"
)

// Event is an entry of the append-only event log.
//
//   - transfer: From, To, ItemID (From is zero on claim)
//   - offer_created: ItemID, Price, To (designated buyer, zero for anyone)
//   - sale: ItemID, From (seller), To (buyer), Price (amount actually paid)
//   - approval: From (owner), To (approved), ItemID
//   - approval_for_all: From (owner), To (operator), Approved
//   - contract_uri_updated: URI
type Event struct {
	Sequence  uint64
	Kind      EventKind
	ItemID    uint64
	From      Address
	To        Address
	Price     uint128.Uint128
	Approved  bool
	URI       string
	CreatedAt time.Time
}
