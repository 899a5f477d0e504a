package entity

import (
	"time"

	"github.com/gaze-network/uint128"
)

type Deployment struct {
	Administrator Address
	Name          string
	Symbol        string
	CID           string
	ContractURI   string
	IssuedCount   uint64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Item struct {
	ID         uint64
	Owner      Address
	Approved   Address // zero when nobody is approved
	ClaimPrice uint128.Uint128
	ClaimedAt  time.Time
	UpdatedAt  time.Time
}

type Offer struct {
	ItemID uint64
	// Seller is the owner at the time the offer was made.
	Seller    Address
	Price     uint128.Uint128
	Buyer     Address // zero means any buyer
	CreatedAt time.Time
}

func (o Offer) IsDesignated() bool {
	return !o.Buyer.IsZero()
}
