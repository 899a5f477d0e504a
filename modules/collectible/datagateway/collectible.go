package datagateway

import (
	"context"

	"github.com/gaze-network/collectible-ledger/modules/collectible/internal/entity"
)

type CollectibleDataGateway interface {
	CollectibleReaderDataGateway
	CollectibleWriterDataGateway

	// BeginCollectibleTx returns a new CollectibleDataGateway with transaction enabled. All write operations performed in this datagateway must be committed to persist changes.
	BeginCollectibleTx(ctx context.Context) (CollectibleDataGatewayWithTx, error)
}

type CollectibleDataGatewayWithTx interface {
	CollectibleDataGateway
	Tx
}

type CollectibleReaderDataGateway interface {
	// GetDeployment returns errs.NotFound before the ledger is deployed.
	GetDeployment(ctx context.Context) (*entity.Deployment, error)
	// GetItem returns errs.NotFound if the item has never been claimed.
	GetItem(ctx context.Context, id uint64) (*entity.Item, error)
	GetBalance(ctx context.Context, owner entity.Address) (uint64, error)
	// GetOffer returns errs.NotFound if there is no offer for the item.
	GetOffer(ctx context.Context, itemID uint64) (*entity.Offer, error)
	IsOperator(ctx context.Context, owner entity.Address, operator entity.Address) (bool, error)
	// GetEvents returns persisted events in ascending sequence order.
	GetEvents(ctx context.Context, arg GetEventsParams) ([]entity.Event, error)
}

type CollectibleWriterDataGateway interface {
	CreateDeployment(ctx context.Context, deployment entity.Deployment) error
	UpdateDeployment(ctx context.Context, deployment entity.Deployment) error
	CreateItem(ctx context.Context, item entity.Item) error
	UpdateItem(ctx context.Context, item entity.Item) error
	SetOffer(ctx context.Context, offer entity.Offer) error
	DeleteOffer(ctx context.Context, itemID uint64) error
	SetOperator(ctx context.Context, arg SetOperatorParams) error
	// CreateEvents appends events to the log and returns them with their sequence numbers.
	CreateEvents(ctx context.Context, events []entity.Event) ([]entity.Event, error)
}

type GetEventsParams struct {
	ItemID *uint64
	Limit  int32
	Offset int32
}

type SetOperatorParams struct {
	Owner    entity.Address
	Operator entity.Address
	Approved bool
}
