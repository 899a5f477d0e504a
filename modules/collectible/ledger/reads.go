package ledger

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/collectible-ledger/common/errs"
	"github.com/gaze-network/collectible-ledger/modules/collectible/datagateway"
	"github.com/gaze-network/collectible-ledger/modules/collectible/internal/entity"
	"github.com/gaze-network/uint128"
)

func (l *Ledger) Deployment(ctx context.Context) (*entity.Deployment, error) {
	return getDeployment(ctx, l.dg)
}

func (l *Ledger) Name(ctx context.Context) (string, error) {
	deployment, err := getDeployment(ctx, l.dg)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return deployment.Name, nil
}

func (l *Ledger) Symbol(ctx context.Context) (string, error) {
	deployment, err := getDeployment(ctx, l.dg)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return deployment.Symbol, nil
}

func (l *Ledger) ContractURI(ctx context.Context) (string, error) {
	deployment, err := getDeployment(ctx, l.dg)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return deployment.ContractURI, nil
}

// TotalSupply is the fixed size of the collection, not the number of claimed items.
func (l *Ledger) TotalSupply() uint64 {
	return MaxSupply
}

// TokenCount returns the number of claimed items.
func (l *Ledger) TokenCount(ctx context.Context) (uint64, error) {
	deployment, err := getDeployment(ctx, l.dg)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return deployment.IssuedCount, nil
}

// NextPrice returns the payment required by the next claim.
func (l *Ledger) NextPrice(ctx context.Context) (uint128.Uint128, error) {
	count, err := l.TokenCount(ctx)
	if err != nil {
		return uint128.Uint128{}, errors.WithStack(err)
	}
	if count >= MaxSupply {
		return uint128.Uint128{}, errors.WithStack(errs.SupplyExhausted)
	}
	return Price(count + 1)
}

func (l *Ledger) Item(ctx context.Context, id uint64) (*entity.Item, error) {
	if id == 0 || id > MaxSupply {
		return nil, errors.Wrapf(errs.NoSuchItem, "item %d is out of range", id)
	}
	item, err := l.dg.GetItem(ctx, id)
	if errors.Is(err, errs.NotFound) {
		return nil, errors.Wrapf(errs.NoSuchItem, "item %d", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get item")
	}
	return item, nil
}

func (l *Ledger) OwnerOf(ctx context.Context, id uint64) (entity.Address, error) {
	item, err := l.Item(ctx, id)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return item.Owner, nil
}

// GetApproved returns the approved delegate of item id, or the zero address.
func (l *Ledger) GetApproved(ctx context.Context, id uint64) (entity.Address, error) {
	item, err := l.Item(ctx, id)
	if err != nil {
		return "", errors.WithStack(err)
	}
	if item.Approved.IsZero() {
		return entity.ZeroAddress, nil
	}
	return item.Approved, nil
}

func (l *Ledger) TokenURI(ctx context.Context, id uint64) (string, error) {
	if _, err := l.Item(ctx, id); err != nil {
		return "", errors.WithStack(err)
	}
	deployment, err := getDeployment(ctx, l.dg)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return fmt.Sprintf("ipfs://%s/%d", deployment.CID, id), nil
}

// BalanceOf returns the number of items owned by owner. The zero address owns nothing and is rejected.
func (l *Ledger) BalanceOf(ctx context.Context, owner entity.Address) (uint64, error) {
	if owner.IsZero() {
		return 0, errors.Wrap(errs.InvalidArgument, "balance query for the zero address")
	}
	balance, err := l.dg.GetBalance(ctx, owner)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get balance")
	}
	return balance, nil
}

func (l *Ledger) IsApprovedForAll(ctx context.Context, owner, operator entity.Address) (bool, error) {
	ok, err := l.dg.IsOperator(ctx, owner, operator)
	if err != nil {
		return false, errors.Wrap(err, "failed to check operator")
	}
	return ok, nil
}

type EventsFilter struct {
	ItemID *uint64
	Limit  int32
	Offset int32
}

// Events lists the event log in ascending sequence order.
func (l *Ledger) Events(ctx context.Context, filter EventsFilter) ([]entity.Event, error) {
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, errors.Wrap(errs.InvalidArgument, "limit and offset must not be negative")
	}
	if filter.Limit == 0 {
		filter.Limit = DefaultEventsLimit
	}
	if filter.Limit > MaxEventsLimit {
		filter.Limit = MaxEventsLimit
	}
	events, err := l.dg.GetEvents(ctx, datagateway.GetEventsParams{
		ItemID: filter.ItemID,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get events")
	}
	return events, nil
}
