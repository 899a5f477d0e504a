// Package memory is a process-local CollectibleDataGateway.
// Writes made inside a transaction are buffered in a staging shard and only
// applied to the committed state on Commit.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/collectible-ledger/common/errs"
	"github.com/gaze-network/collectible-ledger/modules/collectible/datagateway"
	"github.com/gaze-network/collectible-ledger/modules/collectible/internal/entity"
)

var _ datagateway.CollectibleDataGatewayWithTx = (*Repository)(nil)

type operatorKey struct {
	owner    entity.Address
	operator entity.Address
}

type state struct {
	deployment *entity.Deployment
	items      map[uint64]entity.Item
	balances   map[entity.Address]uint64
	offers     map[uint64]entity.Offer
	operators  map[operatorKey]struct{}
	events     []entity.Event
}

type Repository struct {
	mu        *sync.RWMutex
	committed *state
	shard     *stagingShard
	now       func() time.Time
}

func NewRepository() *Repository {
	return &Repository{
		mu: &sync.RWMutex{},
		committed: &state{
			items:     make(map[uint64]entity.Item),
			balances:  make(map[entity.Address]uint64),
			offers:    make(map[uint64]entity.Offer),
			operators: make(map[operatorKey]struct{}),
		},
		now: time.Now,
	}
}

func (r *Repository) GetDeployment(ctx context.Context) (*entity.Deployment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	deployment, ok := r.deployment()
	if !ok {
		return nil, errors.Wrap(errs.NotFound, "deployment not found")
	}
	return &deployment, nil
}

func (r *Repository) GetItem(ctx context.Context, id uint64) (*entity.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.item(id)
	if !ok {
		return nil, errors.Wrapf(errs.NotFound, "item %d not found", id)
	}
	return &item, nil
}

func (r *Repository) GetBalance(ctx context.Context, owner entity.Address) (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	balance := int64(r.committed.balances[owner])
	if r.shard != nil {
		balance += r.shard.balanceDeltas[owner]
	}
	if balance < 0 {
		return 0, errors.Wrapf(errs.SomethingWentWrong, "negative balance for %s", owner)
	}
	return uint64(balance), nil
}

func (r *Repository) GetOffer(ctx context.Context, itemID uint64) (*entity.Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.shard != nil {
		if _, ok := r.shard.toDeleteOffers[itemID]; ok {
			return nil, errors.Wrapf(errs.NotFound, "offer for item %d not found", itemID)
		}
		if offer, ok := r.shard.toSetOffers[itemID]; ok {
			return &offer, nil
		}
	}
	offer, ok := r.committed.offers[itemID]
	if !ok {
		return nil, errors.Wrapf(errs.NotFound, "offer for item %d not found", itemID)
	}
	return &offer, nil
}

func (r *Repository) IsOperator(ctx context.Context, owner entity.Address, operator entity.Address) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := operatorKey{owner: owner, operator: operator}
	if r.shard != nil {
		if approved, ok := r.shard.toSetOperators[key]; ok {
			return approved, nil
		}
	}
	_, ok := r.committed.operators[key]
	return ok, nil
}

func (r *Repository) GetEvents(ctx context.Context, arg datagateway.GetEventsParams) ([]entity.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.committed.events
	if r.shard != nil && len(r.shard.toAddEvents) > 0 {
		all = append(append(make([]entity.Event, 0, len(all)+len(r.shard.toAddEvents)), all...), r.shard.toAddEvents...)
	}

	var (
		result  = make([]entity.Event, 0)
		skipped int32
	)
	for _, event := range all {
		if arg.ItemID != nil && event.ItemID != *arg.ItemID {
			continue
		}
		if skipped < arg.Offset {
			skipped++
			continue
		}
		if arg.Limit > 0 && int32(len(result)) >= arg.Limit {
			break
		}
		result = append(result, event)
	}
	return result, nil
}

func (r *Repository) CreateDeployment(ctx context.Context, deployment entity.Deployment) error {
	return r.write(ctx, func(tx *Repository) error {
		if _, ok := tx.deployment(); ok {
			return errors.Wrap(errs.Conflict, "deployment already exists")
		}
		now := tx.now()
		deployment.CreatedAt, deployment.UpdatedAt = now, now
		tx.shard.deployment = &deployment
		return nil
	})
}

func (r *Repository) UpdateDeployment(ctx context.Context, deployment entity.Deployment) error {
	return r.write(ctx, func(tx *Repository) error {
		current, ok := tx.deployment()
		if !ok {
			return errors.Wrap(errs.NotFound, "deployment not found")
		}
		deployment.CreatedAt = current.CreatedAt
		deployment.UpdatedAt = tx.now()
		tx.shard.deployment = &deployment
		return nil
	})
}

func (r *Repository) CreateItem(ctx context.Context, item entity.Item) error {
	return r.write(ctx, func(tx *Repository) error {
		if _, ok := tx.item(item.ID); ok {
			return errors.Wrapf(errs.Conflict, "item %d already exists", item.ID)
		}
		now := tx.now()
		if item.ClaimedAt.IsZero() {
			item.ClaimedAt = now
		}
		item.UpdatedAt = now
		tx.shard.toAddItems[item.ID] = item
		tx.shard.balanceDeltas[item.Owner]++
		return nil
	})
}

func (r *Repository) UpdateItem(ctx context.Context, item entity.Item) error {
	return r.write(ctx, func(tx *Repository) error {
		current, ok := tx.item(item.ID)
		if !ok {
			return errors.Wrapf(errs.NotFound, "item %d not found", item.ID)
		}
		item.ClaimPrice = current.ClaimPrice
		item.ClaimedAt = current.ClaimedAt
		item.UpdatedAt = tx.now()
		if _, added := tx.shard.toAddItems[item.ID]; added {
			tx.shard.toAddItems[item.ID] = item
		} else {
			tx.shard.toUpdateItems[item.ID] = item
		}
		if current.Owner != item.Owner {
			tx.shard.balanceDeltas[current.Owner]--
			tx.shard.balanceDeltas[item.Owner]++
		}
		return nil
	})
}

func (r *Repository) SetOffer(ctx context.Context, offer entity.Offer) error {
	return r.write(ctx, func(tx *Repository) error {
		if offer.CreatedAt.IsZero() {
			offer.CreatedAt = tx.now()
		}
		delete(tx.shard.toDeleteOffers, offer.ItemID)
		tx.shard.toSetOffers[offer.ItemID] = offer
		return nil
	})
}

func (r *Repository) DeleteOffer(ctx context.Context, itemID uint64) error {
	return r.write(ctx, func(tx *Repository) error {
		delete(tx.shard.toSetOffers, itemID)
		tx.shard.toDeleteOffers[itemID] = struct{}{}
		return nil
	})
}

func (r *Repository) SetOperator(ctx context.Context, arg datagateway.SetOperatorParams) error {
	return r.write(ctx, func(tx *Repository) error {
		tx.shard.toSetOperators[operatorKey{owner: arg.Owner, operator: arg.Operator}] = arg.Approved
		return nil
	})
}

func (r *Repository) CreateEvents(ctx context.Context, events []entity.Event) ([]entity.Event, error) {
	var created []entity.Event
	err := r.write(ctx, func(tx *Repository) error {
		next := uint64(len(tx.committed.events)+len(tx.shard.toAddEvents)) + 1
		now := tx.now()
		created = make([]entity.Event, 0, len(events))
		for _, event := range events {
			event.Sequence = next
			if event.CreatedAt.IsZero() {
				event.CreatedAt = now
			}
			next++
			created = append(created, event)
		}
		tx.shard.toAddEvents = append(tx.shard.toAddEvents, created...)
		return nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return created, nil
}

// deployment must be called with mu held.
func (r *Repository) deployment() (entity.Deployment, bool) {
	if r.shard != nil && r.shard.deployment != nil {
		return *r.shard.deployment, true
	}
	if r.committed.deployment == nil {
		return entity.Deployment{}, false
	}
	return *r.committed.deployment, true
}

// item must be called with mu held.
func (r *Repository) item(id uint64) (entity.Item, bool) {
	if r.shard != nil {
		if item, ok := r.shard.toUpdateItems[id]; ok {
			return item, true
		}
		if item, ok := r.shard.toAddItems[id]; ok {
			return item, true
		}
	}
	item, ok := r.committed.items[id]
	return item, ok
}

// write stages fn in the active transaction. Outside a transaction the change is committed immediately.
func (r *Repository) write(ctx context.Context, fn func(tx *Repository) error) error {
	tx := r
	if r.shard == nil {
		var err error
		if tx, err = r.begin(); err != nil {
			return errors.WithStack(err)
		}
		defer tx.Rollback(ctx)
	}

	r.mu.RLock()
	err := fn(tx)
	r.mu.RUnlock()
	if err != nil {
		return err
	}

	if tx != r {
		return tx.Commit(ctx)
	}
	return nil
}
