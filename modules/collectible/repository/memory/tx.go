package memory

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/collectible-ledger/modules/collectible/datagateway"
	"github.com/gaze-network/collectible-ledger/modules/collectible/internal/entity"
)

var ErrTxAlreadyExists = errors.New("Transaction already exists. Call Commit() or Rollback() first.")

type stagingShard struct {
	deployment *entity.Deployment

	toAddItems    map[uint64]entity.Item
	toUpdateItems map[uint64]entity.Item
	balanceDeltas map[entity.Address]int64

	toSetOffers    map[uint64]entity.Offer
	toDeleteOffers map[uint64]struct{}

	toSetOperators map[operatorKey]bool

	toAddEvents []entity.Event
}

func newStagingShard() *stagingShard {
	return &stagingShard{
		toAddItems:     make(map[uint64]entity.Item),
		toUpdateItems:  make(map[uint64]entity.Item),
		balanceDeltas:  make(map[entity.Address]int64),
		toSetOffers:    make(map[uint64]entity.Offer),
		toDeleteOffers: make(map[uint64]struct{}),
		toSetOperators: make(map[operatorKey]bool),
	}
}

func (r *Repository) begin() (*Repository, error) {
	if r.shard != nil {
		return nil, errors.WithStack(ErrTxAlreadyExists)
	}
	return &Repository{
		mu:        r.mu,
		committed: r.committed,
		shard:     newStagingShard(),
		now:       r.now,
	}, nil
}

func (r *Repository) BeginCollectibleTx(ctx context.Context) (datagateway.CollectibleDataGatewayWithTx, error) {
	repo, err := r.begin()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return repo, nil
}

func (r *Repository) Commit(ctx context.Context) error {
	if r.shard == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.shard.commit(r.committed)
	r.shard = nil
	return nil
}

func (r *Repository) Rollback(ctx context.Context) error {
	r.shard = nil
	return nil
}

func (s *stagingShard) commit(st *state) {
	if s.deployment != nil {
		deployment := *s.deployment
		st.deployment = &deployment
	}

	for id, item := range s.toAddItems {
		st.items[id] = item
	}
	for id, item := range s.toUpdateItems {
		st.items[id] = item
	}
	for owner, delta := range s.balanceDeltas {
		balance := int64(st.balances[owner]) + delta
		if balance <= 0 {
			delete(st.balances, owner)
			continue
		}
		st.balances[owner] = uint64(balance)
	}

	for id := range s.toDeleteOffers {
		delete(st.offers, id)
	}
	for id, offer := range s.toSetOffers {
		st.offers[id] = offer
	}

	for key, approved := range s.toSetOperators {
		if approved {
			st.operators[key] = struct{}{}
		} else {
			delete(st.operators, key)
		}
	}

	st.events = append(st.events, s.toAddEvents...)
}
