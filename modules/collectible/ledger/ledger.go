// Package ledger implements the collectible issuance ledger and its offer book.
// Every mutating call is serialized, runs in one datagateway transaction and
// returns a Receipt with the events it appended to the event log.
package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/collectible-ledger/common/errs"
	"github.com/gaze-network/collectible-ledger/modules/collectible/datagateway"
	"github.com/gaze-network/collectible-ledger/modules/collectible/internal/entity"
	"github.com/gaze-network/collectible-ledger/modules/collectible/internal/validator"
	claimvalidator "github.com/gaze-network/collectible-ledger/modules/collectible/internal/validator/claim"
	"github.com/gaze-network/collectible-ledger/pkg/logger"
	"github.com/gaze-network/collectible-ledger/pkg/logger/slogx"
	"github.com/gaze-network/uint128"
	"github.com/samber/lo"
)

const (
	DefaultEventsLimit = 100
	MaxEventsLimit     = 1000
)

// Publisher delivers committed events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, topic string, payloads ...any) error
}

type Receipt struct {
	// ItemID is the item the call acted on, zero for calls without one.
	ItemID uint64
	Events []entity.Event
}

type DeployParams struct {
	Administrator entity.Address
	Name          string
	Symbol        string
	CID           string
	ContractURI   string
}

type Ledger struct {
	mu        sync.Mutex
	dg        datagateway.CollectibleDataGateway
	publisher Publisher
	topic     string
}

type Option func(*Ledger)

// WithPublisher publishes the events of every committed call to topic.
func WithPublisher(publisher Publisher, topic string) Option {
	return func(l *Ledger) {
		l.publisher = publisher
		l.topic = topic
	}
}

func New(dg datagateway.CollectibleDataGateway, opts ...Option) *Ledger {
	l := &Ledger{dg: dg}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Deploy initializes an empty ledger. Deploying an already initialized store returns the stored deployment unchanged.
func (l *Ledger) Deploy(ctx context.Context, params DeployParams) (*entity.Deployment, error) {
	var deployment *entity.Deployment
	_, err := l.execute(ctx, "deploy", func(ctx context.Context, qtx datagateway.CollectibleDataGatewayWithTx) (*Receipt, error) {
		current, err := qtx.GetDeployment(ctx)
		if err == nil {
			logger.InfoContext(ctx, "Ledger already deployed", slogx.Stringer("administrator", current.Administrator))
			deployment = current
			return &Receipt{}, nil
		}
		if !errors.Is(err, errs.NotFound) {
			return nil, errors.Wrap(err, "failed to get deployment")
		}

		v := validator.New()
		if !v.NotZeroAddress(params.Administrator, "administrator") {
			return nil, v.Err
		}
		deployment = &entity.Deployment{
			Administrator: params.Administrator,
			Name:          params.Name,
			Symbol:        params.Symbol,
			CID:           params.CID,
			ContractURI:   params.ContractURI,
		}
		if err := qtx.CreateDeployment(ctx, *deployment); err != nil {
			return nil, errors.Wrap(err, "failed to create deployment")
		}
		return &Receipt{}, nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return deployment, nil
}

// Claim issues the next item to caller. payment must equal Price(TokenCount()+1).
func (l *Ledger) Claim(ctx context.Context, caller entity.Address, payment uint128.Uint128) (*Receipt, error) {
	return l.execute(ctx, "claim", func(ctx context.Context, qtx datagateway.CollectibleDataGatewayWithTx) (*Receipt, error) {
		deployment, err := getDeployment(ctx, qtx)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		v := claimvalidator.New()
		id := deployment.IssuedCount + 1
		if v.SupplyAvailable(deployment.IssuedCount, MaxSupply) {
			price, err := Price(id)
			if err != nil {
				return nil, errors.WithStack(err)
			}
			v.ExactPayment(payment, price)
		}
		v.NotZeroAddress(caller, "caller")
		if !v.Valid {
			return nil, v.Err
		}

		if err := qtx.CreateItem(ctx, entity.Item{
			ID:         id,
			Owner:      caller,
			ClaimPrice: payment,
		}); err != nil {
			return nil, errors.Wrap(err, "failed to create item")
		}
		deployment.IssuedCount = id
		if err := qtx.UpdateDeployment(ctx, *deployment); err != nil {
			return nil, errors.Wrap(err, "failed to update issued count")
		}

		return &Receipt{
			ItemID: id,
			Events: []entity.Event{{Kind: entity.EventKindTransfer, ItemID: id, From: entity.ZeroAddress, To: caller}},
		}, nil
	})
}

// Transfer moves item id from its owner to to. caller must be the owner, the approved delegate or an operator of the owner.
func (l *Ledger) Transfer(ctx context.Context, caller, from, to entity.Address, id uint64) (*Receipt, error) {
	return l.execute(ctx, "transfer", func(ctx context.Context, qtx datagateway.CollectibleDataGatewayWithTx) (*Receipt, error) {
		v := validator.New()
		_, item, err := v.ItemExists(ctx, qtx, id, MaxSupply)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if v.Valid {
			v.Authorized(from, errs.NotOwnerOrApproved, item.Owner)
		}
		if v.Valid {
			if _, err := v.OwnerOrApproved(ctx, qtx, caller, item); err != nil {
				return nil, errors.WithStack(err)
			}
		}
		v.NotZeroAddress(to, "recipient")
		if !v.Valid {
			return nil, v.Err
		}

		events, err := transfer(ctx, qtx, item, to)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return &Receipt{ItemID: id, Events: events}, nil
	})
}

// Approve sets the approved delegate of item id. A zero to clears it.
func (l *Ledger) Approve(ctx context.Context, caller, to entity.Address, id uint64) (*Receipt, error) {
	return l.execute(ctx, "approve", func(ctx context.Context, qtx datagateway.CollectibleDataGatewayWithTx) (*Receipt, error) {
		v := validator.New()
		_, item, err := v.ItemExists(ctx, qtx, id, MaxSupply)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if v.Valid {
			if _, err := v.OwnerOrOperator(ctx, qtx, caller, item); err != nil {
				return nil, errors.WithStack(err)
			}
		}
		if v.Valid && to == item.Owner {
			v.Reject(errors.Wrap(errs.InvalidArgument, "approval to current owner"))
		}
		if !v.Valid {
			return nil, v.Err
		}

		item.Approved = lo.Ternary(to.IsZero(), entity.Address(""), to)
		if err := qtx.UpdateItem(ctx, *item); err != nil {
			return nil, errors.Wrap(err, "failed to update item")
		}
		return &Receipt{
			ItemID: id,
			Events: []entity.Event{{Kind: entity.EventKindApproval, ItemID: id, From: item.Owner, To: to}},
		}, nil
	})
}

// SetApprovalForAll grants or revokes operator's authority over every item of caller.
func (l *Ledger) SetApprovalForAll(ctx context.Context, caller, operator entity.Address, approved bool) (*Receipt, error) {
	return l.execute(ctx, "set_approval_for_all", func(ctx context.Context, qtx datagateway.CollectibleDataGatewayWithTx) (*Receipt, error) {
		v := validator.New()
		v.NotZeroAddress(caller, "caller")
		v.NotZeroAddress(operator, "operator")
		if v.Valid && operator == caller {
			v.Reject(errors.Wrap(errs.InvalidArgument, "approve to caller"))
		}
		if !v.Valid {
			return nil, v.Err
		}

		if err := qtx.SetOperator(ctx, datagateway.SetOperatorParams{
			Owner:    caller,
			Operator: operator,
			Approved: approved,
		}); err != nil {
			return nil, errors.Wrap(err, "failed to set operator")
		}
		return &Receipt{
			Events: []entity.Event{{Kind: entity.EventKindApprovalForAll, From: caller, To: operator, Approved: approved}},
		}, nil
	})
}

// SetContractURI replaces the collection metadata URI. Only the administrator may call it.
func (l *Ledger) SetContractURI(ctx context.Context, caller entity.Address, uri string) (*Receipt, error) {
	return l.execute(ctx, "set_contract_uri", func(ctx context.Context, qtx datagateway.CollectibleDataGatewayWithTx) (*Receipt, error) {
		deployment, err := getDeployment(ctx, qtx)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		v := validator.New()
		if !v.Authorized(caller, errs.NotAdministrator, deployment.Administrator) {
			return nil, v.Err
		}

		deployment.ContractURI = uri
		if err := qtx.UpdateDeployment(ctx, *deployment); err != nil {
			return nil, errors.Wrap(err, "failed to update contract uri")
		}
		return &Receipt{
			Events: []entity.Event{{Kind: entity.EventKindContractURIUpdated, URI: uri}},
		}, nil
	})
}

// transfer moves item to a new owner, clearing its approval and any offer on it.
func transfer(ctx context.Context, qtx datagateway.CollectibleDataGatewayWithTx, item *entity.Item, to entity.Address) ([]entity.Event, error) {
	from := item.Owner
	item.Owner = to
	item.Approved = ""
	if err := qtx.UpdateItem(ctx, *item); err != nil {
		return nil, errors.Wrap(err, "failed to update item")
	}
	if err := qtx.DeleteOffer(ctx, item.ID); err != nil {
		return nil, errors.Wrap(err, "failed to delete offer")
	}
	return []entity.Event{{Kind: entity.EventKindTransfer, ItemID: item.ID, From: from, To: to}}, nil
}

func getDeployment(ctx context.Context, qtx datagateway.CollectibleReaderDataGateway) (*entity.Deployment, error) {
	deployment, err := qtx.GetDeployment(ctx)
	if errors.Is(err, errs.NotFound) {
		return nil, errors.Wrap(errs.NotFound, "ledger is not deployed")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get deployment")
	}
	return deployment, nil
}

type executeFunc func(ctx context.Context, qtx datagateway.CollectibleDataGatewayWithTx) (*Receipt, error)

// execute serializes fn, runs it in a transaction, appends its events to the log and
// publishes them once committed. Nothing is persisted when fn fails.
func (l *Ledger) execute(ctx context.Context, operation string, fn executeFunc) (*Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ctx = logger.WithContext(ctx, slogx.String("operation", operation))
	start := time.Now()

	receipt, err := l.run(ctx, fn)
	observeOperation(operation, start, err)
	if err != nil {
		if kind, ok := errs.KindOf(err); ok {
			logger.DebugContext(ctx, "Ledger call rejected", slogx.String("reason", kind.Error()))
		}
		return nil, errors.WithStack(err)
	}

	if len(receipt.Events) > 0 {
		logger.InfoContext(ctx, "Ledger call committed",
			slogx.Uint64("item_id", receipt.ItemID),
			slogx.Int("events", len(receipt.Events)),
		)
		l.publish(ctx, receipt.Events)
	}
	return receipt, nil
}

func (l *Ledger) run(ctx context.Context, fn executeFunc) (*Receipt, error) {
	qtx, err := l.dg.BeginCollectibleTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if err := qtx.Rollback(context.WithoutCancel(ctx)); err != nil {
			logger.WarnContext(ctx, "Failed to rollback transaction", slogx.Error(err))
		}
	}()

	receipt, err := fn(ctx, qtx)
	if err != nil {
		return nil, err
	}

	if len(receipt.Events) > 0 {
		receipt.Events, err = qtx.CreateEvents(ctx, receipt.Events)
		if err != nil {
			return nil, errors.Wrap(err, "failed to append events")
		}
	}

	if err := qtx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to commit transaction")
	}
	return receipt, nil
}

func (l *Ledger) publish(ctx context.Context, events []entity.Event) {
	if l.publisher == nil {
		return
	}
	messages := lo.Map(events, func(event entity.Event, _ int) any {
		return NewEventMessage(event)
	})
	if err := l.publisher.Publish(ctx, l.topic, messages...); err != nil {
		logger.ErrorContext(ctx, "Failed to publish ledger events", err, slogx.String("topic", l.topic))
	}
}
