package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/collectible-ledger/common/errs"
	"github.com/gaze-network/collectible-ledger/internal/postgres"
	"github.com/gaze-network/collectible-ledger/modules/collectible/datagateway"
	"github.com/gaze-network/collectible-ledger/modules/collectible/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

const uniqueViolation = "23505"

var _ datagateway.CollectibleDataGatewayWithTx = (*Repository)(nil)

type Repository struct {
	db postgres.DB
	tx pgx.Tx
}

func NewRepository(db postgres.DB) *Repository {
	return &Repository{
		db: db,
	}
}

// queries returns the active transaction, or the pool outside of one.
func (r *Repository) queries() postgres.Queryable {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *Repository) GetDeployment(ctx context.Context) (*entity.Deployment, error) {
	var (
		deployment           entity.Deployment
		administrator        string
		issuedCount          int64
		createdAt, updatedAt pgtype.Timestamptz
	)
	err := r.queries().QueryRow(ctx, getDeploymentQuery).Scan(
		&administrator,
		&deployment.Name,
		&deployment.Symbol,
		&deployment.CID,
		&deployment.ContractURI,
		&issuedCount,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.WithStack(errs.NotFound)
		}
		return nil, errors.Wrap(err, "error during query")
	}
	deployment.Administrator = entity.Address(administrator)
	deployment.IssuedCount = uint64(issuedCount)
	deployment.CreatedAt = createdAt.Time.UTC()
	deployment.UpdatedAt = updatedAt.Time.UTC()
	return &deployment, nil
}

func (r *Repository) GetItem(ctx context.Context, id uint64) (*entity.Item, error) {
	var (
		itemID               int64
		owner                string
		approved             pgtype.Text
		claimPrice           pgtype.Numeric
		claimedAt, updatedAt pgtype.Timestamptz
	)
	err := r.queries().QueryRow(ctx, getItemQuery, int64(id)).Scan(&itemID, &owner, &approved, &claimPrice, &claimedAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.WithStack(errs.NotFound)
		}
		return nil, errors.Wrap(err, "error during query")
	}
	price, err := uint128FromNumeric(claimPrice)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse claim price")
	}
	return &entity.Item{
		ID:         uint64(itemID),
		Owner:      entity.Address(owner),
		Approved:   addressFromText(approved),
		ClaimPrice: price,
		ClaimedAt:  claimedAt.Time.UTC(),
		UpdatedAt:  updatedAt.Time.UTC(),
	}, nil
}

func (r *Repository) GetBalance(ctx context.Context, owner entity.Address) (uint64, error) {
	var balance int64
	if err := r.queries().QueryRow(ctx, getBalanceQuery, string(owner)).Scan(&balance); err != nil {
		return 0, errors.Wrap(err, "error during query")
	}
	return uint64(balance), nil
}

func (r *Repository) GetOffer(ctx context.Context, itemID uint64) (*entity.Offer, error) {
	var (
		id        int64
		seller    string
		price     pgtype.Numeric
		buyer     pgtype.Text
		createdAt pgtype.Timestamptz
	)
	err := r.queries().QueryRow(ctx, getOfferQuery, int64(itemID)).Scan(&id, &seller, &price, &buyer, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.WithStack(errs.NotFound)
		}
		return nil, errors.Wrap(err, "error during query")
	}
	amount, err := uint128FromNumeric(price)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse offer price")
	}
	offer := &entity.Offer{
		ItemID:    uint64(id),
		Seller:    entity.Address(seller),
		Price:     amount,
		Buyer:     entity.ZeroAddress,
		CreatedAt: createdAt.Time.UTC(),
	}
	if buyer.Valid {
		offer.Buyer = entity.Address(buyer.String)
	}
	return offer, nil
}

func (r *Repository) IsOperator(ctx context.Context, owner entity.Address, operator entity.Address) (bool, error) {
	var ok bool
	if err := r.queries().QueryRow(ctx, isOperatorQuery, string(owner), string(operator)).Scan(&ok); err != nil {
		return false, errors.Wrap(err, "error during query")
	}
	return ok, nil
}

func (r *Repository) GetEvents(ctx context.Context, arg datagateway.GetEventsParams) ([]entity.Event, error) {
	var itemID pgtype.Int8
	if arg.ItemID != nil {
		itemID = pgtype.Int8{Int64: int64(*arg.ItemID), Valid: true}
	}
	var limit pgtype.Int4
	if arg.Limit > 0 {
		limit = pgtype.Int4{Int32: arg.Limit, Valid: true}
	}

	rows, err := r.queries().Query(ctx, getEventsQuery, itemID, limit, arg.Offset)
	if err != nil {
		return nil, errors.Wrap(err, "error during query")
	}
	defer rows.Close()

	events := make([]entity.Event, 0)
	for rows.Next() {
		var row eventRow
		if err := rows.Scan(&row.Sequence, &row.Kind, &row.ItemID, &row.From, &row.To, &row.Price, &row.Approved, &row.URI, &row.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan event")
		}
		event, err := mapEventRow(row)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error during query")
	}
	return events, nil
}

func (r *Repository) CreateDeployment(ctx context.Context, deployment entity.Deployment) error {
	_, err := r.queries().Exec(ctx, createDeploymentQuery,
		string(deployment.Administrator),
		deployment.Name,
		deployment.Symbol,
		deployment.CID,
		deployment.ContractURI,
		int64(deployment.IssuedCount),
	)
	if err != nil {
		return errors.WithStack(mapExecError(err))
	}
	return nil
}

func (r *Repository) UpdateDeployment(ctx context.Context, deployment entity.Deployment) error {
	tag, err := r.queries().Exec(ctx, updateDeploymentQuery,
		string(deployment.Administrator),
		deployment.Name,
		deployment.Symbol,
		deployment.CID,
		deployment.ContractURI,
		int64(deployment.IssuedCount),
	)
	if err != nil {
		return errors.Wrap(err, "error during exec")
	}
	if tag.RowsAffected() == 0 {
		return errors.WithStack(errs.NotFound)
	}
	return nil
}

func (r *Repository) CreateItem(ctx context.Context, item entity.Item) error {
	claimPrice, err := numericFromUint128(item.ClaimPrice)
	if err != nil {
		return errors.Wrap(err, "failed to convert claim price")
	}
	if _, err := r.queries().Exec(ctx, createItemQuery, int64(item.ID), string(item.Owner), textFromAddress(item.Approved), claimPrice); err != nil {
		return errors.WithStack(mapExecError(err))
	}
	return nil
}

func (r *Repository) UpdateItem(ctx context.Context, item entity.Item) error {
	tag, err := r.queries().Exec(ctx, updateItemQuery, int64(item.ID), string(item.Owner), textFromAddress(item.Approved))
	if err != nil {
		return errors.Wrap(err, "error during exec")
	}
	if tag.RowsAffected() == 0 {
		return errors.WithStack(errs.NotFound)
	}
	return nil
}

func (r *Repository) SetOffer(ctx context.Context, offer entity.Offer) error {
	price, err := numericFromUint128(offer.Price)
	if err != nil {
		return errors.Wrap(err, "failed to convert offer price")
	}
	if _, err := r.queries().Exec(ctx, setOfferQuery, int64(offer.ItemID), string(offer.Seller), price, textFromAddress(offer.Buyer)); err != nil {
		return errors.Wrap(err, "error during exec")
	}
	return nil
}

func (r *Repository) DeleteOffer(ctx context.Context, itemID uint64) error {
	if _, err := r.queries().Exec(ctx, deleteOfferQuery, int64(itemID)); err != nil {
		return errors.Wrap(err, "error during exec")
	}
	return nil
}

func (r *Repository) SetOperator(ctx context.Context, arg datagateway.SetOperatorParams) error {
	query := removeOperatorQuery
	if arg.Approved {
		query = addOperatorQuery
	}
	if _, err := r.queries().Exec(ctx, query, string(arg.Owner), string(arg.Operator)); err != nil {
		return errors.Wrap(err, "error during exec")
	}
	return nil
}

func (r *Repository) CreateEvents(ctx context.Context, events []entity.Event) ([]entity.Event, error) {
	batch := &pgx.Batch{}
	for _, event := range events {
		params, err := mapEventParams(event)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		batch.Queue(createEventQuery, params...)
	}

	var results pgx.BatchResults
	if r.tx != nil {
		results = r.tx.SendBatch(ctx, batch)
	} else {
		results = r.db.SendBatch(ctx, batch)
	}
	defer results.Close()

	created := make([]entity.Event, 0, len(events))
	for _, event := range events {
		var (
			sequence  int64
			createdAt pgtype.Timestamptz
		)
		if err := results.QueryRow().Scan(&sequence, &createdAt); err != nil {
			return nil, errors.Wrap(err, "failed to create event")
		}
		event.Sequence = uint64(sequence)
		event.CreatedAt = createdAt.Time.UTC()
		created = append(created, event)
	}
	return created, nil
}

// mapExecError reports unique key violations as errs.Conflict.
func mapExecError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return errors.Wrap(errs.Conflict, pgErr.Message)
	}
	return errors.Wrap(err, "error during exec")
}
