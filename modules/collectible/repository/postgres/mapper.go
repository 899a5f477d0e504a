package postgres

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/collectible-ledger/modules/collectible/internal/entity"
	"github.com/gaze-network/uint128"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/samber/lo"
)

func uint128FromNumeric(src pgtype.Numeric) (uint128.Uint128, error) {
	if !src.Valid {
		return uint128.Zero, nil
	}
	bytes, err := src.MarshalJSON()
	if err != nil {
		return uint128.Uint128{}, errors.WithStack(err)
	}
	result, err := uint128.FromString(string(bytes))
	if err != nil {
		return uint128.Uint128{}, errors.WithStack(err)
	}
	return result, nil
}

func numericFromUint128(src uint128.Uint128) (pgtype.Numeric, error) {
	var result pgtype.Numeric
	if err := result.UnmarshalJSON([]byte(src.String())); err != nil {
		return pgtype.Numeric{}, errors.WithStack(err)
	}
	return result, nil
}

// textFromAddress stores the zero address as NULL.
func textFromAddress(src entity.Address) pgtype.Text {
	if src.IsZero() {
		return pgtype.Text{}
	}
	return pgtype.Text{String: string(src), Valid: true}
}

func addressFromText(src pgtype.Text) entity.Address {
	if !src.Valid {
		return ""
	}
	return entity.Address(src.String)
}

func int8FromID(id uint64) pgtype.Int8 {
	if id == 0 {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: int64(id), Valid: true}
}

type eventRow struct {
	Sequence  int64
	Kind      string
	ItemID    pgtype.Int8
	From      pgtype.Text
	To        pgtype.Text
	Price     pgtype.Numeric
	Approved  bool
	URI       pgtype.Text
	CreatedAt pgtype.Timestamptz
}

func mapEventRow(row eventRow) (entity.Event, error) {
	price, err := uint128FromNumeric(row.Price)
	if err != nil {
		return entity.Event{}, errors.Wrap(err, "failed to parse price")
	}
	return entity.Event{
		Sequence:  uint64(row.Sequence),
		Kind:      entity.EventKind(row.Kind),
		ItemID:    uint64(row.ItemID.Int64),
		From:      lo.Ternary(row.From.Valid, addressFromText(row.From), entity.ZeroAddress),
		To:        lo.Ternary(row.To.Valid, addressFromText(row.To), entity.ZeroAddress),
		Price:     price,
		Approved:  row.Approved,
		URI:       row.URI.String,
		CreatedAt: row.CreatedAt.Time.UTC(),
	}, nil
}

func mapEventParams(event entity.Event) ([]any, error) {
	var price pgtype.Numeric
	if event.Kind == entity.EventKindSale || event.Kind == entity.EventKindOfferCreated {
		var err error
		if price, err = numericFromUint128(event.Price); err != nil {
			return nil, errors.Wrap(err, "failed to convert price")
		}
	}
	return []any{
		string(event.Kind),
		int8FromID(event.ItemID),
		textFromAddress(event.From),
		textFromAddress(event.To),
		price,
		event.Approved,
		pgtype.Text{String: event.URI, Valid: event.URI != ""},
	}, nil
}
