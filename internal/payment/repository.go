package payment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var ErrIntentNotFound = errors.New("payment intent not found")

type Repository struct {
	db *sqlx.DB
}

func NewRepository(database *sqlx.DB) *Repository {
	return &Repository{db: database}
}

func (r *Repository) Create(ctx context.Context, userID int, reference string, amount decimal.Decimal, metadata json.RawMessage) (*Intent, error) {
	intent := &Intent{}
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO payment_intents (reference, user_id, amount, status, metadata)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, reference, user_id, amount, status, metadata, created_at, updated_at`,
		reference, userID, amount, StatusPending, metadata,
	).StructScan(intent)
	if err != nil {
		return nil, err
	}
	return intent, nil
}

func (r *Repository) ByReferenceForUser(ctx context.Context, reference string, userID int) (*Intent, error) {
	intent := &Intent{}
	err := r.db.GetContext(ctx, intent,
		`SELECT * FROM payment_intents WHERE reference = $1 AND user_id = $2`,
		reference, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrIntentNotFound
	}
	if err != nil {
		return nil, err
	}
	return intent, nil
}

// ClaimSuccess flips a pending intent to success. The status guard in the
// WHERE clause makes the claim exclusive: under concurrent verification
// exactly one caller sees claimed=true and gets to write the credit.
func (r *Repository) ClaimSuccess(ctx context.Context, reference string, metadata json.RawMessage) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payment_intents
		 SET status = $2, metadata = $3, updated_at = NOW()
		 WHERE reference = $1 AND status = $4`,
		reference, StatusSuccess, metadata, StatusPending)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *Repository) MarkFailed(ctx context.Context, reference string, metadata json.RawMessage) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE payment_intents
		 SET status = $2, metadata = $3, updated_at = NOW()
		 WHERE reference = $1 AND status = $4`,
		reference, StatusFailed, metadata, StatusPending)
	return err
}

func (r *Repository) ListByUser(ctx context.Context, userID int, limit, offset int) ([]Intent, error) {
	if limit <= 0 {
		limit = 50
	}

	var intents []Intent
	err := r.db.SelectContext(ctx, &intents, `
		SELECT id, reference, user_id, amount, status, metadata, created_at, updated_at
		FROM payment_intents
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return intents, nil
}
