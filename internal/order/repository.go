package order

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrOrderNotFound = errors.New("order not found")

type Repository struct {
	db *sqlx.DB
}

func NewRepository(database *sqlx.DB) *Repository {
	return &Repository{db: database}
}

func (r *Repository) Create(ctx context.Context, o *Order) error {
	return r.db.QueryRowxContext(ctx, `
		INSERT INTO orders (user_id, product_id, request_id, network, phone, amount, variation_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		o.UserID, o.ProductID, o.RequestID, o.Network, o.Phone, o.Amount, o.VariationID, o.Status,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
}

func (r *Repository) ByID(ctx context.Context, id int) (*Order, error) {
	o := &Order{}
	err := r.db.GetContext(ctx, o, `SELECT * FROM orders WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *Repository) ByRequestID(ctx context.Context, requestID string) (*Order, error) {
	o := &Order{}
	err := r.db.GetContext(ctx, o, `SELECT * FROM orders WHERE request_id = $1`, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID, limit, offset int) ([]Order, error) {
	var orders []Order
	err := r.db.SelectContext(ctx, &orders, `
		SELECT * FROM orders
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// Transition moves an order to a new status only when it is currently in
// one of the expected states. The conditional UPDATE is what makes
// concurrent settlement attempts (purchase flow vs webhook) safe: exactly
// one writer wins.
func (r *Repository) Transition(ctx context.Context, orderID int, from []string, to string) (bool, error) {
	query, args, err := sqlx.In(`
		UPDATE orders SET status = ?, updated_at = NOW()
		WHERE id = ? AND status IN (?)`,
		to, orderID, from)
	if err != nil {
		return false, err
	}

	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}

func (r *Repository) SetFailureReason(ctx context.Context, orderID int, reason string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE orders SET failure_reason = $2, updated_at = NOW() WHERE id = $1`,
		orderID, reason)
	return err
}

func (r *Repository) SetProviderOrderID(ctx context.Context, orderID, providerOrderID int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE orders SET provider_order_id = $2, updated_at = NOW() WHERE id = $1`,
		orderID, providerOrderID)
	return err
}
