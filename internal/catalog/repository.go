package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrProductNotFound = errors.New("product not found")

type Repository struct {
	db *sqlx.DB
}

func NewRepository(database *sqlx.DB) *Repository {
	return &Repository{db: database}
}

func (r *Repository) ByID(ctx context.Context, id int) (*Product, error) {
	p := &Product{}
	err := r.db.GetContext(ctx, p, `SELECT * FROM products WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repository) ListActive(ctx context.Context) ([]Product, error) {
	var products []Product
	err := r.db.SelectContext(ctx, &products, `
		SELECT * FROM products
		WHERE active = TRUE
		ORDER BY network, price
	`)
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *Repository) ActiveByNetwork(ctx context.Context, network string) ([]Product, error) {
	var products []Product
	err := r.db.SelectContext(ctx, &products, `
		SELECT * FROM products
		WHERE active = TRUE AND network = $1
		ORDER BY price
	`, network)
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *Repository) SetResolvedSKU(ctx context.Context, productID int, sku string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE products SET resolved_sku = $2, updated_at = NOW() WHERE id = $1`,
		productID, sku)
	return err
}

func (r *Repository) Deactivate(ctx context.Context, productIDs []int) (int, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(`UPDATE products SET active = FALSE, updated_at = NOW() WHERE id IN (?)`, productIDs)
	if err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	return int(affected), err
}

func (r *Repository) Insert(ctx context.Context, p *Product) error {
	return r.db.QueryRowxContext(ctx,
		`INSERT INTO products (network, name, price, data_volume_mb, validity, resolved_sku, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		p.Network, p.Name, p.Price, p.DataVolumeMB, p.Validity, p.ResolvedSKU, p.Active,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}
