package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is an internal catalog entry for one data plan. ResolvedSKU
// caches the provider variation id once the matcher has found it, so the
// heuristics only re-run during catalog sync.
type Product struct {
	ID           int             `db:"id" json:"id"`
	Network      string          `db:"network" json:"network"`
	Name         string          `db:"name" json:"name"`
	Price        decimal.Decimal `db:"price" json:"price"`
	DataVolumeMB *int            `db:"data_volume_mb" json:"data_volume_mb,omitempty"`
	Validity     string          `db:"validity" json:"validity"`
	ResolvedSKU  *string         `db:"resolved_sku" json:"-"`
	Active       bool            `db:"active" json:"active"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// Variation is a provider-side plan as returned by the variations
// endpoint. Transient: fetched on demand, never persisted.
type Variation struct {
	DataPlan     string          `json:"data_plan"`
	Price        decimal.Decimal `json:"price"`
	VariationID  string          `json:"variation_id"`
	Availability string          `json:"availability"`
}

func (v Variation) Available() bool {
	return v.Availability == "Available"
}
