package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order lifecycle. awaiting_confirmation is the ambiguous state: we sent
// the request but never learned the outcome, so the wallet stays
// untouched until the provider webhook (or an operator) settles it.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusAwaiting   = "awaiting_confirmation"
	StatusSuccess    = "success"
	StatusFailed     = "failed"
	StatusRefunded   = "refunded"
	StatusCancelled  = "cancelled"
)

type Order struct {
	ID              int             `db:"id" json:"id"`
	UserID          int             `db:"user_id" json:"user_id"`
	ProductID       int             `db:"product_id" json:"product_id"`
	RequestID       string          `db:"request_id" json:"request_id"`
	Network         string          `db:"network" json:"network"`
	Phone           string          `db:"phone" json:"phone"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	VariationID     string          `db:"variation_id" json:"-"`
	ProviderOrderID *int            `db:"provider_order_id" json:"provider_order_id,omitempty"`
	Status          string          `db:"status" json:"status"`
	FailureReason   *string         `db:"failure_reason" json:"failure_reason,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// Terminal reports whether the order can no longer change state through
// the normal purchase or reconciliation flow.
func Terminal(status string) bool {
	switch status {
	case StatusSuccess, StatusFailed, StatusRefunded, StatusCancelled:
		return true
	}
	return false
}
