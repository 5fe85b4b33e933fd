package payment

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Intent is one wallet-funding attempt. The gateway-issued reference is
// the idempotency key: it maps to at most one successful ledger credit no
// matter how many times verification runs.
type Intent struct {
	ID        int             `db:"id" json:"id"`
	Reference string          `db:"reference" json:"reference"`
	UserID    int             `db:"user_id" json:"user_id"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	Status    string          `db:"status" json:"status"`
	Metadata  json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}
