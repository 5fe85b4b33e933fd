package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EntryCredit = "credit"
	EntryDebit  = "debit"
)

// Account holds the current wallet balance for a user. Balance is only
// ever written through Ledger.Credit/Debit; the version column is the
// optimistic-concurrency token guarding those writes.
type Account struct {
	ID        int             `db:"id" json:"id"`
	UserID    int             `db:"user_id" json:"user_id"`
	Balance   decimal.Decimal `db:"balance" json:"balance"`
	Version   int             `db:"version" json:"-"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// LedgerEntry is an append-only record of one balance movement.
// balance_after = balance_before +/- amount, and entries chain per
// account. (type, reference) is unique, which is what makes credits and
// debits idempotent per causal reference.
type LedgerEntry struct {
	ID            int             `db:"id" json:"id"`
	AccountID     int             `db:"account_id" json:"account_id"`
	Type          string          `db:"type" json:"type"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	BalanceBefore decimal.Decimal `db:"balance_before" json:"balance_before"`
	BalanceAfter  decimal.Decimal `db:"balance_after" json:"balance_after"`
	Reference     string          `db:"reference" json:"reference"`
	Description   string          `db:"description" json:"description"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}
