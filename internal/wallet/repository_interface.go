package wallet

import (
	"context"

	"github.com/shopspring/decimal"
)

type Store interface {
	GetOrCreateAccount(ctx context.Context, userID int) (*Account, error)
	AccountByUser(ctx context.Context, userID int) (*Account, error)
	Credit(ctx context.Context, accountID int, amount decimal.Decimal, reference, description string) (*LedgerEntry, error)
	Debit(ctx context.Context, accountID int, amount decimal.Decimal, reference, description string) (*LedgerEntry, error)
	Entries(ctx context.Context, accountID int, limit, offset int) ([]LedgerEntry, error)
	HasEntry(ctx context.Context, entryType, reference string) (bool, error)
}
