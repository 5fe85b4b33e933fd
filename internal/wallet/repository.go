package wallet

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/KAOS-CODM/KaosSub/internal/db"
	"github.com/KAOS-CODM/KaosSub/internal/metrics"
)

var (
	ErrInsufficientFunds  = errors.New("insufficient wallet balance")
	ErrStaleVersion       = errors.New("account modified concurrently")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrDuplicateReference = errors.New("ledger entry already exists for reference")
	ErrAccountNotFound    = errors.New("account not found")
)

const (
	maxVersionRetries = 3
	retryBaseDelay    = 5 * time.Millisecond
)

type Ledger struct {
	db *sqlx.DB
}

func NewLedger(database *sqlx.DB) *Ledger {
	return &Ledger{db: database}
}

func (l *Ledger) GetOrCreateAccount(ctx context.Context, userID int) (*Account, error) {
	a := &Account{}
	err := l.db.GetContext(ctx, a, `SELECT * FROM accounts WHERE user_id = $1`, userID)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	err = l.db.QueryRowxContext(ctx,
		`INSERT INTO accounts (user_id)
		 VALUES ($1)
		 ON CONFLICT (user_id) DO UPDATE SET updated_at = accounts.updated_at
		 RETURNING id, user_id, balance, version, created_at, updated_at`,
		userID,
	).StructScan(a)
	if err != nil {
		return nil, err
	}

	return a, nil
}

func (l *Ledger) AccountByUser(ctx context.Context, userID int) (*Account, error) {
	a := &Account{}
	err := l.db.GetContext(ctx, a, `SELECT * FROM accounts WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Credit appends a credit entry and raises the balance. Idempotent per
// (credit, reference): a second call with the same reference returns
// ErrDuplicateReference and leaves the balance untouched.
func (l *Ledger) Credit(ctx context.Context, accountID int, amount decimal.Decimal, reference, description string) (*LedgerEntry, error) {
	return l.withVersionRetry(ctx, func() (*LedgerEntry, error) {
		return l.applyEntry(ctx, accountID, EntryCredit, amount, reference, description)
	})
}

// Debit appends a debit entry and lowers the balance. The overdraw check
// runs inside the same transaction as the conditional balance write, so a
// concurrent debit cannot push the balance negative.
func (l *Ledger) Debit(ctx context.Context, accountID int, amount decimal.Decimal, reference, description string) (*LedgerEntry, error) {
	return l.withVersionRetry(ctx, func() (*LedgerEntry, error) {
		return l.applyEntry(ctx, accountID, EntryDebit, amount, reference, description)
	})
}

func (l *Ledger) withVersionRetry(ctx context.Context, op func() (*LedgerEntry, error)) (*LedgerEntry, error) {
	var entry *LedgerEntry
	var err error

	for attempt := 0; attempt < maxVersionRetries; attempt++ {
		entry, err = op()
		if !errors.Is(err, ErrStaleVersion) {
			return entry, err
		}

		if attempt == maxVersionRetries-1 {
			break
		}

		metrics.RecordLedgerRetry()
		delay := retryBaseDelay << attempt
		delay += time.Duration(rand.Int63n(int64(delay)))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, ErrStaleVersion
}

func (l *Ledger) applyEntry(ctx context.Context, accountID int, entryType string, amount decimal.Decimal, reference, description string) (*LedgerEntry, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var a Account
	err = tx.QueryRowxContext(ctx,
		`SELECT id, user_id, balance, version, created_at, updated_at
		 FROM accounts
		 WHERE id = $1`,
		accountID,
	).StructScan(&a)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}

	var newBalance decimal.Decimal
	switch entryType {
	case EntryCredit:
		newBalance = a.Balance.Add(amount)
	case EntryDebit:
		if a.Balance.LessThan(amount) {
			return nil, ErrInsufficientFunds
		}
		newBalance = a.Balance.Sub(amount)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE accounts
		 SET balance = $1, version = version + 1, updated_at = NOW()
		 WHERE id = $2 AND version = $3`,
		newBalance, a.ID, a.Version,
	)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrStaleVersion
	}

	entry := &LedgerEntry{
		AccountID:     a.ID,
		Type:          entryType,
		Amount:        amount,
		BalanceBefore: a.Balance,
		BalanceAfter:  newBalance,
		Reference:     reference,
		Description:   description,
	}

	err = tx.QueryRowxContext(ctx,
		`INSERT INTO ledger_entries (account_id, type, amount, balance_before, balance_after, reference, description)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		entry.AccountID, entry.Type, entry.Amount, entry.BalanceBefore, entry.BalanceAfter, entry.Reference, entry.Description,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicateReference
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	metrics.RecordLedgerEntry(entryType)
	return entry, nil
}

func (l *Ledger) Entries(ctx context.Context, accountID int, limit, offset int) ([]LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	var entries []LedgerEntry
	err := l.db.SelectContext(ctx, &entries, `
		SELECT id, account_id, type, amount, balance_before, balance_after, reference, description, created_at
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3
	`, accountID, limit, offset)
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func (l *Ledger) HasEntry(ctx context.Context, entryType, reference string) (bool, error) {
	return db.Exists(ctx, l.db,
		`SELECT EXISTS(SELECT 1 FROM ledger_entries WHERE type = $1 AND reference = $2)`,
		entryType, reference)
}
