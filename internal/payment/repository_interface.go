package payment

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
)

type IntentStore interface {
	Create(ctx context.Context, userID int, reference string, amount decimal.Decimal, metadata json.RawMessage) (*Intent, error)
	ByReferenceForUser(ctx context.Context, reference string, userID int) (*Intent, error)
	ClaimSuccess(ctx context.Context, reference string, metadata json.RawMessage) (bool, error)
	MarkFailed(ctx context.Context, reference string, metadata json.RawMessage) error
	ListByUser(ctx context.Context, userID int, limit, offset int) ([]Intent, error)
}

type Gateway interface {
	Initialize(ctx context.Context, email string, amount decimal.Decimal, callbackURL string) (*InitializeResult, error)
	Verify(ctx context.Context, reference string) (*VerifyResult, error)
}
