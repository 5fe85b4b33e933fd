package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/KAOS-CODM/KaosSub/internal/logger"
	"github.com/KAOS-CODM/KaosSub/internal/metrics"
	"github.com/KAOS-CODM/KaosSub/internal/wallet"
)

var ErrAmountTooSmall = errors.New("amount must be at least 100")

var minFundingAmount = decimal.NewFromInt(100)

// Result is what a completed verification reports back, whether the
// credit happened in this call or an earlier one.
type Result struct {
	Reference  string          `json:"reference"`
	Amount     decimal.Decimal `json:"amount"`
	NewBalance decimal.Decimal `json:"new_balance"`
}

type Verifier struct {
	intents     IntentStore
	gateway     Gateway
	ledger      wallet.Store
	callbackURL string
}

func NewVerifier(intents IntentStore, gateway Gateway, ledger wallet.Store, callbackURL string) *Verifier {
	return &Verifier{
		intents:     intents,
		gateway:     gateway,
		ledger:      ledger,
		callbackURL: callbackURL,
	}
}

// Initiate starts a funding attempt with the gateway and records the
// pending intent under the gateway-issued reference.
func (v *Verifier) Initiate(ctx context.Context, userID int, email string, amount decimal.Decimal) (*Intent, *InitializeResult, error) {
	if amount.LessThan(minFundingAmount) {
		return nil, nil, ErrAmountTooSmall
	}

	init, err := v.gateway.Initialize(ctx, email, amount, v.callbackURL)
	if err != nil {
		return nil, nil, err
	}

	intent, err := v.intents.Create(ctx, userID, init.Reference, amount, nil)
	if err != nil {
		return nil, nil, err
	}

	logger.Infof("Payment initialized: reference=%s user=%d amount=%s", init.Reference, userID, amount)
	return intent, init, nil
}

// Verify settles a funding attempt. Safe to call any number of times for
// the same reference: a reference produces at most one ledger credit.
func (v *Verifier) Verify(ctx context.Context, userID int, reference string) (*Result, error) {
	intent, err := v.intents.ByReferenceForUser(ctx, reference, userID)
	if err != nil {
		return nil, err
	}

	// Already settled: report the original outcome without another
	// gateway round trip.
	if intent.Status == StatusSuccess {
		metrics.RecordPaymentVerification("cached")
		return v.settledResult(ctx, userID, intent)
	}
	if intent.Status == StatusFailed {
		metrics.RecordPaymentVerification("cached")
		return nil, ErrPaymentFailed
	}

	vr, err := v.gateway.Verify(ctx, reference)
	if err != nil {
		if errors.Is(err, ErrGatewayUnavailable) {
			metrics.RecordPaymentVerification("gateway_unavailable")
		}
		return nil, err
	}

	if vr.Status != "success" {
		if err := v.intents.MarkFailed(ctx, reference, vr.Raw); err != nil {
			logger.Errorf("Failed to mark intent %s failed: %v", reference, err)
		}
		metrics.RecordPaymentVerification("failed")
		return nil, ErrPaymentFailed
	}

	// A concurrent verification may have settled the intent between the
	// lookup above and now; the conditional claim decides the winner.
	claimed, err := v.intents.ClaimSuccess(ctx, reference, vr.Raw)
	if err != nil {
		return nil, err
	}
	if !claimed {
		metrics.RecordPaymentVerification("cached")
		return v.settledResult(ctx, userID, intent)
	}

	account, err := v.ledger.GetOrCreateAccount(ctx, userID)
	if err != nil {
		return nil, err
	}

	entry, err := v.ledger.Credit(ctx, account.ID, vr.Amount, reference, "Wallet funding via Paystack")
	if errors.Is(err, wallet.ErrDuplicateReference) {
		// Credit already written for this reference; nothing more to do.
		return v.settledResult(ctx, userID, intent)
	}
	if err != nil {
		return nil, err
	}

	metrics.RecordPaymentVerification("success")
	logger.Infof("Payment verified: reference=%s amount=%s new_balance=%s", reference, vr.Amount, entry.BalanceAfter)

	return &Result{
		Reference:  reference,
		Amount:     vr.Amount,
		NewBalance: entry.BalanceAfter,
	}, nil
}

// settledResult reports an intent that already won the claim. The
// intent being success does not guarantee the credit landed: a crash
// between claim and credit leaves the ledger short, so the missing
// entry gets written here before reporting.
func (v *Verifier) settledResult(ctx context.Context, userID int, intent *Intent) (*Result, error) {
	credited, err := v.ledger.HasEntry(ctx, wallet.EntryCredit, intent.Reference)
	if err != nil {
		return nil, err
	}

	account, err := v.ledger.GetOrCreateAccount(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !credited {
		logger.Warnf("Intent %s marked success with no ledger credit; repairing", intent.Reference)
		entry, err := v.ledger.Credit(ctx, account.ID, intent.Amount, intent.Reference, "Wallet funding via Paystack")
		if err == nil {
			metrics.RecordPaymentVerification("repaired")
			return &Result{Reference: intent.Reference, Amount: intent.Amount, NewBalance: entry.BalanceAfter}, nil
		}
		if !errors.Is(err, wallet.ErrDuplicateReference) {
			return nil, err
		}
	}

	return &Result{
		Reference:  intent.Reference,
		Amount:     intent.Amount,
		NewBalance: account.Balance,
	}, nil
}

func (v *Verifier) List(ctx context.Context, userID int, limit, offset int) ([]Intent, error) {
	return v.intents.ListByUser(ctx, userID, limit, offset)
}
