package order

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/KAOS-CODM/KaosSub/internal/catalog"
	"github.com/KAOS-CODM/KaosSub/internal/logger"
	"github.com/KAOS-CODM/KaosSub/internal/metrics"
	"github.com/KAOS-CODM/KaosSub/internal/provider"
	"github.com/KAOS-CODM/KaosSub/internal/wallet"
)

var (
	ErrInvalidPhone   = errors.New("phone must be 11 digits")
	ErrProductClosed  = errors.New("product is not available for purchase")
	ErrNotCancellable = errors.New("order can no longer be cancelled")

	// ErrReconciliationConflict means the provider's settlement
	// contradicts a terminal state we already committed. Never resolved
	// automatically; the webhook worker parks these for manual review.
	ErrReconciliationConflict = errors.New("settlement conflicts with terminal order state")
)

var phonePattern = regexp.MustCompile(`^0\d{10}$`)

// SKUResolver is the slice of the catalog service the purchase flow
// needs.
type SKUResolver interface {
	ResolveSKU(ctx context.Context, p *catalog.Product) (string, error)
}

// Placer is the slice of the provider client the purchase flow needs.
type Placer interface {
	PlaceOrder(ctx context.Context, req provider.OrderRequest) (*provider.OrderResult, error)
}

type Service struct {
	orders   Store
	products catalog.Store
	resolver SKUResolver
	placer   Placer
	ledger   wallet.Store
	timeout  time.Duration
}

func NewService(orders Store, products catalog.Store, resolver SKUResolver, placer Placer, ledger wallet.Store, timeout time.Duration) *Service {
	return &Service{
		orders:   orders,
		products: products,
		resolver: resolver,
		placer:   placer,
		ledger:   ledger,
		timeout:  timeout,
	}
}

// Purchase runs the full buy flow: validate, resolve the provider SKU,
// check funds, place the order, then settle the wallet. The debit happens
// only after the provider confirms, so a rejected order never touches the
// balance. An ambiguous provider outcome leaves the order in
// awaiting_confirmation with the wallet untouched.
func (s *Service) Purchase(ctx context.Context, userID, productID int, phone string) (*Order, error) {
	if !phonePattern.MatchString(phone) {
		return nil, ErrInvalidPhone
	}

	product, err := s.products.ByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.Active {
		return nil, ErrProductClosed
	}

	sku, err := s.resolver.ResolveSKU(ctx, product)
	if err != nil {
		return nil, err
	}

	account, err := s.ledger.GetOrCreateAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	if account.Balance.LessThan(product.Price) {
		return nil, wallet.ErrInsufficientFunds
	}

	serviceID, _ := catalog.ServiceID(product.Network)
	o := &Order{
		UserID:      userID,
		ProductID:   product.ID,
		RequestID:   provider.NewRequestID(),
		Network:     product.Network,
		Phone:       phone,
		Amount:      product.Price,
		VariationID: sku,
		Status:      StatusPending,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, err
	}

	if _, err := s.orders.Transition(ctx, o.ID, []string{StatusPending}, StatusProcessing); err != nil {
		return nil, err
	}
	o.Status = StatusProcessing

	// Past this point the flow must survive the client hanging up: once
	// the request is on the wire, abandoning the call or the settlement
	// writes loses the outcome.
	detached := context.WithoutCancel(ctx)
	callCtx, cancel := context.WithTimeout(detached, s.timeout)
	defer cancel()

	result, err := s.placer.PlaceOrder(callCtx, provider.OrderRequest{
		RequestID:   o.RequestID,
		Phone:       phone,
		ServiceID:   serviceID,
		VariationID: sku,
	})

	switch {
	case err == nil:
		return s.settleSuccess(detached, o, product, result)

	case errors.Is(err, provider.ErrOrderRejected):
		s.markFailed(detached, o, err.Error())
		return o, err

	default:
		// Unknown outcome. Park the order; the webhook or an operator
		// settles it later.
		logger.Warnf("Order %s outcome unknown: %v", o.RequestID, err)
		if _, terr := s.orders.Transition(detached, o.ID, []string{StatusProcessing}, StatusAwaiting); terr != nil {
			logger.Errorf("Failed to park order %s: %v", o.RequestID, terr)
		}
		o.Status = StatusAwaiting
		metrics.RecordOrder(StatusAwaiting, o.Network)
		return o, nil
	}
}

func (s *Service) settleSuccess(ctx context.Context, o *Order, product *catalog.Product, result *provider.OrderResult) (*Order, error) {
	if result.OrderID != 0 {
		if err := s.orders.SetProviderOrderID(ctx, o.ID, result.OrderID); err != nil {
			logger.Errorf("Failed to record provider order id for %s: %v", o.RequestID, err)
		}
		id := result.OrderID
		o.ProviderOrderID = &id
	}

	if err := s.debitOnce(ctx, o, fmt.Sprintf("Data purchase: %s to %s", product.Name, o.Phone)); err != nil {
		// Delivered but not charged. Leave the order awaiting so
		// reconciliation collects the debit instead of losing it.
		logger.Errorf("Debit failed for delivered order %s: %v", o.RequestID, err)
		if _, terr := s.orders.Transition(ctx, o.ID, []string{StatusProcessing}, StatusAwaiting); terr != nil {
			logger.Errorf("Failed to park order %s: %v", o.RequestID, terr)
		}
		o.Status = StatusAwaiting
		return o, nil
	}

	if _, err := s.orders.Transition(ctx, o.ID, []string{StatusProcessing}, StatusSuccess); err != nil {
		return nil, err
	}
	o.Status = StatusSuccess
	metrics.RecordOrder(StatusSuccess, o.Network)
	logger.Infof("Order %s delivered: %s to %s", o.RequestID, product.Name, o.Phone)
	return o, nil
}

func (s *Service) markFailed(ctx context.Context, o *Order, reason string) {
	if _, err := s.orders.Transition(ctx, o.ID, []string{StatusProcessing}, StatusFailed); err != nil {
		logger.Errorf("Failed to mark order %s failed: %v", o.RequestID, err)
		return
	}
	if err := s.orders.SetFailureReason(ctx, o.ID, reason); err != nil {
		logger.Errorf("Failed to record failure reason for %s: %v", o.RequestID, err)
	}
	o.Status = StatusFailed
	o.FailureReason = &reason
	metrics.RecordOrder(StatusFailed, o.Network)
}

// debitOnce charges the wallet exactly once per order: the ledger's
// unique reference makes a replay a no-op.
func (s *Service) debitOnce(ctx context.Context, o *Order, description string) error {
	account, err := s.ledger.GetOrCreateAccount(ctx, o.UserID)
	if err != nil {
		return err
	}
	_, err = s.ledger.Debit(ctx, account.ID, o.Amount, o.RequestID, description)
	if errors.Is(err, wallet.ErrDuplicateReference) {
		return nil
	}
	return err
}

func (s *Service) refundOnce(ctx context.Context, o *Order) error {
	debited, err := s.ledger.HasEntry(ctx, wallet.EntryDebit, o.RequestID)
	if err != nil {
		return err
	}
	if !debited {
		return nil
	}

	account, err := s.ledger.GetOrCreateAccount(ctx, o.UserID)
	if err != nil {
		return err
	}
	_, err = s.ledger.Credit(ctx, account.ID, o.Amount, o.RequestID,
		fmt.Sprintf("Refund for order %s", o.RequestID))
	if errors.Is(err, wallet.ErrDuplicateReference) {
		return nil
	}
	return err
}

// Finalize settles an order from a provider-reported outcome. It is the
// reconciliation entry point for the webhook worker and is idempotent: a
// replay of an already-applied outcome returns nil. A contradictory
// outcome returns ErrReconciliationConflict.
func (s *Service) Finalize(ctx context.Context, requestID, outcome string) (*Order, error) {
	o, err := s.orders.ByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	switch outcome {
	case StatusSuccess:
		return o, s.finalizeSuccess(ctx, o)
	case StatusFailed:
		return o, s.finalizeFailure(ctx, o, StatusFailed)
	case StatusRefunded:
		return o, s.finalizeRefund(ctx, o)
	default:
		return nil, fmt.Errorf("unknown settlement outcome %q", outcome)
	}
}

func (s *Service) finalizeSuccess(ctx context.Context, o *Order) error {
	if o.Status == StatusSuccess {
		return nil
	}
	if Terminal(o.Status) {
		return ErrReconciliationConflict
	}

	if err := s.debitOnce(ctx, o, fmt.Sprintf("Data purchase settled: order %s", o.RequestID)); err != nil {
		return err
	}
	moved, err := s.orders.Transition(ctx, o.ID,
		[]string{StatusPending, StatusProcessing, StatusAwaiting}, StatusSuccess)
	if err != nil {
		return err
	}
	if moved {
		o.Status = StatusSuccess
		metrics.RecordOrder(StatusSuccess, o.Network)
	}
	return nil
}

func (s *Service) finalizeFailure(ctx context.Context, o *Order, to string) error {
	if o.Status == StatusFailed || o.Status == StatusRefunded {
		return nil
	}
	if Terminal(o.Status) {
		return ErrReconciliationConflict
	}

	// A failed order that was already debited becomes a refund instead.
	debited, err := s.ledger.HasEntry(ctx, wallet.EntryDebit, o.RequestID)
	if err != nil {
		return err
	}
	if debited {
		to = StatusRefunded
		if err := s.refundOnce(ctx, o); err != nil {
			return err
		}
	}

	moved, err := s.orders.Transition(ctx, o.ID,
		[]string{StatusPending, StatusProcessing, StatusAwaiting}, to)
	if err != nil {
		return err
	}
	if moved {
		o.Status = to
		metrics.RecordOrder(to, o.Network)
	}
	return nil
}

// finalizeRefund handles the provider clawing back a delivered order. A
// successful order may move to refunded; the wallet gets the money back.
func (s *Service) finalizeRefund(ctx context.Context, o *Order) error {
	if o.Status == StatusRefunded {
		return nil
	}
	if o.Status == StatusFailed || o.Status == StatusCancelled {
		return ErrReconciliationConflict
	}

	// A refund without a matching debit means the provider is reversing
	// money we never took. That contradicts our ledger, not a race we
	// can settle.
	debited, err := s.ledger.HasEntry(ctx, wallet.EntryDebit, o.RequestID)
	if err != nil {
		return err
	}
	if !debited {
		return ErrReconciliationConflict
	}

	if err := s.refundOnce(ctx, o); err != nil {
		return err
	}
	moved, err := s.orders.Transition(ctx, o.ID,
		[]string{StatusPending, StatusProcessing, StatusAwaiting, StatusSuccess}, StatusRefunded)
	if err != nil {
		return err
	}
	if moved {
		o.Status = StatusRefunded
		metrics.RecordOrder(StatusRefunded, o.Network)
	}
	return nil
}

// Cancel voids an order by explicit admin action. Only pending and
// processing orders qualify; the conditional transition loses cleanly if
// settlement gets there first.
func (s *Service) Cancel(ctx context.Context, orderID int) (*Order, error) {
	o, err := s.orders.ByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	moved, err := s.orders.Transition(ctx, o.ID, []string{StatusPending, StatusProcessing}, StatusCancelled)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, ErrNotCancellable
	}
	o.Status = StatusCancelled
	metrics.RecordOrder(StatusCancelled, o.Network)
	return o, nil
}

func (s *Service) Get(ctx context.Context, userID, orderID int) (*Order, error) {
	o, err := s.orders.ByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (s *Service) List(ctx context.Context, userID, limit, offset int) ([]Order, error) {
	return s.orders.ListByUser(ctx, userID, limit, offset)
}
