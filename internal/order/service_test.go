package order

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/KAOS-CODM/KaosSub/internal/catalog"
	"github.com/KAOS-CODM/KaosSub/internal/provider"
	"github.com/KAOS-CODM/KaosSub/internal/wallet"
)

type MockOrderStore struct {
	mock.Mock
}

func (m *MockOrderStore) Create(ctx context.Context, o *Order) error {
	args := m.Called(ctx, o)
	if args.Error(0) == nil {
		o.ID = 1
	}
	return args.Error(0)
}

func (m *MockOrderStore) ByID(ctx context.Context, id int) (*Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockOrderStore) ByRequestID(ctx context.Context, requestID string) (*Order, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockOrderStore) ListByUser(ctx context.Context, userID, limit, offset int) ([]Order, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Order), args.Error(1)
}

func (m *MockOrderStore) Transition(ctx context.Context, orderID int, from []string, to string) (bool, error) {
	args := m.Called(ctx, orderID, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderStore) SetFailureReason(ctx context.Context, orderID int, reason string) error {
	args := m.Called(ctx, orderID, reason)
	return args.Error(0)
}

func (m *MockOrderStore) SetProviderOrderID(ctx context.Context, orderID, providerOrderID int) error {
	args := m.Called(ctx, orderID, providerOrderID)
	return args.Error(0)
}

type MockProductStore struct {
	mock.Mock
}

func (m *MockProductStore) ByID(ctx context.Context, id int) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductStore) ListActive(ctx context.Context) ([]catalog.Product, error) {
	args := m.Called(ctx)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductStore) ActiveByNetwork(ctx context.Context, network string) ([]catalog.Product, error) {
	args := m.Called(ctx, network)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductStore) SetResolvedSKU(ctx context.Context, productID int, sku string) error {
	args := m.Called(ctx, productID, sku)
	return args.Error(0)
}

func (m *MockProductStore) Deactivate(ctx context.Context, productIDs []int) (int, error) {
	args := m.Called(ctx, productIDs)
	return args.Int(0), args.Error(1)
}

func (m *MockProductStore) Insert(ctx context.Context, p *catalog.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) ResolveSKU(ctx context.Context, p *catalog.Product) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

type MockPlacer struct {
	mock.Mock
}

func (m *MockPlacer) PlaceOrder(ctx context.Context, req provider.OrderRequest) (*provider.OrderResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.OrderResult), args.Error(1)
}

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) GetOrCreateAccount(ctx context.Context, userID int) (*wallet.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Account), args.Error(1)
}

func (m *MockLedger) AccountByUser(ctx context.Context, userID int) (*wallet.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Account), args.Error(1)
}

func (m *MockLedger) Credit(ctx context.Context, accountID int, amount decimal.Decimal, reference, description string) (*wallet.LedgerEntry, error) {
	args := m.Called(ctx, accountID, amount, reference, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.LedgerEntry), args.Error(1)
}

func (m *MockLedger) Debit(ctx context.Context, accountID int, amount decimal.Decimal, reference, description string) (*wallet.LedgerEntry, error) {
	args := m.Called(ctx, accountID, amount, reference, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.LedgerEntry), args.Error(1)
}

func (m *MockLedger) Entries(ctx context.Context, accountID, limit, offset int) ([]wallet.LedgerEntry, error) {
	args := m.Called(ctx, accountID, limit, offset)
	return args.Get(0).([]wallet.LedgerEntry), args.Error(1)
}

func (m *MockLedger) HasEntry(ctx context.Context, entryType, reference string) (bool, error) {
	args := m.Called(ctx, entryType, reference)
	return args.Bool(0), args.Error(1)
}

func newTestService(orders *MockOrderStore, products *MockProductStore, resolver *MockResolver, placer *MockPlacer, ledger *MockLedger) *Service {
	return NewService(orders, products, resolver, placer, ledger, time.Second)
}

func testProduct() *catalog.Product {
	return &catalog.Product{
		ID:      5,
		Network: "mtn",
		Name:    "1GB SME",
		Price:   decimal.NewFromInt(350),
		Active:  true,
	}
}

func testAccount(balance int64) *wallet.Account {
	return &wallet.Account{ID: 3, UserID: 42, Balance: decimal.NewFromInt(balance)}
}

func TestPurchase_SuccessDebitsAfterDelivery(t *testing.T) {
	orders := new(MockOrderStore)
	products := new(MockProductStore)
	resolver := new(MockResolver)
	placer := new(MockPlacer)
	ledger := new(MockLedger)
	svc := newTestService(orders, products, resolver, placer, ledger)

	products.On("ByID", mock.Anything, 5).Return(testProduct(), nil)
	resolver.On("ResolveSKU", mock.Anything, mock.Anything).Return("mtn-1gb", nil)
	ledger.On("GetOrCreateAccount", mock.Anything, 42).Return(testAccount(1000), nil)
	orders.On("Create", mock.Anything, mock.MatchedBy(func(o *Order) bool {
		return o.Status == StatusPending && o.VariationID == "mtn-1gb"
	})).Return(nil)
	orders.On("Transition", mock.Anything, 1, []string{StatusPending}, StatusProcessing).Return(true, nil)
	placer.On("PlaceOrder", mock.Anything, mock.MatchedBy(func(req provider.OrderRequest) bool {
		return req.Phone == "08012345678" && req.ServiceID == "mtn" && req.VariationID == "mtn-1gb"
	})).Return(&provider.OrderResult{OrderID: 9001, Status: "completed-api"}, nil)
	orders.On("SetProviderOrderID", mock.Anything, 1, 9001).Return(nil)
	ledger.On("Debit", mock.Anything, 3, decimal.NewFromInt(350), mock.Anything, mock.Anything).
		Return(&wallet.LedgerEntry{}, nil)
	orders.On("Transition", mock.Anything, 1, []string{StatusProcessing}, StatusSuccess).Return(true, nil)

	o, err := svc.Purchase(context.Background(), 42, 5, "08012345678")

	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, o.Status)
	orders.AssertExpectations(t)
	ledger.AssertExpectations(t)
}

func TestPurchase_RejectedOrderNeverTouchesWallet(t *testing.T) {
	orders := new(MockOrderStore)
	products := new(MockProductStore)
	resolver := new(MockResolver)
	placer := new(MockPlacer)
	ledger := new(MockLedger)
	svc := newTestService(orders, products, resolver, placer, ledger)

	products.On("ByID", mock.Anything, 5).Return(testProduct(), nil)
	resolver.On("ResolveSKU", mock.Anything, mock.Anything).Return("mtn-1gb", nil)
	ledger.On("GetOrCreateAccount", mock.Anything, 42).Return(testAccount(1000), nil)
	orders.On("Create", mock.Anything, mock.Anything).Return(nil)
	orders.On("Transition", mock.Anything, 1, []string{StatusPending}, StatusProcessing).Return(true, nil)
	placer.On("PlaceOrder", mock.Anything, mock.Anything).Return(nil, provider.ErrOrderRejected)
	orders.On("Transition", mock.Anything, 1, []string{StatusProcessing}, StatusFailed).Return(true, nil)
	orders.On("SetFailureReason", mock.Anything, 1, mock.Anything).Return(nil)

	o, err := svc.Purchase(context.Background(), 42, 5, "08012345678")

	assert.ErrorIs(t, err, provider.ErrOrderRejected)
	assert.Equal(t, StatusFailed, o.Status)
	ledger.AssertNotCalled(t, "Debit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPurchase_AmbiguousOutcomeParksOrder(t *testing.T) {
	orders := new(MockOrderStore)
	products := new(MockProductStore)
	resolver := new(MockResolver)
	placer := new(MockPlacer)
	ledger := new(MockLedger)
	svc := newTestService(orders, products, resolver, placer, ledger)

	products.On("ByID", mock.Anything, 5).Return(testProduct(), nil)
	resolver.On("ResolveSKU", mock.Anything, mock.Anything).Return("mtn-1gb", nil)
	ledger.On("GetOrCreateAccount", mock.Anything, 42).Return(testAccount(1000), nil)
	orders.On("Create", mock.Anything, mock.Anything).Return(nil)
	orders.On("Transition", mock.Anything, 1, []string{StatusPending}, StatusProcessing).Return(true, nil)
	placer.On("PlaceOrder", mock.Anything, mock.Anything).Return(nil, provider.ErrProviderUnavailable)
	orders.On("Transition", mock.Anything, 1, []string{StatusProcessing}, StatusAwaiting).Return(true, nil)

	o, err := svc.Purchase(context.Background(), 42, 5, "08012345678")

	require.NoError(t, err)
	assert.Equal(t, StatusAwaiting, o.Status)
	ledger.AssertNotCalled(t, "Debit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPurchase_InsufficientFunds(t *testing.T) {
	orders := new(MockOrderStore)
	products := new(MockProductStore)
	resolver := new(MockResolver)
	placer := new(MockPlacer)
	ledger := new(MockLedger)
	svc := newTestService(orders, products, resolver, placer, ledger)

	products.On("ByID", mock.Anything, 5).Return(testProduct(), nil)
	resolver.On("ResolveSKU", mock.Anything, mock.Anything).Return("mtn-1gb", nil)
	ledger.On("GetOrCreateAccount", mock.Anything, 42).Return(testAccount(100), nil)

	_, err := svc.Purchase(context.Background(), 42, 5, "08012345678")

	assert.ErrorIs(t, err, wallet.ErrInsufficientFunds)
	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	placer.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything)
}

func TestPurchase_InvalidPhone(t *testing.T) {
	svc := newTestService(new(MockOrderStore), new(MockProductStore), new(MockResolver), new(MockPlacer), new(MockLedger))

	for _, phone := range []string{"", "12345", "8012345678", "080123456789", "0801234567a"} {
		_, err := svc.Purchase(context.Background(), 42, 5, phone)
		assert.ErrorIs(t, err, ErrInvalidPhone, phone)
	}
}

func TestPurchase_UnmappedProduct(t *testing.T) {
	orders := new(MockOrderStore)
	products := new(MockProductStore)
	resolver := new(MockResolver)
	placer := new(MockPlacer)
	ledger := new(MockLedger)
	svc := newTestService(orders, products, resolver, placer, ledger)

	products.On("ByID", mock.Anything, 5).Return(testProduct(), nil)
	resolver.On("ResolveSKU", mock.Anything, mock.Anything).Return("", catalog.ErrUnmappedProduct)

	_, err := svc.Purchase(context.Background(), 42, 5, "08012345678")

	assert.ErrorIs(t, err, catalog.ErrUnmappedProduct)
	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPurchase_DuplicateDebitTreatedAsApplied(t *testing.T) {
	orders := new(MockOrderStore)
	products := new(MockProductStore)
	resolver := new(MockResolver)
	placer := new(MockPlacer)
	ledger := new(MockLedger)
	svc := newTestService(orders, products, resolver, placer, ledger)

	products.On("ByID", mock.Anything, 5).Return(testProduct(), nil)
	resolver.On("ResolveSKU", mock.Anything, mock.Anything).Return("mtn-1gb", nil)
	ledger.On("GetOrCreateAccount", mock.Anything, 42).Return(testAccount(1000), nil)
	orders.On("Create", mock.Anything, mock.Anything).Return(nil)
	orders.On("Transition", mock.Anything, 1, []string{StatusPending}, StatusProcessing).Return(true, nil)
	placer.On("PlaceOrder", mock.Anything, mock.Anything).Return(&provider.OrderResult{}, nil)
	ledger.On("Debit", mock.Anything, 3, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, wallet.ErrDuplicateReference)
	orders.On("Transition", mock.Anything, 1, []string{StatusProcessing}, StatusSuccess).Return(true, nil)

	o, err := svc.Purchase(context.Background(), 42, 5, "08012345678")

	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, o.Status)
}

func TestPurchase_SettlesAfterClientDisconnect(t *testing.T) {
	orders := new(MockOrderStore)
	products := new(MockProductStore)
	resolver := new(MockResolver)
	placer := new(MockPlacer)
	ledger := new(MockLedger)
	svc := newTestService(orders, products, resolver, placer, ledger)

	ctx, cancel := context.WithCancel(context.Background())
	live := mock.MatchedBy(func(c context.Context) bool { return c.Err() == nil })

	products.On("ByID", mock.Anything, 5).Return(testProduct(), nil)
	resolver.On("ResolveSKU", mock.Anything, mock.Anything).Return("mtn-1gb", nil)
	ledger.On("GetOrCreateAccount", mock.Anything, 42).Return(testAccount(1000), nil)
	orders.On("Create", mock.Anything, mock.Anything).Return(nil)
	orders.On("Transition", mock.Anything, 1, []string{StatusPending}, StatusProcessing).Return(true, nil)
	// The caller hangs up while the provider call is in flight.
	placer.On("PlaceOrder", live, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(&provider.OrderResult{OrderID: 9001}, nil)
	orders.On("SetProviderOrderID", live, 1, 9001).Return(nil)
	ledger.On("Debit", live, 3, decimal.NewFromInt(350), mock.Anything, mock.Anything).
		Return(&wallet.LedgerEntry{}, nil)
	orders.On("Transition", live, 1, []string{StatusProcessing}, StatusSuccess).Return(true, nil)

	o, err := svc.Purchase(ctx, 42, 5, "08012345678")

	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, o.Status)
	orders.AssertExpectations(t)
	ledger.AssertExpectations(t)
}

func settledOrder(status string) *Order {
	return &Order{
		ID:        1,
		UserID:    42,
		RequestID: "dp_abc",
		Network:   "mtn",
		Amount:    decimal.NewFromInt(350),
		Status:    status,
	}
}

func TestFinalize_SuccessFromAwaitingDebits(t *testing.T) {
	orders := new(MockOrderStore)
	ledger := new(MockLedger)
	svc := newTestService(orders, new(MockProductStore), new(MockResolver), new(MockPlacer), ledger)

	orders.On("ByRequestID", mock.Anything, "dp_abc").Return(settledOrder(StatusAwaiting), nil)
	ledger.On("GetOrCreateAccount", mock.Anything, 42).Return(testAccount(1000), nil)
	ledger.On("Debit", mock.Anything, 3, decimal.NewFromInt(350), "dp_abc", mock.Anything).
		Return(&wallet.LedgerEntry{}, nil)
	orders.On("Transition", mock.Anything, 1,
		[]string{StatusPending, StatusProcessing, StatusAwaiting}, StatusSuccess).Return(true, nil)

	o, err := svc.Finalize(context.Background(), "dp_abc", StatusSuccess)

	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, o.Status)
	ledger.AssertExpectations(t)
}

func TestFinalize_SuccessReplayIsNoOp(t *testing.T) {
	orders := new(MockOrderStore)
	ledger := new(MockLedger)
	svc := newTestService(orders, new(MockProductStore), new(MockResolver), new(MockPlacer), ledger)

	orders.On("ByRequestID", mock.Anything, "dp_abc").Return(settledOrder(StatusSuccess), nil)

	_, err := svc.Finalize(context.Background(), "dp_abc", StatusSuccess)

	require.NoError(t, err)
	ledger.AssertNotCalled(t, "Debit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	orders.AssertNotCalled(t, "Transition", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFinalize_FailureAfterDebitRefunds(t *testing.T) {
	orders := new(MockOrderStore)
	ledger := new(MockLedger)
	svc := newTestService(orders, new(MockProductStore), new(MockResolver), new(MockPlacer), ledger)

	orders.On("ByRequestID", mock.Anything, "dp_abc").Return(settledOrder(StatusAwaiting), nil)
	ledger.On("HasEntry", mock.Anything, wallet.EntryDebit, "dp_abc").Return(true, nil)
	ledger.On("GetOrCreateAccount", mock.Anything, 42).Return(testAccount(650), nil)
	ledger.On("Credit", mock.Anything, 3, decimal.NewFromInt(350), "dp_abc", mock.Anything).
		Return(&wallet.LedgerEntry{}, nil)
	orders.On("Transition", mock.Anything, 1,
		[]string{StatusPending, StatusProcessing, StatusAwaiting}, StatusRefunded).Return(true, nil)

	o, err := svc.Finalize(context.Background(), "dp_abc", StatusFailed)

	require.NoError(t, err)
	assert.Equal(t, StatusRefunded, o.Status)
	ledger.AssertExpectations(t)
}

func TestFinalize_FailureWithoutDebitJustFails(t *testing.T) {
	orders := new(MockOrderStore)
	ledger := new(MockLedger)
	svc := newTestService(orders, new(MockProductStore), new(MockResolver), new(MockPlacer), ledger)

	orders.On("ByRequestID", mock.Anything, "dp_abc").Return(settledOrder(StatusAwaiting), nil)
	ledger.On("HasEntry", mock.Anything, wallet.EntryDebit, "dp_abc").Return(false, nil)
	orders.On("Transition", mock.Anything, 1,
		[]string{StatusPending, StatusProcessing, StatusAwaiting}, StatusFailed).Return(true, nil)

	o, err := svc.Finalize(context.Background(), "dp_abc", StatusFailed)

	require.NoError(t, err)
	assert.Equal(t, StatusFailed, o.Status)
	ledger.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFinalize_ConflictingOutcome(t *testing.T) {
	orders := new(MockOrderStore)
	ledger := new(MockLedger)
	svc := newTestService(orders, new(MockProductStore), new(MockResolver), new(MockPlacer), ledger)

	orders.On("ByRequestID", mock.Anything, "dp_abc").Return(settledOrder(StatusSuccess), nil)

	_, err := svc.Finalize(context.Background(), "dp_abc", StatusFailed)

	assert.ErrorIs(t, err, ErrReconciliationConflict)
}

func TestFinalize_RefundOfDeliveredOrder(t *testing.T) {
	orders := new(MockOrderStore)
	ledger := new(MockLedger)
	svc := newTestService(orders, new(MockProductStore), new(MockResolver), new(MockPlacer), ledger)

	orders.On("ByRequestID", mock.Anything, "dp_abc").Return(settledOrder(StatusSuccess), nil)
	ledger.On("HasEntry", mock.Anything, wallet.EntryDebit, "dp_abc").Return(true, nil)
	ledger.On("GetOrCreateAccount", mock.Anything, 42).Return(testAccount(650), nil)
	ledger.On("Credit", mock.Anything, 3, decimal.NewFromInt(350), "dp_abc", mock.Anything).
		Return(&wallet.LedgerEntry{}, nil)
	orders.On("Transition", mock.Anything, 1,
		[]string{StatusPending, StatusProcessing, StatusAwaiting, StatusSuccess}, StatusRefunded).Return(true, nil)

	o, err := svc.Finalize(context.Background(), "dp_abc", StatusRefunded)

	require.NoError(t, err)
	assert.Equal(t, StatusRefunded, o.Status)
}

func TestFinalize_RefundWithoutDebitConflicts(t *testing.T) {
	orders := new(MockOrderStore)
	ledger := new(MockLedger)
	svc := newTestService(orders, new(MockProductStore), new(MockResolver), new(MockPlacer), ledger)

	orders.On("ByRequestID", mock.Anything, "dp_abc").Return(settledOrder(StatusAwaiting), nil)
	ledger.On("HasEntry", mock.Anything, wallet.EntryDebit, "dp_abc").Return(false, nil)

	_, err := svc.Finalize(context.Background(), "dp_abc", StatusRefunded)

	assert.ErrorIs(t, err, ErrReconciliationConflict)
	ledger.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	orders.AssertNotCalled(t, "Transition", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFinalize_UnknownOrder(t *testing.T) {
	orders := new(MockOrderStore)
	svc := newTestService(orders, new(MockProductStore), new(MockResolver), new(MockPlacer), new(MockLedger))

	orders.On("ByRequestID", mock.Anything, "dp_nope").Return(nil, ErrOrderNotFound)

	_, err := svc.Finalize(context.Background(), "dp_nope", StatusSuccess)

	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestCancel_PendingOrder(t *testing.T) {
	orders := new(MockOrderStore)
	svc := newTestService(orders, new(MockProductStore), new(MockResolver), new(MockPlacer), new(MockLedger))

	orders.On("ByID", mock.Anything, 1).Return(settledOrder(StatusPending), nil)
	orders.On("Transition", mock.Anything, 1, []string{StatusPending, StatusProcessing}, StatusCancelled).Return(true, nil)

	o, err := svc.Cancel(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, o.Status)
}

func TestCancel_SettledOrderRefused(t *testing.T) {
	orders := new(MockOrderStore)
	svc := newTestService(orders, new(MockProductStore), new(MockResolver), new(MockPlacer), new(MockLedger))

	orders.On("ByID", mock.Anything, 1).Return(settledOrder(StatusSuccess), nil)
	orders.On("Transition", mock.Anything, 1, []string{StatusPending, StatusProcessing}, StatusCancelled).Return(false, nil)

	_, err := svc.Cancel(context.Background(), 1)

	assert.ErrorIs(t, err, ErrNotCancellable)
}

func TestGet_OtherUsersOrderHidden(t *testing.T) {
	orders := new(MockOrderStore)
	svc := newTestService(orders, new(MockProductStore), new(MockResolver), new(MockPlacer), new(MockLedger))

	orders.On("ByID", mock.Anything, 1).Return(settledOrder(StatusSuccess), nil)

	_, err := svc.Get(context.Background(), 99, 1)

	assert.ErrorIs(t, err, ErrOrderNotFound)
}
