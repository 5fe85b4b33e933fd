package order

import "context"

type Store interface {
	Create(ctx context.Context, o *Order) error
	ByID(ctx context.Context, id int) (*Order, error)
	ByRequestID(ctx context.Context, requestID string) (*Order, error)
	ListByUser(ctx context.Context, userID, limit, offset int) ([]Order, error)
	Transition(ctx context.Context, orderID int, from []string, to string) (bool, error)
	SetFailureReason(ctx context.Context, orderID int, reason string) error
	SetProviderOrderID(ctx context.Context, orderID, providerOrderID int) error
}
