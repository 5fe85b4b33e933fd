package catalog

import "context"

type Store interface {
	ByID(ctx context.Context, id int) (*Product, error)
	ListActive(ctx context.Context) ([]Product, error)
	ActiveByNetwork(ctx context.Context, network string) ([]Product, error)
	SetResolvedSKU(ctx context.Context, productID int, sku string) error
	Deactivate(ctx context.Context, productIDs []int) (int, error)
	Insert(ctx context.Context, p *Product) error
}

// VariationsFetcher is the slice of the provider gateway the catalog
// needs: the list of purchasable variations for one network service.
type VariationsFetcher interface {
	Variations(ctx context.Context, serviceID string) ([]Variation, error)
}
