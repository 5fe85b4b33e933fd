package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/KAOS-CODM/KaosSub/internal/logger"
	"github.com/KAOS-CODM/KaosSub/internal/metrics"
)

var ErrUnmappedProduct = errors.New("no provider variation resolvable for product")

type NetworkReport struct {
	Total       int    `json:"total"`
	Mapped      int    `json:"mapped"`
	Deactivated int    `json:"deactivated"`
	Added       int    `json:"added"`
	Error       string `json:"error,omitempty"`
}

type SyncReport struct {
	Networks         map[string]NetworkReport `json:"networks"`
	TotalMapped      int                      `json:"total_mapped"`
	TotalDeactivated int                      `json:"total_deactivated"`
	TotalAdded       int                      `json:"total_added"`
}

// Service resolves products to provider SKUs and keeps the internal
// catalog in step with the provider's available set.
type Service struct {
	products Store
	provider VariationsFetcher
	matcher  *Matcher
}

func NewService(products Store, provider VariationsFetcher) *Service {
	return &Service{
		products: products,
		provider: provider,
		matcher:  NewMatcher(),
	}
}

// ResolveSKU returns the provider variation id for a product. The cached
// mapping wins; a live match against the provider catalog is only
// attempted when no mapping exists yet, and the result is persisted so
// the heuristics never re-run for the same product.
func (s *Service) ResolveSKU(ctx context.Context, p *Product) (string, error) {
	if p.ResolvedSKU != nil && *p.ResolvedSKU != "" {
		return *p.ResolvedSKU, nil
	}

	serviceID, ok := ServiceID(p.Network)
	if !ok {
		return "", ErrUnmappedProduct
	}

	variations, err := s.provider.Variations(ctx, serviceID)
	if err != nil {
		return "", err
	}

	variation, strategy, ok := s.matcher.Resolve(p, variations)
	if !ok {
		return "", ErrUnmappedProduct
	}

	logger.Infof("Resolved product %d (%s) to variation %s via %s", p.ID, p.Name, variation.VariationID, strategy)
	if err := s.products.SetResolvedSKU(ctx, p.ID, variation.VariationID); err != nil {
		logger.Errorf("Failed to cache SKU for product %d: %v", p.ID, err)
	}

	return variation.VariationID, nil
}

// Sync re-matches the whole catalog against the provider. Products that
// no longer match anything are deactivated; provider variations we have
// no product for are added, so the catalog tracks the provider without
// manual curation.
func (s *Service) Sync(ctx context.Context) (*SyncReport, error) {
	report := &SyncReport{Networks: make(map[string]NetworkReport)}

	for _, network := range Networks() {
		nr, err := s.syncNetwork(ctx, network)
		if err != nil {
			logger.Errorf("Catalog sync failed for %s: %v", network, err)
			report.Networks[network] = NetworkReport{Error: err.Error()}
			continue
		}

		report.Networks[network] = *nr
		report.TotalMapped += nr.Mapped
		report.TotalDeactivated += nr.Deactivated
		report.TotalAdded += nr.Added
		metrics.CatalogSyncMapped.WithLabelValues(network).Set(float64(nr.Mapped))
	}

	logger.Infof("Catalog sync completed: mapped=%d deactivated=%d added=%d",
		report.TotalMapped, report.TotalDeactivated, report.TotalAdded)
	return report, nil
}

func (s *Service) syncNetwork(ctx context.Context, network string) (*NetworkReport, error) {
	serviceID, _ := ServiceID(network)

	variations, err := s.provider.Variations(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	available := make([]Variation, 0, len(variations))
	for _, v := range variations {
		if v.Available() {
			available = append(available, v)
		}
	}

	products, err := s.products.ActiveByNetwork(ctx, network)
	if err != nil {
		return nil, err
	}

	report := &NetworkReport{Total: len(products)}

	var unmapped []int
	for i := range products {
		variation, _, ok := s.matcher.Resolve(&products[i], available)
		if !ok {
			unmapped = append(unmapped, products[i].ID)
			continue
		}
		if err := s.products.SetResolvedSKU(ctx, products[i].ID, variation.VariationID); err != nil {
			return nil, err
		}
		report.Mapped++
	}

	deactivated, err := s.products.Deactivate(ctx, unmapped)
	if err != nil {
		return nil, err
	}
	report.Deactivated = deactivated

	added, err := s.addMissing(ctx, network, available, products)
	if err != nil {
		return nil, err
	}
	report.Added = added

	return report, nil
}

func (s *Service) addMissing(ctx context.Context, network string, available []Variation, products []Product) (int, error) {
	added := 0
	for _, v := range available {
		if s.hasSimilarProduct(products, v) {
			continue
		}

		sku := v.VariationID
		p := &Product{
			Network:     network,
			Name:        v.DataPlan,
			Price:       v.Price,
			Validity:    extractValidity(v.DataPlan),
			ResolvedSKU: &sku,
			Active:      true,
		}
		if mb, ok := ExtractVolumeMB(v.DataPlan); ok {
			volume := int(mb)
			p.DataVolumeMB = &volume
		}

		if err := s.products.Insert(ctx, p); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

func (s *Service) hasSimilarProduct(products []Product, v Variation) bool {
	theirVolume, ok := ExtractVolumeMB(v.DataPlan)
	if !ok {
		return false
	}
	for i := range products {
		ourVolume, ok := ExtractVolumeMB(products[i].Name)
		if ok && ourVolume == theirVolume {
			return true
		}
	}
	return false
}

func extractValidity(planName string) string {
	name := strings.ToLower(planName)
	switch {
	case strings.Contains(name, "1 day"), strings.Contains(name, "daily"):
		return "1 day"
	case strings.Contains(name, "2 day"):
		return "2 days"
	case strings.Contains(name, "3 day"):
		return "3 days"
	case strings.Contains(name, "7 day"), strings.Contains(name, "weekly"):
		return "7 days"
	case strings.Contains(name, "14 day"):
		return "14 days"
	default:
		return "30 days"
	}
}
