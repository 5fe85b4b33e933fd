package catalog

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KAOS-CODM/KaosSub/internal/api"
	"github.com/KAOS-CODM/KaosSub/internal/logger"
)

type Handler struct {
	products Store
	service  *Service
}

func NewHandler(products Store, service *Service) *Handler {
	return &Handler{products: products, service: service}
}

// ListPlans returns the active catalog grouped by network.
func (h *Handler) ListPlans(c *gin.Context) {
	products, err := h.products.ListActive(c.Request.Context())
	if err != nil {
		logger.Errorf("Failed to list plans: %v", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch plans"})
		return
	}

	grouped := make(map[string][]Product)
	for _, p := range products {
		grouped[p.Network] = append(grouped[p.Network], p)
	}

	c.JSON(http.StatusOK, gin.H{"networks": grouped, "count": len(products)})
}

// Sync re-matches the catalog against the provider. Admin only.
func (h *Handler) Sync(c *gin.Context) {
	report, err := h.service.Sync(c.Request.Context())
	if err != nil {
		logger.Errorf("Catalog sync failed: %v", err)
		c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: "Catalog sync failed"})
		return
	}

	c.JSON(http.StatusOK, report)
}
