package order

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/KAOS-CODM/KaosSub/internal/api"
	"github.com/KAOS-CODM/KaosSub/internal/auth"
	"github.com/KAOS-CODM/KaosSub/internal/catalog"
	"github.com/KAOS-CODM/KaosSub/internal/logger"
	"github.com/KAOS-CODM/KaosSub/internal/provider"
	"github.com/KAOS-CODM/KaosSub/internal/wallet"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type PurchaseRequest struct {
	ProductID int    `json:"product_id" binding:"required"`
	Phone     string `json:"phone" binding:"required"`
}

func (h *Handler) CreateOrder(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "product_id and phone are required"})
		return
	}

	o, err := h.service.Purchase(c.Request.Context(), userID, req.ProductID, req.Phone)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, o)
	case errors.Is(err, ErrInvalidPhone), errors.Is(err, ErrProductClosed):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, catalog.ErrProductNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Product not found"})
	case errors.Is(err, catalog.ErrUnmappedProduct):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Product is not currently available from the provider"})
	case errors.Is(err, wallet.ErrInsufficientFunds):
		c.JSON(http.StatusPaymentRequired, api.ErrorResponse{Error: "Insufficient wallet balance"})
	case errors.Is(err, provider.ErrOrderRejected):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Order was rejected by the provider", "order": o})
	case errors.Is(err, provider.ErrProviderUnavailable):
		c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: "Provider is unavailable, try again later"})
	default:
		logger.Errorf("Purchase failed: %v", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create order"})
	}
}

func (h *Handler) GetOrder(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}

	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid order id"})
		return
	}

	o, err := h.service.Get(c.Request.Context(), userID, orderID)
	if errors.Is(err, ErrOrderNotFound) {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Order not found"})
		return
	}
	if err != nil {
		logger.Errorf("Failed to fetch order %d: %v", orderID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch order"})
		return
	}

	c.JSON(http.StatusOK, o)
}

func (h *Handler) ListOrders(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	orders, err := h.service.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		logger.Errorf("Failed to list orders for user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

// CancelOrder voids a pending order. Admin only.
func (h *Handler) CancelOrder(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid order id"})
		return
	}

	o, err := h.service.Cancel(c.Request.Context(), orderID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, o)
	case errors.Is(err, ErrOrderNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Order not found"})
	case errors.Is(err, ErrNotCancellable):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Order can no longer be cancelled"})
	default:
		logger.Errorf("Failed to cancel order %d: %v", orderID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to cancel order"})
	}
}
