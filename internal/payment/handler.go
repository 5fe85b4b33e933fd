package payment

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/KAOS-CODM/KaosSub/internal/api"
	"github.com/KAOS-CODM/KaosSub/internal/auth"
	"github.com/KAOS-CODM/KaosSub/internal/wallet"
)

type Handler struct {
	verifier *Verifier
}

func NewHandler(verifier *Verifier) *Handler {
	return &Handler{verifier: verifier}
}

type InitiateRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

func (h *Handler) InitiatePayment(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}
	email, ok := auth.GetUserEmail(c)
	if !ok || email == "" {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user email not available"})
		return
	}

	var req InitiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "amount is required"})
		return
	}

	intent, init, err := h.verifier.Initiate(c.Request.Context(), userID, email, req.Amount)
	switch {
	case errors.Is(err, ErrAmountTooSmall):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "amount must be at least 100"})
		return
	case errors.Is(err, ErrGatewayUnavailable):
		c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: "payment gateway unavailable, try again later"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to initialize payment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":           "Payment initialized successfully",
		"reference":         intent.Reference,
		"authorization_url": init.AuthorizationURL,
		"access_code":       init.AccessCode,
	})
}

func (h *Handler) VerifyPayment(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	reference := c.Param("reference")
	if reference == "" {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "payment reference required"})
		return
	}

	result, err := h.verifier.Verify(c.Request.Context(), userID, reference)
	switch {
	case errors.Is(err, ErrIntentNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "payment not found"})
		return
	case errors.Is(err, ErrPaymentFailed):
		c.JSON(http.StatusPaymentRequired, api.ErrorResponse{Error: "payment was not successful"})
		return
	case errors.Is(err, ErrGatewayUnavailable):
		c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: "payment gateway unavailable, try again later"})
		return
	case errors.Is(err, wallet.ErrStaleVersion):
		c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: "wallet busy, try again later"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "payment verification failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Payment verified successfully! Your wallet has been funded.",
		"amount":      result.Amount,
		"new_balance": result.NewBalance,
		"reference":   result.Reference,
	})
}

func (h *Handler) ListPayments(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	intents, err := h.verifier.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load payments"})
		return
	}
	if intents == nil {
		intents = []Intent{}
	}

	c.JSON(http.StatusOK, intents)
}
