package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/KAOS-CODM/KaosSub/internal/api"
	"github.com/KAOS-CODM/KaosSub/internal/logger"
	"github.com/KAOS-CODM/KaosSub/internal/metrics"
	"github.com/KAOS-CODM/KaosSub/internal/order"
)

// Settler applies a provider-reported outcome to an order.
type Settler interface {
	Finalize(ctx context.Context, requestID, outcome string) (*order.Order, error)
}

// Reviewer takes settlements that could not be applied immediately.
type Reviewer interface {
	Enqueue(ctx context.Context, item ReviewItem) error
}

// Payload is the provider's fulfillment notification.
type Payload struct {
	RequestID     string          `json:"request_id"`
	Status        string          `json:"status"`
	OrderID       int             `json:"order_id"`
	AmountCharged decimal.Decimal `json:"amount_charged"`
	Message       string          `json:"message"`
}

type Handler struct {
	secret  string
	settler Settler
	reviews Reviewer
}

func NewHandler(secret string, settler Settler, reviews Reviewer) *Handler {
	return &Handler{secret: secret, settler: settler, reviews: reviews}
}

// Receive handles the provider's fulfillment webhook. Once the signature
// and payload check out we always acknowledge with 200: the provider
// retries on anything else, and a settlement we cannot apply goes to the
// review queue instead of bouncing forever.
func (h *Handler) Receive(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Unreadable body"})
		return
	}

	if !VerifySignature(h.secret, body, c.GetHeader("x-signature")) {
		metrics.RecordWebhook("invalid_signature")
		logger.Warn("Webhook rejected: bad signature")
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "Invalid signature"})
		return
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil || payload.RequestID == "" {
		metrics.RecordWebhook("bad_payload")
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid payload"})
		return
	}

	outcome, known := mapOutcome(payload.Status)
	if !known {
		// Not a terminal status we settle on. Acknowledge and ignore;
		// guessing an outcome here could wrongly finalize the order.
		metrics.RecordWebhook("ignored_status")
		logger.Infof("Webhook ignored: %s has non-terminal status %q", payload.RequestID, payload.Status)
		c.JSON(http.StatusOK, api.AckResponse{Status: "success", Message: "webhook processed"})
		return
	}

	if _, err := h.settler.Finalize(c.Request.Context(), payload.RequestID, outcome); err != nil {
		switch {
		case errors.Is(err, order.ErrReconciliationConflict):
			metrics.RecordWebhook("conflict")
		case errors.Is(err, order.ErrOrderNotFound):
			metrics.RecordWebhook("unknown_order")
		default:
			metrics.RecordWebhook("error")
		}
		h.review(c.Request.Context(), payload, outcome, err.Error())
		c.JSON(http.StatusOK, api.AckResponse{Status: "success", Message: "webhook processed"})
		return
	}

	metrics.RecordWebhook("applied")
	logger.Infof("Webhook applied: %s -> %s", payload.RequestID, outcome)
	c.JSON(http.StatusOK, api.AckResponse{Status: "success", Message: "webhook processed"})
}

func (h *Handler) review(ctx context.Context, payload Payload, outcome, reason string) {
	item := ReviewItem{
		RequestID: payload.RequestID,
		Outcome:   outcome,
		RawStatus: payload.Status,
		Reason:    reason,
	}
	if err := h.reviews.Enqueue(ctx, item); err != nil {
		logger.Errorf("Failed to queue webhook %s for review: %v", payload.RequestID, err)
	}
}

// mapOutcome folds the provider's status vocabulary into our settlement
// outcomes. Anything unrecognized is not settled on.
func mapOutcome(status string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "completed", "completed-api", "success", "successful", "delivered":
		return order.StatusSuccess, true
	case "failed", "fail", "cancelled":
		return order.StatusFailed, true
	case "refunded", "reversed":
		return order.StatusRefunded, true
	default:
		return "", false
	}
}
