package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/KAOS-CODM/KaosSub/internal/catalog"
	"github.com/KAOS-CODM/KaosSub/internal/logger"
	"github.com/KAOS-CODM/KaosSub/internal/metrics"
)

var (
	// ErrOrderRejected means the provider definitively refused the order.
	// Safe to fail the order without charging the wallet.
	ErrOrderRejected = errors.New("provider rejected order")

	// ErrProviderUnavailable means we do not know whether the order went
	// through: timeout, transport failure or a 5xx. The caller must treat
	// the outcome as ambiguous, never as failed.
	ErrProviderUnavailable = errors.New("provider unavailable")

	ErrAuthFailed = errors.New("provider authentication failed")
)

// RequestError is a definitive 4xx answer from the provider. Unlike
// ErrProviderUnavailable the outcome is known; what it means depends on
// the endpoint, so each wrapper translates it.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("provider refused request: status %d: %s", e.Status, e.Message)
}

// tokenTTL is kept under the provider's one-hour token lifetime so we
// refresh before requests start bouncing.
const tokenTTL = 50 * time.Minute

type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
	refresh     singleflight.Group
}

func NewClient(baseURL, username, password string, timeout time.Duration) *Client {
	return &Client{
		baseURL:  baseURL,
		username: username,
		password: password,
		http:     &http.Client{Timeout: timeout},
	}
}

// NewRequestID mints the idempotency key sent with every order. The
// provider deduplicates on it, so a retried request can never double-buy.
func NewRequestID() string {
	return "dp_" + uuid.NewString()
}

type OrderRequest struct {
	RequestID   string `json:"request_id"`
	Phone       string `json:"phone"`
	ServiceID   string `json:"service_id"`
	VariationID string `json:"variation_id"`
}

type OrderResult struct {
	OrderID int             `json:"order_id"`
	Status  string          `json:"status"`
	Raw     json.RawMessage `json:"-"`
}

type envelope struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Variations lists the purchasable data plans for one network service.
func (c *Client) Variations(ctx context.Context, serviceID string) ([]catalog.Variation, error) {
	env, err := c.call(ctx, http.MethodGet, "/api/v2/variations/data?service_id="+serviceID, nil, "variations")
	if err != nil {
		return nil, err
	}

	var variations []catalog.Variation
	if err := json.Unmarshal(env.Data, &variations); err != nil {
		return nil, fmt.Errorf("decode variations: %w", err)
	}
	return variations, nil
}

// PlaceOrder submits a data purchase. A non-nil error carries the
// rejected/ambiguous distinction the order flow depends on.
func (c *Client) PlaceOrder(ctx context.Context, req OrderRequest) (*OrderResult, error) {
	env, err := c.call(ctx, http.MethodPost, "/api/v2/data", req, "place_order")
	if err != nil {
		var reqErr *RequestError
		if errors.As(err, &reqErr) {
			// The provider answered; the order definitively did not go
			// through.
			logger.Warnf("Provider rejected order %s: %s", req.RequestID, reqErr.Message)
			return nil, fmt.Errorf("%w: %s", ErrOrderRejected, reqErr.Message)
		}
		return nil, err
	}

	switch env.Code {
	case "success", "order_placed_successfully":
	default:
		logger.Warnf("Provider rejected order %s: %s (%s)", req.RequestID, env.Message, env.Code)
		return nil, fmt.Errorf("%w: %s", ErrOrderRejected, env.Message)
	}

	result := &OrderResult{Raw: env.Data}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, result); err != nil {
			logger.Warnf("Unparseable order data for %s: %v", req.RequestID, err)
		}
	}
	return result, nil
}

// Balance returns the provider wallet balance in naira.
func (c *Client) Balance(ctx context.Context) (decimal.Decimal, error) {
	env, err := c.call(ctx, http.MethodGet, "/api/v2/balance", nil, "balance")
	if err != nil {
		return decimal.Zero, err
	}

	var data struct {
		Balance decimal.Decimal `json:"balance"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return decimal.Zero, fmt.Errorf("decode balance: %w", err)
	}
	return data.Balance, nil
}

// call performs one authenticated request, refreshing the token and
// retrying once when the provider answers 401.
func (c *Client) call(ctx context.Context, method, path string, body any, endpoint string) (*envelope, error) {
	env, status, err := c.doOnce(ctx, method, path, body, endpoint)
	if status == http.StatusUnauthorized {
		c.invalidateToken()
		env, status, err = c.doOnce(ctx, method, path, body, endpoint)
	}
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		return nil, ErrAuthFailed
	}
	return env, nil
}

func (c *Client) doOnce(ctx context.Context, method, path string, body any, endpoint string) (*envelope, int, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		metrics.RecordProviderRequest(endpoint, "auth_error")
		return nil, 0, err
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, 0, err
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordProviderRequest(endpoint, "unreachable")
		return nil, 0, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordProviderRequest(endpoint, "unreachable")
		return nil, resp.StatusCode, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		metrics.RecordProviderRequest(endpoint, "server_error")
		return nil, resp.StatusCode, fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		metrics.RecordProviderRequest(endpoint, "unauthorized")
		return nil, resp.StatusCode, nil
	}

	env := &envelope{}
	if err := json.Unmarshal(raw, env); err != nil {
		metrics.RecordProviderRequest(endpoint, "bad_response")
		return nil, resp.StatusCode, fmt.Errorf("%w: unparseable response", ErrProviderUnavailable)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		metrics.RecordProviderRequest(endpoint, "rejected")
		return nil, resp.StatusCode, &RequestError{Status: resp.StatusCode, Message: env.Message}
	}

	metrics.RecordProviderRequest(endpoint, "ok")
	return env, resp.StatusCode, nil
}

// ensureToken returns a cached token or fetches a fresh one. Concurrent
// callers racing on an expired token share a single refresh.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		token := c.token
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	v, err, _ := c.refresh.Do("token", func() (any, error) {
		return c.fetchToken(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) fetchToken(ctx context.Context) (string, error) {
	payload, _ := json.Marshal(map[string]string{
		"username": c.username,
		"password": c.password,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/jwt-auth/v1/token", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrAuthFailed, resp.StatusCode)
	}

	var data struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	if data.Token == "" {
		return "", ErrAuthFailed
	}

	c.mu.Lock()
	c.token = data.Token
	c.tokenExpiry = time.Now().Add(tokenTTL)
	c.mu.Unlock()

	logger.Info("Provider token refreshed")
	return data.Token, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}
