package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrGatewayUnavailable = errors.New("payment gateway unreachable")
	ErrPaymentFailed      = errors.New("payment was not successful")
)

var minorUnit = decimal.NewFromInt(100)

// PaystackClient wraps the card-payment gateway. Amounts cross the wire
// in kobo (minor units); everything above this client works in naira.
type PaystackClient struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

func NewPaystackClient(baseURL, secretKey string, timeout time.Duration) *PaystackClient {
	return &PaystackClient{
		baseURL:   baseURL,
		secretKey: secretKey,
		http:      &http.Client{Timeout: timeout},
	}
}

type InitializeResult struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
}

type VerifyResult struct {
	Status string          `json:"status"`
	Amount decimal.Decimal `json:"amount"`
	Raw    json.RawMessage `json:"raw"`
}

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (p *PaystackClient) Initialize(ctx context.Context, email string, amount decimal.Decimal, callbackURL string) (*InitializeResult, error) {
	payload := map[string]interface{}{
		"email":        email,
		"amount":       amount.Mul(minorUnit).IntPart(),
		"currency":     "NGN",
		"callback_url": callbackURL,
	}

	env, err := p.do(ctx, http.MethodPost, "/transaction/initialize", payload)
	if err != nil {
		return nil, err
	}
	if !env.Status {
		return nil, fmt.Errorf("%w: %s", ErrPaymentFailed, env.Message)
	}

	var result InitializeResult
	if err := json.Unmarshal(env.Data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode initialize response: %w", err)
	}
	return &result, nil
}

func (p *PaystackClient) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	env, err := p.do(ctx, http.MethodGet, "/transaction/verify/"+reference, nil)
	if err != nil {
		return nil, err
	}

	var data struct {
		Status string `json:"status"`
		Amount int64  `json:"amount"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to decode verify response: %w", err)
	}

	return &VerifyResult{
		Status: data.Status,
		Amount: decimal.NewFromInt(data.Amount).Div(minorUnit),
		Raw:    env.Data,
	}, nil
}

func (p *PaystackClient) do(ctx context.Context, method, path string, payload interface{}) (*paystackEnvelope, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: gateway returned %d", ErrGatewayUnavailable, resp.StatusCode)
	}

	var env paystackEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: %s", ErrPaymentFailed, env.Message)
	}

	return &env, nil
}
