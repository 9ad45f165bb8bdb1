package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const defaultPaystackBaseURL = "https://api.paystack.co"

// PaystackClient talks to the Paystack transaction API. It is stateless
// beyond the secret key and safe for concurrent use.
type PaystackClient struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

// NewPaystack constructs a Paystack gateway client. An empty secret key is
// allowed here; the configuration error surfaces on first use so a
// deployment running Stripe only can still boot.
func NewPaystack(secretKey, baseURL string, timeout time.Duration) *PaystackClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultPaystackBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PaystackClient{
		secretKey: strings.TrimSpace(secretKey),
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: timeout},
	}
}

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type paystackInitializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type paystackTransactionData struct {
	Reference string          `json:"reference"`
	Status    string          `json:"status"`
	Amount    int64           `json:"amount"`
	Currency  string          `json:"currency"`
	PaidAt    string          `json:"paid_at"`
	Customer  struct {
		Email string `json:"email"`
	} `json:"customer"`
	Metadata json.RawMessage `json:"metadata"`
}

// Initialize opens a Paystack transaction and returns the checkout redirect
// details. Amount is in kobo.
func (p *PaystackClient) Initialize(ctx context.Context, req InitializeRequest) (InitializeResult, error) {
	var zero InitializeResult
	if p.secretKey == "" {
		return zero, configurationError("paystack secret key not configured")
	}
	payload := map[string]any{
		"email":    req.Email,
		"amount":   req.Amount,
		"currency": strings.ToUpper(req.Currency),
	}
	if len(req.Metadata) > 0 {
		payload["metadata"] = req.Metadata
	}
	env, err := p.do(ctx, http.MethodPost, "/transaction/initialize", payload)
	if err != nil {
		return zero, err
	}
	if !env.Status {
		return zero, providerError("paystack initialization failed: "+env.Message, nil)
	}
	var data paystackInitializeData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return zero, providerError("paystack returned an unexpected initialize payload", err)
	}
	return InitializeResult{
		Provider:         Paystack,
		Reference:        data.Reference,
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
	}, nil
}

// Verify fetches the authoritative transaction state for a reference. An
// unsuccessful transaction is reported as a failed Intent, not an error.
func (p *PaystackClient) Verify(ctx context.Context, reference string) (Intent, error) {
	var zero Intent
	if p.secretKey == "" {
		return zero, configurationError("paystack secret key not configured")
	}
	if strings.TrimSpace(reference) == "" {
		return zero, validationError("reference is required")
	}
	env, err := p.do(ctx, http.MethodGet, "/transaction/verify/"+reference, nil)
	if err != nil {
		return zero, err
	}
	if !env.Status {
		return zero, providerError("paystack verification failed: "+env.Message, nil)
	}
	var data paystackTransactionData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return zero, providerError("paystack returned an unexpected transaction payload", err)
	}

	intent := Intent{
		Provider:      Paystack,
		Reference:     data.Reference,
		Status:        normalisePaystackStatus(data.Status),
		RawStatus:     data.Status,
		Amount:        data.Amount,
		Currency:      strings.ToLower(data.Currency),
		CustomerEmail: data.Customer.Email,
		Metadata:      decodeMetadata(data.Metadata),
	}
	if t, err := time.Parse(time.RFC3339, data.PaidAt); err == nil {
		intent.PaidAt = &t
	}
	return intent, nil
}

func (p *PaystackClient) do(ctx context.Context, method, path string, body any) (paystackEnvelope, error) {
	var zero paystackEnvelope
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return zero, providerError("encode paystack request", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return zero, providerError("build paystack request", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return zero, providerError("paystack request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return zero, providerError("read paystack response", err)
	}

	var env paystackEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return zero, providerError(fmt.Sprintf("paystack returned status %d", resp.StatusCode), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := env.Message
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return zero, providerError(fmt.Sprintf("paystack returned status %d: %s", resp.StatusCode, message), nil)
	}
	return env, nil
}

func normalisePaystackStatus(status string) Status {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "success":
		return StatusSucceeded
	case "failed", "abandoned", "reversed":
		return StatusFailed
	default:
		return StatusPending
	}
}

// decodeMetadata tolerates the shapes Paystack echoes back: the object we
// sent, an empty string, or null.
func decodeMetadata(raw json.RawMessage) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil
	}
	if len(generic) == 0 {
		return nil
	}
	out := make(map[string]string, len(generic))
	for k, v := range generic {
		switch value := v.(type) {
		case string:
			out[k] = value
		case float64:
			out[k] = strconv.FormatFloat(value, 'f', -1, 64)
		default:
			encoded, _ := json.Marshal(v)
			out[k] = string(encoded)
		}
	}
	return out
}
