package payment

import (
	"context"
	"time"
)

// Provider identifies a payment gateway. Fixed at intent creation, never
// changes afterwards.
type Provider string

const (
	Paystack Provider = "paystack"
	Stripe   Provider = "stripe"
)

// Status is the provider-agnostic payment state. Once Succeeded it is
// terminal; the reconciliation service never moves an intent or its order
// out of a successful state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// InitializeRequest captures what a gateway needs to open a payment attempt.
// Amount is in minor currency units; conversion from the major-unit HTTP
// boundary happens before the gateway is reached.
type InitializeRequest struct {
	Email    string
	Amount   int64
	Currency string
	Metadata map[string]string
}

// InitializeResult is the minimal information returned when a gateway opens
// an attempt. Paystack populates AuthorizationURL/AccessCode, Stripe
// populates ClientSecret; Reference is set by both.
type InitializeResult struct {
	Provider         Provider
	Reference        string
	AuthorizationURL string
	AccessCode       string
	ClientSecret     string
}

// Intent is the authoritative view of a payment attempt as reported by a
// provider's verify call. A provider reporting an unsuccessful transaction
// is a normal outcome and yields an Intent with StatusFailed, not an error.
type Intent struct {
	Provider      Provider
	Reference     string
	Status        Status
	RawStatus     string
	Amount        int64
	Currency      string
	PaidAt        *time.Time
	CustomerEmail string
	Metadata      map[string]string
}

// Gateway abstracts the two operations required from an upstream payment
// provider. Implementations are stateless beyond their credential and make
// exactly one remote call per operation; no retries.
type Gateway interface {
	Initialize(ctx context.Context, req InitializeRequest) (InitializeResult, error)
	Verify(ctx context.Context, reference string) (Intent, error)
}
