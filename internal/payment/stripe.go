package payment

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	stripe "github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/client"
)

// StripeClient wraps the Stripe SDK behind the Gateway interface. The API
// key lives on an explicit client rather than the SDK's package-level
// global, so two differently-configured clients can coexist in one process.
type StripeClient struct {
	api *client.API
}

// NewStripe constructs a Stripe gateway client. As with Paystack, a missing
// key defers the configuration error to first use.
func NewStripe(secretKey string, timeout time.Duration) *StripeClient {
	secretKey = strings.TrimSpace(secretKey)
	if secretKey == "" {
		return &StripeClient{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	backends := stripe.NewBackends(&http.Client{Timeout: timeout})
	api := &client.API{}
	api.Init(secretKey, backends)
	return &StripeClient{api: api}
}

// Initialize creates a Stripe PaymentIntent. Amount is in cents.
func (s *StripeClient) Initialize(ctx context.Context, req InitializeRequest) (InitializeResult, error) {
	var zero InitializeResult
	if s.api == nil {
		return zero, configurationError("stripe secret key not configured")
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if req.Email != "" {
		params.ReceiptEmail = stripe.String(req.Email)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return zero, wrapStripeError("stripe payment intent creation failed", err)
	}
	return InitializeResult{
		Provider:     Stripe,
		Reference:    pi.ID,
		ClientSecret: pi.ClientSecret,
	}, nil
}

// Verify retrieves the authoritative PaymentIntent state. An intent that
// has not succeeded is a normal outcome, reported via Intent.Status.
func (s *StripeClient) Verify(ctx context.Context, reference string) (Intent, error) {
	var zero Intent
	if s.api == nil {
		return zero, configurationError("stripe secret key not configured")
	}
	if strings.TrimSpace(reference) == "" {
		return zero, validationError("payment intent id is required")
	}
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := s.api.PaymentIntents.Get(reference, params)
	if err != nil {
		return zero, wrapStripeError("stripe payment intent retrieval failed", err)
	}
	return Intent{
		Provider:      Stripe,
		Reference:     pi.ID,
		Status:        normaliseStripeStatus(pi.Status),
		RawStatus:     string(pi.Status),
		Amount:        pi.Amount,
		Currency:      string(pi.Currency),
		CustomerEmail: pi.ReceiptEmail,
		Metadata:      pi.Metadata,
	}, nil
}

func normaliseStripeStatus(status stripe.PaymentIntentStatus) Status {
	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		return StatusSucceeded
	case stripe.PaymentIntentStatusCanceled:
		return StatusFailed
	default:
		// requires_payment_method, requires_confirmation, requires_action,
		// processing: the customer may still complete the payment.
		return StatusPending
	}
}

func wrapStripeError(message string, err error) *Error {
	var sErr *stripe.Error
	if errors.As(err, &sErr) && sErr.Msg != "" {
		return providerError(message+": "+sErr.Msg, err)
	}
	return providerError(message, err)
}
