package payment

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/backend-oja/internal/money"
	"github.com/noah-isme/backend-oja/internal/obs"
	"github.com/noah-isme/backend-oja/internal/order"
)

// Service is the single source of truth for turning a verified payment into
// an order-state transition. It owns the major/minor unit conversion, the
// reference claim on initialize, and the at-most-once paid transition on
// confirm.
type Service struct {
	Orders   order.Store
	Gateways map[Provider]Gateway
	Currency string
	Log      zerolog.Logger
}

// InitiateParams describes a checkout attempt. Amount is in major currency
// units as received from the HTTP boundary.
type InitiateParams struct {
	OrderID  string
	Amount   int64
	Email    string
	Metadata map[string]string
}

// InitiateResult echoes what the gateway returned for the new attempt.
type InitiateResult struct {
	Provider         Provider
	Reference        string
	AuthorizationURL string
	AccessCode       string
	ClientSecret     string
	Amount           int64
}

// ConfirmResult reports a verification outcome. Confirmed is true when the
// order is paid, including the idempotent case where it already was.
type ConfirmResult struct {
	Confirmed bool
	Order     order.Order
	Intent    Intent
}

// Initiate loads the order, checks the requested amount against the stored
// total, opens a payment attempt with the provider and claims the returned
// reference on the order. An order with an in-flight or completed attempt
// rejects further initialisation; a failed attempt may be retried and gets
// a fresh reference.
func (s *Service) Initiate(ctx context.Context, provider Provider, p InitiateParams) (InitiateResult, error) {
	var zero InitiateResult
	gw, err := s.gateway(provider)
	if err != nil {
		return zero, err
	}

	ctx, span := otel.Tracer("payment.Service").Start(ctx, "PaymentService.Initiate")
	defer span.End()
	result := "error"
	defer func() {
		span.SetAttributes(
			attribute.String("payment.provider", string(provider)),
			attribute.String("payment.initiate.result", result),
		)
		if obs.PaymentInitializeTotal != nil {
			obs.PaymentInitializeTotal.WithLabelValues(string(provider), result).Inc()
		}
	}()
	span.SetAttributes(attribute.String("order.id", p.OrderID))

	o, err := s.Orders.GetByID(ctx, p.OrderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return zero, notFoundError("order not found")
		}
		return zero, err
	}
	if o.PaymentStatus == order.PaymentPaid {
		return zero, alreadyInitializedError("order is already paid")
	}
	if o.PaymentReference != "" && o.PaymentStatus == order.PaymentPending {
		return zero, alreadyInitializedError("order already has a payment attempt in flight")
	}

	amountMinor := money.ToMinorUnits(p.Amount)
	if amountMinor != o.TotalAmount {
		return zero, amountMismatchError("amount does not match the order total")
	}

	email := p.Email
	if email == "" {
		email = o.Email
	}
	metadata := map[string]string{
		"orderId":     o.ID,
		"orderNumber": o.OrderNumber,
	}
	for k, v := range p.Metadata {
		metadata[k] = v
	}

	res, err := gw.Initialize(ctx, InitializeRequest{
		Email:    email,
		Amount:   amountMinor,
		Currency: s.Currency,
		Metadata: metadata,
	})
	if err != nil {
		span.RecordError(err)
		s.Log.Error().Err(err).
			Str("provider", string(provider)).
			Str("order_id", o.ID).
			Msg("payment initialization failed")
		return zero, err
	}

	if err := s.Orders.ClaimReference(ctx, o.ID, string(provider), res.Reference); err != nil {
		switch {
		case errors.Is(err, order.ErrReferenceTaken):
			// Lost a race with a concurrent initiate; the other attempt owns
			// the order now and this reference is abandoned unpaid.
			return zero, alreadyInitializedError("order already has a payment attempt in flight")
		case errors.Is(err, order.ErrNotFound):
			return zero, notFoundError("order not found")
		default:
			return zero, err
		}
	}

	s.recordEvent(ctx, o.ID, provider, res.Reference, string(order.PaymentPending), map[string]any{
		"amount":   amountMinor,
		"currency": s.Currency,
		"metadata": metadata,
	})
	result = "success"
	s.Log.Info().
		Str("provider", string(provider)).
		Str("order_id", o.ID).
		Str("reference", res.Reference).
		Int64("amount_minor", amountMinor).
		Msg("payment initialized")

	return InitiateResult{
		Provider:         provider,
		Reference:        res.Reference,
		AuthorizationURL: res.AuthorizationURL,
		AccessCode:       res.AccessCode,
		ClientSecret:     res.ClientSecret,
		Amount:           amountMinor,
	}, nil
}

// Confirm fetches the authoritative payment state for a reference and
// reconciles the matching order. The pending -> paid transition happens at
// most once: concurrent confirms race on a conditional update and the loser
// observes zero rows affected, which is idempotent success, not an error.
func (s *Service) Confirm(ctx context.Context, provider Provider, reference string) (ConfirmResult, error) {
	var zero ConfirmResult
	gw, err := s.gateway(provider)
	if err != nil {
		return zero, err
	}

	ctx, span := otel.Tracer("payment.Service").Start(ctx, "PaymentService.Confirm")
	defer span.End()
	result := "error"
	defer func() {
		span.SetAttributes(
			attribute.String("payment.provider", string(provider)),
			attribute.String("payment.reference", reference),
			attribute.String("payment.confirm.result", result),
		)
		if obs.PaymentVerifyTotal != nil {
			obs.PaymentVerifyTotal.WithLabelValues(string(provider), result).Inc()
		}
	}()

	intent, err := gw.Verify(ctx, reference)
	if err != nil {
		span.RecordError(err)
		s.Log.Error().Err(err).
			Str("provider", string(provider)).
			Str("reference", reference).
			Msg("payment verification failed")
		return zero, err
	}

	o, err := s.Orders.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			// Forged or stale reference; nothing to reconcile.
			result = "unknown_reference"
			return zero, notFoundError("no order matches this payment reference")
		}
		return zero, err
	}

	if o.PaymentStatus == order.PaymentPaid {
		// Duplicate confirm for an already settled order. Never re-mutate
		// and never downgrade, regardless of what the provider reports now.
		result = "already_paid"
		return ConfirmResult{Confirmed: true, Order: o, Intent: intent}, nil
	}

	if intent.Status != StatusSucceeded {
		if _, err := s.Orders.MarkFailed(ctx, o.ID); err != nil {
			return zero, err
		}
		s.recordEvent(ctx, o.ID, provider, reference, string(order.PaymentFailed), map[string]any{
			"provider_status": intent.RawStatus,
			"amount":          intent.Amount,
		})
		result = "unconfirmed"
		s.Log.Info().
			Str("provider", string(provider)).
			Str("order_id", o.ID).
			Str("reference", reference).
			Str("provider_status", intent.RawStatus).
			Msg("payment not confirmed")
		o.PaymentStatus = order.PaymentFailed
		return ConfirmResult{Confirmed: false, Order: o, Intent: intent}, nil
	}

	if intent.Amount != o.TotalAmount {
		s.recordEvent(ctx, o.ID, provider, reference, "amount_mismatch", map[string]any{
			"verified_amount": intent.Amount,
			"order_total":     o.TotalAmount,
		})
		result = "amount_mismatch"
		s.Log.Error().
			Str("provider", string(provider)).
			Str("order_id", o.ID).
			Str("reference", reference).
			Int64("verified_amount", intent.Amount).
			Int64("order_total", o.TotalAmount).
			Msg("verified amount does not match order total")
		return zero, amountMismatchError("verified amount does not match the order total")
	}

	if id, ok := intent.Metadata["orderId"]; ok && id != "" && id != o.ID {
		s.Log.Warn().
			Str("order_id", o.ID).
			Str("metadata_order_id", id).
			Str("reference", reference).
			Msg("intent metadata names a different order")
	}

	paidAt := time.Now().UTC()
	if intent.PaidAt != nil {
		paidAt = *intent.PaidAt
	}
	transitioned, err := s.Orders.MarkPaid(ctx, o.ID, paidAt)
	if err != nil {
		return zero, err
	}
	if transitioned {
		s.recordEvent(ctx, o.ID, provider, reference, string(order.PaymentPaid), map[string]any{
			"amount":  intent.Amount,
			"paid_at": paidAt,
		})
	}
	result = "confirmed"
	s.Log.Info().
		Str("provider", string(provider)).
		Str("order_id", o.ID).
		Str("reference", reference).
		Bool("transitioned", transitioned).
		Msg("payment confirmed")

	o.PaymentStatus = order.PaymentPaid
	o.PaidAt = &paidAt
	return ConfirmResult{Confirmed: true, Order: o, Intent: intent}, nil
}

func (s *Service) gateway(provider Provider) (Gateway, error) {
	gw, ok := s.Gateways[provider]
	if !ok || gw == nil {
		return nil, configurationError(string(provider) + " gateway not configured")
	}
	return gw, nil
}

// recordEvent appends to the payment audit log. Failures are logged and
// swallowed: the log supports manual reconciliation but must not fail the
// money movement it describes.
func (s *Service) recordEvent(ctx context.Context, orderID string, provider Provider, reference, status string, payload map[string]any) {
	encoded, _ := json.Marshal(payload)
	err := s.Orders.RecordEvent(ctx, order.Event{
		OrderID:   orderID,
		Provider:  string(provider),
		Reference: reference,
		Status:    status,
		Payload:   encoded,
	})
	if err != nil {
		s.Log.Error().Err(err).
			Str("order_id", orderID).
			Str("reference", reference).
			Msg("record payment event")
	}
}
