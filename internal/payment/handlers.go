package payment

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-oja/internal/common"
	"github.com/noah-isme/backend-oja/internal/money"
)

// Handler exposes the payment endpoints. Amounts cross this boundary in
// major currency units; the service converts before talking to a gateway.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type initializeRequest struct {
	Email    string            `json:"email" validate:"required,email"`
	Amount   int64             `json:"amount" validate:"required,gt=0"`
	OrderID  string            `json:"orderId" validate:"required"`
	Metadata map[string]string `json:"metadata"`
}

// PaystackInitialize handles POST /api/payment/paystack/initialize.
func (h *Handler) PaystackInitialize(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeInitialize(w, r)
	if !ok {
		return
	}
	res, err := h.Svc.Initiate(r.Context(), Paystack, InitiateParams{
		OrderID:  req.OrderID,
		Amount:   req.Amount,
		Email:    req.Email,
		Metadata: req.Metadata,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"authorization_url": res.AuthorizationURL,
			"reference":         res.Reference,
			"access_code":       res.AccessCode,
		},
	})
}

// PaystackVerify handles GET /api/payment/paystack/verify/{reference}.
// An unconfirmed payment is a 200 with success=false, not an error: the
// verification itself worked, the customer just has not paid.
func (h *Handler) PaystackVerify(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	res, err := h.Svc.Confirm(r.Context(), Paystack, reference)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !res.Confirmed {
		common.JSON(w, http.StatusOK, map[string]any{
			"success": false,
			"message": "payment not successful",
			"status":  res.Intent.RawStatus,
		})
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"reference": res.Intent.Reference,
			"amount":    money.MajorUnitsTruncated(res.Intent.Amount),
			"status":    res.Intent.RawStatus,
			"paidAt":    res.Intent.PaidAt,
			"customer": map[string]any{
				"email": res.Intent.CustomerEmail,
			},
			"metadata": res.Intent.Metadata,
		},
	})
}

// StripeCreateIntent handles POST /api/payment/stripe/create-intent.
func (h *Handler) StripeCreateIntent(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeInitialize(w, r)
	if !ok {
		return
	}
	res, err := h.Svc.Initiate(r.Context(), Stripe, InitiateParams{
		OrderID:  req.OrderID,
		Amount:   req.Amount,
		Email:    req.Email,
		Metadata: req.Metadata,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"clientSecret":    res.ClientSecret,
		"paymentIntentId": res.Reference,
	})
}

// StripeConfirm handles GET /api/payment/stripe/confirm/{reference}.
func (h *Handler) StripeConfirm(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	res, err := h.Svc.Confirm(r.Context(), Stripe, reference)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"success": res.Confirmed,
		"data": map[string]any{
			"id":       res.Intent.Reference,
			"status":   res.Intent.RawStatus,
			"amount":   money.MajorUnitsTruncated(res.Intent.Amount),
			"metadata": res.Intent.Metadata,
		},
	})
}

func (h *Handler) decodeInitialize(w http.ResponseWriter, r *http.Request) (initializeRequest, bool) {
	var req initializeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return req, false
	}
	if err := h.Validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "email, amount and orderId are required", nil)
		return req, false
	}
	return req, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	var pe *Error
	if errors.As(err, &pe) {
		common.JSONError(w, pe.HTTPStatus(), pe.Code(), pe.Message, nil)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
}

// Routes mounts the payment endpoints on a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/paystack/initialize", h.PaystackInitialize)
	r.Get("/paystack/verify/{reference}", h.PaystackVerify)
	r.Post("/stripe/create-intent", h.StripeCreateIntent)
	r.Get("/stripe/confirm/{reference}", h.StripeConfirm)
}
