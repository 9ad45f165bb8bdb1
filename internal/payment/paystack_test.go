package payment_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/noah-isme/backend-oja/internal/payment"
)

func TestPaystackInitialize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/initialize" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test_123" {
			t.Errorf("missing bearer auth, got %q", got)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["amount"] != float64(500_000) {
			t.Errorf("expected minor-unit amount 500000, got %v", body["amount"])
		}
		if body["currency"] != "NGN" {
			t.Errorf("expected uppercase currency, got %v", body["currency"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  true,
			"message": "Authorization URL created",
			"data": map[string]any{
				"authorization_url": "https://checkout.paystack.com/abc",
				"access_code":       "AC_1",
				"reference":         "ref-abc",
			},
		})
	}))
	defer srv.Close()

	client := payment.NewPaystack("sk_test_123", srv.URL, time.Second)
	res, err := client.Initialize(context.Background(), payment.InitializeRequest{
		Email:    "buyer@example.com",
		Amount:   500_000,
		Currency: "ngn",
		Metadata: map[string]string{"orderId": "ord-1"},
	})
	if err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if res.Reference != "ref-abc" || res.AccessCode != "AC_1" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.AuthorizationURL != "https://checkout.paystack.com/abc" {
		t.Fatalf("unexpected authorization url: %s", res.AuthorizationURL)
	}
}

func TestPaystackVerifySuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/verify/ref-abc" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  true,
			"message": "Verification successful",
			"data": map[string]any{
				"reference": "ref-abc",
				"status":    "success",
				"amount":    500_000,
				"currency":  "NGN",
				"paid_at":   "2026-03-01T12:00:00Z",
				"customer":  map[string]any{"email": "buyer@example.com"},
				"metadata":  map[string]any{"orderId": "ord-1"},
			},
		})
	}))
	defer srv.Close()

	client := payment.NewPaystack("sk_test_123", srv.URL, time.Second)
	intent, err := client.Verify(context.Background(), "ref-abc")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if intent.Status != payment.StatusSucceeded {
		t.Fatalf("expected succeeded, got %s", intent.Status)
	}
	if intent.Amount != 500_000 || intent.Currency != "ngn" {
		t.Fatalf("unexpected intent: %+v", intent)
	}
	if intent.PaidAt == nil {
		t.Fatalf("paid_at not parsed")
	}
	if intent.Metadata["orderId"] != "ord-1" {
		t.Fatalf("metadata not decoded: %v", intent.Metadata)
	}
}

func TestPaystackVerifyFailedTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  true,
			"message": "Verification successful",
			"data": map[string]any{
				"reference": "ref-abc",
				"status":    "abandoned",
				"amount":    500_000,
				"currency":  "NGN",
				"metadata":  "",
			},
		})
	}))
	defer srv.Close()

	client := payment.NewPaystack("sk_test_123", srv.URL, time.Second)
	intent, err := client.Verify(context.Background(), "ref-abc")
	if err != nil {
		t.Fatalf("an unsuccessful transaction is not a transport error: %v", err)
	}
	if intent.Status != payment.StatusFailed {
		t.Fatalf("expected failed, got %s", intent.Status)
	}
	if intent.RawStatus != "abandoned" {
		t.Fatalf("raw status lost: %s", intent.RawStatus)
	}
}

func TestPaystackNon2xxIsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  false,
			"message": "Invalid key",
		})
	}))
	defer srv.Close()

	client := payment.NewPaystack("sk_bad", srv.URL, time.Second)
	_, err := client.Verify(context.Background(), "ref-abc")
	if !payment.IsKind(err, payment.KindProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestPaystackMissingKeyMakesNoCall(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := payment.NewPaystack("", srv.URL, time.Second)
	_, err := client.Initialize(context.Background(), payment.InitializeRequest{Email: "a@b.c", Amount: 100})
	if !payment.IsKind(err, payment.KindConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	_, err = client.Verify(context.Background(), "ref")
	if !payment.IsKind(err, payment.KindConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if called {
		t.Fatalf("client must not reach the network without a key")
	}
}
