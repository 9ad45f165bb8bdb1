package identity_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-oja/internal/identity"
)

func newProvider(t *testing.T, handler http.HandlerFunc) *identity.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return identity.NewClient(srv.URL, time.Second)
}

func TestVerifyToken(t *testing.T) {
	client := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/verify" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("token not forwarded, got %q", got)
		}
		_ = json.NewEncoder(w).Encode(identity.Principal{UserID: "ext-42", Email: "user@example.com"})
	})

	p, err := client.VerifyToken(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if p.UserID != "ext-42" || p.Email != "user@example.com" {
		t.Fatalf("unexpected principal: %+v", p)
	}
}

func TestVerifyTokenRejected(t *testing.T) {
	client := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	_, err := client.VerifyToken(context.Background(), "tok-bad")
	if !errors.Is(err, identity.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestVerifyTokenEmptySubjectIsRejected(t *testing.T) {
	client := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(identity.Principal{Email: "no-subject@example.com"})
	})
	_, err := client.VerifyToken(context.Background(), "tok-1")
	if !errors.Is(err, identity.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestVerifyTokenNotConfigured(t *testing.T) {
	client := identity.NewClient("", time.Second)
	_, err := client.VerifyToken(context.Background(), "tok-1")
	if !errors.Is(err, identity.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

type stubUsers struct {
	upserts int
	last    string
}

func (s *stubUsers) Upsert(ctx context.Context, externalID, email string) (identity.User, error) {
	s.upserts++
	s.last = externalID
	return identity.User{ID: "uid-1", ExternalID: externalID, Email: email}, nil
}

func TestRequireAuthAndSync(t *testing.T) {
	client := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(identity.Principal{UserID: "ext-42", Email: "user@example.com"})
	})
	users := &stubUsers{}
	h := &identity.Handler{Users: users, Log: zerolog.Nop()}
	handler := client.RequireAuth(http.HandlerFunc(h.Sync))

	req := httptest.NewRequest(http.MethodPost, "/api/users/sync", nil)
	req.Header.Set("Authorization", "Bearer tok-1")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if users.upserts != 1 || users.last != "ext-42" {
		t.Fatalf("upsert not called with principal: %+v", users)
	}
}

func TestRequireAuthMissingToken(t *testing.T) {
	client := identity.NewClient("http://localhost:0", time.Second)
	handler := client.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a token")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/users/sync", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}
