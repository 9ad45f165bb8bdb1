package media_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-oja/internal/media"
)

func TestSignedURLRoundTrip(t *testing.T) {
	signer := media.NewSigner("secret", time.Minute)
	q := signer.SignedQuery("photo.jpg")
	if err := signer.Verify("photo.jpg", q.Get("expires"), q.Get("sig")); err != nil {
		t.Fatalf("fresh signature must verify: %v", err)
	}
}

func TestSignatureBoundToKey(t *testing.T) {
	signer := media.NewSigner("secret", time.Minute)
	q := signer.SignedQuery("photo.jpg")
	if err := signer.Verify("other.jpg", q.Get("expires"), q.Get("sig")); err == nil {
		t.Fatal("signature must not verify for a different key")
	}
}

func TestExpiredSignature(t *testing.T) {
	signer := media.NewSigner("secret", -time.Minute)
	q := signer.SignedQuery("photo.jpg")
	if err := signer.Verify("photo.jpg", q.Get("expires"), q.Get("sig")); err == nil {
		t.Fatal("expired link must not verify")
	}
}

func TestTamperedExpiry(t *testing.T) {
	signer := media.NewSigner("secret", time.Minute)
	q := signer.SignedQuery("photo.jpg")
	if err := signer.Verify("photo.jpg", "9999999999", q.Get("sig")); err == nil {
		t.Fatal("extending expiry must break the signature")
	}
}

func newMediaRouter(t *testing.T) http.Handler {
	t.Helper()
	h := &media.Handler{
		Blobs:   &media.Disk{Root: t.TempDir()},
		Signer:  media.NewSigner("secret", time.Minute),
		BaseURL: "http://localhost:8080",
		Log:     zerolog.Nop(),
	}
	r := chi.NewRouter()
	r.Post("/api/upload", h.Upload)
	r.Get("/media/{key}", h.Serve)
	return r
}

func uploadFile(t *testing.T, router http.Handler, name, content string) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = io.WriteString(fw, content)
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var body struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	return body.Data
}

func TestUploadAndServe(t *testing.T) {
	router := newMediaRouter(t)
	data := uploadFile(t, router, "receipt.txt", "hello media")

	rawURL := data["url"].(string)
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse signed url: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, u.Path+"?"+u.RawQuery, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if rr.Body.String() != "hello media" {
		t.Fatalf("unexpected content: %q", rr.Body.String())
	}
}

func TestServeRejectsUnsignedRequest(t *testing.T) {
	router := newMediaRouter(t)
	data := uploadFile(t, router, "receipt.txt", "hello media")

	key := data["key"].(string)
	req := httptest.NewRequest(http.MethodGet, "/media/"+key, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestDiskRejectsPathTraversal(t *testing.T) {
	d := &media.Disk{Root: t.TempDir()}
	for _, key := range []string{"../etc/passwd", "a/b", "..", ""} {
		if err := d.Put(context.Background(), key, strings.NewReader("x")); err == nil {
			t.Fatalf("key %q must be rejected", key)
		}
	}
}
