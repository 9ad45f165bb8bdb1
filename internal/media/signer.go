package media

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Signer issues and checks HMAC-signed, time-limited media URLs. The
// signature covers the object key and the expiry timestamp, so neither can
// be altered without the secret.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner constructs a Signer. TTL defaults to 15 minutes.
func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// SignedQuery returns the query string carrying expiry and signature for the
// given object key.
func (s *Signer) SignedQuery(key string) url.Values {
	expires := s.now().Add(s.ttl).Unix()
	v := url.Values{}
	v.Set("expires", strconv.FormatInt(expires, 10))
	v.Set("sig", s.sign(key, expires))
	return v
}

// Verify checks the signature and expiry for the given key. It returns an
// error describing which check failed.
func (s *Signer) Verify(key, expiresRaw, sig string) error {
	expires, err := strconv.ParseInt(expiresRaw, 10, 64)
	if err != nil {
		return fmt.Errorf("malformed expiry")
	}
	if s.now().Unix() > expires {
		return fmt.Errorf("link expired")
	}
	expected := s.sign(key, expires)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}

func (s *Signer) sign(key string, expires int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s:%d", key, expires)
	return hex.EncodeToString(mac.Sum(nil))
}
