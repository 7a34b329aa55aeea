package storage

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// LocalSigner signs download URLs with an HMAC over key + expiry. It serves
// development setups where no object store is running; the signature covers
// the same fields a CDN-side validator would check.
type LocalSigner struct {
	baseURL string
	secret  []byte
}

// NewLocalSigner creates an HMAC signer rooted at baseURL.
func NewLocalSigner(baseURL, secret string) *LocalSigner {
	return &LocalSigner{baseURL: baseURL, secret: []byte(secret)}
}

// Sign mints a URL of the form base/key?expires=unix&sig=hex.
func (s *LocalSigner) Sign(_ context.Context, key string, ttl time.Duration) (string, time.Time, error) {
	expiresAt := time.Now().Add(ttl)
	sig := s.signature(key, expiresAt.Unix())

	q := url.Values{}
	q.Set("expires", strconv.FormatInt(expiresAt.Unix(), 10))
	q.Set("sig", sig)
	return fmt.Sprintf("%s/%s?%s", s.baseURL, url.PathEscape(key), q.Encode()), expiresAt, nil
}

// Verify checks a signature produced by Sign and that it has not expired.
func (s *LocalSigner) Verify(key string, expires int64, sig string, now time.Time) bool {
	if now.Unix() > expires {
		return false
	}
	expected := s.signature(key, expires)
	return hmac.Equal([]byte(expected), []byte(sig))
}

func (s *LocalSigner) signature(key string, expires int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s:%d", key, expires)
	return hex.EncodeToString(mac.Sum(nil))
}
