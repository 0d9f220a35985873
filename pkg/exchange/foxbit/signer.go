package foxbit

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"time"
)

// Authentication header names required on every private request.
const (
	headerAccessKey       = "X-ACCESS-KEY"
	headerAccessTimestamp = "X-ACCESS-TIMESTAMP"
	headerAccessSignature = "X-ACCESS-SIGNATURE"
)

// Signer produces the HMAC-SHA256 authentication headers. The prehash
// is timestamp + method + absolute path + payload, where the payload is
// the raw query string for GET requests and the exact serialized body
// otherwise. The clock is injectable for deterministic tests.
type Signer struct {
	apiKey     string
	secret     string
	pathPrefix string
	now        func() time.Time
}

// NewSigner creates a Signer. pathPrefix is the version prefix included
// in the signed path, e.g. "/rest/v3".
func NewSigner(apiKey, secret, pathPrefix string) *Signer {
	return &Signer{
		apiKey:     apiKey,
		secret:     secret,
		pathPrefix: pathPrefix,
		now:        time.Now,
	}
}

// Timestamp returns the current Unix time in whole seconds, as a
// decimal string.
func (s *Signer) Timestamp() string {
	return strconv.FormatInt(s.now().Unix(), 10)
}

// Prehash assembles the exact string that gets signed. The path is
// relative to the API base; the version prefix is prepended here.
// Query must be the raw query string without a leading "?"; body must
// be the exact bytes that will be transmitted.
func (s *Signer) Prehash(timestamp, method, path, query string, body []byte) string {
	payload := string(body)
	if method == http.MethodGet {
		payload = query
	}
	return timestamp + method + s.pathPrefix + "/" + path + payload
}

// Sign computes the lowercase hex HMAC-SHA256 digest of the prehash.
func (s *Signer) Sign(prehash string) string {
	mac := hmac.New(sha256.New, []byte(s.secret))
	mac.Write([]byte(prehash))
	return hex.EncodeToString(mac.Sum(nil))
}

// Headers returns the three authentication headers for one request.
func (s *Signer) Headers(method, path, query string, body []byte) map[string]string {
	ts := s.Timestamp()
	signature := s.Sign(s.Prehash(ts, method, path, query, body))
	return map[string]string{
		headerAccessKey:       s.apiKey,
		headerAccessTimestamp: ts,
		headerAccessSignature: signature,
	}
}
