package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"
)

// HMACAuth holds the credentials required for HMAC-authenticated requests
// against the drift and mango gateway APIs.
type HMACAuth struct {
	Key    string // API key
	Secret string // API secret (base64-encoded for drift, raw for mango)
}

// DriftHeaders returns the HTTP headers for a drift gateway request.
// The secret is first base64-decoded before being used as the HMAC key; the
// signature is HMAC-SHA256(secret, timestamp+method+path+body) encoded as
// base64.
//
// Returned header keys:
//   - DRIFT-API-KEY
//   - DRIFT-TIMESTAMP
//   - DRIFT-SIGNATURE
func (h *HMACAuth) DriftHeaders(method, path, body string) map[string]string {
	return h.DriftHeadersAt(method, path, body, time.Now().Unix())
}

// DriftHeadersAt is like DriftHeaders but lets the caller supply the Unix
// timestamp (useful for deterministic testing).
func (h *HMACAuth) DriftHeadersAt(method, path, body string, unixTS int64) map[string]string {
	ts := strconv.FormatInt(unixTS, 10)

	secretBytes, err := base64.StdEncoding.DecodeString(h.Secret)
	if err != nil {
		// If decoding fails, fall back to raw bytes so the caller gets an
		// obviously-wrong signature rather than a panic.
		secretBytes = []byte(h.Secret)
	}

	message := ts + method + path + body
	sig := hmacSHA256Base64(secretBytes, message)

	return map[string]string{
		"DRIFT-API-KEY":   h.Key,
		"DRIFT-TIMESTAMP": ts,
		"DRIFT-SIGNATURE": sig,
	}
}

// MangoHeaders returns the HTTP headers for a mango gateway request.
// The signature is HMAC-SHA256(secret, timestamp+method+path+body) over the
// raw secret bytes, encoded as base64.
//
// Returned header keys:
//   - MANGO-API-KEY
//   - MANGO-TIMESTAMP
//   - MANGO-SIGNATURE
func (h *HMACAuth) MangoHeaders(method, path, body string) map[string]string {
	return h.MangoHeadersAt(method, path, body, time.Now().Unix())
}

// MangoHeadersAt is like MangoHeaders but lets the caller supply the Unix
// timestamp (useful for deterministic testing).
func (h *HMACAuth) MangoHeadersAt(method, path, body string, unixTS int64) map[string]string {
	ts := strconv.FormatInt(unixTS, 10)

	message := ts + method + path + body
	sig := hmacSHA256Base64([]byte(h.Secret), message)

	return map[string]string{
		"MANGO-API-KEY":   h.Key,
		"MANGO-TIMESTAMP": ts,
		"MANGO-SIGNATURE": sig,
	}
}

// hmacSHA256Base64 computes HMAC-SHA256 of message using key and returns the
// result as a base64 standard-encoded string.
func hmacSHA256Base64(key []byte, message string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// String returns a redacted representation suitable for logging.
func (h *HMACAuth) String() string {
	redact := func(s string) string {
		if len(s) <= 4 {
			return "****"
		}
		return s[:4] + "****"
	}
	return fmt.Sprintf("HMACAuth{key=%s, secret=%s}", redact(h.Key), redact(h.Secret))
}
