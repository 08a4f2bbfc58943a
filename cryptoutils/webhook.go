package cryptoutils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	// SignatureHeader carries the HMAC-SHA256 signature of the raw request body.
	SignatureHeader = "X-Hub-Signature-256"

	// SignaturePrefix precedes the lowercase hex digest in SignatureHeader.
	SignaturePrefix = "sha256="
)

// SignPayload computes the "sha256=<hex>" signature of body under secret.
func SignPayload(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return SignaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature authenticates body under secret.
//
// An empty secret disables verification and every request is trusted. Operators
// opt into this for trusted networks and the gateway logs it at startup.
// With a secret configured, a missing signature fails closed. The comparison is
// constant time over the full "sha256=<hex>" string.
//
// body must be the exact bytes received on the wire, before any decoding.
func VerifySignature(secret, body []byte, signature string) bool {
	if len(secret) == 0 {
		return true
	}
	if signature == "" || !strings.HasPrefix(signature, SignaturePrefix) {
		return false
	}
	expected := SignPayload(secret, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
