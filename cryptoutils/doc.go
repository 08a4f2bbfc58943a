// Package cryptoutils verifies webhook payload signatures.
//
// Signatures follow the GitHub X-Hub-Signature-256 format: "sha256=" followed
// by the lowercase hex HMAC-SHA256 of the exact raw request body, keyed with
// the shared secret. Verification compares in constant time.
//
// An empty secret disables verification and every request is accepted. Callers
// are expected to warn about this at startup.
package cryptoutils
