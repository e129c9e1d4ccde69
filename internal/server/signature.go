package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const signatureHeader = "X-Signature"

// verifySignature checks a "sha256=<hex>" HMAC of body. It returns an empty
// code when the signature matches, otherwise an error code and message.
func verifySignature(secret, header string, body []byte) (code, message string) {
	sig := strings.TrimPrefix(strings.TrimSpace(header), "sha256=")
	if sig == "" {
		return "missing_signature", "missing signature"
	}
	provided, err := hex.DecodeString(sig)
	if err != nil {
		return "invalid_signature_format", "invalid signature format"
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	if !hmac.Equal(mac.Sum(nil), provided) {
		return "signature_mismatch", "signature mismatch"
	}
	return "", ""
}

// Sign returns the X-Signature value for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
