package triggers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignaturePrefix is the scheme marker of a signature header value.
const SignaturePrefix = "sha256="

// VerifySignature checks header against HMAC-SHA256(secret, body).
// It fails closed on an empty secret, an empty header or a header outside the sha256=<hex> format.
func VerifySignature(secret string, body []byte, header string) error {
	if secret == "" || header == "" {
		return ErrSignatureMissing
	}
	if !strings.HasPrefix(header, SignaturePrefix) {
		return ErrSignatureFormat
	}

	got, err := hex.DecodeString(strings.TrimPrefix(header, SignaturePrefix))
	if err != nil || len(got) != sha256.Size {
		return ErrSignatureFormat
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	if !hmac.Equal(mac.Sum(nil), got) {
		return ErrSignatureMismatch
	}
	return nil
}

// Verify is VerifySignature as a predicate.
func Verify(secret string, body []byte, header string) bool {
	return VerifySignature(secret, body, header) == nil
}

// Sign returns the header value a sender holding secret would attach to body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return SignaturePrefix + hex.EncodeToString(mac.Sum(nil))
}
