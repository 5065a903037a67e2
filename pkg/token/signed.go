package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

var (
	ErrInvalidFormat    = errors.New("invalid token format")
	ErrSignatureInvalid = errors.New("signature mismatch")
)

// Sign encodes the payload as JSON and appends a truncated HMAC-SHA256
// signature. Signed tokens carry state that round-trips through the client
// (e.g. a post-login redirect target) without being forgeable.
func Sign[T any](payload T, secret string) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	h := hmac.New(sha256.New, []byte(secret))
	h.Write(data)
	sig := h.Sum(nil)[:8]

	return base64.RawURLEncoding.EncodeToString(data) + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

// Verify checks the signature and decodes the JSON payload.
func Verify[T any](token string, secret string) (T, error) {
	var payload T

	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return payload, ErrInvalidFormat
	}

	data, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return payload, ErrInvalidFormat
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return payload, ErrInvalidFormat
	}

	h := hmac.New(sha256.New, []byte(secret))
	h.Write(data)
	if !hmac.Equal(sig, h.Sum(nil)[:8]) {
		return payload, ErrSignatureInvalid
	}

	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, ErrInvalidFormat
	}

	return payload, nil
}
