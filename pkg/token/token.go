package token

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
)

// DefaultLength is the number of random bytes in an opaque token.
// 32 bytes gives 256 bits of entropy, far beyond brute-force reach.
const DefaultLength = 32

var ErrGenerationFailed = errors.New("token generation failed")

// Generate returns a cryptographically random, URL-safe opaque token.
func Generate() (string, error) {
	return GenerateN(DefaultLength)
}

// GenerateN returns an opaque token built from n random bytes.
func GenerateN(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrGenerationFailed, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Equal compares two tokens in constant time.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
