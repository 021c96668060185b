package app

import (
	"crypto/rand"
	"encoding/base64"
)

// NewToken returns a cryptographically random, URL-safe identifier used for
// link tokens and submission ids.
func NewToken() string {
	buf := make([]byte, 18)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the process has no usable entropy
		// source; nothing sensible can continue.
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
