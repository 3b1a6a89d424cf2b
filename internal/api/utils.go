package api

import (
	"crypto/rand"
	"encoding/base64"
)

// randomState returns a URL-safe random string of n characters, used for the
// OAuth state round-trip.
func randomState(n int) string {
	b := make([]byte, n)
	rand.Read(b)
	// base64 yields 4 chars per 3 bytes, so n input bytes always cover n.
	return base64.RawURLEncoding.EncodeToString(b)[:n]
}
