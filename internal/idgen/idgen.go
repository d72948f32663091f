// Package idgen generates random identifiers for requests, simulations and
// websocket clients.
package idgen

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// New generates a UUID-shaped random ID (xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx)
func New() string {
	b := random(16)
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}

// WithPrefix returns prefix followed by 24 random hex chars, e.g. "sim_3fa2…"
func WithPrefix(prefix string) string {
	return prefix + hex.EncodeToString(random(12))
}

func random(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return b
}
