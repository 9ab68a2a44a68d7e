// Package idhash derives deterministic record ids from event identity.
// Re-ingesting the same on-chain event always produces the same id, so
// duplicate inserts surface as key conflicts instead of double counts.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// InteractionID computes a deterministic interaction id using SHA256.
// Formula: SHA256(signature|event_index|wallet|mint)
// Returns hex-encoded hash (64 characters). The event index keeps
// sibling buys from one transaction distinct.
func InteractionID(signature string, eventIndex int, wallet, mint string) string {
	data := fmt.Sprintf("%s|%d|%s|%s", signature, eventIndex, wallet, mint)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
