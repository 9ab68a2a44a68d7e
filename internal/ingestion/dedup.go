// Package ingestion turns raw Solana program activity into domain events
// and guards the pipeline against at-least-once redelivery.
package ingestion

import "sync"

// Deduplicator suppresses immediate redelivery of the same event per
// source. Only an exact repeat of the most recently admitted id is
// dropped; out-of-order arrivals of distinct ids all pass. This matches
// the at-least-once delivery profile of the upstream subscription, where
// a redelivered notification always arrives directly after the original.
type Deduplicator struct {
	mu       sync.Mutex
	lastSeen map[string]string // sourceID -> last admitted eventID
}

func NewDeduplicator() *Deduplicator {
	return &Deduplicator{
		lastSeen: make(map[string]string),
	}
}

// Admit records eventID as the last admitted id for the source and
// returns true, unless eventID equals the previously admitted id, in
// which case it returns false. Absence of prior state admits.
func (d *Deduplicator) Admit(sourceID, eventID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.lastSeen[sourceID] == eventID && eventID != "" {
		return false
	}
	d.lastSeen[sourceID] = eventID
	return true
}
