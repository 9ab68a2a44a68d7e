package domain

import "fmt"

// EventKind classifies a raw economic event from the chain.
type EventKind string

const (
	EventTokenCreated EventKind = "token_created"
	EventBuy          EventKind = "buy"
	EventSell         EventKind = "sell"
)

// Event is a raw trading event delivered by an event source. Delivery is
// at-least-once; the deduplicator suppresses immediate repeats by event
// id. One transaction can carry several instructions, so the signature
// alone does not identify an event: Index disambiguates siblings from
// the same transaction.
type Event struct {
	Kind          EventKind
	Signature     string // transaction signature
	Index         int    // position among the transaction's parsed events
	WalletAddress string
	TokenMint     string
	Amount        float64 // SOL amount, zero for token_created
	BlockTime     int64   // Unix timestamp in milliseconds
}

// ID is the event's dedup identity: the transaction signature qualified
// by the event's position within the transaction.
func (e *Event) ID() string {
	return fmt.Sprintf("%s:%d", e.Signature, e.Index)
}

// Validate reports why an event is malformed, or nil.
func (e *Event) Validate() error {
	switch {
	case e == nil:
		return ErrNilEvent
	case e.Signature == "":
		return ErrMissingSignature
	case e.TokenMint == "":
		return ErrMissingTokenMint
	case e.Kind == EventBuy && e.WalletAddress == "":
		return ErrMissingWallet
	case e.Kind == EventBuy && e.Amount <= 0:
		return ErrNonPositiveAmount
	case e.Kind != EventTokenCreated && e.Kind != EventBuy && e.Kind != EventSell:
		return ErrUnknownEventKind
	}
	return nil
}
