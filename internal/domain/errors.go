package domain

import "errors"

// Validation errors for raw events. A malformed event is dropped with a
// logged reason and no state is mutated.
var (
	ErrNilEvent          = errors.New("nil event")
	ErrMissingSignature  = errors.New("event missing transaction signature")
	ErrMissingTokenMint  = errors.New("event missing token mint")
	ErrMissingWallet     = errors.New("buy event missing wallet address")
	ErrNonPositiveAmount = errors.New("buy event amount must be positive")
	ErrUnknownEventKind  = errors.New("unknown event kind")
)
