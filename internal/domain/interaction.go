package domain

// Interaction is a single observed buy of a token by a wallet.
// Append-only: the pipeline never updates an interaction after insert.
type Interaction struct {
	ID            string  // synthetic id (uuid)
	WalletAddress string  // base58 pubkey
	TokenMint     string  // base58 mint address
	BlockTime     int64   // event time, Unix timestamp in milliseconds
	Amount        float64 // SOL amount
	// IsEarlyEntry is classified once at ingestion against the token's
	// FirstBlockTime and the configured window. It is never recomputed,
	// even if the window configuration changes later.
	IsEarlyEntry bool
	CreatedAt    int64 // ingestion timestamp (ms)
}
