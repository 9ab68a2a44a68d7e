package domain

// Token represents a tracked token mint.
// Corresponds to the tokens table in PostgreSQL.
type Token struct {
	Mint           string // PRIMARY KEY, base58 mint address
	CreatorWallet  string // best-effort, may be empty
	FirstBlockTime int64  // earliest known on-chain timestamp (ms); immutable once set
	CreatedAt      int64  // local record creation timestamp (ms)
}
