package solana

import "context"

// RPCClient defines the Solana RPC HTTP surface the watcher consumes.
type RPCClient interface {
	// GetTransaction retrieves a transaction by signature. Returns
	// (nil, nil) when the transaction is unknown to the node.
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)

	// GetSignaturesForAddress retrieves signatures for an address with
	// pagination, newest first.
	GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error)

	// GetBlockTime retrieves the estimated production time of a slot in
	// Unix seconds, or nil when unavailable.
	GetBlockTime(ctx context.Context, slot int64) (*int64, error)
}

// Transaction represents a Solana transaction.
type Transaction struct {
	Slot      int64
	Signature string
	BlockTime int64 // Unix timestamp (seconds)
	Meta      *TransactionMeta
	Message   *TransactionMessage
}

// TransactionMeta contains transaction metadata.
type TransactionMeta struct {
	Err         interface{}
	LogMessages []string
}

// TransactionMessage contains the parsed transaction message. The first
// account key is the fee payer.
type TransactionMessage struct {
	AccountKeys []string
}

// SignatureInfo from getSignaturesForAddress.
type SignatureInfo struct {
	Signature string
	Slot      int64
	BlockTime *int64
	Err       interface{}
}

// SignaturesOpts defines optional pagination parameters for getSignaturesForAddress.
type SignaturesOpts struct {
	Before string // Start searching backwards from this signature
	Until  string // Search until this signature
	Limit  int    // Maximum number of signatures to return
}
