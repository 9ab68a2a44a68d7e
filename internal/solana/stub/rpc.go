// Package stub provides in-memory Solana client fakes for tests.
package stub

import (
	"context"
	"errors"

	"solana-whale-watch/internal/solana"
)

// ErrNotFound is returned when a transaction is not in the stub store.
var ErrNotFound = errors.New("not found")

// RPCClient implements solana.RPCClient for testing.
type RPCClient struct {
	Transactions map[string]*solana.Transaction
	Signatures   map[string][]solana.SignatureInfo
	BlockTimes   map[int64]int64 // slot -> Unix seconds
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Transactions: make(map[string]*solana.Transaction),
		Signatures:   make(map[string][]solana.SignatureInfo),
		BlockTimes:   make(map[int64]int64),
	}
}

// GetTransaction retrieves a transaction by signature from the stub store.
func (c *RPCClient) GetTransaction(_ context.Context, signature string) (*solana.Transaction, error) {
	tx, ok := c.Transactions[signature]
	if !ok {
		return nil, ErrNotFound
	}
	return tx, nil
}

// GetSignaturesForAddress retrieves signatures for an address from the stub store.
func (c *RPCClient) GetSignaturesForAddress(_ context.Context, address string, opts *solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	sigs, ok := c.Signatures[address]
	if !ok {
		return nil, nil
	}

	// Honor Before pagination the way the real endpoint does: skip
	// everything up to and including the cursor signature.
	if opts != nil && opts.Before != "" {
		idx := -1
		for i, s := range sigs {
			if s.Signature == opts.Before {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, nil
		}
		sigs = sigs[idx+1:]
	}

	if opts != nil && opts.Limit > 0 && opts.Limit < len(sigs) {
		return sigs[:opts.Limit], nil
	}
	return sigs, nil
}

// GetBlockTime retrieves a block time from the stub store.
func (c *RPCClient) GetBlockTime(_ context.Context, slot int64) (*int64, error) {
	bt, ok := c.BlockTimes[slot]
	if !ok {
		return nil, nil
	}
	return &bt, nil
}
