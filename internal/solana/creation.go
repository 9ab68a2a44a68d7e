package solana

import (
	"context"
	"errors"
	"fmt"
)

// ErrCreationTimeNotFound is returned when no timestamped transaction
// history exists for a mint.
var ErrCreationTimeNotFound = errors.New("token creation time not found")

// signaturePageSize is the getSignaturesForAddress page size used while
// walking back to a mint's oldest transaction.
const signaturePageSize = 1000

// maxSignaturePages bounds the history walk. Fresh pump.fun mints sit
// well inside one page; the bound exists for mints with long histories
// that were registered for tracking late.
const maxSignaturePages = 10

// CreationTimeResolver resolves the on-chain creation time of a token
// mint, in epoch milliseconds.
type CreationTimeResolver interface {
	Resolve(ctx context.Context, mint string) (int64, error)
}

// RPCCreationTimeResolver walks a mint's signature history backwards to
// its oldest transaction and uses that block time as the creation anchor.
type RPCCreationTimeResolver struct {
	rpc RPCClient
}

func NewCreationTimeResolver(rpc RPCClient) *RPCCreationTimeResolver {
	return &RPCCreationTimeResolver{rpc: rpc}
}

// Resolve returns the block time of the mint's earliest known transaction
// in epoch milliseconds, or ErrCreationTimeNotFound when the mint has no
// timestamped history.
func (r *RPCCreationTimeResolver) Resolve(ctx context.Context, mint string) (int64, error) {
	var oldest *SignatureInfo
	before := ""

	for page := 0; page < maxSignaturePages; page++ {
		sigs, err := r.rpc.GetSignaturesForAddress(ctx, mint, &SignaturesOpts{
			Before: before,
			Limit:  signaturePageSize,
		})
		if err != nil {
			return 0, fmt.Errorf("get signatures for %s: %w", mint, err)
		}
		if len(sigs) == 0 {
			break
		}

		// Results are newest first; the last entry of the last page is
		// the oldest signature.
		last := sigs[len(sigs)-1]
		oldest = &last
		before = last.Signature

		if len(sigs) < signaturePageSize {
			break
		}
	}

	if oldest == nil || oldest.BlockTime == nil {
		return 0, ErrCreationTimeNotFound
	}
	return *oldest.BlockTime * 1000, nil
}
