package ingestion

import (
	"context"

	"solana-whale-watch/internal/domain"
)

// EventSource provides a lazy, effectively infinite stream of trading
// events. Delivery is at-least-once; consumers deduplicate by signature.
type EventSource interface {
	// Subscribe returns a channel of events. The channel is closed when
	// the context is cancelled or the source shuts down.
	Subscribe(ctx context.Context) (<-chan *domain.Event, error)
}
