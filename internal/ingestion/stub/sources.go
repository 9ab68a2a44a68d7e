// Package stub provides in-memory ingestion fakes for testing.
package stub

import (
	"context"

	"solana-whale-watch/internal/domain"
)

// EventSource replays a fixed slice of events in order.
// Implements ingestion.EventSource.
type EventSource struct {
	events []*domain.Event
}

// NewEventSource creates a stub event source with the given events.
func NewEventSource(events []*domain.Event) *EventSource {
	return &EventSource{events: events}
}

// Subscribe delivers copies of the fixed events, then closes the channel.
func (s *EventSource) Subscribe(ctx context.Context) (<-chan *domain.Event, error) {
	ch := make(chan *domain.Event, len(s.events))
	go func() {
		defer close(ch)
		for _, e := range s.events {
			copy := *e
			select {
			case ch <- &copy:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

// CreationTimeResolver resolves from a fixed map.
// Implements solana.CreationTimeResolver.
type CreationTimeResolver struct {
	Times map[string]int64 // mint -> epoch ms
	Err   error            // returned for mints missing from Times
	Calls map[string]int   // resolve invocation counts per mint
}

// NewCreationTimeResolver creates a stub resolver with the given times.
func NewCreationTimeResolver(times map[string]int64) *CreationTimeResolver {
	if times == nil {
		times = make(map[string]int64)
	}
	return &CreationTimeResolver{
		Times: times,
		Calls: make(map[string]int),
	}
}

// Resolve returns the configured creation time or the configured error.
func (r *CreationTimeResolver) Resolve(_ context.Context, mint string) (int64, error) {
	r.Calls[mint]++
	t, ok := r.Times[mint]
	if !ok {
		if r.Err != nil {
			return 0, r.Err
		}
		return 0, errNotConfigured
	}
	return t, nil
}

type stubErr string

func (e stubErr) Error() string { return string(e) }

const errNotConfigured = stubErr("creation time not configured")
