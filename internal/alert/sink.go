// Package alert delivers triggered alerts to external channels. Delivery
// is fire-and-forget from the pipeline's perspective: sink failures are
// logged here and never propagate back into event processing.
package alert

import (
	"context"

	"solana-whale-watch/internal/domain"
	"solana-whale-watch/internal/logging"
)

// Sink receives alerts produced by the detection pipeline.
type Sink interface {
	Deliver(ctx context.Context, a *domain.Alert) error
}

// FanOut dispatches each alert to every configured sink. A failing sink
// never blocks the others and never fails the caller.
type FanOut struct {
	sinks []Sink
}

func NewFanOut(sinks ...Sink) *FanOut {
	return &FanOut{sinks: sinks}
}

// Deliver sends the alert to all sinks, logging per-sink failures.
func (f *FanOut) Deliver(ctx context.Context, a *domain.Alert) error {
	for _, s := range f.sinks {
		if err := s.Deliver(ctx, a); err != nil {
			logging.Named("alert").Warnw("sink delivery failed",
				"kind", a.Kind, "alert_id", a.ID, "error", err)
		}
	}
	return nil
}
