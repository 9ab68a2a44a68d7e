package alert

import (
	"context"

	"go.uber.org/zap"

	"solana-whale-watch/internal/domain"
	"solana-whale-watch/internal/logging"
)

// ConsoleSink writes alerts to the structured log. Always configured, so
// every alert is observable even with no external channel set up.
type ConsoleSink struct {
	log *zap.SugaredLogger
}

func NewConsoleSink() *ConsoleSink {
	return &ConsoleSink{log: logging.Named("alert")}
}

func (s *ConsoleSink) Deliver(_ context.Context, a *domain.Alert) error {
	s.log.Infow("ALERT",
		"kind", a.Kind,
		"wallet", a.WalletAddress,
		"token", a.TokenMint,
		"message", a.Message,
		"metadata", a.Metadata,
	)
	return nil
}
