package ingestion

import (
	"context"
	"fmt"
	"time"

	"solana-whale-watch/internal/domain"
	"solana-whale-watch/internal/logging"
	"solana-whale-watch/internal/solana"
)

const (
	maxTxRetries   = 3
	baseRetryDelay = 500 * time.Millisecond
)

// WSEventSource produces trading events from a live logsSubscribe feed on
// the monitored launch program. Each notification is enriched with the
// full transaction (fee payer, authoritative block time) over RPC before
// parsing.
type WSEventSource struct {
	ws      solana.WSClient
	rpc     solana.RPCClient
	parser  *LogParser
	program string
}

// NewWSEventSource creates a WebSocket-backed event source for program.
func NewWSEventSource(ws solana.WSClient, rpc solana.RPCClient, program string) *WSEventSource {
	if program == "" {
		program = PumpFunProgram
	}
	return &WSEventSource{
		ws:      ws,
		rpc:     rpc,
		parser:  NewLogParser(program),
		program: program,
	}
}

// Subscribe starts the log subscription and returns the event channel.
// The channel closes when ctx is cancelled or the subscription ends.
func (s *WSEventSource) Subscribe(ctx context.Context) (<-chan *domain.Event, error) {
	logsCh, err := s.ws.SubscribeLogs(ctx, solana.LogsFilter{
		Mentions: []string{s.program},
	})
	if err != nil {
		return nil, err
	}
	logging.Named("ws-source").Infow("subscribed to program logs", "program", s.program)

	eventsCh := make(chan *domain.Event, 100)

	go func() {
		defer close(eventsCh)
		for {
			select {
			case <-ctx.Done():
				return
			case notif, ok := <-logsCh:
				if !ok {
					logging.Named("ws-source").Info("log subscription closed")
					return
				}
				s.processNotification(ctx, eventsCh, notif)
			}
		}
	}()

	return eventsCh, nil
}

// processNotification turns one log notification into zero or more events.
func (s *WSEventSource) processNotification(ctx context.Context, eventsCh chan<- *domain.Event, notif solana.LogNotification) {
	log := logging.Named("ws-source")

	// Failed transactions move no funds.
	if notif.Err != nil {
		return
	}

	tx, err := s.retryGetTransaction(ctx, notif.Signature)
	if err != nil || tx == nil {
		log.Warnw("dropping notification, transaction fetch failed",
			"signature", notif.Signature, "error", err)
		return
	}

	blockTime, err := s.resolveBlockTime(ctx, notif.Slot, tx.BlockTime)
	if err != nil {
		log.Warnw("dropping notification, no block time",
			"signature", notif.Signature, "slot", notif.Slot, "error", err)
		return
	}

	feePayer := ""
	if tx.Message != nil && len(tx.Message.AccountKeys) > 0 {
		feePayer = tx.Message.AccountKeys[0]
	}

	events := s.parser.Parse(notif.Logs, notif.Signature, feePayer, blockTime)
	for _, event := range events {
		select {
		case eventsCh <- event:
		case <-ctx.Done():
			return
		}
	}
}

// retryGetTransaction fetches a transaction with exponential backoff.
func (s *WSEventSource) retryGetTransaction(ctx context.Context, signature string) (*solana.Transaction, error) {
	var lastErr error
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		tx, err := s.rpc.GetTransaction(ctx, signature)
		if err == nil {
			return tx, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		delay := baseRetryDelay * time.Duration(1<<attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

// resolveBlockTime returns a timestamp in ms for a slot/blockTime pair,
// falling back to a getBlockTime lookup when the transaction carried none.
func (s *WSEventSource) resolveBlockTime(ctx context.Context, slot, txBlockTime int64) (int64, error) {
	if txBlockTime > 0 {
		return txBlockTime * 1000, nil
	}
	bt, err := s.rpc.GetBlockTime(ctx, slot)
	if err != nil {
		return 0, err
	}
	if bt == nil {
		return 0, fmt.Errorf("block time not available for slot %d", slot)
	}
	return *bt * 1000, nil
}
