package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"solana-whale-watch/internal/domain"
)

// FileSink appends alerts to a JSON-lines file. One JSON object per
// line, flushed per alert, so the file is tail-able while the watcher
// runs.
type FileSink struct {
	mu   sync.Mutex
	file *os.File
}

func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open alert file: %w", err)
	}
	return &FileSink{file: f}, nil
}

// fileAlert is the serialized line format.
type fileAlert struct {
	ID        string               `json:"id"`
	Kind      domain.AlertKind     `json:"kind"`
	Wallet    string               `json:"wallet,omitempty"`
	Token     string               `json:"token,omitempty"`
	Message   string               `json:"message"`
	Metadata  domain.AlertMetadata `json:"metadata,omitempty"`
	CreatedAt int64                `json:"created_at"`
}

func (s *FileSink) Deliver(_ context.Context, a *domain.Alert) error {
	line, err := json.Marshal(fileAlert{
		ID:        a.ID,
		Kind:      a.Kind,
		Wallet:    a.WalletAddress,
		Token:     a.TokenMint,
		Message:   a.Message,
		Metadata:  a.Metadata,
		CreatedAt: a.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal alert %s: %w", a.ID, err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.file.Write(line); err != nil {
		return fmt.Errorf("write alert %s: %w", a.ID, err)
	}
	return nil
}

// Close closes the underlying file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
