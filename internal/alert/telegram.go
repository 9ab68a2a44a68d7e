package alert

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"solana-whale-watch/internal/domain"
)

// TelegramSink pushes alerts to a Telegram chat.
type TelegramSink struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramSink(token string, chatID int64) (*TelegramSink, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramSink{api: api, chatID: chatID}, nil
}

func (s *TelegramSink) Deliver(_ context.Context, a *domain.Alert) error {
	msg := tgbotapi.NewMessage(s.chatID, formatAlert(a))
	if _, err := s.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram alert %s: %w", a.ID, err)
	}
	return nil
}

// formatAlert renders an alert as a plain-text Telegram message.
func formatAlert(a *domain.Alert) string {
	var b strings.Builder

	switch a.Kind {
	case domain.AlertWhaleEntry:
		b.WriteString("🐋 Whale entry\n")
	case domain.AlertInsiderDetected:
		b.WriteString("🕵️ Insider detected\n")
	case domain.AlertMultipleWhales:
		b.WriteString("🐋🐋 Multiple whales\n")
	default:
		fmt.Fprintf(&b, "%s\n", a.Kind)
	}

	b.WriteString(a.Message)
	if a.TokenMint != "" {
		fmt.Fprintf(&b, "\nToken: %s", a.TokenMint)
	}

	switch m := a.Metadata.(type) {
	case domain.WhaleEntryMetadata:
		fmt.Fprintf(&b, "\nWallet: %s\nScore: %d\nBuy: %.2f SOL", m.Wallet, m.Score, m.Amount)
	case domain.InsiderMetadata:
		fmt.Fprintf(&b, "\nConfidence: %d", m.Confidence)
		for _, reason := range m.Reasons {
			fmt.Fprintf(&b, "\n• %s", reason)
		}
	case domain.MultipleWhalesMetadata:
		for _, w := range m.Wallets {
			fmt.Fprintf(&b, "\n• %s (score %d)", w.Wallet, w.Score)
		}
	}

	return b.String()
}
