package domain

import (
	"encoding/json"
	"fmt"
)

// AlertKind identifies the condition that produced an alert.
type AlertKind string

const (
	AlertWhaleEntry      AlertKind = "whale_entry"
	AlertInsiderDetected AlertKind = "insider_detected"
	AlertMultipleWhales  AlertKind = "multiple_whales"
)

// Alert is an immutable record of one triggered detection condition.
// Exactly one alert is created per triggering decision; history is
// append-only.
type Alert struct {
	ID            string // synthetic id (uuid)
	Kind          AlertKind
	WalletAddress string // empty for token-level alerts
	TokenMint     string
	Message       string
	Metadata      AlertMetadata
	CreatedAt     int64 // Unix timestamp in milliseconds
}

// AlertMetadata is the kind-specific payload carried by an alert. It is a
// closed set of variants so the payload stays typed end to end.
type AlertMetadata interface {
	Kind() AlertKind
}

// WhaleEntryMetadata accompanies whale_entry alerts.
type WhaleEntryMetadata struct {
	Wallet string  `json:"wallet"`
	Score  int     `json:"score"`
	Amount float64 `json:"amount"`
}

func (WhaleEntryMetadata) Kind() AlertKind { return AlertWhaleEntry }

// InsiderMetadata accompanies insider_detected alerts. Reasons carries the
// audit trail of every clause that contributed to the verdict.
type InsiderMetadata struct {
	Confidence int      `json:"confidence"`
	Reasons    []string `json:"reasons"`
}

func (InsiderMetadata) Kind() AlertKind { return AlertInsiderDetected }

// QualifyingWallet is one member of a multiple_whales correlation.
type QualifyingWallet struct {
	Wallet string `json:"wallet"`
	Score  int    `json:"score"`
}

// MultipleWhalesMetadata accompanies multiple_whales alerts and lists every
// wallet on the token whose score met the threshold at the triggering event.
type MultipleWhalesMetadata struct {
	Wallets []QualifyingWallet `json:"wallets"`
}

func (MultipleWhalesMetadata) Kind() AlertKind { return AlertMultipleWhales }

// DecodeMetadata unmarshals a serialized metadata payload into the variant
// matching the alert kind. Used by stores that persist metadata as JSON.
func DecodeMetadata(kind AlertKind, data []byte) (AlertMetadata, error) {
	if len(data) == 0 {
		return nil, nil
	}
	switch kind {
	case AlertWhaleEntry:
		var m WhaleEntryMetadata
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode whale_entry metadata: %w", err)
		}
		return m, nil
	case AlertInsiderDetected:
		var m InsiderMetadata
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode insider_detected metadata: %w", err)
		}
		return m, nil
	case AlertMultipleWhales:
		var m MultipleWhalesMetadata
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode multiple_whales metadata: %w", err)
		}
		return m, nil
	}
	return nil, fmt.Errorf("unknown alert kind %q", kind)
}

// ValidAlertKind reports whether k is a known alert kind.
func ValidAlertKind(k AlertKind) bool {
	switch k {
	case AlertWhaleEntry, AlertInsiderDetected, AlertMultipleWhales:
		return true
	}
	return false
}

// String implements fmt.Stringer for log output.
func (a *Alert) String() string {
	return fmt.Sprintf("%s wallet=%s token=%s: %s", a.Kind, a.WalletAddress, a.TokenMint, a.Message)
}
