package clickhouse

import (
	"context"
	"fmt"

	"solana-whale-watch/internal/domain"
	"solana-whale-watch/internal/storage"
)

// InteractionArchive implements storage.InteractionArchive using ClickHouse.
// It mirrors the append-only interaction stream into an analytics table so
// aggregate questions (batch wallet stats, per-token volume) stay off the
// transactional store.
type InteractionArchive struct {
	conn *Conn
}

// NewInteractionArchive creates a new InteractionArchive.
func NewInteractionArchive(conn *Conn) *InteractionArchive {
	return &InteractionArchive{conn: conn}
}

// Compile-time interface check.
var _ storage.InteractionArchive = (*InteractionArchive)(nil)

// Archive appends a batch of interactions. ClickHouse MergeTree does not
// enforce uniqueness; the transactional store is the source of truth and
// occasional replays are tolerated by the aggregate queries.
func (s *InteractionArchive) Archive(ctx context.Context, interactions []*domain.Interaction) error {
	if len(interactions) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO interaction_archive (
			id, wallet_address, token_mint, block_time, amount, is_early_entry, created_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, i := range interactions {
		err = batch.Append(
			i.ID, i.WalletAddress, i.TokenMint,
			uint64(i.BlockTime), i.Amount, i.IsEarlyEntry, uint64(i.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// WalletAggregates computes per-wallet aggregate stats over the archive.
func (s *InteractionArchive) WalletAggregates(ctx context.Context) ([]*domain.WalletStats, error) {
	query := `
		SELECT
			wallet_address,
			sum(amount) AS total_volume,
			uniqExact(id) AS interaction_count,
			sum(amount) / uniqExact(id) AS average_entry_size,
			countIf(is_early_entry) AS early_entry_count
		FROM interaction_archive
		GROUP BY wallet_address
		ORDER BY total_volume DESC
	`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query wallet aggregates: %w", err)
	}
	defer rows.Close()

	var stats []*domain.WalletStats
	for rows.Next() {
		var (
			st         domain.WalletStats
			count      uint64
			earlyCount uint64
		)
		if err := rows.Scan(&st.Address, &st.TotalVolume, &count, &st.AverageEntrySize, &earlyCount); err != nil {
			return nil, fmt.Errorf("scan wallet aggregate row: %w", err)
		}
		st.InteractionCount = int64(count)
		st.EarlyEntryCount = int64(earlyCount)
		st.WinrateProxy = domain.WinrateProxy(st.EarlyEntryCount, st.InteractionCount)
		stats = append(stats, &st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet aggregate rows: %w", err)
	}

	return stats, nil
}
