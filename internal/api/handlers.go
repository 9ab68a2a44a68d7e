package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"solana-whale-watch/internal/detector"
	"solana-whale-watch/internal/domain"
	"solana-whale-watch/internal/ingestion"
	"solana-whale-watch/internal/storage"
)

const (
	defaultWalletLimit  = 100
	defaultAlertLimit   = 50
	defaultHistoryLimit = 200
	maxLimit            = 1000
)

type walletView struct {
	Address          string  `json:"address"`
	TotalVolume      float64 `json:"total_volume"`
	InteractionCount int64   `json:"interaction_count"`
	AverageEntrySize float64 `json:"average_entry_size"`
	WinrateProxy     float64 `json:"winrate_proxy"`
	WhaleScore       int     `json:"whale_score"`
	IsInsider        bool    `json:"is_insider"`
	UpdatedAt        int64   `json:"updated_at"`
}

type interactionView struct {
	TokenMint    string  `json:"token_mint"`
	BlockTime    int64   `json:"block_time"`
	Amount       float64 `json:"amount"`
	IsEarlyEntry bool    `json:"is_early_entry"`
}

type alertView struct {
	ID            string               `json:"id"`
	Kind          string               `json:"kind"`
	WalletAddress string               `json:"wallet_address,omitempty"`
	TokenMint     string               `json:"token_mint"`
	Message       string               `json:"message"`
	Metadata      domain.AlertMetadata `json:"metadata,omitempty"`
	CreatedAt     int64                `json:"created_at"`
}

func toWalletView(w *domain.Wallet) walletView {
	return walletView{
		Address:          w.Address,
		TotalVolume:      w.TotalVolume,
		InteractionCount: w.InteractionCount,
		AverageEntrySize: w.AverageEntrySize,
		WinrateProxy:     w.WinrateProxy,
		WhaleScore:       w.WhaleScore,
		IsInsider:        w.IsInsider,
		UpdatedAt:        w.UpdatedAt,
	}
}

func toAlertView(a *domain.Alert) alertView {
	return alertView{
		ID:            a.ID,
		Kind:          string(a.Kind),
		WalletAddress: a.WalletAddress,
		TokenMint:     a.TokenMint,
		Message:       a.Message,
		Metadata:      a.Metadata,
		CreatedAt:     a.CreatedAt,
	}
}

func queryInt(c *gin.Context, name string, def, max int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	if max > 0 && v > max {
		return max
	}
	return v
}

// listWallets returns wallets at or above a minimum whale score, highest
// score first.
func (s *Server) listWallets(c *gin.Context) {
	minScore := queryInt(c, "min_score", 0, 100)
	limit := queryInt(c, "limit", defaultWalletLimit, maxLimit)

	wallets, err := s.wallets.ListByMinScore(c.Request.Context(), minScore, limit)
	if err != nil {
		s.log.Errorw("list wallets failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list wallets"})
		return
	}

	views := make([]walletView, 0, len(wallets))
	for _, w := range wallets {
		views = append(views, toWalletView(w))
	}
	c.JSON(http.StatusOK, gin.H{
		"wallets":   views,
		"count":     len(views),
		"min_score": minScore,
	})
}

// getWallet returns one wallet with its recent interaction history and a
// buy-size consistency score over that history.
func (s *Server) getWallet(c *gin.Context) {
	address := c.Param("address")

	wallet, err := s.wallets.GetByAddress(c.Request.Context(), address)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "wallet not found"})
		return
	}
	if err != nil {
		s.log.Errorw("get wallet failed", "address", address, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load wallet"})
		return
	}

	limit := queryInt(c, "limit", defaultHistoryLimit, maxLimit)
	history, err := s.interactions.GetByWallet(c.Request.Context(), address, limit)
	if err != nil {
		s.log.Errorw("wallet history failed", "address", address, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}

	views := make([]interactionView, 0, len(history))
	for _, in := range history {
		views = append(views, interactionView{
			TokenMint:    in.TokenMint,
			BlockTime:    in.BlockTime,
			Amount:       in.Amount,
			IsEarlyEntry: in.IsEarlyEntry,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"wallet":            toWalletView(wallet),
		"history":           views,
		"consistency_score": detector.ConsistencyScore(history),
	})
}

// trackWallet registers a wallet for observation before any of its buys
// have been seen. Existing wallets are left untouched.
func (s *Server) trackWallet(c *gin.Context) {
	address := c.Param("address")
	if !ingestion.ValidWalletAddress(address) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wallet address"})
		return
	}

	existing, err := s.wallets.GetByAddress(c.Request.Context(), address)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"wallet": toWalletView(existing), "created": false})
		return
	}
	if !errors.Is(err, storage.ErrNotFound) {
		s.log.Errorw("track wallet lookup failed", "address", address, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load wallet"})
		return
	}

	// Same zero-valued shape the pipeline creates on a wallet's first
	// observed buy, timestamps included.
	now := time.Now().UnixMilli()
	wallet := &domain.Wallet{Address: address, CreatedAt: now, UpdatedAt: now}
	if err := s.wallets.Upsert(c.Request.Context(), wallet); err != nil {
		s.log.Errorw("track wallet failed", "address", address, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to track wallet"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"wallet": toWalletView(wallet), "created": true})
}

// getToken returns a token record with per-token activity aggregates.
func (s *Server) getToken(c *gin.Context) {
	mint := c.Param("mint")

	token, err := s.tokens.GetByMint(c.Request.Context(), mint)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "token not found"})
		return
	}
	if err != nil {
		s.log.Errorw("get token failed", "mint", mint, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load token"})
		return
	}

	interactions, err := s.interactions.GetByToken(c.Request.Context(), mint)
	if err != nil {
		s.log.Errorw("token interactions failed", "mint", mint, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load token activity"})
		return
	}

	var totalVolume float64
	var earlyCount int
	for _, in := range interactions {
		totalVolume += in.Amount
		if in.IsEarlyEntry {
			earlyCount++
		}
	}

	wallets, err := s.interactions.DistinctWalletsByToken(c.Request.Context(), mint)
	if err != nil {
		s.log.Errorw("token wallets failed", "mint", mint, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load token wallets"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": gin.H{
			"mint":             token.Mint,
			"creator_wallet":   token.CreatorWallet,
			"first_block_time": token.FirstBlockTime,
		},
		"buy_count":       len(interactions),
		"total_volume":    totalVolume,
		"early_buy_count": earlyCount,
		"unique_wallets":  len(wallets),
	})
}

// recentAlerts returns the alert history, newest first.
func (s *Server) recentAlerts(c *gin.Context) {
	limit := queryInt(c, "limit", defaultAlertLimit, maxLimit)

	alerts, err := s.alerts.GetRecent(c.Request.Context(), limit)
	if err != nil {
		s.log.Errorw("recent alerts failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load alerts"})
		return
	}

	views := make([]alertView, 0, len(alerts))
	for _, a := range alerts {
		views = append(views, toAlertView(a))
	}
	c.JSON(http.StatusOK, gin.H{"alerts": views, "count": len(views)})
}

// walletClusters groups wallets with similar behavioral stats. Only
// wallets at or above min_score participate, so the endpoint surfaces
// coordinated whale groups rather than all traffic. Aggregates come from
// the analytics archive when one is attached.
func (s *Server) walletClusters(c *gin.Context) {
	minScore := queryInt(c, "min_score", 50, 100)
	limit := queryInt(c, "limit", maxLimit, maxLimit)

	stats, err := s.clusterStats(c, minScore, limit)
	if err != nil {
		s.log.Errorw("cluster wallet load failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load wallets"})
		return
	}

	clusters := s.clusterer.Cluster(stats)
	c.JSON(http.StatusOK, gin.H{
		"clusters":  clusters,
		"count":     len(clusters),
		"min_score": minScore,
	})
}

func (s *Server) clusterStats(c *gin.Context, minScore, limit int) ([]*domain.WalletStats, error) {
	wallets, err := s.wallets.ListByMinScore(c.Request.Context(), minScore, limit)
	if err != nil {
		return nil, err
	}
	qualifying := make(map[string]*domain.Wallet, len(wallets))
	for _, w := range wallets {
		qualifying[w.Address] = w
	}

	if s.archive != nil {
		aggregates, err := s.archive.WalletAggregates(c.Request.Context())
		if err != nil {
			return nil, err
		}
		stats := make([]*domain.WalletStats, 0, len(aggregates))
		for _, agg := range aggregates {
			if _, ok := qualifying[agg.Address]; ok {
				stats = append(stats, agg)
			}
		}
		return stats, nil
	}

	stats := make([]*domain.WalletStats, 0, len(wallets))
	for _, w := range wallets {
		stats = append(stats, &domain.WalletStats{
			Address:          w.Address,
			TotalVolume:      w.TotalVolume,
			InteractionCount: w.InteractionCount,
			AverageEntrySize: w.AverageEntrySize,
			WinrateProxy:     w.WinrateProxy,
		})
	}
	return stats, nil
}
