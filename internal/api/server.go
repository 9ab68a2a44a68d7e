// Package api exposes the read-side of the detection state over HTTP.
// All endpoints serve queries against the stores; the only write is the
// manual wallet-tracking endpoint.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"solana-whale-watch/internal/detector"
	"solana-whale-watch/internal/logging"
	"solana-whale-watch/internal/storage"
)

// Server wires the query endpoints onto a gin router.
type Server struct {
	wallets      storage.WalletStore
	tokens       storage.TokenStore
	interactions storage.InteractionStore
	alerts       storage.AlertStore
	archive      storage.InteractionArchive
	clusterer    *detector.Clusterer

	engine *gin.Engine
	http   *http.Server
	log    *zap.SugaredLogger
}

// Options carries the store dependencies for the query server.
type Options struct {
	Wallets      storage.WalletStore
	Tokens       storage.TokenStore
	Interactions storage.InteractionStore
	Alerts       storage.AlertStore

	// Archive, when set, supplies the wallet aggregates for the cluster
	// endpoint; without it the stored wallet records are used.
	Archive storage.InteractionArchive

	// ClusterSimilarityThreshold for the wallet clustering endpoint;
	// zero means the 0.8 default.
	ClusterSimilarityThreshold float64
}

// New builds the server and registers all routes.
func New(opts Options) *Server {
	threshold := opts.ClusterSimilarityThreshold
	if threshold == 0 {
		threshold = 0.8
	}

	s := &Server{
		wallets:      opts.Wallets,
		tokens:       opts.Tokens,
		interactions: opts.Interactions,
		alerts:       opts.Alerts,
		archive:      opts.Archive,
		clusterer:    &detector.Clusterer{SimilarityThreshold: threshold},
		log:          logging.Named("api"),
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	v1.GET("/wallets", s.listWallets)
	v1.GET("/wallets/clusters", s.walletClusters)
	v1.GET("/wallets/:address", s.getWallet)
	v1.POST("/wallets/:address/track", s.trackWallet)
	v1.GET("/tokens/:mint", s.getToken)
	v1.GET("/alerts", s.recentAlerts)

	s.engine = r
	return s
}

// Handler returns the underlying HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("query API listening", "addr", addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
