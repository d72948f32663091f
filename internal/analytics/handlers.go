package analytics

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/crogentx/crogentx/internal/logging"
	"github.com/crogentx/crogentx/internal/records"
	"github.com/crogentx/crogentx/pkg/x402"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

// Handler provides HTTP handlers for the analytics API
type Handler struct {
	source records.DataSource
}

// NewHandler creates a new analytics handler
func NewHandler(source records.DataSource) *Handler {
	return &Handler{source: source}
}

// RegisterRoutes sets up the analytics routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/analytics")
	g.GET("/stats", h.GetStats)
	g.GET("/leaderboard", h.GetLeaderboard)
	g.GET("/timeline", h.GetTimeline)
}

// GetStats handles GET /analytics/stats
func (h *Handler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		txs    []x402.Transaction
		agents []x402.Agent
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		txs, err = h.source.Transactions(gctx)
		return err
	})
	g.Go(func() (err error) {
		agents, err = h.source.Agents(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		logging.L(ctx).Error("failed to load records for stats", "error", err)
		internalError(c, "Failed to compute stats")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": ComputeStats(txs, agents)})
}

// GetLeaderboard handles GET /analytics/leaderboard
func (h *Handler) GetLeaderboard(c *gin.Context) {
	limit := parseIntQuery(c, "limit", defaultLeaderboardLimit)
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	txs, err := h.source.Transactions(c.Request.Context())
	if err != nil {
		logging.L(c.Request.Context()).Error("failed to load transactions for leaderboard", "error", err)
		internalError(c, "Failed to compute leaderboard")
		return
	}

	entries := Leaderboard(txs, limit)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": entries, "count": len(entries)})
}

// GetTimeline handles GET /analytics/timeline
func (h *Handler) GetTimeline(c *gin.Context) {
	bucket, err := ParseBucket(c.Query("bucket"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid query",
			"message": err.Error(),
		})
		return
	}

	txs, err := h.source.Transactions(c.Request.Context())
	if err != nil {
		logging.L(c.Request.Context()).Error("failed to load transactions for timeline", "error", err)
		internalError(c, "Failed to compute timeline")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "bucket": bucket, "data": Timeline(txs, bucket)})
}

func internalError(c *gin.Context, msg string) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   msg,
		"message": "internal error",
	})
}

func parseIntQuery(c *gin.Context, key string, defaultVal int) int {
	if val := c.Query(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil && i > 0 {
			return i
		}
	}
	return defaultVal
}
