package records

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/crogentx/crogentx/internal/logging"
	"github.com/crogentx/crogentx/internal/pagination"
	"github.com/crogentx/crogentx/pkg/x402"
)

// Handler provides HTTP handlers for the transaction and agent APIs
type Handler struct {
	source DataSource
}

// NewHandler creates a new records handler
func NewHandler(source DataSource) *Handler {
	return &Handler{source: source}
}

// RegisterRoutes sets up the records routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/transactions", h.ListTransactions)
	r.GET("/transactions/:hash", h.GetTransaction)

	r.GET("/agents", h.ListAgents)
	r.GET("/agents/:id", h.GetAgent)
	r.GET("/agents/:id/transactions", h.ListAgentTransactions)
}

// TransactionList is the body of GET /transactions
type TransactionList struct {
	Success    bool               `json:"success"`
	Data       []x402.Transaction `json:"data"`
	Pagination pagination.Page    `json:"pagination"`
	Metadata   ListMetadata       `json:"metadata"`
}

// ListMetadata describes how a list response was produced
type ListMetadata struct {
	Timestamp   string `json:"timestamp"`
	QueryParams any    `json:"queryParams,omitempty"`
}

// AgentList is the body of GET /agents
type AgentList struct {
	Success  bool         `json:"success"`
	Data     []x402.Agent `json:"data"`
	Count    int          `json:"count"`
	Total    int          `json:"total"`
	Metadata ListMetadata `json:"metadata"`
}

// ListTransactions handles GET /transactions
func (h *Handler) ListTransactions(c *gin.Context) {
	q, err := ParseTransactionQuery(c.Request.URL.Query())
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
		logging.L(c.Request.Context()).Error("failed to fetch transactions", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to fetch transactions",
			"message": "internal error",
		})
		return
	}

	data, page := q.Apply(txs)
	c.JSON(http.StatusOK, TransactionList{
		Success:    true,
		Data:       data,
		Pagination: page,
		Metadata:   ListMetadata{Timestamp: now(), QueryParams: q},
	})
}

// GetTransaction handles GET /transactions/:hash
func (h *Handler) GetTransaction(c *gin.Context) {
	hash := c.Param("hash")

	txs, err := h.source.Transactions(c.Request.Context())
	if err != nil {
		logging.L(c.Request.Context()).Error("failed to fetch transactions", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to fetch transactions",
			"message": "internal error",
		})
		return
	}

	tx, err := FindTransaction(txs, hash)
	if errors.Is(err, ErrTransactionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Transaction not found",
			"message": "No transaction with hash " + hash,
		})
		return
	}

	related, _ := RelatedTransactions(txs, tx.TxHash)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    tx,
		"related": related,
	})
}

// ListAgents handles GET /agents
func (h *Handler) ListAgents(c *gin.Context) {
	q, err := ParseAgentQuery(c.Request.URL.Query())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid query",
			"message": err.Error(),
		})
		return
	}

	agents, err := h.source.Agents(c.Request.Context())
	if err != nil {
		logging.L(c.Request.Context()).Error("failed to fetch agents", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to fetch agents",
			"message": "internal error",
		})
		return
	}

	data, total := q.Apply(agents)
	c.JSON(http.StatusOK, AgentList{
		Success:  true,
		Data:     data,
		Count:    len(data),
		Total:    total,
		Metadata: ListMetadata{Timestamp: now(), QueryParams: q},
	})
}

// GetAgent handles GET /agents/:id where id is an agent id or address
func (h *Handler) GetAgent(c *gin.Context) {
	id := c.Param("id")

	agent, err := h.findAgent(c.Request.Context(), id)
	switch {
	case errors.Is(err, ErrAgentNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Agent not found",
			"message": "No agent with id or address " + id,
		})
		return
	case err != nil:
		logging.L(c.Request.Context()).Error("failed to fetch agent", "agent", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to fetch agents",
			"message": "internal error",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": agent})
}

func (h *Handler) findAgent(ctx context.Context, id string) (x402.Agent, error) {
	if finder, ok := h.source.(AgentFinder); ok {
		return finder.Agent(ctx, id)
	}
	agents, err := h.source.Agents(ctx)
	if err != nil {
		return x402.Agent{}, err
	}
	return FindAgent(agents, id)
}

// ListAgentTransactions handles GET /agents/:id/transactions
func (h *Handler) ListAgentTransactions(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	var (
		agents []x402.Agent
		txs    []x402.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		agents, err = h.source.Agents(gctx)
		return err
	})
	g.Go(func() (err error) {
		txs, err = h.source.Transactions(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		logging.L(ctx).Error("failed to fetch agent records", "agent", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to fetch agent transactions",
			"message": "internal error",
		})
		return
	}

	agent, err := FindAgent(agents, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Agent not found",
			"message": "No agent with id or address " + id,
		})
		return
	}

	data := AgentTransactions(txs, agent.ID)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"count":   len(data),
	})
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
