package devtools

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/crogentx/crogentx/internal/logging"
	"github.com/crogentx/crogentx/internal/metrics"
	"github.com/crogentx/crogentx/internal/records"
	"github.com/crogentx/crogentx/internal/traces"
	"github.com/crogentx/crogentx/internal/validation"
	"github.com/crogentx/crogentx/pkg/x402"
)

var (
	simulateRequired = []string{"instruction", "agentId", "value"}
	debugRequired    = []string{"transactionHash"}
)

// Handler provides HTTP handlers for the developer tools
type Handler struct {
	source    records.DataSource
	simulator *Simulator
	debugger  *Debugger
}

// NewHandler creates a new devtools handler
func NewHandler(source records.DataSource, simulator *Simulator, debugger *Debugger) *Handler {
	return &Handler{source: source, simulator: simulator, debugger: debugger}
}

// RegisterRoutes sets up the devtools routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/simulate", h.Simulate)
	r.POST("/debug", h.Debug)
}

// DebugRequest is the body of POST /api/debug
type DebugRequest struct {
	TransactionHash string `json:"transactionHash"`
}

// SimulateResponse is the body of a successful simulation
type SimulateResponse struct {
	Success    bool       `json:"success"`
	Simulation Simulation `json:"simulation"`
}

// DebugResponse is the body of a successful debug request
type DebugResponse struct {
	Success     bool             `json:"success"`
	Transaction x402.Transaction `json:"transaction"`
	Debug       DebugReport      `json:"debug"`
}

// Simulate handles POST /simulate
func (h *Handler) Simulate(c *gin.Context) {
	var req SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body",
			"message": "Request body must be a JSON object",
		})
		return
	}

	if errs := validation.Validate(
		validation.Required("instruction", req.Instruction),
		validation.Required("agentId", req.AgentID),
		validation.Required("value", req.Value),
	); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success":  false,
			"error":    "Missing required fields",
			"message":  errs.Error(),
			"required": simulateRequired,
			"missing":  errs.Fields(),
		})
		return
	}

	if errs := validation.Validate(
		validation.ValidAmount("value", req.Value),
		validation.MaxLength("instruction", req.Instruction, 64),
		validation.MaxLength("agentId", req.AgentID, 256),
		validation.MaxLength("target", req.Target, 256),
	); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request",
			"message": errs.Error(),
			"fields":  errs,
		})
		return
	}

	_, span := traces.StartSpan(c.Request.Context(), "devtools.simulate",
		traces.Instruction(req.Instruction), traces.AgentID(req.AgentID))
	sim := h.simulator.Simulate(req)
	span.End()

	metrics.SimulationsTotal.WithLabelValues(metricInstruction(req.Instruction), strconv.FormatBool(sim.Analysis.Safe)).Inc()
	c.JSON(http.StatusOK, SimulateResponse{Success: true, Simulation: sim})
}

// Debug handles POST /debug
func (h *Handler) Debug(c *gin.Context) {
	var req DebugRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body",
			"message": "Request body must be a JSON object",
		})
		return
	}

	if errs := validation.Validate(validation.Required("transactionHash", req.TransactionHash)); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success":  false,
			"error":    "Transaction hash required",
			"message":  errs.Error(),
			"required": debugRequired,
			"missing":  errs.Fields(),
		})
		return
	}

	ctx, span := traces.StartSpan(c.Request.Context(), "devtools.debug", traces.TxHash(req.TransactionHash))
	defer span.End()

	txs, err := h.source.Transactions(ctx)
	if err != nil {
		traces.RecordError(span, err)
		logging.L(ctx).Error("failed to fetch transactions for debug", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Debug failed",
			"message": "internal error",
		})
		return
	}

	tx, err := records.FindTransaction(txs, req.TransactionHash)
	if errors.Is(err, records.ErrTransactionNotFound) {
		metrics.DebugRequestsTotal.WithLabelValues("not_found").Inc()
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Transaction not found",
			"message": "No transaction with hash " + req.TransactionHash,
		})
		return
	}

	metrics.DebugRequestsTotal.WithLabelValues("found").Inc()
	c.JSON(http.StatusOK, DebugResponse{
		Success:     true,
		Transaction: tx,
		Debug:       h.debugger.Debug(tx),
	})
}

// metricInstruction bounds label cardinality to the known gas table
func metricInstruction(instruction string) string {
	if _, ok := baseGas[instruction]; ok {
		return instruction
	}
	return "other"
}
