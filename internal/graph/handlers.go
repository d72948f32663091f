package graph

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/crogentx/crogentx/internal/logging"
	"github.com/crogentx/crogentx/internal/metrics"
	"github.com/crogentx/crogentx/internal/records"
	"github.com/crogentx/crogentx/internal/traces"
	"github.com/crogentx/crogentx/internal/validation"
	"github.com/crogentx/crogentx/pkg/x402"
)

const (
	DefaultRequestLimit = 200
	MaxRequestLimit     = 1000
)

// ErrInvalidRequest is returned for malformed graph query parameters
var ErrInvalidRequest = errors.New("graph: invalid request")

// Request is the parsed set of graph query parameters. AgentID,
// InstructionType and MinValue narrow the transactions before the graph is
// built; the remaining fields run through Filter afterwards.
type Request struct {
	Limit           int                  `json:"limit"`
	AgentID         string               `json:"agentId,omitempty"`
	InstructionType x402.InstructionType `json:"instructionType,omitempty"`
	MinValue        *float64             `json:"minValue,omitempty"`
	MaxValue        *float64             `json:"maxValue,omitempty"`
	Status          x402.Status          `json:"status,omitempty"`
	Search          string               `json:"search,omitempty"`
	OnlyBatched     bool                 `json:"onlyBatched,omitempty"`
	OnlyMultiStep   bool                 `json:"onlyMultiStep,omitempty"`
}

// ParseRequest reads graph parameters from a query string
func ParseRequest(q url.Values) (Request, error) {
	req := Request{
		Limit:           DefaultRequestLimit,
		AgentID:         q.Get("agentId"),
		InstructionType: x402.InstructionType(q.Get("instructionType")),
		Search:          validation.SanitizeString(q.Get("search"), validation.MaxSearchLength),
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Request{}, fmt.Errorf("%w: limit must be a positive integer", ErrInvalidRequest)
		}
		req.Limit = min(n, MaxRequestLimit)
	}

	if v := q.Get("status"); v != "" {
		req.Status = x402.Status(v)
		if !req.Status.Valid() {
			return Request{}, fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, v)
		}
	}

	var err error
	if req.MinValue, err = optionalFloat(q.Get("minValue"), "minValue"); err != nil {
		return Request{}, err
	}
	if req.MaxValue, err = optionalFloat(q.Get("maxValue"), "maxValue"); err != nil {
		return Request{}, err
	}
	if req.OnlyBatched, err = optionalBool(q.Get("onlyBatched"), "onlyBatched"); err != nil {
		return Request{}, err
	}
	if req.OnlyMultiStep, err = optionalBool(q.Get("onlyMultiStep"), "onlyMultiStep"); err != nil {
		return Request{}, err
	}
	return req, nil
}

func optionalFloat(v, name string) (*float64, error) {
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) {
		return nil, fmt.Errorf("%w: %s must be a number", ErrInvalidRequest, name)
	}
	return &f, nil
}

func optionalBool(v, name string) (bool, error) {
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean", ErrInvalidRequest, name)
	}
	return b, nil
}

// selects reports whether tx passes the pre-build parameters
func (r *Request) selects(tx *x402.Transaction) bool {
	if r.AgentID != "" && tx.AgentID != r.AgentID {
		return false
	}
	if r.InstructionType != "" && tx.InstructionType != r.InstructionType {
		return false
	}
	if r.MinValue != nil && tx.ValueFloat() < *r.MinValue {
		return false
	}
	return true
}

// filterOptions are the post-build predicates
func (r *Request) filterOptions() FilterOptions {
	opts := FilterOptions{
		SearchQuery:   r.Search,
		MaxValue:      r.MaxValue,
		OnlyBatched:   r.OnlyBatched,
		OnlyMultiStep: r.OnlyMultiStep,
	}
	if r.Status != "" {
		opts.Status = []x402.Status{r.Status}
	}
	return opts
}

// Stats are the headline counts returned with a graph
type Stats struct {
	Nodes        int `json:"nodes"`
	Edges        int `json:"edges"`
	Transactions int `json:"transactions"`
	Agents       int `json:"agents"`
}

// Response is the body of GET /graph
type Response struct {
	Success  bool     `json:"success"`
	Data     *Graph   `json:"data"`
	Stats    Stats    `json:"stats"`
	Metrics  Metrics  `json:"metrics"`
	Metadata Metadata `json:"metadata"`
}

// Metadata echoes the request
type Metadata struct {
	Timestamp string  `json:"timestamp"`
	Filters   Request `json:"filters"`
}

// InsightsResponse is the body of GET /graph/insights
type InsightsResponse struct {
	Success  bool     `json:"success"`
	Metrics  Metrics  `json:"metrics"`
	Insights Insights `json:"insights"`
}

// Handler provides HTTP handlers for the graph API
type Handler struct {
	source records.DataSource
	now    func() time.Time
}

// NewHandler creates a new graph handler
func NewHandler(source records.DataSource) *Handler {
	return &Handler{source: source, now: time.Now}
}

// RegisterRoutes sets up the graph routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/graph", h.GetGraph)
	r.GET("/graph/insights", h.GetInsights)
}

// GetGraph handles GET /graph
func (h *Handler) GetGraph(c *gin.Context) {
	req, err := ParseRequest(c.Request.URL.Query())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid query",
			"message": err.Error(),
		})
		return
	}

	ctx, span := traces.StartSpan(c.Request.Context(), "graph.Get",
		traces.AgentID(req.AgentID), traces.Instruction(string(req.InstructionType)))
	defer span.End()

	txs, agents, err := h.load(ctx)
	if err != nil {
		traces.RecordError(span, err)
		logging.L(ctx).Error("failed to load records for graph", "error", err)
		internalError(c, "Failed to generate graph")
		return
	}

	if len(txs) > req.Limit {
		txs = txs[:req.Limit]
	}
	selected := make([]x402.Transaction, 0, len(txs))
	for i := range txs {
		if req.selects(&txs[i]) {
			selected = append(selected, txs[i])
		}
	}

	start := time.Now()
	g := Build(selected, agents)
	if opts := req.filterOptions(); !opts.IsEmpty() {
		g = Filter(g, opts)
	}
	metrics.GraphBuildDuration.Observe(time.Since(start).Seconds())
	metrics.GraphNodes.Set(float64(len(g.Nodes)))

	counts := g.CountByType()
	span.SetAttributes(traces.Count("graph.nodes", len(g.Nodes)), traces.Count("graph.edges", len(g.Edges)))

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    g,
		Stats: Stats{
			Nodes:        len(g.Nodes),
			Edges:        len(g.Edges),
			Transactions: counts[NodeTransaction],
			Agents:       len(agents),
		},
		Metrics: ComputeMetrics(g),
		Metadata: Metadata{
			Timestamp: h.now().UTC().Format(time.RFC3339),
			Filters:   req,
		},
	})
}

// GetInsights handles GET /graph/insights
func (h *Handler) GetInsights(c *gin.Context) {
	ctx, span := traces.StartSpan(c.Request.Context(), "graph.Insights")
	defer span.End()

	txs, agents, err := h.load(ctx)
	if err != nil {
		traces.RecordError(span, err)
		logging.L(ctx).Error("failed to load records for graph insights", "error", err)
		internalError(c, "Failed to compute insights")
		return
	}

	start := time.Now()
	g := Build(txs, agents)
	metrics.GraphBuildDuration.Observe(time.Since(start).Seconds())

	c.JSON(http.StatusOK, InsightsResponse{
		Success:  true,
		Metrics:  ComputeMetrics(g),
		Insights: ComputeInsights(g),
	})
}

func (h *Handler) load(ctx context.Context) (txs []x402.Transaction, agents []x402.Agent, err error) {
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
		return nil, nil, err
	}
	return txs, agents, nil
}

func internalError(c *gin.Context, msg string) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   msg,
		"message": "internal error",
	})
}
