package sdk

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/crogentx/crogentx/internal/analytics"
	"github.com/crogentx/crogentx/internal/devtools"
	"github.com/crogentx/crogentx/internal/graph"
	"github.com/crogentx/crogentx/pkg/x402"
)

// Response types shared with the server
type (
	Simulation       = devtools.Simulation
	Analysis         = devtools.Analysis
	SimulateRequest  = devtools.SimulateRequest
	DebugReport      = devtools.DebugReport
	GraphResponse    = graph.Response
	Stats            = analytics.Stats
	LeaderboardEntry = analytics.LeaderboardEntry
)

// statsSampleSize is how many records the client-side analytics read
const statsSampleSize = 1000

func setInt(q url.Values, key string, v int) {
	if v > 0 {
		q.Set(key, strconv.Itoa(v))
	}
}

func setFloat(q url.Values, key string, v *float64) {
	if v != nil {
		q.Set(key, strconv.FormatFloat(*v, 'f', -1, 64))
	}
}

func setString(q url.Values, key, v string) {
	if v != "" {
		q.Set(key, v)
	}
}

// -----------------------------------------------------------------------------
// Transactions
// -----------------------------------------------------------------------------

// TransactionsService covers /api/transactions, /api/simulate and /api/debug
type TransactionsService struct{ c *Client }

// TransactionListOptions filter a transaction listing. Zero values are
// omitted from the query.
type TransactionListOptions struct {
	Limit           int
	Offset          int
	Status          x402.Status
	AgentID         string
	InstructionType x402.InstructionType
	MinValue        *float64
	MaxValue        *float64
	StartDate       string // RFC3339 or YYYY-MM-DD
	EndDate         string
}

func (o TransactionListOptions) query() url.Values {
	q := url.Values{}
	setInt(q, "limit", o.Limit)
	setInt(q, "offset", o.Offset)
	setString(q, "status", string(o.Status))
	setString(q, "agentId", o.AgentID)
	setString(q, "instructionType", string(o.InstructionType))
	setFloat(q, "minValue", o.MinValue)
	setFloat(q, "maxValue", o.MaxValue)
	setString(q, "startDate", o.StartDate)
	setString(q, "endDate", o.EndDate)
	return q
}

// Pagination describes where a page sits in the full result
type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

// TransactionPage is one page of transactions
type TransactionPage struct {
	Data       []x402.Transaction `json:"data"`
	Pagination Pagination         `json:"pagination"`
}

// TransactionDetail is a transaction with the records related to it
type TransactionDetail struct {
	Data    x402.Transaction   `json:"data"`
	Related []x402.Transaction `json:"related"`
}

// DebugResult pairs a transaction with its analysis
type DebugResult struct {
	Transaction x402.Transaction `json:"transaction"`
	Debug       DebugReport      `json:"debug"`
}

// List returns a page of transactions, newest first
func (s *TransactionsService) List(ctx context.Context, opts TransactionListOptions) (*TransactionPage, error) {
	var out TransactionPage
	if err := s.c.do(ctx, http.MethodGet, "/api/transactions", opts.query(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get returns a transaction by hash
func (s *TransactionsService) Get(ctx context.Context, hash string) (*TransactionDetail, error) {
	var out TransactionDetail
	if err := s.c.do(ctx, http.MethodGet, "/api/transactions/"+url.PathEscape(hash), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Simulate estimates gas and risk for an instruction without executing it
func (s *TransactionsService) Simulate(ctx context.Context, req SimulateRequest) (*Simulation, error) {
	var out struct {
		Simulation Simulation `json:"simulation"`
	}
	if err := s.c.do(ctx, http.MethodPost, "/api/simulate", nil, req, &out); err != nil {
		return nil, err
	}
	return &out.Simulation, nil
}

// Debug analyses a recorded transaction
func (s *TransactionsService) Debug(ctx context.Context, hash string) (*DebugResult, error) {
	var out DebugResult
	body := devtools.DebugRequest{TransactionHash: hash}
	if err := s.c.do(ctx, http.MethodPost, "/api/debug", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// -----------------------------------------------------------------------------
// Agents
// -----------------------------------------------------------------------------

// AgentsService covers /api/agents
type AgentsService struct{ c *Client }

// AgentListOptions filter an agent listing
type AgentListOptions struct {
	Limit      int
	Type       x402.AgentType
	MinBalance *float64
	ActiveOnly bool
}

func (o AgentListOptions) query() url.Values {
	q := url.Values{}
	setInt(q, "limit", o.Limit)
	setString(q, "type", string(o.Type))
	setFloat(q, "minBalance", o.MinBalance)
	if o.ActiveOnly {
		q.Set("active", "true")
	}
	return q
}

// AgentPage is a filtered agent listing. Total counts matches before the
// limit was applied.
type AgentPage struct {
	Data  []x402.Agent `json:"data"`
	Count int          `json:"count"`
	Total int          `json:"total"`
}

// List returns agents matching opts
func (s *AgentsService) List(ctx context.Context, opts AgentListOptions) (*AgentPage, error) {
	var out AgentPage
	if err := s.c.do(ctx, http.MethodGet, "/api/agents", opts.query(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get returns an agent by id or address
func (s *AgentsService) Get(ctx context.Context, idOrAddress string) (*x402.Agent, error) {
	var out struct {
		Data x402.Agent `json:"data"`
	}
	if err := s.c.do(ctx, http.MethodGet, "/api/agents/"+url.PathEscape(idOrAddress), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// Transactions returns every transaction issued by an agent
func (s *AgentsService) Transactions(ctx context.Context, idOrAddress string) ([]x402.Transaction, error) {
	var out struct {
		Data []x402.Transaction `json:"data"`
	}
	if err := s.c.do(ctx, http.MethodGet, "/api/agents/"+url.PathEscape(idOrAddress)+"/transactions", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// -----------------------------------------------------------------------------
// Graph
// -----------------------------------------------------------------------------

// GraphService covers /api/graph
type GraphService struct{ c *Client }

// GraphOptions select the transactions a graph is built from
type GraphOptions struct {
	Limit           int
	AgentID         string
	InstructionType x402.InstructionType
	MinValue        *float64
	MaxValue        *float64
	Status          x402.Status
	Search          string
	OnlyBatched     bool
	OnlyMultiStep   bool
}

func (o GraphOptions) query() url.Values {
	q := url.Values{}
	setInt(q, "limit", o.Limit)
	setString(q, "agentId", o.AgentID)
	setString(q, "instructionType", string(o.InstructionType))
	setFloat(q, "minValue", o.MinValue)
	setFloat(q, "maxValue", o.MaxValue)
	setString(q, "status", string(o.Status))
	setString(q, "search", o.Search)
	if o.OnlyBatched {
		q.Set("onlyBatched", "true")
	}
	if o.OnlyMultiStep {
		q.Set("onlyMultiStep", "true")
	}
	return q
}

// Get builds a transaction graph on the server
func (s *GraphService) Get(ctx context.Context, opts GraphOptions) (*GraphResponse, error) {
	var out GraphResponse
	if err := s.c.do(ctx, http.MethodGet, "/api/graph", opts.query(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// -----------------------------------------------------------------------------
// Analytics
// -----------------------------------------------------------------------------

// AnalyticsService derives aggregate views from the listing endpoints, so it
// works against any server that serves transactions and agents.
type AnalyticsService struct{ c *Client }

// Stats fetches transactions and agents concurrently and aggregates them
func (s *AnalyticsService) Stats(ctx context.Context) (*Stats, error) {
	var (
		txs    *TransactionPage
		agents *AgentPage
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		txs, err = s.c.Transactions.List(gctx, TransactionListOptions{Limit: statsSampleSize})
		return err
	})
	g.Go(func() (err error) {
		agents, err = s.c.Agents.List(gctx, AgentListOptions{Limit: statsSampleSize})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := analytics.ComputeStats(txs.Data, agents.Data)
	return &stats, nil
}

// Leaderboard ranks agents by transaction count
func (s *AnalyticsService) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	page, err := s.c.Transactions.List(ctx, TransactionListOptions{Limit: statsSampleSize})
	if err != nil {
		return nil, err
	}
	return analytics.Leaderboard(page.Data, limit), nil
}
