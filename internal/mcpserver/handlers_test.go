package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crogentx/crogentx/internal/config"
	"github.com/crogentx/crogentx/internal/devtools"
	"github.com/crogentx/crogentx/pkg/sdk"
	"github.com/crogentx/crogentx/pkg/x402"
)

// --- Test helpers ---

func newTestSetup(t *testing.T, handler http.Handler) *Handlers {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewHandlers(sdk.New(ts.URL, sdk.WithTimeout(5*time.Second)))
}

func makeRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	if args == nil {
		args = map[string]any{}
	}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content, "expected at least one content block")
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return tc.Text
}

func jsonHandler(status int, body any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

var (
	mcpTxs = []x402.Transaction{
		{
			ID: "tx-1", TxHash: "0xaaa", Value: "42", GasUsed: "21000", BlockNumber: 1200,
			Status: x402.StatusSuccess, InstructionType: x402.InstructionBatchPayment,
			AgentID: "agent-1", AgentName: "Atlas", BatchID: "batch-1",
			SettlementPipeline: []x402.SettlementStep{
				{Step: 1, Action: "approve", Contract: "0xc1", Status: x402.StepCompleted},
				{Step: 2, Action: "transfer", Contract: "0xc2", Status: x402.StepCompleted},
			},
		},
		{ID: "tx-2", TxHash: "0xbbb", Value: "8", GasUsed: "21000", Status: x402.StatusFailed, InstructionType: x402.InstructionSwap},
	}
	mcpAgents = []x402.Agent{
		{ID: "agent-1", Name: "Atlas", Address: "0x111", Type: x402.AgentTradingBot, TotalTransactions: 1, SuccessRate: 100, TotalVolume: "42", IsActive: true, Integrations: []string{"VVS Finance"}},
	}
)

// ============================================================
// Tool definitions
// ============================================================

func TestNewMCPServer_RegistersTools(t *testing.T) {
	s := NewMCPServer(config.ClientConfig{APIURL: "http://localhost:3000", Timeout: time.Second})
	require.NotNil(t, s)

	tools := []mcp.Tool{
		ToolListTransactions, ToolGetTransaction, ToolListAgents, ToolGetAgent,
		ToolSimulateTransaction, ToolDebugTransaction, ToolGetGraph, ToolGetStats, ToolGetLeaderboard,
	}
	seen := map[string]bool{}
	for _, tool := range tools {
		assert.NotEmpty(t, tool.Description, tool.Name)
		assert.False(t, seen[tool.Name], "duplicate tool %s", tool.Name)
		seen[tool.Name] = true
	}
	assert.Len(t, seen, 9)
}

func TestToolSchemas_RequiredArguments(t *testing.T) {
	assert.ElementsMatch(t, []string{"tx_hash"}, ToolGetTransaction.InputSchema.Required)
	assert.ElementsMatch(t, []string{"instruction", "agent_id", "value"}, ToolSimulateTransaction.InputSchema.Required)
	assert.Empty(t, ToolGetStats.InputSchema.Required)
}

// ============================================================
// Handlers
// ============================================================

func TestHandleListTransactions(t *testing.T) {
	var got url.Values
	h := newTestSetup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		jsonHandler(http.StatusOK, map[string]any{
			"success":    true,
			"data":       mcpTxs,
			"pagination": map[string]any{"total": 30, "limit": 2, "offset": 0, "hasMore": true},
		})(w, r)
	}))

	result, err := h.HandleListTransactions(context.Background(), makeRequest(map[string]any{
		"limit":     float64(2),
		"status":    "success",
		"min_value": float64(5),
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	assert.Equal(t, "2", got.Get("limit"))
	assert.Equal(t, "success", got.Get("status"))
	assert.Equal(t, "5", got.Get("minValue"))
	assert.False(t, got.Has("maxValue"))

	text := resultText(t, result)
	assert.Contains(t, text, "Found 2 transaction(s) of 30")
	assert.Contains(t, text, "0xaaa")
	assert.Contains(t, text, "agent Unknown")
	assert.Contains(t, text, "More results available")
}

func TestHandleListTransactions_Empty(t *testing.T) {
	h := newTestSetup(t, jsonHandler(http.StatusOK, map[string]any{"success": true, "data": []any{}}))

	result, err := h.HandleListTransactions(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.Equal(t, "No transactions found matching your criteria.", resultText(t, result))
}

func TestHandleListTransactions_APIError(t *testing.T) {
	h := newTestSetup(t, jsonHandler(http.StatusBadRequest, map[string]any{
		"success": false,
		"error":   "Invalid parameter",
		"message": "status must be one of success, failed, pending",
	}))

	result, err := h.HandleListTransactions(context.Background(), makeRequest(map[string]any{"status": "weird"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "400")
	assert.Contains(t, resultText(t, result), "status must be one of")
}

func TestHandleGetTransaction(t *testing.T) {
	h := newTestSetup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/transactions/0xaaa", r.URL.Path)
		jsonHandler(http.StatusOK, map[string]any{"success": true, "data": mcpTxs[0], "related": mcpTxs[1:]})(w, r)
	}))

	result, err := h.HandleGetTransaction(context.Background(), makeRequest(map[string]any{"tx_hash": "0xaaa"}))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "Transaction 0xaaa")
	assert.Contains(t, text, "Batch: batch-1")
	assert.Contains(t, text, "2. transfer via 0xc2 (completed)")
	assert.Contains(t, text, "Related (1)")
}

func TestHandleGetTransaction_MissingHash(t *testing.T) {
	h := newTestSetup(t, http.NotFoundHandler())

	result, err := h.HandleGetTransaction(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "tx_hash is required", resultText(t, result))
}

func TestHandleListAgents(t *testing.T) {
	var got url.Values
	h := newTestSetup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		jsonHandler(http.StatusOK, map[string]any{"success": true, "data": mcpAgents, "count": 1, "total": 1})(w, r)
	}))

	result, err := h.HandleListAgents(context.Background(), makeRequest(map[string]any{"active_only": true, "type": "trading_bot"}))
	require.NoError(t, err)

	assert.Equal(t, "true", got.Get("active"))
	assert.Equal(t, "trading_bot", got.Get("type"))
	assert.Equal(t, "20", got.Get("limit"))
	assert.Contains(t, resultText(t, result), "1. Atlas (agent-1)")
}

func TestHandleGetAgent(t *testing.T) {
	h := newTestSetup(t, jsonHandler(http.StatusOK, map[string]any{"success": true, "data": mcpAgents[0]}))

	result, err := h.HandleGetAgent(context.Background(), makeRequest(map[string]any{"agent": "0x111"}))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "Agent Atlas (agent-1)")
	assert.Contains(t, text, "Integrations: VVS Finance")
}

func TestHandleGetAgent_NotFound(t *testing.T) {
	h := newTestSetup(t, jsonHandler(http.StatusNotFound, map[string]any{"success": false, "error": "Agent not found"}))

	result, err := h.HandleGetAgent(context.Background(), makeRequest(map[string]any{"agent": "agent-99"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Agent not found")
}

func TestHandleSimulateTransaction(t *testing.T) {
	var body map[string]any
	h := newTestSetup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		jsonHandler(http.StatusOK, map[string]any{"success": true, "simulation": devtools.Simulation{
			ID:          "sim_9",
			Instruction: "swap",
			AgentID:     "agent-1",
			Value:       "5000",
			Gas:         devtools.GasEstimate{Estimated: 150000, Price: 5000, CostCRO: "0.750000", CostUSD: "0.0750"},
			Analysis: devtools.Analysis{
				SuccessProbability: "85%",
				ExecutionTime:      "4s",
				Warnings:           []string{devtools.WarningLargeValue},
				Safe:               true,
			},
			Recommendations: []string{devtools.RecommendSlippage},
		}})(w, r)
	}))

	result, err := h.HandleSimulateTransaction(context.Background(), makeRequest(map[string]any{
		"instruction": "swap",
		"agent_id":    "agent-1",
		"value":       "5000",
	}))
	require.NoError(t, err)

	assert.Equal(t, "swap", body["instruction"])
	assert.Equal(t, "5000", body["value"])

	text := resultText(t, result)
	assert.Contains(t, text, "Simulation sim_9")
	assert.Contains(t, text, "Safe to execute: yes")
	assert.Contains(t, text, devtools.WarningLargeValue)
}

func TestHandleSimulateTransaction_MissingArguments(t *testing.T) {
	h := newTestSetup(t, http.NotFoundHandler())

	tests := []struct {
		args map[string]any
		want string
	}{
		{map[string]any{"agent_id": "a", "value": "1"}, "instruction is required"},
		{map[string]any{"instruction": "payment", "value": "1"}, "agent_id is required"},
		{map[string]any{"instruction": "payment", "agent_id": "a"}, "value is required"},
	}
	for _, tt := range tests {
		result, err := h.HandleSimulateTransaction(context.Background(), makeRequest(tt.args))
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Equal(t, tt.want, resultText(t, result))
	}
}

func TestHandleDebugTransaction(t *testing.T) {
	h := newTestSetup(t, jsonHandler(http.StatusOK, map[string]any{
		"success":     true,
		"transaction": mcpTxs[1],
		"debug": devtools.DebugReport{
			Status:          x402.StatusFailed,
			Issues:          []devtools.Issue{{Severity: devtools.SeverityCritical, Message: "Transaction failed"}},
			Trace:           []devtools.TraceStep{{Step: "Execution", Status: "failed", Details: "reverted"}},
			Gas:             devtools.GasAnalysis{Used: 21000, Efficiency: "Excellent"},
			Recommendations: []string{"Check the target contract"},
			ExplorerURL:     devtools.Testnet.TxURL("0xbbb"),
		},
	}))

	result, err := h.HandleDebugTransaction(context.Background(), makeRequest(map[string]any{"tx_hash": "0xbbb"}))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "Transaction 0xbbb: failed")
	assert.Contains(t, text, "[CRITICAL] Transaction failed")
	assert.Contains(t, text, "Execution (failed): reverted")
	assert.Contains(t, text, "https://testnet-explorer.monad.xyz/tx/0xbbb")
}

func TestHandleGetGraph(t *testing.T) {
	var got url.Values
	h := newTestSetup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		jsonHandler(http.StatusOK, map[string]any{
			"success": true,
			"stats":   map[string]int{"nodes": 7, "edges": 9},
			"metrics": map[string]any{"totalTransactions": 2, "edgesByType": map[string]int{"issued": 2, "flow": 4}},
		})(w, r)
	}))

	result, err := h.HandleGetGraph(context.Background(), makeRequest(map[string]any{"agent_id": "agent-1"}))
	require.NoError(t, err)

	assert.Equal(t, "agent-1", got.Get("agentId"))
	assert.False(t, got.Has("limit"))

	text := resultText(t, result)
	assert.Contains(t, text, "Graph: 7 nodes, 9 edges")
	assert.Less(t, strings.Index(text, "flow: 4"), strings.Index(text, "issued: 2"))
}

func TestHandleGetStats(t *testing.T) {
	h := newTestSetup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/transactions":
			jsonHandler(http.StatusOK, map[string]any{"success": true, "data": mcpTxs})(w, r)
		case "/api/agents":
			jsonHandler(http.StatusOK, map[string]any{"success": true, "data": mcpAgents})(w, r)
		}
	}))

	result, err := h.HandleGetStats(context.Background(), makeRequest(nil))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "Transactions: 2 (success 1, failed 1, pending 0)")
	assert.Contains(t, text, "Success Rate: 50.00%")
	assert.Contains(t, text, "Volume: 50.00 CRO")
	assert.Contains(t, text, "Batched: 1 | Multi-step: 1")
}

func TestHandleGetLeaderboard(t *testing.T) {
	h := newTestSetup(t, jsonHandler(http.StatusOK, map[string]any{"success": true, "data": mcpTxs}))

	result, err := h.HandleGetLeaderboard(context.Background(), makeRequest(map[string]any{"limit": float64(5)}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "1. Atlas (agent-1): 1 transactions, 42.00 CRO")
}

func TestHandleGetLeaderboard_ServerDown(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close()
	h := NewHandlers(sdk.New(ts.URL, sdk.WithTimeout(time.Second)))

	result, err := h.HandleGetLeaderboard(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Failed to get leaderboard")
}
