package mcpserver

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/crogentx/crogentx/pkg/sdk"
	"github.com/crogentx/crogentx/pkg/x402"
)

// Handlers holds the handler functions for each MCP tool.
type Handlers struct {
	client *sdk.Client
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(client *sdk.Client) *Handlers {
	return &Handlers{client: client}
}

// optionalFloat returns a pointer to the argument when the caller supplied it
func optionalFloat(req mcp.CallToolRequest, key string) *float64 {
	if _, ok := req.GetArguments()[key]; !ok {
		return nil
	}
	v := req.GetFloat(key, 0)
	return &v
}

// HandleListTransactions lists transactions.
func (h *Handlers) HandleListTransactions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := sdk.TransactionListOptions{
		Limit:           req.GetInt("limit", 10),
		Status:          x402.Status(req.GetString("status", "")),
		AgentID:         req.GetString("agent_id", ""),
		InstructionType: x402.InstructionType(req.GetString("instruction_type", "")),
		MinValue:        optionalFloat(req, "min_value"),
		MaxValue:        optionalFloat(req, "max_value"),
	}

	page, err := h.client.Transactions.List(ctx, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list transactions: %v", err)), nil
	}

	return mcp.NewToolResultText(formatTransactionList(page)), nil
}

// HandleGetTransaction returns one transaction and its relatives.
func (h *Handlers) HandleGetTransaction(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hash := req.GetString("tx_hash", "")
	if hash == "" {
		return mcp.NewToolResultError("tx_hash is required"), nil
	}

	detail, err := h.client.Transactions.Get(ctx, hash)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get transaction: %v", err)), nil
	}

	var sb strings.Builder
	writeTransaction(&sb, &detail.Data)
	if len(detail.Related) > 0 {
		fmt.Fprintf(&sb, "\nRelated (%d):\n", len(detail.Related))
		for _, r := range detail.Related {
			fmt.Fprintf(&sb, "  - %s %s %s CRO (%s)\n", r.TxHash, r.InstructionType, r.Value, r.Status)
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// HandleListAgents lists agents.
func (h *Handlers) HandleListAgents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := sdk.AgentListOptions{
		Limit:      req.GetInt("limit", 20),
		Type:       x402.AgentType(req.GetString("type", "")),
		ActiveOnly: req.GetBool("active_only", false),
	}

	page, err := h.client.Agents.List(ctx, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list agents: %v", err)), nil
	}

	if len(page.Data) == 0 {
		return mcp.NewToolResultText("No agents found."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d agent(s):\n\n", len(page.Data))
	for i, a := range page.Data {
		fmt.Fprintf(&sb, "%d. %s (%s)\n", i+1, a.Name, a.ID)
		fmt.Fprintf(&sb, "   Type: %s | Address: %s\n", a.Type, a.Address)
		fmt.Fprintf(&sb, "   Transactions: %d | Success: %.1f%% | Volume: %s CRO\n", a.TotalTransactions, a.SuccessRate, a.TotalVolume)
		if i < len(page.Data)-1 {
			sb.WriteString("\n")
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// HandleGetAgent returns one agent profile.
func (h *Handlers) HandleGetAgent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("agent", "")
	if id == "" {
		return mcp.NewToolResultError("agent is required"), nil
	}

	a, err := h.client.Agents.Get(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get agent: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Agent %s (%s)\n", a.Name, a.ID)
	fmt.Fprintf(&sb, "  Address: %s\n", a.Address)
	fmt.Fprintf(&sb, "  Type: %s\n", a.Type)
	fmt.Fprintf(&sb, "  Active: %t\n", a.IsActive)
	fmt.Fprintf(&sb, "  Transactions: %d\n", a.TotalTransactions)
	fmt.Fprintf(&sb, "  Success Rate: %.1f%%\n", a.SuccessRate)
	fmt.Fprintf(&sb, "  Volume: %s CRO\n", a.TotalVolume)
	if len(a.PrimaryInstructions) > 0 {
		names := make([]string, len(a.PrimaryInstructions))
		for i, in := range a.PrimaryInstructions {
			names[i] = string(in)
		}
		fmt.Fprintf(&sb, "  Primary Instructions: %s\n", strings.Join(names, ", "))
	}
	if len(a.Integrations) > 0 {
		fmt.Fprintf(&sb, "  Integrations: %s\n", strings.Join(a.Integrations, ", "))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// HandleSimulateTransaction simulates an instruction.
func (h *Handlers) HandleSimulateTransaction(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	simReq := sdk.SimulateRequest{
		Instruction: req.GetString("instruction", ""),
		AgentID:     req.GetString("agent_id", ""),
		Value:       req.GetString("value", ""),
		Target:      req.GetString("target", ""),
	}
	if simReq.Instruction == "" {
		return mcp.NewToolResultError("instruction is required"), nil
	}
	if simReq.AgentID == "" {
		return mcp.NewToolResultError("agent_id is required"), nil
	}
	if simReq.Value == "" {
		return mcp.NewToolResultError("value is required"), nil
	}

	sim, err := h.client.Transactions.Simulate(ctx, simReq)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Simulation failed: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Simulation %s: %s of %s CRO by %s\n", sim.ID, sim.Instruction, sim.Value, sim.AgentID)
	fmt.Fprintf(&sb, "Gas: %d @ %d Gwei = %s CRO ($%s)\n", sim.Gas.Estimated, sim.Gas.Price, sim.Gas.CostCRO, sim.Gas.CostUSD)
	fmt.Fprintf(&sb, "Success probability: %s | Execution time: %s\n", sim.Analysis.SuccessProbability, sim.Analysis.ExecutionTime)
	if sim.Analysis.Safe {
		sb.WriteString("Safe to execute: yes\n")
	} else {
		sb.WriteString("Safe to execute: NO\n")
	}
	writeList(&sb, "Issues", sim.Analysis.Issues)
	writeList(&sb, "Warnings", sim.Analysis.Warnings)
	writeList(&sb, "Recommendations", sim.Recommendations)
	return mcp.NewToolResultText(sb.String()), nil
}

// HandleDebugTransaction analyses a recorded transaction.
func (h *Handlers) HandleDebugTransaction(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hash := req.GetString("tx_hash", "")
	if hash == "" {
		return mcp.NewToolResultError("tx_hash is required"), nil
	}

	res, err := h.client.Transactions.Debug(ctx, hash)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Debug failed: %v", err)), nil
	}

	d := res.Debug
	var sb strings.Builder
	fmt.Fprintf(&sb, "Transaction %s: %s\n", hash, d.Status)
	if d.ExplorerURL != "" {
		fmt.Fprintf(&sb, "Explorer: %s\n", d.ExplorerURL)
	}
	if len(d.Issues) > 0 {
		sb.WriteString("\nIssues:\n")
		for _, is := range d.Issues {
			fmt.Fprintf(&sb, "  [%s] %s\n", strings.ToUpper(string(is.Severity)), is.Message)
		}
	}
	if len(d.Trace) > 0 {
		sb.WriteString("\nTrace:\n")
		for _, step := range d.Trace {
			fmt.Fprintf(&sb, "  %s (%s): %s\n", step.Step, step.Status, step.Details)
		}
	}
	fmt.Fprintf(&sb, "\nGas: %.0f used, efficiency %s\n", d.Gas.Used, d.Gas.Efficiency)
	writeList(&sb, "Gas suggestions", d.Gas.Suggestions)
	writeList(&sb, "Recommendations", d.Recommendations)
	return mcp.NewToolResultText(sb.String()), nil
}

// HandleGetGraph summarises the transaction graph.
func (h *Handlers) HandleGetGraph(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := sdk.GraphOptions{
		Limit:           req.GetInt("limit", 0),
		AgentID:         req.GetString("agent_id", ""),
		InstructionType: x402.InstructionType(req.GetString("instruction_type", "")),
	}

	resp, err := h.client.Graph.Get(ctx, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to build graph: %v", err)), nil
	}

	m := resp.Metrics
	var sb strings.Builder
	fmt.Fprintf(&sb, "Graph: %d nodes, %d edges\n", resp.Stats.Nodes, resp.Stats.Edges)
	fmt.Fprintf(&sb, "  Transactions: %d | Agents: %d | Wallets: %d | Contracts: %d\n",
		m.TotalTransactions, m.TotalAgents, m.TotalWallets, m.TotalContracts)
	fmt.Fprintf(&sb, "  Avg degree: %.2f | Max depth: %d | Isolated: %d\n", m.AvgDegree, m.MaxDepth, m.IsolatedNodes)
	if len(m.EdgesByType) > 0 {
		sb.WriteString("Edges by type:\n")
		for _, et := range slices.Sorted(maps.Keys(m.EdgesByType)) {
			fmt.Fprintf(&sb, "  %s: %d\n", et, m.EdgesByType[et])
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// HandleGetStats returns aggregate statistics.
func (h *Handlers) HandleGetStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, err := h.client.Analytics.Stats(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get stats: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString("crogentx statistics:\n")
	fmt.Fprintf(&sb, "  Transactions: %d (success %d, failed %d, pending %d)\n",
		s.TotalTransactions, s.SuccessfulTransactions, s.FailedTransactions, s.PendingTransactions)
	fmt.Fprintf(&sb, "  Success Rate: %.2f%%\n", s.SuccessRate)
	fmt.Fprintf(&sb, "  Volume: %s CRO (avg %s)\n", s.TotalVolume, s.AvgTransactionValue)
	fmt.Fprintf(&sb, "  Gas: %s total (avg %s)\n", s.TotalGasUsed, s.AvgGasUsed)
	fmt.Fprintf(&sb, "  Agents: %d total, %d active\n", s.TotalAgents, s.ActiveAgents)
	fmt.Fprintf(&sb, "  Batched: %d | Multi-step: %d\n", s.BatchedTransactions, s.MultiStepTransactions)
	if len(s.MostUsedInstructions) > 0 {
		sb.WriteString("Most used instructions:\n")
		for _, ic := range s.MostUsedInstructions {
			fmt.Fprintf(&sb, "  %s: %d\n", ic.Type, ic.Count)
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// HandleGetLeaderboard ranks agents.
func (h *Handlers) HandleGetLeaderboard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	board, err := h.client.Analytics.Leaderboard(ctx, req.GetInt("limit", 10))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get leaderboard: %v", err)), nil
	}
	if len(board) == 0 {
		return mcp.NewToolResultText("No agent activity yet."), nil
	}

	var sb strings.Builder
	sb.WriteString("Top agents:\n")
	for i, e := range board {
		fmt.Fprintf(&sb, "%d. %s (%s): %d transactions, %.2f CRO\n", i+1, e.Name, e.AgentID, e.Count, e.Volume)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// --- Formatting helpers ---

func formatTransactionList(page *sdk.TransactionPage) string {
	if len(page.Data) == 0 {
		return "No transactions found matching your criteria."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d transaction(s) of %d:\n\n", len(page.Data), page.Pagination.Total)
	for i, tx := range page.Data {
		agent := tx.AgentName
		if agent == "" {
			agent = "Unknown"
		}
		fmt.Fprintf(&sb, "%d. %s\n", i+1, tx.TxHash)
		fmt.Fprintf(&sb, "   %s | %s | %s CRO | agent %s\n", tx.InstructionType, tx.Status, tx.Value, agent)
		if i < len(page.Data)-1 {
			sb.WriteString("\n")
		}
	}
	if page.Pagination.HasMore {
		sb.WriteString("\nMore results available; raise limit to see them.")
	}
	return sb.String()
}

func writeTransaction(sb *strings.Builder, tx *x402.Transaction) {
	fmt.Fprintf(sb, "Transaction %s\n", tx.TxHash)
	fmt.Fprintf(sb, "  Status: %s\n", tx.Status)
	fmt.Fprintf(sb, "  Instruction: %s\n", tx.InstructionType)
	fmt.Fprintf(sb, "  Value: %s CRO\n", tx.Value)
	fmt.Fprintf(sb, "  From: %s\n", tx.From)
	fmt.Fprintf(sb, "  To: %s\n", tx.To)
	fmt.Fprintf(sb, "  Block: %d\n", tx.BlockNumber)
	fmt.Fprintf(sb, "  Gas Used: %s\n", tx.GasUsed)
	if tx.AgentID != "" {
		fmt.Fprintf(sb, "  Agent: %s (%s)\n", tx.AgentName, tx.AgentID)
	}
	if tx.BatchID != "" {
		fmt.Fprintf(sb, "  Batch: %s\n", tx.BatchID)
	}
	if tx.ErrorReason != "" {
		fmt.Fprintf(sb, "  Error: %s\n", tx.ErrorReason)
	}
	if len(tx.SettlementPipeline) > 0 {
		sb.WriteString("  Pipeline:\n")
		for _, step := range tx.SettlementPipeline {
			fmt.Fprintf(sb, "    %d. %s via %s (%s)\n", step.Step, step.Action, step.Contract, step.Status)
		}
	}
}

func writeList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "%s:\n", title)
	for _, it := range items {
		fmt.Fprintf(sb, "  - %s\n", it)
	}
}
