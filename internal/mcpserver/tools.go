package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions for the crogentx MCP server.
// Descriptions are what the LLM reads to decide which tool to use.

var ToolListTransactions = mcp.NewTool("list_transactions",
	mcp.WithDescription(
		"List recent x402 transactions issued by AI agents, newest first. "+
			"Filter by status, agent, instruction type, or value range."),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of transactions to return (default 10, max 1000)")),
	mcp.WithString("status",
		mcp.Description("Only transactions with this settlement status"),
		mcp.Enum("success", "failed", "pending")),
	mcp.WithString("agent_id",
		mcp.Description("Only transactions issued by this agent ID")),
	mcp.WithString("instruction_type",
		mcp.Description("Only this instruction type (e.g. 'payment', 'swap', 'batch_payment')")),
	mcp.WithNumber("min_value",
		mcp.Description("Minimum transaction value in CRO")),
	mcp.WithNumber("max_value",
		mcp.Description("Maximum transaction value in CRO")),
)

var ToolGetTransaction = mcp.NewTool("get_transaction",
	mcp.WithDescription(
		"Get one transaction by hash, including its settlement pipeline and "+
			"related transactions (same batch, parent or children)."),
	mcp.WithString("tx_hash",
		mcp.Required(),
		mcp.Description("Transaction hash (e.g. '0xabc...')")),
)

var ToolListAgents = mcp.NewTool("list_agents",
	mcp.WithDescription(
		"Browse AI agents that issue x402 transactions, with their type, volume and success rate."),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of agents to return (default 20)")),
	mcp.WithString("type",
		mcp.Description("Filter by agent type (e.g. 'trading_bot', 'payment_processor')")),
	mcp.WithBoolean("active_only",
		mcp.Description("Only return agents that are currently active")),
)

var ToolGetAgent = mcp.NewTool("get_agent",
	mcp.WithDescription("Get one agent's profile by ID or wallet address."),
	mcp.WithString("agent",
		mcp.Required(),
		mcp.Description("Agent ID (e.g. 'agent-3') or address")),
)

var ToolSimulateTransaction = mcp.NewTool("simulate_transaction",
	mcp.WithDescription(
		"Estimate gas, cost and risk for an x402 instruction before executing it. "+
			"Nothing is sent on chain. Returns issues, warnings and recommendations."),
	mcp.WithString("instruction",
		mcp.Required(),
		mcp.Description("Instruction type to simulate (e.g. 'payment', 'swap')")),
	mcp.WithString("agent_id",
		mcp.Required(),
		mcp.Description("Agent that would issue the instruction")),
	mcp.WithString("value",
		mcp.Required(),
		mcp.Description("Amount in CRO (e.g. '125.5')")),
	mcp.WithString("target",
		mcp.Description("Optional target address")),
)

var ToolDebugTransaction = mcp.NewTool("debug_transaction",
	mcp.WithDescription(
		"Explain what happened to a recorded transaction: issues by severity, "+
			"an execution trace, gas efficiency and recommendations."),
	mcp.WithString("tx_hash",
		mcp.Required(),
		mcp.Description("Transaction hash to debug")),
)

var ToolGetGraph = mcp.NewTool("get_graph",
	mcp.WithDescription(
		"Summarise the transaction graph linking agents, transactions, wallets and contracts: "+
			"node and edge counts, edge types, degree and depth."),
	mcp.WithNumber("limit",
		mcp.Description("Number of most recent transactions to graph (default 200)")),
	mcp.WithString("agent_id",
		mcp.Description("Only transactions issued by this agent")),
	mcp.WithString("instruction_type",
		mcp.Description("Only this instruction type")),
)

var ToolGetStats = mcp.NewTool("get_stats",
	mcp.WithDescription(
		"Get aggregate statistics: transaction counts by status, success rate, "+
			"volume, gas and the most used instruction types."),
)

var ToolGetLeaderboard = mcp.NewTool("get_leaderboard",
	mcp.WithDescription("Rank agents by transaction count, then volume."),
	mcp.WithNumber("limit",
		mcp.Description("Number of agents to return (default 10)")),
)
