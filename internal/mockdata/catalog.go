package mockdata

import "github.com/crogentx/crogentx/pkg/x402"

var agentNames = map[x402.AgentType][]string{
	x402.AgentTradingBot: {
		"AlphaTrader Pro", "DeFi Arbitrage Bot", "Market Maker Elite", "Momentum Trader",
		"Grid Trading Bot", "Scalper AI", "Swing Trade Master", "Trend Follower",
	},
	x402.AgentPaymentProcessor: {
		"PayFlow Agent", "SettleMint Pro", "InstaPay Bot", "BatchPay Processor",
		"StreamPay Agent", "PayGate AI", "Swift Settle", "CashFlow Manager",
	},
	x402.AgentLiquidityManager: {
		"LiquidityOpt Bot", "AMM Manager Pro", "Pool Rebalancer", "LP Optimizer",
		"Yield Harvester", "Range Manager", "Capital Allocator", "Liquidity Sniper",
	},
	x402.AgentPortfolioRebalancer: {
		"PortfolioSync", "Asset Balancer Pro", "Risk Manager Bot", "Diversifier AI",
		"Index Rebalancer", "Tactical Allocator", "Portfolio Guardian", "Balance Keeper",
	},
	x402.AgentYieldOptimizer: {
		"Yield Maximizer", "APY Hunter", "Compound Master", "Farm Rotator",
		"Staking Optimizer", "Rewards Harvester", "Yield Aggregator", "Farm Manager",
	},
	x402.AgentNFTSniper: {
		"NFT Sniper Pro", "Mint Master", "Floor Sweeper", "Rare Hunter",
		"Collection Tracker", "Flip Master", "Mint Bot Elite", "NFT Trader AI",
	},
	x402.AgentGovernanceDelegate: {
		"DAO Voter", "Governance Bot", "Proposal Analyzer", "Vote Delegate",
		"Protocol Guardian", "Community Rep", "Stake Voter", "DAO Manager",
	},
	x402.AgentBridgeOperator: {
		"Bridge Master", "Cross-Chain Relay", "Bridge Arbitrage", "Chain Connector",
		"Multi-Chain Bot", "Bridge Optimizer", "Asset Bridger", "Chain Hopper",
	},
}

// generatedAgentTypes excludes custom, which is reserved for user-registered agents
var generatedAgentTypes = []x402.AgentType{
	x402.AgentTradingBot,
	x402.AgentPaymentProcessor,
	x402.AgentLiquidityManager,
	x402.AgentPortfolioRebalancer,
	x402.AgentYieldOptimizer,
	x402.AgentNFTSniper,
	x402.AgentGovernanceDelegate,
	x402.AgentBridgeOperator,
}

// Protocols are the DeFi venues transactions are attributed to
var Protocols = []string{
	"MonadSwap", "MonadLend", "MonadBridge", "MonadStake", "MonadVault",
	"VelocityDEX", "MonadFarm", "LiquidMon", "MonadPool", "FastSwap",
}

var aiModels = []string{"GPT-4", "Claude-3.5", "Llama-3", "Custom Model"}

var userIntents = []string{
	"Optimize yield", "Rebalance portfolio", "Execute trade",
	"Process payment", "Manage liquidity", "Harvest rewards",
}

var errorReasons = []string{
	"Gas limit exceeded", "Slippage too high", "Insufficient balance", "Contract reverted",
}

var pipelineActions = []string{"Approve", "Swap", "Transfer", "Settle", "Claim"}

type weightedInstruction struct {
	instruction x402.InstructionType
	weight      int
}

var instructionWeights = []weightedInstruction{
	{x402.InstructionPayment, 25},
	{x402.InstructionSwap, 20},
	{x402.InstructionSettlement, 15},
	{x402.InstructionLiquidityAdd, 10},
	{x402.InstructionLiquidityRemove, 8},
	{x402.InstructionStake, 7},
	{x402.InstructionBatchPayment, 5},
	{x402.InstructionNFTMint, 3},
	{x402.InstructionNFTTransfer, 3},
	{x402.InstructionConditionalPayment, 2},
	{x402.InstructionCrossChainBridge, 1},
	{x402.InstructionGovernanceVote, 1},
}

var totalInstructionWeight = func() int {
	total := 0
	for _, w := range instructionWeights {
		total += w.weight
	}
	return total
}()

// descriptionTemplates use {agent} and {protocol} placeholders
var descriptionTemplates = map[x402.InstructionType][]string{
	x402.InstructionPayment: {
		"Automated payment transaction executed by {agent}",
		"Direct transfer initiated by AI agent {agent}",
		"Settlement payment processed via x402 protocol",
	},
	x402.InstructionSettlement: {
		"Multi-party settlement coordinated by {agent}",
		"Batch settlement executed through x402 pipeline",
		"Automated settlement with royalty distribution",
	},
	x402.InstructionSwap: {
		"Token swap executed on {protocol}",
		"Optimized swap route found and executed by {agent}",
		"DeFi swap with minimal slippage via x402",
	},
	x402.InstructionStake: {
		"Staking transaction on {protocol}",
		"Automated staking position opened by {agent}",
		"Yield farming deposit executed via x402",
	},
	x402.InstructionLiquidityAdd: {
		"Liquidity provision to {protocol} pool",
		"LP position created by {agent}",
		"Dual-sided liquidity added via x402 instruction",
	},
	x402.InstructionLiquidityRemove: {
		"Liquidity withdrawal from {protocol}",
		"LP position closed by {agent}",
		"Automated liquidity removal and claim",
	},
	x402.InstructionBatchPayment: {
		"Payroll distribution executed by {agent}",
		"Multi-recipient settlement via x402 batching",
	},
	x402.InstructionConditionalPayment: {
		"Conditional payment executed on trigger by {agent}",
		"Event-based payment released via x402",
	},
	x402.InstructionCrossChainBridge: {
		"Cross-chain bridge operation initiated by {agent}",
		"Asset bridged via x402 bridge operator",
	},
	x402.InstructionNFTMint: {
		"NFT minted on Monad by {agent}",
		"AI-triggered NFT creation via x402",
	},
	x402.InstructionNFTTransfer: {
		"NFT transferred by {agent}",
		"Automated NFT distribution via x402",
	},
	x402.InstructionGovernanceVote: {
		"Governance vote cast by {agent}",
		"DAO proposal vote via x402 delegate",
	},
}
