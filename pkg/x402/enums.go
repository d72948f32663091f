package x402

// InstructionType is the kind of x402 operation a transaction carries
type InstructionType string

const (
	InstructionPayment            InstructionType = "payment"
	InstructionSettlement         InstructionType = "settlement"
	InstructionSwap               InstructionType = "swap"
	InstructionStake              InstructionType = "stake"
	InstructionLiquidityAdd       InstructionType = "liquidity_add"
	InstructionLiquidityRemove    InstructionType = "liquidity_remove"
	InstructionBatchPayment       InstructionType = "batch_payment"
	InstructionConditionalPayment InstructionType = "conditional_payment"
	InstructionRecurringPayment   InstructionType = "recurring_payment"
	InstructionCrossChainBridge   InstructionType = "cross_chain_bridge"
	InstructionNFTMint            InstructionType = "nft_mint"
	InstructionNFTTransfer        InstructionType = "nft_transfer"
	InstructionContractCall       InstructionType = "contract_call"
	InstructionMultiSig           InstructionType = "multi_sig"
	InstructionGovernanceVote     InstructionType = "governance_vote"
)

// InstructionTypes lists every instruction type in declaration order
var InstructionTypes = []InstructionType{
	InstructionPayment,
	InstructionSettlement,
	InstructionSwap,
	InstructionStake,
	InstructionLiquidityAdd,
	InstructionLiquidityRemove,
	InstructionBatchPayment,
	InstructionConditionalPayment,
	InstructionRecurringPayment,
	InstructionCrossChainBridge,
	InstructionNFTMint,
	InstructionNFTTransfer,
	InstructionContractCall,
	InstructionMultiSig,
	InstructionGovernanceVote,
}

// Valid reports whether i is a known instruction type
func (i InstructionType) Valid() bool {
	for _, known := range InstructionTypes {
		if i == known {
			return true
		}
	}
	return false
}

// AgentType classifies what an agent does
type AgentType string

const (
	AgentTradingBot          AgentType = "trading_bot"
	AgentPaymentProcessor    AgentType = "payment_processor"
	AgentLiquidityManager    AgentType = "liquidity_manager"
	AgentPortfolioRebalancer AgentType = "portfolio_rebalancer"
	AgentYieldOptimizer      AgentType = "yield_optimizer"
	AgentNFTSniper           AgentType = "nft_sniper"
	AgentGovernanceDelegate  AgentType = "governance_delegate"
	AgentBridgeOperator      AgentType = "bridge_operator"
	AgentCustom              AgentType = "custom"
)

// AgentTypes lists every agent type in declaration order
var AgentTypes = []AgentType{
	AgentTradingBot,
	AgentPaymentProcessor,
	AgentLiquidityManager,
	AgentPortfolioRebalancer,
	AgentYieldOptimizer,
	AgentNFTSniper,
	AgentGovernanceDelegate,
	AgentBridgeOperator,
	AgentCustom,
}

// Valid reports whether a is a known agent type
func (a AgentType) Valid() bool {
	for _, known := range AgentTypes {
		if a == known {
			return true
		}
	}
	return false
}

// Category groups transactions by application domain
type Category string

const (
	CategoryDeFi       Category = "defi"
	CategoryNFT        Category = "nft"
	CategoryPayment    Category = "payment"
	CategoryBridge     Category = "bridge"
	CategoryGovernance Category = "governance"
	CategoryGaming     Category = "gaming"
	CategorySocial     Category = "social"
)

// Categories lists every category
var Categories = []Category{
	CategoryDeFi,
	CategoryNFT,
	CategoryPayment,
	CategoryBridge,
	CategoryGovernance,
	CategoryGaming,
	CategorySocial,
}

// CategoryFor maps an instruction type to the category it belongs to
func CategoryFor(i InstructionType) Category {
	switch i {
	case InstructionPayment, InstructionBatchPayment, InstructionConditionalPayment,
		InstructionRecurringPayment, InstructionSettlement:
		return CategoryPayment
	case InstructionSwap, InstructionStake, InstructionLiquidityAdd, InstructionLiquidityRemove:
		return CategoryDeFi
	case InstructionCrossChainBridge:
		return CategoryBridge
	case InstructionNFTMint, InstructionNFTTransfer:
		return CategoryNFT
	case InstructionGovernanceVote, InstructionMultiSig:
		return CategoryGovernance
	default:
		return CategoryDeFi
	}
}
