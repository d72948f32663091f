package x402

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{"integer", "42", 42},
		{"decimal", "1234.5678", 1234.5678},
		{"padded", "  7.5 ", 7.5},
		{"empty", "", 0},
		{"garbage", "abc", 0},
		{"nan", "NaN", 0},
		{"infinity", "Inf", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAmount(tt.in))
		})
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "12.3400", FormatAmount(12.34))
	assert.Equal(t, "0.0000", FormatAmount(0))
}

func TestTransactionHelpers(t *testing.T) {
	tx := Transaction{
		Value:    "10.5",
		GasUsed:  "bogus",
		GasPrice: "25",
		BatchID:  "batch-3",
		SettlementPipeline: []SettlementStep{
			{Step: 1, Action: "Approve"},
			{Step: 2, Action: "Swap"},
		},
		Metadata: &Metadata{Protocol: "MonadSwap", Category: CategoryDeFi},
	}

	assert.Equal(t, 10.5, tx.ValueFloat())
	assert.Equal(t, 0.0, tx.GasUsedFloat())
	assert.Equal(t, 25.0, tx.GasPriceFloat())
	assert.True(t, tx.IsBatched())
	assert.True(t, tx.IsMultiStep())
	assert.Equal(t, CategoryDeFi, tx.Category())
	assert.Equal(t, "MonadSwap", tx.Protocol())

	bare := Transaction{SettlementPipeline: []SettlementStep{{Step: 1}}}
	assert.False(t, bare.IsBatched())
	assert.False(t, bare.IsMultiStep())
	assert.Empty(t, bare.Category())
	assert.Empty(t, bare.Protocol())
}

func TestEnumsValid(t *testing.T) {
	assert.Len(t, InstructionTypes, 15)
	assert.Len(t, AgentTypes, 9)

	assert.True(t, InstructionSwap.Valid())
	assert.False(t, InstructionType("teleport").Valid())
	assert.True(t, AgentNFTSniper.Valid())
	assert.False(t, AgentType("oracle").Valid())
	assert.True(t, StatusPending.Valid())
	assert.False(t, Status("unknown").Valid())
}

func TestCategoryFor(t *testing.T) {
	tests := []struct {
		in   InstructionType
		want Category
	}{
		{InstructionPayment, CategoryPayment},
		{InstructionSwap, CategoryDeFi},
		{InstructionCrossChainBridge, CategoryBridge},
		{InstructionNFTMint, CategoryNFT},
		{InstructionGovernanceVote, CategoryGovernance},
		{InstructionContractCall, CategoryDeFi},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, CategoryFor(tt.in))
		})
	}
}

func TestTransactionJSONFieldNames(t *testing.T) {
	tx := Transaction{ID: "tx-1", TxHash: "0xabc", InstructionType: InstructionSwap, Status: StatusSuccess}
	data, err := json.Marshal(tx)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "0xabc", raw["txHash"])
	assert.Equal(t, "swap", raw["instructionType"])
	assert.NotContains(t, raw, "batchId")
	assert.NotContains(t, raw, "metadata")
}
