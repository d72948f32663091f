package mockdata

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crogentx/crogentx/pkg/x402"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testConfig(seed int64) Config {
	cfg := DefaultConfig()
	cfg.Seed = seed
	cfg.Now = func() time.Time { return fixedNow }
	return cfg
}

func generate(t *testing.T, cfg Config) Dataset {
	t.Helper()
	ds, err := New(cfg).Generate(context.Background())
	require.NoError(t, err)
	return ds
}

func TestGenerate_DeterministicForSeed(t *testing.T) {
	a := generate(t, testConfig(7))
	b := generate(t, testConfig(7))
	c := generate(t, testConfig(8))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a.Transactions[0].TxHash, c.Transactions[0].TxHash)
}

func TestGenerate_Shape(t *testing.T) {
	ds := generate(t, testConfig(42))

	assert.GreaterOrEqual(t, len(ds.Agents), 20)
	assert.LessOrEqual(t, len(ds.Agents), 30)
	require.Len(t, ds.Transactions, 800)

	agentsByID := make(map[string]x402.Agent, len(ds.Agents))
	for _, a := range ds.Agents {
		agentsByID[a.ID] = a
		assert.True(t, common.IsHexAddress(a.Address))
		assert.True(t, a.Type.Valid())
		assert.NotEqual(t, x402.AgentCustom, a.Type)
		assert.GreaterOrEqual(t, a.SuccessRate, 85.0)
		assert.LessOrEqual(t, a.SuccessRate, 99.0)
		assert.GreaterOrEqual(t, len(a.PrimaryInstructions), 2)
		assert.LessOrEqual(t, len(a.PrimaryInstructions), 4)
		assert.GreaterOrEqual(t, a.TotalTransactions, 10)
	}

	windowStart := fixedNow.Add(-30 * 24 * time.Hour).Unix()
	for i, tx := range ds.Transactions {
		assert.Len(t, tx.TxHash, 66)
		assert.True(t, common.IsHexAddress(tx.To))
		assert.True(t, tx.InstructionType.Valid())
		assert.Contains(t, []x402.Status{x402.StatusSuccess, x402.StatusFailed}, tx.Status)
		assert.GreaterOrEqual(t, tx.BlockTimestamp, windowStart)
		assert.LessOrEqual(t, tx.BlockTimestamp, fixedNow.Unix())
		assert.GreaterOrEqual(t, tx.ExecutionTime, int64(300))
		assert.Less(t, tx.ExecutionTime, int64(1500))

		v := tx.ValueFloat()
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 10000.0)

		agent, ok := agentsByID[tx.AgentID]
		require.True(t, ok, "transaction %s references unknown agent", tx.ID)
		assert.Equal(t, agent.Address, tx.From)
		assert.Equal(t, agent.Name, tx.AgentName)

		if tx.Status == x402.StatusFailed {
			assert.NotEmpty(t, tx.ErrorReason)
		}
		if len(tx.SettlementPipeline) > 0 {
			assert.GreaterOrEqual(t, len(tx.SettlementPipeline), 2)
			assert.LessOrEqual(t, len(tx.SettlementPipeline), 4)
		}
		require.NotNil(t, tx.Metadata)
		assert.Equal(t, x402.CategoryFor(tx.InstructionType), tx.Metadata.Category)

		if i > 0 {
			assert.LessOrEqual(t, tx.BlockTimestamp, ds.Transactions[i-1].BlockTimestamp, "newest first")
			assert.Less(t, tx.BlockNumber, ds.Transactions[i-1].BlockNumber)
		}
	}
}

func TestGenerate_Distributions(t *testing.T) {
	ds := generate(t, testConfig(1))

	var success, batched, multiStep, parents int
	byInstruction := map[x402.InstructionType]int{}
	for _, tx := range ds.Transactions {
		byInstruction[tx.InstructionType]++
		if tx.Status == x402.StatusSuccess {
			success++
		}
		if tx.IsBatched() {
			batched++
		}
		if tx.IsMultiStep() {
			multiStep++
		}
		if len(tx.ChildTxHashes) > 0 {
			parents++
		}
	}

	n := float64(len(ds.Transactions))
	assert.InDelta(t, 0.92, float64(success)/n, 0.04)
	assert.InDelta(t, 0.20, float64(batched)/n, 0.05)
	assert.InDelta(t, 0.15, float64(multiStep)/n, 0.05)
	assert.Greater(t, parents, 0)
	assert.Greater(t, byInstruction[x402.InstructionPayment], byInstruction[x402.InstructionGovernanceVote])
	assert.Zero(t, byInstruction[x402.InstructionMultiSig], "not part of the weighted mix")
}

func TestGenerate_RelationsAreConsistent(t *testing.T) {
	ds := generate(t, testConfig(3))

	byHash := map[string]x402.Transaction{}
	byID := map[string]x402.Transaction{}
	for _, tx := range ds.Transactions {
		byHash[tx.TxHash] = tx
		byID[tx.ID] = tx
	}

	for _, tx := range ds.Transactions {
		if tx.ParentTxHash != "" {
			parent, ok := byHash[tx.ParentTxHash]
			require.True(t, ok)
			assert.Contains(t, parent.ChildTxHashes, tx.TxHash)
			assert.Greater(t, tx.BlockTimestamp, parent.BlockTimestamp)
			assert.Less(t, tx.BlockTimestamp, parent.BlockTimestamp+3600)
			assert.Contains(t, tx.RelatedTransactions, parent.ID)
		}
		for _, rel := range tx.RelatedTransactions {
			other, ok := byID[rel]
			require.True(t, ok)
			assert.Contains(t, other.RelatedTransactions, tx.ID, "relations are symmetric")
		}
		if tx.BatchID != "" {
			for _, other := range ds.Transactions {
				if other.BatchID == tx.BatchID && other.ID != tx.ID {
					assert.Contains(t, tx.RelatedTransactions, other.ID)
				}
			}
		}
	}
}

func TestGenerate_RespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(testConfig(1)).Generate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerate_ZeroTransactions(t *testing.T) {
	cfg := testConfig(1)
	cfg.Transactions = 0
	cfg.MinAgents, cfg.MaxAgents = 2, 2

	ds := generate(t, cfg)
	assert.Len(t, ds.Agents, 2)
	assert.Empty(t, ds.Transactions)
}
