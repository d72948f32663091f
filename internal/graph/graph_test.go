package graph

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crogentx/crogentx/pkg/x402"
)

func addr(n int) string { return fmt.Sprintf("0x%040x", n) }
func hash(n int) string { return fmt.Sprintf("0x%064x", n) }

var (
	agentA = addr(0xa1)
	agentB = addr(0xa2)
	agentC = addr(0xa3) // never transacts
	wallet = addr(0xb1)
	pool1  = addr(0xc1)
	pool2  = addr(0xc2)
	pool3  = addr(0xc3)
)

func fixtureAgents() []x402.Agent {
	return []x402.Agent{
		{ID: "agent-1", Name: "Alpha Trader", Address: agentA, Type: x402.AgentTradingBot, TotalTransactions: 40, AvgGasUsed: 120000, TotalVolume: "5000.5", IsActive: true, CreatedAt: 1_000},
		{ID: "agent-2", Name: "PayFlow", Address: agentB, Type: x402.AgentPaymentProcessor, TotalTransactions: 10, AvgGasUsed: 80000, TotalVolume: "not-a-number", CreatedAt: 1_000},
		{ID: "agent-3", Name: "Idle Delegate", Address: agentC, Type: x402.AgentGovernanceDelegate, CreatedAt: 1_000},
	}
}

// Three transactions share batch-1, t4 is a plain wallet payment and t5 is a
// pipeline child of t4.
func fixtureTransactions() []x402.Transaction {
	return []x402.Transaction{
		{ID: "tx-1", TxHash: hash(1), BlockTimestamp: 2_000, From: agentA, To: pool1, Value: "10.5", Status: x402.StatusSuccess, InstructionType: x402.InstructionSwap, AgentID: "agent-1", BatchID: "batch-1", RelatedTransactions: []string{"tx-2", "tx-3"}},
		{ID: "tx-2", TxHash: hash(2), BlockTimestamp: 2_100, From: agentA, To: pool2, Value: "20", Status: x402.StatusFailed, InstructionType: x402.InstructionPayment, AgentID: "agent-1", BatchID: "batch-1", RelatedTransactions: []string{"tx-1", "tx-3"}},
		{ID: "tx-3", TxHash: hash(3), BlockTimestamp: 2_200, From: agentB, To: pool1, Value: "30", Status: x402.StatusSuccess, InstructionType: x402.InstructionPayment, AgentID: "agent-2", BatchID: "batch-1", RelatedTransactions: []string{"tx-1", "tx-2"}},
		{ID: "tx-4", TxHash: hash(4), BlockTimestamp: 3_000, From: wallet, To: pool3, Value: "5", Status: x402.StatusPending, InstructionType: x402.InstructionStake, ChildTxHashes: []string{hash(5)}, RelatedTransactions: []string{"tx-5"}},
		{ID: "tx-5", TxHash: hash(5), BlockTimestamp: 3_100, From: agentB, To: pool2, Value: "garbage", Status: x402.StatusSuccess, InstructionType: x402.InstructionSettlement, AgentID: "agent-2", ParentTxHash: hash(4), RelatedTransactions: []string{"tx-4"},
			SettlementPipeline: []x402.SettlementStep{{Step: 1, Action: "Approve"}, {Step: 2, Action: "Settle"}},
			Metadata:           &x402.Metadata{Protocol: "MonadLend", Category: x402.CategoryDeFi}},
	}
}

func fixtureGraph(t *testing.T) *Graph {
	t.Helper()
	return Build(fixtureTransactions(), fixtureAgents())
}

func nodeIDs(g *Graph) []string {
	ids := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		ids = append(ids, n.ID)
	}
	return ids
}

func transactionIDs(g *Graph) []string {
	var ids []string
	for _, n := range g.Nodes {
		if n.IsTransaction() {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

func assertNoDanglingEdges(t *testing.T, g *Graph) {
	t.Helper()
	ids := g.nodeIDs()
	for _, e := range g.Edges {
		_, src := ids[e.Source]
		_, dst := ids[e.Target]
		assert.True(t, src && dst, "dangling edge %s -> %s (%s)", e.Source, e.Target, e.Type)
	}
}

func TestBuild_NodeAndEdgeCounts(t *testing.T) {
	g := fixtureGraph(t)

	counts := g.CountByType()
	assert.Equal(t, 3, counts[NodeAgent])
	assert.Equal(t, 5, counts[NodeTransaction])
	assert.Equal(t, 1, counts[NodeWallet])
	assert.Equal(t, 3, counts[NodeContract])
	assert.Len(t, g.Nodes, 12)

	byType := map[EdgeType]int{}
	for _, e := range g.Edges {
		byType[e.Type]++
	}
	assert.Equal(t, 10, byType[EdgeFlow])
	assert.Equal(t, 6, byType[EdgeBatch])
	assert.Equal(t, 1, byType[EdgePipeline])
	assertNoDanglingEdges(t, g)
}

func TestBuild_AgentOutgoingMatchesAttributedTransactions(t *testing.T) {
	g := fixtureGraph(t)

	a, ok := g.NodeByID(agentA)
	require.True(t, ok)
	assert.Equal(t, NodeAgent, a.Type)
	assert.Equal(t, 2, a.OutgoingCount)
	assert.Equal(t, 0, a.IncomingCount)
	assert.Equal(t, 2, a.ConnectionCount)
	assert.Equal(t, 5031.0, a.TotalVolume, "record volume plus 10.5 and 20 sent")
	assert.Equal(t, 3000.0, a.GasEfficiency)

	b, ok := g.NodeByID(agentB)
	require.True(t, ok)
	assert.Equal(t, 2, b.OutgoingCount)
	assert.Equal(t, 30.0, b.TotalVolume, "malformed volume parses as zero, then 30 sent")

	idle, ok := g.NodeByID(agentC)
	require.True(t, ok)
	assert.Zero(t, idle.OutgoingCount)
	assert.Zero(t, idle.GasEfficiency)
}

func TestBuild_SynthesizedAddressNodes(t *testing.T) {
	g := fixtureGraph(t)

	w, ok := g.NodeByID(wallet)
	require.True(t, ok)
	assert.Equal(t, NodeWallet, w.Type)
	assert.Equal(t, "Wallet "+ShortAddress(wallet), w.Name)
	assert.Equal(t, int64(3_000), w.Timestamp)
	assert.Equal(t, 1, w.OutgoingCount)
	assert.Equal(t, 5.0, w.TotalVolume)

	c, ok := g.NodeByID(pool1)
	require.True(t, ok)
	assert.Equal(t, NodeContract, c.Type)
	assert.Equal(t, 2, c.IncomingCount)
	assert.Equal(t, 40.5, c.TotalVolume)
	assert.Equal(t, 2, c.ConnectionCount)
}

func TestBuild_TransactionNode(t *testing.T) {
	g := fixtureGraph(t)

	n, ok := g.NodeByID(hash(5))
	require.True(t, ok)
	require.NotNil(t, n.TransactionAttrs)
	assert.Equal(t, "settlement - garbage MON", n.Name)
	assert.Equal(t, 1, n.IncomingCount)
	assert.Equal(t, 1, n.OutgoingCount)
	assert.Equal(t, 0.0, n.TotalVolume)
	assert.Equal(t, "MonadLend", n.Protocol)
	assert.Equal(t, x402.CategoryDeFi, n.Category)
	assert.Equal(t, 2, n.PipelineSteps)
	assert.Nil(t, n.AgentAttrs)
}

func TestBuild_AddressMappingIsCaseInsensitiveAndIdempotent(t *testing.T) {
	txs := []x402.Transaction{
		{ID: "a", TxHash: hash(10), From: "0xABCDEF0000000000000000000000000000000001", To: pool1, Value: "1"},
		{ID: "b", TxHash: hash(11), From: "0xabcdef0000000000000000000000000000000001", To: pool1, Value: "2"},
	}
	g := Build(txs, nil)

	counts := g.CountByType()
	assert.Equal(t, 1, counts[NodeWallet])
	assert.Equal(t, 1, counts[NodeContract])

	w, ok := g.NodeByID("0xabcdef0000000000000000000000000000000001")
	require.True(t, ok)
	assert.Equal(t, 2, w.OutgoingCount)
	assert.Equal(t, 3.0, w.TotalVolume)
}

func TestBuild_SkipsDanglingRelations(t *testing.T) {
	txs := []x402.Transaction{
		{ID: "child", TxHash: hash(20), From: wallet, To: pool1, Value: "1", ParentTxHash: hash(99), BatchID: "batch-9", RelatedTransactions: []string{"missing"}},
		{ID: "dup", TxHash: hash(20), From: wallet, To: pool2, Value: "1"},
	}
	g := Build(txs, nil)

	assert.Len(t, transactionIDs(g), 1, "duplicate hash yields one node")
	for _, e := range g.Edges {
		assert.Equal(t, EdgeFlow, e.Type)
	}
	assertNoDanglingEdges(t, g)
}

func TestBuild_BatchEdgesRequireSharedBatch(t *testing.T) {
	txs := []x402.Transaction{
		{ID: "p", TxHash: hash(30), From: wallet, To: pool1, RelatedTransactions: []string{"c"}},
		{ID: "c", TxHash: hash(31), From: wallet, To: pool1, ParentTxHash: hash(30), RelatedTransactions: []string{"p"}},
	}
	g := Build(txs, nil)

	for _, e := range g.Edges {
		assert.NotEqual(t, EdgeBatch, e.Type, "unbatched relations must not create batch edges")
	}
}

func TestBuild_Deterministic(t *testing.T) {
	first := Build(fixtureTransactions(), fixtureAgents())
	second := Build(fixtureTransactions(), fixtureAgents())

	assert.Equal(t, first, second)
}

func TestBuild_Empty(t *testing.T) {
	g := Build(nil, nil)
	assert.Empty(t, g.Nodes)
	assert.Empty(t, g.Edges)

	m := ComputeMetrics(g)
	assert.Zero(t, m.TotalNodes)
	assert.Zero(t, m.AvgDegree)
}

func TestShortAddress(t *testing.T) {
	assert.Equal(t, "0x1234...abcd", ShortAddress("0x1234567890000000000000000000000000abcd"))
	assert.Equal(t, "0x12", ShortAddress("0x12"))
}

func TestBuild_MalformedRecordsKept(t *testing.T) {
	txs := []x402.Transaction{
		{ID: "a", From: addr(0x11), To: addr(0x22), Value: "5"},
		{From: addr(0x11), To: addr(0x33), Value: "oops"},
		{ID: "tx-1", From: addr(0x44), Value: "1"},
	}
	agents := []x402.Agent{{ID: "agent-x", Name: "No Address", TotalVolume: "7"}, {}}

	g := Build(txs, agents)

	counts := g.CountByType()
	assert.Equal(t, 3, counts[NodeTransaction], "transactions without a hash still get a node")
	assert.Equal(t, 2, counts[NodeAgent], "agents without an address still get a node")
	assert.Equal(t, 2, counts[NodeWallet])
	assert.Equal(t, 2, counts[NodeContract])

	a, ok := g.NodeByID("a")
	require.True(t, ok, "falls back to the transaction id")
	assert.Equal(t, 5.0, a.TotalVolume)

	unnamed, ok := g.NodeByID("tx-1")
	require.True(t, ok, "falls back to the input position")
	assert.Equal(t, 0.0, unnamed.TotalVolume)

	clash, ok := g.NodeByID("tx-1#2")
	require.True(t, ok, "a fallback key already in use is disambiguated")
	assert.Equal(t, 1, clash.IncomingCount)
	assert.Equal(t, 1.0, clash.TotalVolume)

	agent, ok := g.NodeByID("agent-x")
	require.True(t, ok)
	assert.Equal(t, "No Address", agent.Name)
	_, ok = g.NodeByID("agent-1")
	assert.True(t, ok)

	w, ok := g.NodeByID(addr(0x11))
	require.True(t, ok)
	assert.Equal(t, 2, w.OutgoingCount)
	assert.Len(t, g.Edges, 5)
	assertNoDanglingEdges(t, g)
}
