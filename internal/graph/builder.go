package graph

import (
	"fmt"
	"strings"

	"github.com/crogentx/crogentx/pkg/x402"
)

// Build maps transactions and agents to a graph.
//
// Agents become one node each, keyed by address. Each transaction becomes a
// node keyed by its hash and is connected sender -> transaction -> recipient
// with flow edges; senders and recipients accumulate its value, agents
// included. Addresses that do not belong to an agent become wallet (first
// seen as sender) or contract (first seen as recipient) nodes.
//
// Records missing their key are kept: agents without an address fall back to
// their id, transactions without a hash to their id or "tx-<index>". Only
// repeated hashes and agent keys are skipped. Pipeline and batch edges are
// only emitted when both ends are part of the same build. Build is pure and
// deterministic for a given input order.
func Build(txs []x402.Transaction, agents []x402.Agent) *Graph {
	b := &builder{
		index: make(map[string]int, len(agents)+2*len(txs)),
		edges: make([]Edge, 0, 2*len(txs)),
	}

	for i := range agents {
		b.addAgent(&agents[i], i)
	}

	type built struct {
		tx  *x402.Transaction
		key string
	}
	byID := make(map[string]built, len(txs))
	included := make([]built, 0, len(txs))
	for i := range txs {
		tx := &txs[i]
		key := transactionKey(tx, i)
		if _, dup := b.index[key]; dup {
			if strings.TrimSpace(tx.TxHash) != "" {
				continue
			}
			key = b.freeKey(key)
		}
		b.addTransaction(tx, key)
		included = append(included, built{tx: tx, key: key})
		if tx.ID != "" {
			byID[tx.ID] = built{tx: tx, key: key}
		}
	}

	for _, in := range included {
		tx := in.tx
		if tx.ParentTxHash != "" && tx.ParentTxHash != in.key {
			if pos, ok := b.index[tx.ParentTxHash]; ok && b.nodes[pos].IsTransaction() {
				b.edges = append(b.edges, Edge{
					Source:    tx.ParentTxHash,
					Target:    in.key,
					Type:      EdgePipeline,
					Timestamp: tx.BlockTimestamp,
				})
			}
		}

		if tx.BatchID == "" {
			continue
		}
		for _, relatedID := range tx.RelatedTransactions {
			related, ok := byID[relatedID]
			if !ok || related.tx == tx || related.tx.BatchID != tx.BatchID {
				continue
			}
			b.edges = append(b.edges, Edge{
				Source:    in.key,
				Target:    related.key,
				Type:      EdgeBatch,
				Timestamp: tx.BlockTimestamp,
			})
		}
	}

	nodes := make([]Node, 0, len(b.nodes))
	// Address nodes first, then transactions, so agents and wallets keep a
	// stable position regardless of how many transactions reference them.
	for _, n := range b.nodes {
		if !n.IsTransaction() {
			nodes = append(nodes, n)
		}
	}
	for _, n := range b.nodes {
		if n.IsTransaction() {
			nodes = append(nodes, n)
		}
	}
	for i := range nodes {
		nodes[i].ConnectionCount = nodes[i].IncomingCount + nodes[i].OutgoingCount
	}

	return &Graph{Nodes: nodes, Edges: b.edges}
}

type builder struct {
	nodes []Node
	index map[string]int // node id -> position in nodes
	edges []Edge
}

func addressKey(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// transactionKey is the node id for tx: its hash, else its id, else its
// position in the input.
func transactionKey(tx *x402.Transaction, i int) string {
	switch {
	case strings.TrimSpace(tx.TxHash) != "":
		return tx.TxHash
	case strings.TrimSpace(tx.ID) != "":
		return tx.ID
	default:
		return fmt.Sprintf("tx-%d", i)
	}
}

// freeKey returns key, or key with the first "#n" suffix not yet in use
func (b *builder) freeKey(key string) string {
	candidate := key
	for n := 2; ; n++ {
		if _, taken := b.index[candidate]; !taken {
			return candidate
		}
		candidate = fmt.Sprintf("%s#%d", key, n)
	}
}

func (b *builder) addAgent(a *x402.Agent, i int) {
	key := addressKey(a.Address)
	if key == "" {
		key = strings.TrimSpace(a.ID)
	}
	if key == "" {
		key = fmt.Sprintf("agent-%d", i)
	}
	if _, exists := b.index[key]; exists {
		return
	}

	efficiency := 0.0
	if a.TotalTransactions > 0 {
		efficiency = a.AvgGasUsed / float64(a.TotalTransactions)
	}

	b.index[key] = len(b.nodes)
	b.nodes = append(b.nodes, Node{
		ID:          key,
		Type:        NodeAgent,
		Name:        a.Name,
		Address:     a.Address,
		Timestamp:   a.CreatedAt,
		AgentID:     a.ID,
		TotalVolume: a.VolumeFloat(),
		AgentAttrs: &AgentAttrs{
			AgentType:     a.Type,
			GasEfficiency: efficiency,
			IsActive:      a.IsActive,
		},
	})
}

// addressNode returns the position of the node for addr, creating a wallet
// or contract node on first sight. Repeated calls for the same address
// return the same node.
func (b *builder) addressNode(addr string, kind NodeType, seenAt int64) int {
	key := addressKey(addr)
	if pos, ok := b.index[key]; ok {
		return pos
	}

	label := "Wallet"
	if kind == NodeContract {
		label = "Contract"
	}

	pos := len(b.nodes)
	b.index[key] = pos
	b.nodes = append(b.nodes, Node{
		ID:        key,
		Type:      kind,
		Name:      label + " " + ShortAddress(addr),
		Address:   addr,
		Timestamp: seenAt,
	})
	return pos
}

func (b *builder) addTransaction(tx *x402.Transaction, key string) {
	value := tx.ValueFloat()
	displayValue := tx.Value
	if displayValue == "" {
		displayValue = "0"
	}

	pos := len(b.nodes)
	b.index[key] = pos
	b.nodes = append(b.nodes, Node{
		ID:            key,
		Type:          NodeTransaction,
		Name:          fmt.Sprintf("%s - %s MON", tx.InstructionType, displayValue),
		Timestamp:     tx.BlockTimestamp,
		AgentID:       tx.AgentID,
		IncomingCount: 1,
		OutgoingCount: 1,
		TotalVolume:   value,
		TransactionAttrs: &TransactionAttrs{
			TxHash:          tx.TxHash,
			InstructionType: tx.InstructionType,
			Value:           tx.Value,
			Status:          tx.Status,
			Category:        tx.Category(),
			Protocol:        tx.Protocol(),
			BatchID:         tx.BatchID,
			PipelineSteps:   len(tx.SettlementPipeline),
		},
	})

	if tx.From != "" {
		from := b.addressNode(tx.From, NodeWallet, tx.BlockTimestamp)
		b.nodes[from].OutgoingCount++
		b.nodes[from].TotalVolume += value
		b.edges = append(b.edges, Edge{
			Source:    b.nodes[from].ID,
			Target:    key,
			Type:      EdgeFlow,
			TxHash:    tx.TxHash,
			Value:     tx.Value,
			Timestamp: tx.BlockTimestamp,
		})
	}

	if tx.To != "" {
		to := b.addressNode(tx.To, NodeContract, tx.BlockTimestamp)
		b.nodes[to].IncomingCount++
		b.nodes[to].TotalVolume += value
		b.edges = append(b.edges, Edge{
			Source:    key,
			Target:    b.nodes[to].ID,
			Type:      EdgeFlow,
			TxHash:    tx.TxHash,
			Value:     tx.Value,
			Timestamp: tx.BlockTimestamp,
		})
	}
}

// ShortAddress abbreviates an address as 0x1234...abcd
func ShortAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
