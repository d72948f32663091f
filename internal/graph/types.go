// Package graph turns x402 transaction and agent records into a node/edge
// graph, filters it, and computes aggregate statistics over it.
//
// Graphs are values: every operation returns a new Graph and never mutates
// its input.
package graph

import "github.com/crogentx/crogentx/pkg/x402"

// NodeType discriminates the kinds of node in a graph
type NodeType string

const (
	NodeTransaction NodeType = "transaction"
	NodeAgent       NodeType = "agent"
	NodeContract    NodeType = "contract"
	NodeWallet      NodeType = "wallet"
)

// EdgeType is the relation an edge represents
type EdgeType string

const (
	EdgeFlow     EdgeType = "flow"
	EdgeTrigger  EdgeType = "trigger"
	EdgeBatch    EdgeType = "batch"
	EdgePipeline EdgeType = "pipeline"
)

// Node is one vertex of the graph. Type selects which of the attribute
// blocks is set: Transaction for transaction nodes, Agent for agent nodes,
// neither for wallets and contracts. Attributes are flattened in JSON.
type Node struct {
	ID              string   `json:"id"`
	Type            NodeType `json:"type"`
	Name            string   `json:"name"`
	Address         string   `json:"address,omitempty"`
	Timestamp       int64    `json:"timestamp"`
	AgentID         string   `json:"agentId,omitempty"`
	ConnectionCount int      `json:"connectionCount"`
	IncomingCount   int      `json:"incomingCount"`
	OutgoingCount   int      `json:"outgoingCount"`
	TotalVolume     float64  `json:"totalVolume"`

	*TransactionAttrs
	*AgentAttrs
}

// TransactionAttrs are the fields only transaction nodes carry
type TransactionAttrs struct {
	TxHash          string               `json:"txHash"`
	InstructionType x402.InstructionType `json:"instructionType"`
	Value           string               `json:"value"`
	Status          x402.Status          `json:"status"`
	Category        x402.Category        `json:"category,omitempty"`
	Protocol        string               `json:"protocol,omitempty"`
	BatchID         string               `json:"batchId,omitempty"`
	PipelineSteps   int                  `json:"pipelineSteps,omitempty"`
}

// AgentAttrs are the fields only agent nodes carry
type AgentAttrs struct {
	AgentType     x402.AgentType `json:"agentType"`
	GasEfficiency float64        `json:"gasEfficiency"`
	IsActive      bool           `json:"isActive"`
}

// IsTransaction reports whether the node represents a transaction
func (n *Node) IsTransaction() bool { return n.Type == NodeTransaction }

// ValueFloat returns the transaction value, or 0 for non-transaction nodes
func (n *Node) ValueFloat() float64 {
	if n.TransactionAttrs == nil {
		return 0
	}
	return x402.ParseAmount(n.Value)
}

// Edge connects two nodes by id
type Edge struct {
	Source    string   `json:"source"`
	Target    string   `json:"target"`
	Type      EdgeType `json:"type"`
	TxHash    string   `json:"txHash,omitempty"`
	Value     string   `json:"value,omitempty"`
	Timestamp int64    `json:"timestamp,omitempty"`
}

// Graph is an immutable snapshot of nodes and the edges between them
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// NodeByID returns the node with the given id
func (g *Graph) NodeByID(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// CountByType returns the number of nodes of each type
func (g *Graph) CountByType() map[NodeType]int {
	counts := make(map[NodeType]int, 4)
	for _, n := range g.Nodes {
		counts[n.Type]++
	}
	return counts
}

func (g *Graph) nodeIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		ids[n.ID] = struct{}{}
	}
	return ids
}
