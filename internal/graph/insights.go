package graph

import "github.com/crogentx/crogentx/pkg/x402"

// ActiveNode identifies the best connected node of a graph
type ActiveNode struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Type   NodeType `json:"type"`
	Degree int      `json:"degree"`
}

// Insights summarises the shape of a graph for the network overview
type Insights struct {
	Density          float64     `json:"density"` // percent of possible undirected edges
	MostActive       *ActiveNode `json:"mostActive,omitempty"`
	AvgTxValue       float64     `json:"avgTxValue"`
	SuccessRate      float64     `json:"successRate"` // percent
	MaxPipelineDepth int         `json:"maxPipelineDepth"`
	AvgPipelineDepth float64     `json:"avgPipelineDepth"`
	Agents           int         `json:"agents"`
	Transactions     int         `json:"transactions"`
}

// ComputeInsights derives density, the most connected node, value and
// success averages over transaction nodes, and pipeline depth.
func ComputeInsights(g *Graph) Insights {
	var in Insights
	n := len(g.Nodes)
	if n == 0 {
		return in
	}

	if possible := n * (n - 1) / 2; possible > 0 {
		in.Density = float64(len(g.Edges)) / float64(possible) * 100
	}

	degree := degrees(g)
	for i := range g.Nodes {
		node := &g.Nodes[i]
		d := degree[node.ID]
		if in.MostActive == nil || d > in.MostActive.Degree {
			in.MostActive = &ActiveNode{ID: node.ID, Name: node.Name, Type: node.Type, Degree: d}
		}

		switch node.Type {
		case NodeAgent:
			in.Agents++
		case NodeTransaction:
			in.Transactions++
			in.AvgTxValue += node.ValueFloat()
			if node.TransactionAttrs != nil && node.Status == x402.StatusSuccess {
				in.SuccessRate++
			}
		}
	}

	if in.Transactions > 0 {
		in.AvgTxValue /= float64(in.Transactions)
		in.SuccessRate = in.SuccessRate / float64(in.Transactions) * 100
	}

	in.MaxPipelineDepth, in.AvgPipelineDepth = pipelineDepth(g)
	return in
}
