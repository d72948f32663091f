package graph

import (
	"strings"

	"github.com/crogentx/crogentx/pkg/x402"
)

// DateRange bounds node timestamps, inclusive, in unix seconds
type DateRange struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// FilterOptions is a conjunction of node predicates. Zero values disable a
// predicate.
type FilterOptions struct {
	SearchQuery      string                 `json:"searchQuery,omitempty"`
	InstructionTypes []x402.InstructionType `json:"instructionTypes,omitempty"`
	AgentTypes       []x402.AgentType       `json:"agentTypes,omitempty"`
	Categories       []x402.Category        `json:"categories,omitempty"`
	Protocols        []string               `json:"protocols,omitempty"`
	Status           []x402.Status          `json:"status,omitempty"`
	DateRange        *DateRange             `json:"dateRange,omitempty"`
	MinValue         *float64               `json:"minValue,omitempty"`
	MaxValue         *float64               `json:"maxValue,omitempty"`
	AgentIDs         []string               `json:"agentIds,omitempty"`
	OnlyBatched      bool                   `json:"onlyBatched,omitempty"`
	OnlyMultiStep    bool                   `json:"onlyMultiStep,omitempty"`
}

// transactionScoped reports whether any predicate that only inspects
// transaction nodes is active.
func (o *FilterOptions) transactionScoped() bool {
	return len(o.InstructionTypes) > 0 || len(o.AgentTypes) > 0 || len(o.Categories) > 0 ||
		len(o.Protocols) > 0 || len(o.Status) > 0 || o.MinValue != nil || o.MaxValue != nil ||
		len(o.AgentIDs) > 0 || o.OnlyBatched || o.OnlyMultiStep
}

// IsEmpty reports whether no predicate is active
func (o *FilterOptions) IsEmpty() bool {
	return strings.TrimSpace(o.SearchQuery) == "" && o.DateRange == nil && !o.transactionScoped()
}

type predicate func(n *Node) bool

// Filter returns the subgraph of nodes satisfying every active predicate.
//
// Search text and date range apply to every node. Instruction type, status,
// category, protocol, value range, agent ids and the batched/multi-step flags
// apply to transaction nodes only. Agent types restrict agent nodes to the
// listed types and transactions to those issued by such agents. When a
// transaction-scoped predicate is active, agent, wallet and contract nodes
// are kept only if they touch a surviving transaction.
//
// The edge set is always re-derived from the surviving nodes, so the result
// never contains a dangling edge and never contains an edge absent from g.
func Filter(g *Graph, opts FilterOptions) *Graph {
	adj := newAdjacency(g)
	preds := buildPredicates(g, adj, &opts)

	keep := make(map[string]struct{}, len(g.Nodes))
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if matchesAll(n, preds) {
			keep[n.ID] = struct{}{}
		}
	}

	if opts.transactionScoped() {
		for i := range g.Nodes {
			n := &g.Nodes[i]
			if n.IsTransaction() {
				continue
			}
			if _, ok := keep[n.ID]; !ok {
				continue
			}
			if !adj.touchesKeptTransaction(n.ID, keep) {
				delete(keep, n.ID)
			}
		}
	}

	out := &Graph{
		Nodes: make([]Node, 0, len(keep)),
		Edges: make([]Edge, 0, len(g.Edges)),
	}
	for _, n := range g.Nodes {
		if _, ok := keep[n.ID]; ok {
			out.Nodes = append(out.Nodes, n)
		}
	}
	for _, e := range g.Edges {
		_, src := keep[e.Source]
		_, dst := keep[e.Target]
		if src && dst {
			out.Edges = append(out.Edges, e)
		}
	}
	return out
}

func matchesAll(n *Node, preds []predicate) bool {
	for _, p := range preds {
		if !p(n) {
			return false
		}
	}
	return true
}

func buildPredicates(g *Graph, adj *adjacency, o *FilterOptions) []predicate {
	var preds []predicate

	if q := strings.ToLower(strings.TrimSpace(o.SearchQuery)); q != "" {
		preds = append(preds, func(n *Node) bool {
			if strings.Contains(strings.ToLower(n.Name), q) ||
				strings.Contains(strings.ToLower(n.Address), q) {
				return true
			}
			return n.TransactionAttrs != nil && strings.Contains(strings.ToLower(n.TxHash), q)
		})
	}

	if o.DateRange != nil {
		start, end := o.DateRange.Start, o.DateRange.End
		preds = append(preds, func(n *Node) bool {
			return n.Timestamp >= start && n.Timestamp <= end
		})
	}

	if len(o.InstructionTypes) > 0 {
		set := toSet(o.InstructionTypes)
		preds = append(preds, onTransactions(func(n *Node) bool {
			_, ok := set[n.InstructionType]
			return ok
		}))
	}

	if len(o.Status) > 0 {
		set := toSet(o.Status)
		preds = append(preds, onTransactions(func(n *Node) bool {
			_, ok := set[n.Status]
			return ok
		}))
	}

	if len(o.Categories) > 0 {
		set := toSet(o.Categories)
		preds = append(preds, onTransactions(func(n *Node) bool {
			_, ok := set[n.Category]
			return ok
		}))
	}

	if len(o.Protocols) > 0 {
		set := make(map[string]struct{}, len(o.Protocols))
		for _, p := range o.Protocols {
			set[strings.ToLower(p)] = struct{}{}
		}
		preds = append(preds, onTransactions(func(n *Node) bool {
			_, ok := set[strings.ToLower(n.Protocol)]
			return ok
		}))
	}

	if o.MinValue != nil {
		lo := *o.MinValue
		preds = append(preds, onTransactions(func(n *Node) bool { return n.ValueFloat() >= lo }))
	}
	if o.MaxValue != nil {
		hi := *o.MaxValue
		preds = append(preds, onTransactions(func(n *Node) bool { return n.ValueFloat() <= hi }))
	}

	if len(o.AgentIDs) > 0 {
		set := toSet(o.AgentIDs)
		preds = append(preds, onTransactions(func(n *Node) bool {
			_, ok := set[n.AgentID]
			return ok
		}))
	}

	if len(o.AgentTypes) > 0 {
		types := toSet(o.AgentTypes)
		agentIDs := make(map[string]struct{})
		for _, n := range g.Nodes {
			if n.Type != NodeAgent || n.AgentAttrs == nil {
				continue
			}
			if _, ok := types[n.AgentType]; ok {
				agentIDs[n.AgentID] = struct{}{}
			}
		}
		preds = append(preds, func(n *Node) bool {
			switch n.Type {
			case NodeAgent:
				if n.AgentAttrs == nil {
					return false
				}
				_, ok := types[n.AgentType]
				return ok
			case NodeTransaction:
				_, ok := agentIDs[n.AgentID]
				return ok && n.AgentID != ""
			default:
				return true
			}
		})
	}

	if o.OnlyBatched {
		preds = append(preds, onTransactions(func(n *Node) bool { return adj.has(n.ID, EdgeBatch) }))
	}
	if o.OnlyMultiStep {
		preds = append(preds, onTransactions(func(n *Node) bool { return adj.has(n.ID, EdgePipeline) }))
	}

	return preds
}

// onTransactions lifts a transaction predicate so that other node kinds pass
func onTransactions(p predicate) predicate {
	return func(n *Node) bool {
		if !n.IsTransaction() || n.TransactionAttrs == nil {
			return true
		}
		return p(n)
	}
}

func toSet[T comparable](values []T) map[T]struct{} {
	set := make(map[T]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// adjacency indexes the original edge set by node id so edge-derived
// predicates run in O(V+E) instead of rescanning edges per node.
type adjacency struct {
	kinds     map[string]map[EdgeType]struct{}
	neighbors map[string][]string
	txNodes   map[string]struct{}
}

func newAdjacency(g *Graph) *adjacency {
	a := &adjacency{
		kinds:     make(map[string]map[EdgeType]struct{}, len(g.Nodes)),
		neighbors: make(map[string][]string, len(g.Nodes)),
		txNodes:   make(map[string]struct{}),
	}
	for _, n := range g.Nodes {
		if n.IsTransaction() {
			a.txNodes[n.ID] = struct{}{}
		}
	}
	for _, e := range g.Edges {
		a.mark(e.Source, e.Type)
		a.mark(e.Target, e.Type)
		a.neighbors[e.Source] = append(a.neighbors[e.Source], e.Target)
		a.neighbors[e.Target] = append(a.neighbors[e.Target], e.Source)
	}
	return a
}

func (a *adjacency) mark(id string, t EdgeType) {
	m, ok := a.kinds[id]
	if !ok {
		m = make(map[EdgeType]struct{}, 2)
		a.kinds[id] = m
	}
	m[t] = struct{}{}
}

func (a *adjacency) has(id string, t EdgeType) bool {
	_, ok := a.kinds[id][t]
	return ok
}

func (a *adjacency) touchesKeptTransaction(id string, keep map[string]struct{}) bool {
	for _, nb := range a.neighbors[id] {
		if _, isTx := a.txNodes[nb]; !isTx {
			continue
		}
		if _, kept := keep[nb]; kept {
			return true
		}
	}
	return false
}
