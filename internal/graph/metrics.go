package graph

// Metrics are aggregate counts over a graph snapshot
type Metrics struct {
	TotalNodes        int              `json:"totalNodes"`
	TotalEdges        int              `json:"totalEdges"`
	TotalTransactions int              `json:"totalTransactions"`
	TotalAgents       int              `json:"totalAgents"`
	TotalWallets      int              `json:"totalWallets"`
	TotalContracts    int              `json:"totalContracts"`
	EdgesByType       map[EdgeType]int `json:"edgesByType"`
	AvgDegree         float64          `json:"avgDegree"`
	MaxDepth          int              `json:"maxDepth"`
	IsolatedNodes     int              `json:"isolatedNodes"`
}

// ComputeMetrics counts nodes and edges and derives degree statistics.
//
// AvgDegree is the total degree divided by the number of nodes that appear
// in at least one edge. IsolatedNodes counts nodes that appear in none, so
// IsolatedNodes plus the number of connected nodes always equals TotalNodes.
func ComputeMetrics(g *Graph) Metrics {
	m := Metrics{
		TotalNodes:  len(g.Nodes),
		TotalEdges:  len(g.Edges),
		EdgesByType: make(map[EdgeType]int, 4),
	}

	for _, n := range g.Nodes {
		switch n.Type {
		case NodeTransaction:
			m.TotalTransactions++
		case NodeAgent:
			m.TotalAgents++
		case NodeWallet:
			m.TotalWallets++
		case NodeContract:
			m.TotalContracts++
		}
	}

	degree := degrees(g)
	ids := g.nodeIDs()
	total, connected := 0, 0
	for id, d := range degree {
		if _, ok := ids[id]; !ok {
			continue
		}
		total += d
		connected++
	}
	if connected > 0 {
		m.AvgDegree = float64(total) / float64(connected)
	}
	m.IsolatedNodes = len(ids) - connected

	for _, e := range g.Edges {
		m.EdgesByType[e.Type]++
	}

	m.MaxDepth, _ = pipelineDepth(g)
	return m
}

// degrees counts edge endpoints per node id in a single pass over edges
func degrees(g *Graph) map[string]int {
	d := make(map[string]int, len(g.Nodes))
	for _, e := range g.Edges {
		d[e.Source]++
		d[e.Target]++
	}
	return d
}

// pipelineDepth returns the longest and the average chain length, counted in
// nodes, over pipeline edges starting at every node that has a pipeline
// child. Each pipeline cycle counts as one block of its nodes, so the result
// does not depend on node or edge order.
func pipelineDepth(g *Graph) (longest int, avg float64) {
	children := make(map[string][]string)
	for _, e := range g.Edges {
		if e.Type == EdgePipeline {
			children[e.Source] = append(children[e.Source], e.Target)
		}
	}
	if len(children) == 0 {
		return 0, 0
	}

	// Tarjan emits each strongly connected component after every component
	// reachable from it, so child depths are known when a component closes.
	next := 0
	index := make(map[string]int)
	low := make(map[string]int)
	onStack := make(map[string]bool)
	component := make(map[string]int)
	var stack []string
	var compDepth []int
	var strong func(v string)
	strong = func(v string) {
		index[v], low[v] = next, next
		next++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range children[v] {
			if _, seen := index[w]; !seen {
				strong(w)
				low[v] = min(low[v], low[w])
			} else if onStack[w] {
				low[v] = min(low[v], index[w])
			}
		}
		if low[v] != index[v] {
			return
		}

		id := len(compDepth)
		var members []string
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[w] = false
			component[w] = id
			members = append(members, w)
			if w == v {
				break
			}
		}
		below := 0
		for _, u := range members {
			for _, w := range children[u] {
				if c := component[w]; c != id {
					below = max(below, compDepth[c])
				}
			}
		}
		compDepth = append(compDepth, len(members)+below)
	}

	sum, roots := 0, 0
	for _, n := range g.Nodes {
		if _, ok := children[n.ID]; !ok || !n.IsTransaction() {
			continue
		}
		if _, seen := index[n.ID]; !seen {
			strong(n.ID)
		}
		d := compDepth[component[n.ID]]
		sum += d
		roots++
		longest = max(longest, d)
	}
	if roots > 0 {
		avg = float64(sum) / float64(roots)
	}
	return longest, avg
}
