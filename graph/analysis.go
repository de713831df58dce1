package graph

import "sort"

// Degree pairs a node with the number of edges touching it.
type Degree struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Degree int    `json:"degree"`
}

// Density returns the undirected graph density: 2m / (n(n-1)). Parallel
// edges count individually, matching the edge list. Graphs with fewer
// than two nodes have density 0.
func (g *Graph) Density() float64 {
	n := len(g.nodes)
	if n < 2 {
		return 0
	}
	return 2 * float64(len(g.edges)) / float64(n*(n-1))
}

// adjacency builds node index -> neighbour indices, treating every edge
// as symmetric.
func (g *Graph) adjacency() [][]int {
	adj := make([][]int, len(g.nodes))
	for _, e := range g.edges {
		si := g.index[e.Source]
		ti := g.index[e.Target]
		adj[si] = append(adj[si], ti)
		adj[ti] = append(adj[ti], si)
	}
	return adj
}

// ConnectedComponents returns the number of connected components via BFS
// over the undirected adjacency. An empty graph has zero components.
func (g *Graph) ConnectedComponents() int {
	adj := g.adjacency()
	visited := make([]bool, len(g.nodes))
	components := 0

	for i := range g.nodes {
		if visited[i] {
			continue
		}
		components++
		queue := []int{i}
		visited[i] = true
		for len(queue) > 0 {
			node := queue[0]
			queue = queue[1:]
			for _, nb := range adj[node] {
				if !visited[nb] {
					visited[nb] = true
					queue = append(queue, nb)
				}
			}
		}
	}
	return components
}

// TopDegrees returns the k most connected nodes, ties broken by insertion
// order so the result is deterministic.
func (g *Graph) TopDegrees(k int) []Degree {
	if k <= 0 || len(g.nodes) == 0 {
		return nil
	}

	counts := make([]int, len(g.nodes))
	for _, e := range g.edges {
		counts[g.index[e.Source]]++
		counts[g.index[e.Target]]++
	}

	degrees := make([]Degree, len(g.nodes))
	order := make([]int, len(g.nodes))
	for i, n := range g.nodes {
		degrees[i] = Degree{ID: n.ID, Label: n.Label, Degree: counts[i]}
		order[i] = i
	}

	sort.SliceStable(order, func(a, b int) bool {
		return counts[order[a]] > counts[order[b]]
	})

	if k > len(order) {
		k = len(order)
	}
	top := make([]Degree, k)
	for i := 0; i < k; i++ {
		top[i] = degrees[order[i]]
	}
	return top
}

// TypeCount is one entry of an ordered type histogram.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// typeCounts tallies types in first-seen order.
func typeCounts(types []string) []TypeCount {
	index := make(map[string]int, len(types))
	var counts []TypeCount
	for _, t := range types {
		if i, ok := index[t]; ok {
			counts[i].Count++
			continue
		}
		index[t] = len(counts)
		counts = append(counts, TypeCount{Type: t, Count: 1})
	}
	return counts
}

// NodeTypes returns per-type node counts, ordered by first appearance.
func (g *Graph) NodeTypes() []TypeCount {
	types := make([]string, len(g.nodes))
	for i, n := range g.nodes {
		types[i] = n.Type
	}
	return typeCounts(types)
}

// EdgeTypes returns per-type edge counts, ordered by first appearance.
func (g *Graph) EdgeTypes() []TypeCount {
	types := make([]string, len(g.edges))
	for i, e := range g.edges {
		types[i] = e.Type
	}
	return typeCounts(types)
}
