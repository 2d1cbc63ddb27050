package quality

import "sort"

// conflictGraph is an undirected graph over fact ids, one per comparison
// group. Edges are pairwise conflicts; maximal cliques become the emitted
// conflict records, so a three-way disagreement is reported once rather
// than as three pairs.
type conflictGraph struct {
	nodes map[string]struct{}
	adj   map[string]map[string]struct{}
}

func newConflictGraph() *conflictGraph {
	return &conflictGraph{
		nodes: make(map[string]struct{}),
		adj:   make(map[string]map[string]struct{}),
	}
}

func (g *conflictGraph) addEdge(a, b string) {
	g.nodes[a] = struct{}{}
	g.nodes[b] = struct{}{}
	if g.adj[a] == nil {
		g.adj[a] = make(map[string]struct{})
	}
	if g.adj[b] == nil {
		g.adj[b] = make(map[string]struct{})
	}
	g.adj[a][b] = struct{}{}
	g.adj[b][a] = struct{}{}
}

func (g *conflictGraph) connected(a, b string) bool {
	_, ok := g.adj[a][b]
	return ok
}

// maximalCliques enumerates all maximal cliques of size >= 2 using
// Bron-Kerbosch with pivoting. Group sizes are tens of facts at most, so
// the worst case is irrelevant in practice. Output is fully ordered: ids
// sorted within each clique, cliques sorted by their id sequence.
func (g *conflictGraph) maximalCliques() [][]string {
	vertices := make([]string, 0, len(g.nodes))
	for v := range g.nodes {
		vertices = append(vertices, v)
	}
	sort.Strings(vertices)

	var out [][]string
	var expand func(r, p, x []string)
	expand = func(r, p, x []string) {
		if len(p) == 0 && len(x) == 0 {
			if len(r) >= 2 {
				clique := append([]string(nil), r...)
				sort.Strings(clique)
				out = append(out, clique)
			}
			return
		}

		pivot := pickPivot(g, p, x)
		for _, v := range p {
			if g.connected(pivot, v) {
				continue
			}
			expand(
				append(append([]string(nil), r...), v),
				intersectNeighbors(g, p, v),
				intersectNeighbors(g, x, v),
			)
			p = remove(p, v)
			x = append(x, v)
		}
	}
	expand(nil, vertices, nil)

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		for k := 0; k < len(a) && k < len(b); k++ {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return len(a) < len(b)
	})
	return out
}

// pickPivot chooses the vertex in p∪x with the most neighbors in p, which
// minimizes the branching of Bron-Kerbosch.
func pickPivot(g *conflictGraph, p, x []string) string {
	best, bestCount := "", -1
	for _, v := range append(append([]string(nil), p...), x...) {
		count := 0
		for _, u := range p {
			if g.connected(v, u) {
				count++
			}
		}
		if count > bestCount {
			best, bestCount = v, count
		}
	}
	return best
}

func intersectNeighbors(g *conflictGraph, set []string, v string) []string {
	out := make([]string, 0, len(set))
	for _, u := range set {
		if g.connected(v, u) {
			out = append(out, u)
		}
	}
	return out
}

func remove(set []string, v string) []string {
	out := make([]string, 0, len(set))
	for _, u := range set {
		if u != v {
			out = append(out, u)
		}
	}
	return out
}
