package graph

import (
	"fmt"

	dgraph "github.com/dominikbraun/graph"

	"github.com/mvp-joe/project-cortex/internal/ir"
)

// maxPathExploration bounds how many nodes Path will load into its local
// subgraph before giving up, so a pair with no connecting path doesn't
// walk the entire store.
const maxPathExploration = 5000

// Path finds the shortest path from fromID to toID over edges of the
// given types (CALLS only if edgeTypes is empty). It expands a bounded
// subgraph outward from fromID by BFS, then hands that subgraph to
// dominikbraun/graph's ShortestPath rather than reconstructing the route
// by hand. Returns Found=false if no path exists within the bound.
func (e *Engine) Path(fromID, toID string, edgeTypes ...ir.EdgeType) (PathResult, error) {
	if len(edgeTypes) == 0 {
		edgeTypes = []ir.EdgeType{ir.EdgeCalls}
	}
	if fromID == toID {
		sym, err := e.reader.GetSymbol(fromID)
		if err != nil {
			return PathResult{}, fmt.Errorf("resolve path endpoint: %w", err)
		}
		return PathResult{Symbols: []ir.Symbol{sym}, Found: true}, nil
	}

	g := dgraph.New(func(id string) string { return id }, dgraph.Directed())
	_ = g.AddVertex(fromID)

	visited := map[string]bool{fromID: true}
	frontier := []string{fromID}
	reachedTarget := false

	for len(frontier) > 0 && len(visited) < maxPathExploration && !reachedTarget {
		var next []string
		for _, id := range frontier {
			edges, err := e.reader.EdgesFrom(e.commitID, id, edgeTypes...)
			if err != nil {
				return PathResult{}, fmt.Errorf("load outgoing edges of %s: %w", id, err)
			}
			for _, edge := range filterSuperseded(edges) {
				if !visited[edge.Dst] {
					_ = g.AddVertex(edge.Dst)
					visited[edge.Dst] = true
					next = append(next, edge.Dst)
				}
				_ = g.AddEdge(id, edge.Dst)
				if edge.Dst == toID {
					reachedTarget = true
				}
			}
		}
		frontier = next
	}

	if !reachedTarget {
		return PathResult{Found: false}, nil
	}

	ids, err := dgraph.ShortestPath(g, fromID, toID)
	if err != nil {
		return PathResult{Found: false}, nil
	}

	symbols := make([]ir.Symbol, 0, len(ids))
	for _, id := range ids {
		sym, err := e.reader.GetSymbol(id)
		if err != nil {
			return PathResult{}, fmt.Errorf("resolve path node %s: %w", id, err)
		}
		symbols = append(symbols, sym)
	}
	return PathResult{Symbols: symbols, Found: true}, nil
}
