package graph

import (
	"fmt"

	dgraph "github.com/dominikbraun/graph"
)

// maxComponentSize bounds how many nodes CyclesThrough will explore while
// computing the strongly-connected component around the seed, so a
// pathological graph can't turn a single query into a full-store scan.
const maxComponentSize = 5000

// CyclesThrough finds up to maxCycles distinct simple cycles that pass
// through symbolID. It first bounds a candidate node set by BFS in both
// edge directions, loads the induced subgraph into a dominikbraun/graph
// Graph, and asks it for strongly connected components: a cycle can only
// exist within the component containing symbolID. Simple-cycle
// enumeration itself has no library equivalent, so that part is a
// bounded DFS restricted to the confirmed component.
func (e *Engine) CyclesThrough(symbolID string, maxCycles int) ([]Cycle, error) {
	if maxCycles <= 0 {
		maxCycles = DefaultMaxCycles
	}

	forward, err := e.reachableSet(symbolID, e.calleesOf, maxComponentSize)
	if err != nil {
		return nil, fmt.Errorf("compute forward reachability: %w", err)
	}
	backward, err := e.reachableSet(symbolID, e.callersOf, maxComponentSize)
	if err != nil {
		return nil, fmt.Errorf("compute backward reachability: %w", err)
	}

	candidates := make(map[string]bool)
	for id := range forward {
		if backward[id] {
			candidates[id] = true
		}
	}
	if !candidates[symbolID] {
		return nil, nil
	}

	g := dgraph.New(func(id string) string { return id }, dgraph.Directed())
	for id := range candidates {
		_ = g.AddVertex(id)
	}
	adjacency := make(map[string][]string, len(candidates))
	for id := range candidates {
		neighbors, err := e.calleesOf(id)
		if err != nil {
			return nil, fmt.Errorf("load neighbors of %s: %w", id, err)
		}
		for _, n := range neighbors {
			if candidates[n] {
				_ = g.AddEdge(id, n)
				adjacency[id] = append(adjacency[id], n)
			}
		}
	}

	sccs, err := dgraph.StronglyConnectedComponents(g)
	if err != nil {
		return nil, fmt.Errorf("compute strongly connected components: %w", err)
	}
	var component map[string]bool
	for _, scc := range sccs {
		for _, id := range scc {
			if id == symbolID {
				component = make(map[string]bool, len(scc))
				for _, m := range scc {
					component[m] = true
				}
			}
		}
	}
	if len(component) < 2 {
		for _, n := range adjacency[symbolID] {
			if n == symbolID {
				return []Cycle{{SymbolIDs: []string{symbolID}}}, nil
			}
		}
		return nil, nil
	}

	var cycles []Cycle
	visited := map[string]bool{symbolID: true}
	path := []string{symbolID}

	var dfs func(current string)
	dfs = func(current string) {
		if len(cycles) >= maxCycles {
			return
		}
		for _, next := range adjacency[current] {
			if len(cycles) >= maxCycles {
				return
			}
			if !component[next] {
				continue
			}
			if next == symbolID {
				found := make([]string, len(path)+1)
				copy(found, path)
				found[len(path)] = symbolID
				cycles = append(cycles, Cycle{SymbolIDs: found})
				continue
			}
			if visited[next] {
				continue
			}
			visited[next] = true
			path = append(path, next)
			dfs(next)
			path = path[:len(path)-1]
			visited[next] = false
		}
	}
	dfs(symbolID)

	return cycles, nil
}

// reachableSet runs an unbounded-depth BFS over neighborsOf from seed, up
// to limit nodes, returning the set of reached ids (including seed).
func (e *Engine) reachableSet(seed string, neighborsOf func(string) ([]string, error), limit int) (map[string]bool, error) {
	visited := map[string]bool{seed: true}
	frontier := []string{seed}

	for len(frontier) > 0 && len(visited) < limit {
		var next []string
		for _, id := range frontier {
			neighbors, err := neighborsOf(id)
			if err != nil {
				return nil, err
			}
			for _, n := range neighbors {
				if visited[n] {
					continue
				}
				visited[n] = true
				next = append(next, n)
				if len(visited) >= limit {
					break
				}
			}
		}
		frontier = next
	}
	return visited, nil
}
