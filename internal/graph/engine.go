package graph

import (
	"fmt"
	"sort"

	"github.com/mvp-joe/project-cortex/internal/ir"
	"github.com/mvp-joe/project-cortex/internal/storage"
)

// DefaultDepth and DefaultMaxCycles are the defaults applied when a
// caller passes a non-positive bound.
const (
	DefaultDepth     = 1
	DefaultMaxCycles = 10
	MaxDepth         = 10
)

// Engine answers graph queries by loading just the slice of the store's
// edge set each query touches, rather than materializing the whole
// commit into memory up front.
type Engine struct {
	reader   *storage.Reader
	commitID string
}

// New builds an Engine scoped to one commit snapshot.
func New(reader *storage.Reader, commitID string) *Engine {
	return &Engine{reader: reader, commitID: commitID}
}

// Callers returns every symbol that transitively calls symbolID, up to
// depth hops, deduplicated to the shallowest depth at which each symbol
// was reached and tie-broken lexicographically on fqn within a depth.
func (e *Engine) Callers(symbolID string, depth int) ([]Result, error) {
	return e.expand(symbolID, depth, e.callersOf)
}

// Callees returns every symbol transitively called by symbolID.
func (e *Engine) Callees(symbolID string, depth int) ([]Result, error) {
	return e.expand(symbolID, depth, e.calleesOf)
}

func (e *Engine) callersOf(symbolID string) ([]string, error) {
	edges, err := e.reader.EdgesTo(e.commitID, symbolID, ir.EdgeCalls)
	if err != nil {
		return nil, err
	}
	edges = filterSuperseded(edges)
	srcs := make([]string, 0, len(edges))
	for _, edge := range edges {
		srcs = append(srcs, edge.Src)
	}
	return srcs, nil
}

func (e *Engine) calleesOf(symbolID string) ([]string, error) {
	edges, err := e.reader.EdgesFrom(e.commitID, symbolID, ir.EdgeCalls)
	if err != nil {
		return nil, err
	}
	edges = filterSuperseded(edges)
	dsts := make([]string, 0, len(edges))
	for _, edge := range edges {
		dsts = append(dsts, edge.Dst)
	}
	return dsts, nil
}

// expand runs a breadth-first traversal over neighborsOf up to depth
// hops from seed, resolving every discovered id to its Symbol.
func (e *Engine) expand(seed string, depth int, neighborsOf func(string) ([]string, error)) ([]Result, error) {
	if depth <= 0 {
		depth = DefaultDepth
	}
	if depth > MaxDepth {
		depth = MaxDepth
	}

	visited := map[string]int{seed: 0}
	frontier := []string{seed}
	var found []string

	for level := 1; level <= depth && len(frontier) > 0; level++ {
		var next []string
		for _, id := range frontier {
			neighbors, err := neighborsOf(id)
			if err != nil {
				return nil, fmt.Errorf("expand at depth %d: %w", level, err)
			}
			for _, n := range neighbors {
				if _, seen := visited[n]; seen {
					continue
				}
				visited[n] = level
				found = append(found, n)
				next = append(next, n)
			}
		}
		frontier = next
	}

	return e.resolveResults(found, visited)
}

func (e *Engine) resolveResults(ids []string, depthOf map[string]int) ([]Result, error) {
	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		sym, err := e.reader.GetSymbol(id)
		if err != nil {
			continue // external or unresolved reference; not a store error
		}
		results = append(results, Result{Symbol: sym, Depth: depthOf[id]})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Depth != results[j].Depth {
			return results[i].Depth < results[j].Depth
		}
		return results[i].Symbol.FQN < results[j].Symbol.FQN
	})
	return results, nil
}

// Importers returns every file that transitively imports path, up to
// depth hops over file-level IMPORTS edges.
func (e *Engine) Importers(path string, depth int) ([]FileResult, error) {
	if depth <= 0 {
		depth = DefaultDepth
	}
	if depth > MaxDepth {
		depth = MaxDepth
	}

	visited := map[string]int{path: 0}
	frontier := []string{path}
	var found []string

	for level := 1; level <= depth && len(frontier) > 0; level++ {
		var next []string
		for _, p := range frontier {
			edges, err := e.reader.ImportersOf(e.commitID, p)
			if err != nil {
				return nil, fmt.Errorf("importers at depth %d: %w", level, err)
			}
			for _, edge := range filterSuperseded(edges) {
				if _, seen := visited[edge.FileSrc]; seen {
					continue
				}
				visited[edge.FileSrc] = level
				found = append(found, edge.FileSrc)
				next = append(next, edge.FileSrc)
			}
		}
		frontier = next
	}

	out := make([]FileResult, 0, len(found))
	for _, p := range found {
		out = append(out, FileResult{Path: p, Depth: visited[p]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Depth != out[j].Depth {
			return out[i].Depth < out[j].Depth
		}
		return out[i].Path < out[j].Path
	})
	return out, nil
}

// filterSuperseded drops syntactic edges superseded by a semantic
// counterpart at the same (src, dst, type), keeping the semantic edge.
// Edges flagged via Mapper.Reconcile carry Meta["superseded"]="true".
func filterSuperseded(edges []ir.Edge) []ir.Edge {
	bySemanticKey := make(map[string]bool, len(edges))
	for _, e := range edges {
		if e.Resolution == ir.ResolutionSemantic {
			bySemanticKey[supersessionKey(e)] = true
		}
	}

	out := make([]ir.Edge, 0, len(edges))
	for _, e := range edges {
		if e.Resolution == ir.ResolutionSyntactic && bySemanticKey[supersessionKey(e)] {
			continue
		}
		if e.Meta != nil && e.Meta["superseded"] == "true" {
			continue
		}
		out = append(out, e)
	}
	return out
}

func supersessionKey(e ir.Edge) string {
	return string(e.Type) + "\x00" + e.Src + "\x00" + e.Dst
}
