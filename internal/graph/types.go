// Package graph loads a bounded subgraph from the store and answers
// neighborhood-expansion queries over it: callers, callees, importers,
// cycles, and shortest path, generalizing the reverse-index searcher this
// package started from a persisted SQL edge set instead of an in-memory
// JSON blob.
package graph

import "github.com/mvp-joe/project-cortex/internal/ir"

// Result pairs a symbol with its traversal depth from the query target.
type Result struct {
	Symbol ir.Symbol
	Depth  int
}

// FileResult pairs a file path with its traversal depth, used by
// Importers.
type FileResult struct {
	Path  string
	Depth int
}

// Cycle is one cycle of symbol ids, starting and ending at the same id.
type Cycle struct {
	SymbolIDs []string
}

// PathResult is the result of a shortest-path query.
type PathResult struct {
	Symbols []ir.Symbol
	Found   bool
}
