// Package treesit holds the tree-sitter node-walking helpers shared by the
// typescript and python harnesses, so each language harness doesn't
// reimplement them.
package treesit

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Walk visits node and every descendant depth-first, pre-order. visitor
// returning false skips node's children (used to avoid double-extracting
// a class's methods once the class itself extracts them).
func Walk(node *sitter.Node, visitor func(*sitter.Node) bool) {
	if node == nil {
		return
	}
	if !visitor(node) {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		Walk(node.Child(uint(i)), visitor)
	}
}

// Text returns the source slice a node spans.
func Text(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// Span returns a node's 1-indexed start/end line.
func Span(node *sitter.Node) (start, end int) {
	return int(node.StartPosition().Row) + 1, int(node.EndPosition().Row) + 1
}

// IsTopLevel reports whether node sits directly under one of the given
// container kinds (e.g. "module" for Python, "program" for TypeScript)
// without an intervening function or class body.
func IsTopLevel(node *sitter.Node, rootKinds, blockerKinds map[string]bool) bool {
	parent := node.Parent()
	for parent != nil {
		k := parent.Kind()
		if blockerKinds[k] {
			return false
		}
		if rootKinds[k] {
			return true
		}
		parent = parent.Parent()
	}
	return true
}
