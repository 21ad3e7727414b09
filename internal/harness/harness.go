// Package harness defines the contract every language-specific extractor
// implements, and a Registry that dispatches a file to the harness that
// understands it by extension. Each harness turns one file's source into
// the canonical intermediate representation; nothing downstream of a
// harness needs to know which language produced an ir.FileOutput.
package harness

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/mvp-joe/project-cortex/internal/ir"
)

// Harness parses one file's source into symbols, occurrences, and
// syntactic edges. Implementations must be safe for concurrent use by
// multiple workers, each on its own Parser/tree state.
type Harness interface {
	// Language returns the language this harness extracts.
	Language() ir.Language

	// Extensions lists the file extensions (with leading dot) this
	// harness claims, e.g. ".go".
	Extensions() []string

	// Parse extracts the IR for one file. commitID and path are stamped
	// onto every produced Symbol/Edge/Occurrence so callers never need a
	// second pass to fill them in.
	Parse(ctx context.Context, commitID, path string, source []byte) (ir.FileOutput, error)
}

// Registry dispatches a file path to the Harness registered for its
// extension.
type Registry struct {
	byExt map[string]Harness
}

// NewRegistry builds an empty registry; call Register for each harness.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]Harness)}
}

// Register adds h under every extension it claims, overwriting any
// previous registrant for the same extension.
func (r *Registry) Register(h Harness) {
	for _, ext := range h.Extensions() {
		r.byExt[strings.ToLower(ext)] = h
	}
}

// For returns the harness registered for path's extension, or nil with
// ok=false if no harness claims it.
func (r *Registry) For(path string) (Harness, bool) {
	h, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return h, ok
}

// Supports reports whether any registered harness claims path.
func (r *Registry) Supports(path string) bool {
	_, ok := r.For(path)
	return ok
}
