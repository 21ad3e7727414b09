// Package scip decodes the JSON rendering of a SCIP (Source Code
// Intelligence Protocol) index. SCIP indexers (scip-typescript,
// scip-python, scip-go, ...) emit a binary protobuf index file; the scip
// CLI's `scip print --json` subcommand renders that index as JSON, which
// is the form this package consumes so semantic extraction never needs a
// generated protobuf schema of its own.
package scip

// Index is the top-level SCIP document: one per language-indexer run.
type Index struct {
	Metadata  Metadata   `json:"metadata"`
	Documents []Document `json:"documents"`
}

// Metadata describes the indexer that produced an Index.
type Metadata struct {
	Version     string   `json:"version"`
	ToolInfo    ToolInfo `json:"tool_info"`
	ProjectRoot string   `json:"project_root"`
}

// ToolInfo names the producing indexer, carried into edge provenance.
type ToolInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Document holds every symbol and occurrence SCIP found in one source
// file, addressed by its path relative to ProjectRoot.
type Document struct {
	RelativePath string        `json:"relative_path"`
	Language     string        `json:"language"`
	Symbols      []Symbol      `json:"symbols"`
	Occurrences  []Occurrence  `json:"occurrences"`
}

// Symbol is one SCIP symbol declaration. Symbol is SCIP's opaque,
// language-specific symbol string (e.g.
// "scip-typescript npm . . `main.ts`/createUser().").
type Symbol struct {
	Symbol         string         `json:"symbol"`
	Documentation  []string       `json:"documentation,omitempty"`
	Relationships  []Relationship `json:"relationships,omitempty"`
}

// Relationship links one symbol to another: a supertype, an interface it
// implements, or a symbol it references.
type Relationship struct {
	Symbol            string `json:"symbol"`
	IsReference       bool   `json:"is_reference"`
	IsImplementation  bool   `json:"is_implementation"`
	IsTypeDefinition  bool   `json:"is_type_definition"`
	IsDefinition      bool   `json:"is_definition"`
}

// Occurrence is one use (definition or reference) of a symbol at a
// specific source range within a Document.
type Occurrence struct {
	// Range is [startLine, startCol, endLine, endCol], 0-indexed, or the
	// 3-element [line, startCol, endCol] shorthand SCIP uses for
	// single-line spans.
	Range       []int32 `json:"range"`
	Symbol      string  `json:"symbol"`
	SymbolRoles int32   `json:"symbol_roles"`
}

// SymbolRole bitmask values from the SCIP specification.
const (
	RoleDefinition    int32 = 1
	RoleImport        int32 = 2
	RoleWrite         int32 = 4
	RoleRead          int32 = 8
	RoleGenerated     int32 = 16
	RoleTest          int32 = 32
	RoleForwardDef    int32 = 64
)

// HasRole reports whether roles has bit set.
func HasRole(roles, bit int32) bool {
	return roles&bit != 0
}

// NormalizedRange expands the 3-element single-line shorthand to the full
// 4-element [startLine, startCol, endLine, endCol] form.
func NormalizedRange(r []int32) (startLine, startCol, endLine, endCol int32, ok bool) {
	switch len(r) {
	case 3:
		return r[0], r[1], r[0], r[2], true
	case 4:
		return r[0], r[1], r[2], r[3], true
	default:
		return 0, 0, 0, 0, false
	}
}
