// Package ir defines the canonical intermediate representation shared by
// every language harness, the semantic mapper, the store, and the graph
// engine. Nothing outside this package decides what a symbol or an edge is.
package ir

// Kind is the category of a Symbol.
type Kind string

const (
	KindFunction   Kind = "function"
	KindMethod     Kind = "method"
	KindClass      Kind = "class"
	KindInterface  Kind = "interface"
	KindVariable   Kind = "variable"
	KindType       Kind = "type"
	KindModule     Kind = "module"
	KindPackage    Kind = "package"
	KindNamespace  Kind = "namespace"
	KindField      Kind = "field"
	KindEnum       Kind = "enum"
	KindEnumMember Kind = "enum_member"
)

// EdgeType is the category of relation an Edge carries.
type EdgeType string

const (
	EdgeContains   EdgeType = "CONTAINS"
	EdgeDeclares   EdgeType = "DECLARES"
	EdgeCalls      EdgeType = "CALLS"
	EdgeImports    EdgeType = "IMPORTS"
	EdgeExtends    EdgeType = "EXTENDS"
	EdgeImplements EdgeType = "IMPLEMENTS"
	EdgeOverrides  EdgeType = "OVERRIDES"
	EdgeReturns    EdgeType = "RETURNS"
	EdgeReads      EdgeType = "READS"
	EdgeWrites     EdgeType = "WRITES"
)

// Resolution records how an edge's endpoints were determined.
type Resolution string

const (
	ResolutionSyntactic Resolution = "syntactic"
	ResolutionSemantic  Resolution = "semantic"
)

// Role is the category of a source-span occurrence.
type Role string

const (
	RoleRef        Role = "ref"
	RoleRead       Role = "read"
	RoleWrite      Role = "write"
	RoleCall       Role = "call"
	RoleExtend     Role = "extend"
	RoleImplement  Role = "implement"
	RoleDefinition Role = "definition"
)

// Language tags a file or symbol with the harness that produced it.
type Language string

const (
	LangTypeScript Language = "typescript"
	LangJavaScript Language = "javascript"
	LangPython     Language = "python"
	LangGo         Language = "go"
	LangUnknown    Language = "unknown"
)

// Span is a half-open byte/line range within a file.
type Span struct {
	StartLine int `json:"start_line"`
	StartCol  int `json:"start_col"`
	EndLine   int `json:"end_line"`
	EndCol    int `json:"end_col"`
}

// CommitSnapshot identifies one scanned point in the repository's history.
type CommitSnapshot struct {
	CommitID  string `json:"commit_id"`
	Timestamp int64  `json:"timestamp"` // unix seconds, caller-supplied (never time.Now at scan time)
	Parent    string `json:"parent,omitempty"`
}

// File is one tracked file as of a commit snapshot.
type File struct {
	CommitID    string   `json:"commit_id"`
	Path        string   `json:"path"` // repo-relative, forward-slash normalized
	ContentHash string   `json:"content_hash"`
	Language    Language `json:"language"`
}

// Symbol is a named entity extracted by a harness or upgraded by the mapper.
type Symbol struct {
	ID         string   `json:"id"`
	CommitID   string   `json:"commit_id"`
	Kind       Kind     `json:"kind"`
	Name       string   `json:"name"`
	FQN        string   `json:"fqn"`
	Signature  string   `json:"signature,omitempty"`
	SigHash    string   `json:"sig_hash"`
	Language   Language `json:"language"`
	FilePath   string   `json:"file_path"`
	SpanStart  int      `json:"span_start"`
	SpanEnd    int      `json:"span_end"`
	Visibility string   `json:"visibility,omitempty"`
	Doc        string   `json:"doc,omitempty"`
}

// Edge is a typed directed relation between two symbols, or between two
// files for file-level IMPORTS edges.
type Edge struct {
	CommitID   string            `json:"commit_id"`
	Type       EdgeType          `json:"type"`
	Src        string            `json:"src,omitempty"`      // symbol id
	Dst        string            `json:"dst,omitempty"`      // symbol id, or bare callee name when unresolved
	FileSrc    string            `json:"file_src,omitempty"` // file path, for file-level IMPORTS
	FileDst    string            `json:"file_dst,omitempty"`
	Resolution Resolution        `json:"resolution"`
	Provenance map[string]string `json:"provenance,omitempty"`
	Meta       map[string]string `json:"meta,omitempty"`
}

// Occurrence is a single textual appearance of a symbol at a file span.
type Occurrence struct {
	CommitID string `json:"commit_id"`
	FilePath string `json:"file_path"`
	SymbolID string `json:"symbol_id,omitempty"`
	Role     Role   `json:"role"`
	Span     Span   `json:"span"`
	Token    string `json:"token"`
}

// FileOutput is what a language harness returns for a single file: the
// symbols it defines, the occurrences within it, and the syntactic edges
// it can derive from grammar alone.
type FileOutput struct {
	Symbols     []Symbol
	Occurrences []Occurrence
	Edges       []Edge
	Warnings    []Warning
}

// Warning is a recoverable per-file problem surfaced on a scan report
// instead of aborting the scan.
type Warning struct {
	Kind ErrorKind `json:"kind"`
	Path string    `json:"path"`
	Msg  string    `json:"msg"`
}
