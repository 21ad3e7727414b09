// Package semantic translates the output of an external semantic
// indexer (a SCIP artifact) into the canonical intermediate
// representation, generalizing the reference implementation's
// ScipMapper: convert_symbol for SCIP symbols, convert_relationship for
// SCIP relationships, and convert_occurrence for SCIP occurrences.
package semantic

import (
	"strings"

	"github.com/mvp-joe/project-cortex/internal/ir"
	"github.com/mvp-joe/project-cortex/internal/scip"
)

// Mapper folds a decoded SCIP index into IR symbols, edges, and
// occurrences, stamping provenance on every semantic edge it produces.
type Mapper struct {
	provenance map[string]string
}

// New builds a Mapper whose edges carry provenance identifying the
// indexer that produced them.
func New(indexerName, indexerVersion string) *Mapper {
	return &Mapper{
		provenance: map[string]string{"producer": indexerName, "version": indexerVersion},
	}
}

// Map translates one decoded SCIP index into IR for commitID, returning
// symbols (spans are left zero; they are written alongside the syntactic
// harness's symbols, not merged with them), semantic edges, and
// occurrences.
//
// Symbols are resolved in two passes because a relationship or occurrence
// can reference a symbol declared in a document visited later in the
// index: the first pass computes every symbol's IR id from its raw SCIP
// symbol string, the second pass translates Relationship/Occurrence
// references through that map, falling back to the raw SCIP string for
// symbols declared outside this index (e.g. a third-party base class).
func (m *Mapper) Map(idx scip.Index, commitID string, lang ir.Language) ir.FileOutput {
	idOf := make(map[string]string)

	for _, doc := range idx.Documents {
		for _, sym := range doc.Symbols {
			if converted, ok := m.convertSymbol(sym, doc.RelativePath, commitID, lang); ok {
				idOf[sym.Symbol] = converted.ID
			}
		}
	}

	var out ir.FileOutput
	for _, doc := range idx.Documents {
		for _, sym := range doc.Symbols {
			converted, ok := m.convertSymbol(sym, doc.RelativePath, commitID, lang)
			if !ok {
				continue
			}
			out.Symbols = append(out.Symbols, converted)
			for _, rel := range sym.Relationships {
				out.Edges = append(out.Edges, m.convertRelationship(converted.ID, rel, idOf, commitID))
			}
		}
		for _, occ := range doc.Occurrences {
			if converted, ok := m.convertOccurrence(occ, doc.RelativePath, commitID, idOf); ok {
				out.Occurrences = append(out.Occurrences, converted)
			}
		}
	}

	return out
}

// convertSymbol parses a SCIP symbol string. SCIP symbols are
// whitespace-delimited: "<scheme> <package-manager> <package> <version>
// `<descriptor>`". The final descriptor segment names the declaration;
// its trailing punctuation distinguishes functions/methods from types
// (this follows the reference mapper's own heuristic, documented there as
// best-effort without a full SCIP symbol grammar parser).
func (m *Mapper) convertSymbol(sym scip.Symbol, filePath, commitID string, lang ir.Language) (ir.Symbol, bool) {
	parts := strings.Fields(sym.Symbol)
	if len(parts) < 5 {
		return ir.Symbol{}, false
	}
	descriptor := parts[len(parts)-1]

	name := descriptorName(descriptor)
	if name == "" {
		return ir.Symbol{}, false
	}

	kind := classifyDescriptor(descriptor)
	fqn := moduleFromPath(filePath) + "." + name
	sigHash := "semantic"
	id := ir.ComputeID(commitID, filePath, lang, fqn, sigHash)

	return ir.Symbol{
		ID: id, CommitID: commitID, Kind: kind, Name: name, FQN: fqn,
		SigHash: sigHash, Language: lang, FilePath: filePath,
		Doc: strings.Join(sym.Documentation, "\n"),
	}, true
}

func descriptorName(descriptor string) string {
	name := strings.TrimSuffix(descriptor, ".")
	name = strings.TrimSuffix(name, "()")
	name = strings.TrimSuffix(name, "#")
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

func classifyDescriptor(descriptor string) ir.Kind {
	switch {
	case strings.Contains(descriptor, "#"):
		return ir.KindClass
	case strings.Contains(descriptor, "()."):
		return ir.KindFunction
	case strings.HasSuffix(descriptor, "()"):
		return ir.KindMethod
	default:
		return ir.KindVariable
	}
}

func moduleFromPath(path string) string {
	trimmed := path
	for _, ext := range []string{".tsx", ".ts", ".jsx", ".mjs", ".js", ".py", ".go"} {
		if strings.HasSuffix(trimmed, ext) {
			trimmed = strings.TrimSuffix(trimmed, ext)
			break
		}
	}
	return strings.ReplaceAll(trimmed, "/", ".")
}

// convertRelationship maps a SCIP relationship to a semantic edge. An
// implementation relationship becomes IMPLEMENTS; every other
// relationship (reference, type definition, or plain definition) becomes
// a CALLS edge, matching the reference mapper's two-way split.
func (m *Mapper) convertRelationship(fromID string, rel scip.Relationship, idOf map[string]string, commitID string) ir.Edge {
	edgeType := ir.EdgeCalls
	if rel.IsImplementation {
		edgeType = ir.EdgeImplements
	}
	dst, ok := idOf[rel.Symbol]
	if !ok {
		dst = rel.Symbol
	}
	return ir.Edge{
		CommitID: commitID, Type: edgeType, Src: fromID, Dst: dst,
		Resolution: ir.ResolutionSemantic, Provenance: m.provenance,
		Meta: map[string]string{},
	}
}

// convertOccurrence maps a SCIP occurrence to an IR occurrence.
func (m *Mapper) convertOccurrence(occ scip.Occurrence, filePath, commitID string, idOf map[string]string) (ir.Occurrence, bool) {
	startLine, startCol, endLine, endCol, ok := scip.NormalizedRange(occ.Range)
	if !ok {
		return ir.Occurrence{}, false
	}

	role := ir.RoleRef
	switch {
	case scip.HasRole(occ.SymbolRoles, scip.RoleDefinition):
		role = ir.RoleDefinition
	case scip.HasRole(occ.SymbolRoles, scip.RoleWrite):
		role = ir.RoleWrite
	case scip.HasRole(occ.SymbolRoles, scip.RoleRead):
		role = ir.RoleRead
	}

	symbolID, ok := idOf[occ.Symbol]
	if !ok {
		symbolID = occ.Symbol
	}

	return ir.Occurrence{
		CommitID: commitID, FilePath: filePath, SymbolID: symbolID, Role: role,
		Span: ir.Span{StartLine: int(startLine), StartCol: int(startCol), EndLine: int(endLine), EndCol: int(endCol)},
	}, true
}

// Reconcile marks syntactic edges superseded by a semantic counterpart at
// the same (src, dst, type). Both rows are kept: the caller still writes
// the syntactic edge so query results can be audited, but default reads
// should filter on Meta["superseded"] and prefer the semantic row over
// hard-deleting the syntactic one.
func Reconcile(syntactic, semanticEdges []ir.Edge) []ir.Edge {
	semanticKeys := make(map[string]bool, len(semanticEdges))
	for _, e := range semanticEdges {
		semanticKeys[supersessionKey(e)] = true
	}

	reconciled := make([]ir.Edge, len(syntactic))
	for i, e := range syntactic {
		if semanticKeys[supersessionKey(e)] {
			e.Meta = cloneMeta(e.Meta)
			e.Meta["superseded"] = "true"
		}
		reconciled[i] = e
	}
	return reconciled
}

func supersessionKey(e ir.Edge) string {
	return string(e.Type) + "\x00" + e.Src + "\x00" + e.Dst
}

func cloneMeta(m map[string]string) map[string]string {
	out := make(map[string]string, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
