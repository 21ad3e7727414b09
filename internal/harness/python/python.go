// Package python extracts symbols, occurrences, and syntactic edges from
// Python source with tree-sitter.
package python

import (
	"context"
	"strconv"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/mvp-joe/project-cortex/internal/harness/treesit"
	"github.com/mvp-joe/project-cortex/internal/ir"
)

var rootKinds = map[string]bool{"module": true}
var blockerKinds = map[string]bool{"class_definition": true, "function_definition": true}

// Harness extracts Python source files.
type Harness struct {
	lang *sitter.Language
}

// New returns a Python harness with its grammar pre-loaded.
func New() *Harness {
	return &Harness{lang: sitter.NewLanguage(python.Language())}
}

func (h *Harness) Language() ir.Language { return ir.LangPython }
func (h *Harness) Extensions() []string  { return []string{".py"} }

func (h *Harness) Parse(ctx context.Context, commitID, path string, source []byte) (ir.FileOutput, error) {
	var out ir.FileOutput

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(h.lang)

	tree := parser.Parse(source, nil)
	if tree == nil {
		out.Warnings = append(out.Warnings, ir.Warning{Kind: ir.KindParseError, Path: path, Msg: "tree-sitter failed to parse python source"})
		return out, nil
	}
	defer tree.Close()

	root := tree.RootNode()
	moduleName := moduleNameFromPath(path)
	fileSymID := ir.ComputeID(commitID, path, ir.LangPython, moduleName, "file")
	startLine, endLine := treesit.Span(root)
	out.Symbols = append(out.Symbols, ir.Symbol{
		ID: fileSymID, CommitID: commitID, Kind: ir.KindModule, Name: moduleName, FQN: moduleName,
		SigHash: "file", Language: ir.LangPython, FilePath: path, SpanStart: startLine, SpanEnd: endLine,
	})

	ex := &extractor{commitID: commitID, path: path, moduleName: moduleName, fileSymID: fileSymID, source: source, out: &out}
	ex.extractImports(root)
	ex.extractTopLevel(root)

	return out, nil
}

func moduleNameFromPath(path string) string {
	name := strings.TrimSuffix(path, ".py")
	name = strings.ReplaceAll(name, "/", ".")
	return name
}

type extractor struct {
	commitID   string
	path       string
	moduleName string
	fileSymID  string
	source     []byte
	out        *ir.FileOutput
}

func (e *extractor) symbolID(fqn string) string {
	return ir.ComputeID(e.commitID, e.path, ir.LangPython, fqn, "def")
}

func (e *extractor) extractImports(root *sitter.Node) {
	treesit.Walk(root, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "import_statement", "import_from_statement":
			target := treesit.Text(n, e.source)
			e.out.Edges = append(e.out.Edges, ir.Edge{
				CommitID: e.commitID, Type: ir.EdgeImports, Src: e.fileSymID, Dst: target,
				FileSrc: e.path, Resolution: ir.ResolutionSyntactic,
			})
		}
		return true
	})
}

func (e *extractor) extractTopLevel(root *sitter.Node) {
	treesit.Walk(root, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "class_definition":
			e.extractClass(n)
			return false
		case "function_definition":
			if treesit.IsTopLevel(n, rootKinds, blockerKinds) {
				e.extractFunction(n, "", e.fileSymID)
			}
		}
		return true
	})
}

func (e *extractor) extractClass(node *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := treesit.Text(nameNode, e.source)
	fqn := e.moduleName + "." + name
	startLine, endLine := treesit.Span(node)
	classID := e.symbolID(fqn)

	e.out.Symbols = append(e.out.Symbols, ir.Symbol{
		ID: classID, CommitID: e.commitID, Kind: ir.KindClass, Name: name, FQN: fqn,
		SigHash: "def", Language: ir.LangPython, FilePath: e.path, SpanStart: startLine, SpanEnd: endLine,
	})
	e.out.Edges = append(e.out.Edges, ir.Edge{
		CommitID: e.commitID, Type: ir.EdgeContains, Src: e.fileSymID, Dst: classID,
		FileSrc: e.path, FileDst: e.path, Resolution: ir.ResolutionSyntactic,
	})
	e.out.Occurrences = append(e.out.Occurrences, ir.Occurrence{
		CommitID: e.commitID, FilePath: e.path, SymbolID: classID, Role: ir.RoleDefinition,
		Span: ir.Span{StartLine: startLine, EndLine: endLine}, Token: name,
	})

	if superclasses := node.ChildByFieldName("superclasses"); superclasses != nil {
		e.extractBases(classID, superclasses)
	}

	if body := node.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.ChildCount()); i++ {
			child := body.Child(uint(i))
			if child.Kind() == "function_definition" {
				e.extractFunction(child, name, classID)
			}
		}
	}
}

func (e *extractor) extractBases(classID string, argList *sitter.Node) {
	for i := 0; i < int(argList.ChildCount()); i++ {
		child := argList.Child(uint(i))
		if child.Kind() != "identifier" {
			continue
		}
		base := treesit.Text(child, e.source)
		e.out.Edges = append(e.out.Edges, ir.Edge{
			CommitID: e.commitID, Type: ir.EdgeExtends, Src: classID, Dst: e.moduleName + "." + base,
			FileSrc: e.path, Resolution: ir.ResolutionSyntactic,
		})
	}
}

func (e *extractor) extractFunction(node *sitter.Node, className, containerID string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := treesit.Text(nameNode, e.source)
	fqn := e.moduleName + "." + name
	kind := ir.KindFunction
	if className != "" {
		fqn = e.moduleName + "." + className + "." + name
		kind = ir.KindMethod
	}
	startLine, endLine := treesit.Span(node)
	sig := e.buildSignature(node, className)
	id := e.symbolID(fqn)

	sigHash := ir.SigHash(paramKinds(node.ChildByFieldName("parameters"), e.source), returnKind(node.ChildByFieldName("return_type"), e.source))

	e.out.Symbols = append(e.out.Symbols, ir.Symbol{
		ID: id, CommitID: e.commitID, Kind: kind, Name: name, FQN: fqn,
		Signature: sig, SigHash: sigHash, Language: ir.LangPython, FilePath: e.path,
		SpanStart: startLine, SpanEnd: endLine,
	})
	e.out.Edges = append(e.out.Edges, ir.Edge{
		CommitID: e.commitID, Type: ir.EdgeContains, Src: containerID, Dst: id,
		FileSrc: e.path, FileDst: e.path, Resolution: ir.ResolutionSyntactic,
	})
	e.out.Occurrences = append(e.out.Occurrences, ir.Occurrence{
		CommitID: e.commitID, FilePath: e.path, SymbolID: id, Role: ir.RoleDefinition,
		Span: ir.Span{StartLine: startLine, EndLine: endLine}, Token: name,
	})

	if body := node.ChildByFieldName("body"); body != nil {
		e.extractCalls(body, id)
	}
}

// paramKinds classifies a Python parameter list node's children into the
// coarse shapes ir.SigHash compares, the same role paramKinds plays in the
// Go harness: a typed parameter's annotation becomes part of its kind, so
// changing a type hint changes the signature hash even when arity doesn't.
func paramKinds(params *sitter.Node, source []byte) []ir.ParamKind {
	if params == nil {
		return nil
	}
	var kinds []ir.ParamKind
	for i := 0; i < int(params.ChildCount()); i++ {
		child := params.Child(uint(i))
		switch child.Kind() {
		case "identifier", "default_parameter":
			kinds = append(kinds, ir.ParamValue)
		case "typed_parameter", "typed_default_parameter":
			if t := child.ChildByFieldName("type"); t != nil {
				kinds = append(kinds, ir.TypedParamKind(treesit.Text(t, source)))
			} else {
				kinds = append(kinds, ir.ParamValue)
			}
		case "list_splat_pattern":
			kinds = append(kinds, ir.ParamVariadic)
		case "dictionary_splat_pattern":
			kinds = append(kinds, ir.ParamKeyword)
		}
	}
	return kinds
}

// returnKind classifies a function_definition's "-> T" annotation, falling
// back to ParamUnknown for an unannotated function the way the Go harness
// falls back when a result list is empty.
func returnKind(returnType *sitter.Node, source []byte) ir.ParamKind {
	if returnType == nil {
		return ir.ParamUnknown
	}
	return ir.TypedParamKind(treesit.Text(returnType, source))
}

func (e *extractor) buildSignature(node *sitter.Node, className string) string {
	nameNode := node.ChildByFieldName("name")
	params := node.ChildByFieldName("parameters")
	var b strings.Builder
	if className != "" {
		b.WriteString(className + ".")
	}
	b.WriteString(treesit.Text(nameNode, e.source))
	if params != nil {
		b.WriteString(treesit.Text(params, e.source))
	} else {
		b.WriteString("()")
	}
	return b.String()
}

func (e *extractor) extractCalls(body *sitter.Node, fromID string) {
	treesit.Walk(body, func(n *sitter.Node) bool {
		if n.Kind() != "call" {
			return true
		}
		fn := n.ChildByFieldName("function")
		if fn == nil {
			return true
		}
		callee := treesit.Text(fn, e.source)
		line, _ := treesit.Span(n)
		e.out.Edges = append(e.out.Edges, ir.Edge{
			CommitID: e.commitID, Type: ir.EdgeCalls, Src: fromID, Dst: e.moduleName + "." + callee,
			FileSrc: e.path, Resolution: ir.ResolutionSyntactic,
			Meta: map[string]string{"callee_expr": callee, "line": strconv.Itoa(line)},
		})
		return true
	})
}
