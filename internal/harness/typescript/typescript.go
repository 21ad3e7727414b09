// Package typescript extracts symbols, occurrences, and syntactic edges
// from TypeScript/JavaScript source with tree-sitter, generalizing the
// teacher's typeScriptParser into full code-graph output.
package typescript

import (
	"context"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/mvp-joe/project-cortex/internal/harness/treesit"
	"github.com/mvp-joe/project-cortex/internal/ir"
)

var rootKinds = map[string]bool{"program": true}
var blockerKinds = map[string]bool{"class_declaration": true, "function_declaration": true, "method_definition": true}

// Harness extracts TypeScript and JavaScript source files, sharing one
// grammar since TSX/JSX constructs are a superset tree-sitter-typescript
// already parses.
type Harness struct {
	lang *sitter.Language
}

// New returns a TypeScript/JavaScript harness with its grammar pre-loaded.
func New() *Harness {
	return &Harness{lang: sitter.NewLanguage(typescript.LanguageTypescript())}
}

func (h *Harness) Language() ir.Language { return ir.LangTypeScript }
func (h *Harness) Extensions() []string  { return []string{".ts", ".tsx", ".js", ".jsx", ".mjs"} }

func (h *Harness) Parse(ctx context.Context, commitID, path string, source []byte) (ir.FileOutput, error) {
	var out ir.FileOutput

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(h.lang)

	tree := parser.Parse(source, nil)
	if tree == nil {
		out.Warnings = append(out.Warnings, ir.Warning{Kind: ir.KindParseError, Path: path, Msg: "tree-sitter failed to parse typescript source"})
		return out, nil
	}
	defer tree.Close()

	root := tree.RootNode()
	lang := languageFor(path)
	moduleName := moduleNameFromPath(path)
	fileSymID := ir.ComputeID(commitID, path, lang, moduleName, "file")
	startLine, endLine := treesit.Span(root)
	out.Symbols = append(out.Symbols, ir.Symbol{
		ID: fileSymID, CommitID: commitID, Kind: ir.KindModule, Name: moduleName, FQN: moduleName,
		SigHash: "file", Language: lang, FilePath: path, SpanStart: startLine, SpanEnd: endLine,
	})

	ex := &extractor{commitID: commitID, path: path, lang: lang, moduleName: moduleName, fileSymID: fileSymID, source: source, out: &out}
	ex.extractImports(root)
	ex.extractTopLevel(root)

	return out, nil
}

func languageFor(path string) ir.Language {
	if strings.HasSuffix(path, ".ts") || strings.HasSuffix(path, ".tsx") {
		return ir.LangTypeScript
	}
	return ir.LangJavaScript
}

func moduleNameFromPath(path string) string {
	name := path
	for _, ext := range []string{".tsx", ".ts", ".jsx", ".mjs", ".js"} {
		if strings.HasSuffix(name, ext) {
			name = strings.TrimSuffix(name, ext)
			break
		}
	}
	return strings.ReplaceAll(name, "/", ".")
}

type extractor struct {
	commitID   string
	path       string
	lang       ir.Language
	moduleName string
	fileSymID  string
	source     []byte
	out        *ir.FileOutput
}

func (e *extractor) symbolID(fqn string) string {
	return ir.ComputeID(e.commitID, e.path, e.lang, fqn, "def")
}

func (e *extractor) extractImports(root *sitter.Node) {
	treesit.Walk(root, func(n *sitter.Node) bool {
		if n.Kind() != "import_statement" {
			return true
		}
		source := n.ChildByFieldName("source")
		target := treesit.Text(source, e.source)
		target = strings.Trim(target, `"'`)
		e.out.Edges = append(e.out.Edges, ir.Edge{
			CommitID: e.commitID, Type: ir.EdgeImports, Src: e.fileSymID, Dst: target,
			FileSrc: e.path, Resolution: ir.ResolutionSyntactic,
		})
		return true
	})
}

func (e *extractor) extractTopLevel(root *sitter.Node) {
	treesit.Walk(root, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "class_declaration":
			e.extractClass(n)
			return false
		case "interface_declaration":
			e.extractInterface(n)
			return false
		case "function_declaration":
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
		SigHash: "def", Language: e.lang, FilePath: e.path, SpanStart: startLine, SpanEnd: endLine,
	})
	e.out.Edges = append(e.out.Edges, ir.Edge{
		CommitID: e.commitID, Type: ir.EdgeContains, Src: e.fileSymID, Dst: classID,
		FileSrc: e.path, FileDst: e.path, Resolution: ir.ResolutionSyntactic,
	})
	e.out.Occurrences = append(e.out.Occurrences, ir.Occurrence{
		CommitID: e.commitID, FilePath: e.path, SymbolID: classID, Role: ir.RoleDefinition,
		Span: ir.Span{StartLine: startLine, EndLine: endLine}, Token: name,
	})

	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(uint(i)); child.Kind() == "class_heritage" {
			e.extractHeritage(classID, child)
		}
	}

	if body := node.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.ChildCount()); i++ {
			child := body.Child(uint(i))
			if child.Kind() == "method_definition" {
				e.extractFunction(child, name, classID)
			}
		}
	}
}

func (e *extractor) extractInterface(node *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := treesit.Text(nameNode, e.source)
	fqn := e.moduleName + "." + name
	startLine, endLine := treesit.Span(node)
	id := e.symbolID(fqn)

	e.out.Symbols = append(e.out.Symbols, ir.Symbol{
		ID: id, CommitID: e.commitID, Kind: ir.KindInterface, Name: name, FQN: fqn,
		SigHash: "def", Language: e.lang, FilePath: e.path, SpanStart: startLine, SpanEnd: endLine,
	})
	e.out.Edges = append(e.out.Edges, ir.Edge{
		CommitID: e.commitID, Type: ir.EdgeContains, Src: e.fileSymID, Dst: id,
		FileSrc: e.path, FileDst: e.path, Resolution: ir.ResolutionSyntactic,
	})

	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(uint(i)); child.Kind() == "extends_type_clause" {
			e.extractHeritage(id, child)
		}
	}
}

// extractHeritage walks an `extends`/`implements` clause, emitting an
// Extends edge for class/interface inheritance and an Implements edge for
// interface conformance.
func (e *extractor) extractHeritage(fromID string, heritage *sitter.Node) {
	treesit.Walk(heritage, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "extends_clause", "extends_type_clause":
			for i := 0; i < int(n.ChildCount()); i++ {
				if id := n.Child(uint(i)); id.Kind() == "identifier" || id.Kind() == "type_identifier" {
					e.out.Edges = append(e.out.Edges, ir.Edge{
						CommitID: e.commitID, Type: ir.EdgeExtends, Src: fromID,
						Dst: e.moduleName + "." + treesit.Text(id, e.source),
						FileSrc: e.path, Resolution: ir.ResolutionSyntactic,
					})
				}
			}
		case "implements_clause":
			for i := 0; i < int(n.ChildCount()); i++ {
				if id := n.Child(uint(i)); id.Kind() == "identifier" || id.Kind() == "type_identifier" {
					e.out.Edges = append(e.out.Edges, ir.Edge{
						CommitID: e.commitID, Type: ir.EdgeImplements, Src: fromID,
						Dst: e.moduleName + "." + treesit.Text(id, e.source),
						FileSrc: e.path, Resolution: ir.ResolutionSyntactic,
					})
				}
			}
		}
		return true
	})
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
	id := e.symbolID(fqn)
	sigHash := ir.SigHash(paramKinds(node.ChildByFieldName("parameters"), e.source), returnKind(node.ChildByFieldName("return_type"), e.source))

	e.out.Symbols = append(e.out.Symbols, ir.Symbol{
		ID: id, CommitID: e.commitID, Kind: kind, Name: name, FQN: fqn,
		SigHash: sigHash, Language: e.lang, FilePath: e.path, SpanStart: startLine, SpanEnd: endLine,
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

// paramKinds classifies a TypeScript/JavaScript parameter list node's
// children into the coarse shapes ir.SigHash compares, mirroring the Go
// and Python harnesses: a parameter's type annotation becomes part of its
// kind, so a type-only edit changes the signature hash.
func paramKinds(params *sitter.Node, source []byte) []ir.ParamKind {
	if params == nil {
		return nil
	}
	var kinds []ir.ParamKind
	for i := 0; i < int(params.ChildCount()); i++ {
		child := params.Child(uint(i))
		switch child.Kind() {
		case "identifier":
			kinds = append(kinds, ir.ParamValue)
		case "required_parameter", "optional_parameter":
			if t := child.ChildByFieldName("type"); t != nil {
				kinds = append(kinds, ir.TypedParamKind(treesit.Text(t, source)))
			} else {
				kinds = append(kinds, ir.ParamValue)
			}
		case "rest_parameter":
			kinds = append(kinds, ir.ParamVariadic)
		}
	}
	return kinds
}

// returnKind classifies a function's "): T" return type annotation,
// falling back to ParamUnknown for an unannotated function.
func returnKind(returnType *sitter.Node, source []byte) ir.ParamKind {
	if returnType == nil {
		return ir.ParamUnknown
	}
	return ir.TypedParamKind(treesit.Text(returnType, source))
}

func (e *extractor) extractCalls(body *sitter.Node, fromID string) {
	treesit.Walk(body, func(n *sitter.Node) bool {
		if n.Kind() != "call_expression" {
			return true
		}
		fn := n.ChildByFieldName("function")
		if fn == nil {
			return true
		}
		callee := treesit.Text(fn, e.source)
		e.out.Edges = append(e.out.Edges, ir.Edge{
			CommitID: e.commitID, Type: ir.EdgeCalls, Src: fromID, Dst: e.moduleName + "." + callee,
			FileSrc: e.path, Resolution: ir.ResolutionSyntactic,
			Meta: map[string]string{"callee_expr": callee},
		})
		return true
	})
}
