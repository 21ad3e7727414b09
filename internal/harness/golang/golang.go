// Package golang extracts symbols, occurrences, and syntactic edges from
// Go source using the standard library's own parser, generalizing the
// teacher's goExtractor (which walked go/ast to build a narrower
// Node/Edge shape for its own graph) into full code-graph output.
package golang

import (
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"strconv"
	"strings"

	"github.com/mvp-joe/project-cortex/internal/ir"
)

// Harness extracts Go source files.
type Harness struct{}

// New returns a Go harness. Stateless: safe to share across workers.
func New() *Harness { return &Harness{} }

func (h *Harness) Language() ir.Language   { return ir.LangGo }
func (h *Harness) Extensions() []string    { return []string{".go"} }

func (h *Harness) Parse(ctx context.Context, commitID, path string, source []byte) (ir.FileOutput, error) {
	var out ir.FileOutput

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, source, parser.ParseComments)
	if err != nil {
		out.Warnings = append(out.Warnings, ir.Warning{Kind: ir.KindParseError, Path: path, Msg: err.Error()})
		return out, nil
	}

	pkgName := file.Name.Name
	imports := buildImportMap(file)

	// Every file of a package shares the package name as its FQN, so the
	// file symbol's sig hash carries the path to keep (commit_id, fqn,
	// sig_hash) unique across the package's files.
	fileSigHash := "file:" + path
	fileSymID := ir.ComputeID(commitID, path, ir.LangGo, pkgName, fileSigHash)
	out.Symbols = append(out.Symbols, ir.Symbol{
		ID: fileSymID, CommitID: commitID, Kind: ir.KindModule, Name: pkgName, FQN: pkgName,
		SigHash: fileSigHash, Language: ir.LangGo, FilePath: path,
		SpanStart: fset.Position(file.Pos()).Line, SpanEnd: fset.Position(file.End()).Line,
	})

	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, `"`)
		out.Edges = append(out.Edges, ir.Edge{
			CommitID: commitID, Type: ir.EdgeImports, Src: fileSymID, Dst: importPath,
			FileSrc: path, Resolution: ir.ResolutionSyntactic,
		})
	}

	ex := &extractor{
		commitID: commitID, path: path, pkgName: pkgName, fset: fset,
		imports: imports, fileSymID: fileSymID, out: &out,
	}

	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			ex.extractGenDecl(d)
		case *ast.FuncDecl:
			ex.extractFunc(d)
		}
	}

	return out, nil
}

type extractor struct {
	commitID  string
	path      string
	pkgName   string
	fset      *token.FileSet
	imports   map[string]string
	fileSymID string
	out       *ir.FileOutput
}

func buildImportMap(file *ast.File) map[string]string {
	m := make(map[string]string)
	for _, imp := range file.Imports {
		path := strings.Trim(imp.Path.Value, `"`)
		name := path[strings.LastIndex(path, "/")+1:]
		if imp.Name != nil {
			name = imp.Name.Name
		}
		m[name] = path
	}
	return m
}

func (e *extractor) span(n ast.Node) (int, int) {
	return e.fset.Position(n.Pos()).Line, e.fset.Position(n.End()).Line
}

func (e *extractor) symbolID(fqn, sigHash string) string {
	return ir.ComputeID(e.commitID, e.path, ir.LangGo, fqn, sigHash)
}

func (e *extractor) extractGenDecl(decl *ast.GenDecl) {
	for _, spec := range decl.Specs {
		switch s := spec.(type) {
		case *ast.TypeSpec:
			e.extractType(s)
		case *ast.ValueSpec:
			e.extractValueSpec(s, decl.Tok == token.CONST)
		}
	}
}

func (e *extractor) extractType(spec *ast.TypeSpec) {
	name := spec.Name.Name
	fqn := e.pkgName + "." + name
	startLine, endLine := e.span(spec)

	kind := ir.KindType
	switch spec.Type.(type) {
	case *ast.StructType:
		kind = ir.KindClass
	case *ast.InterfaceType:
		kind = ir.KindInterface
	}

	id := e.symbolID(fqn, "type")
	e.out.Symbols = append(e.out.Symbols, ir.Symbol{
		ID: id, CommitID: e.commitID, Kind: kind, Name: name, FQN: fqn,
		SigHash: "type", Language: ir.LangGo, FilePath: e.path,
		SpanStart: startLine, SpanEnd: endLine, Visibility: visibility(name),
	})
	e.out.Edges = append(e.out.Edges, ir.Edge{
		CommitID: e.commitID, Type: ir.EdgeContains, Src: e.fileSymID, Dst: id,
		FileSrc: e.path, FileDst: e.path, Resolution: ir.ResolutionSyntactic,
	})
	e.out.Occurrences = append(e.out.Occurrences, ir.Occurrence{
		CommitID: e.commitID, FilePath: e.path, SymbolID: id, Role: ir.RoleDefinition,
		Span: ir.Span{StartLine: startLine, EndLine: endLine}, Token: name,
	})

	if iface, ok := spec.Type.(*ast.InterfaceType); ok {
		e.extractInterfaceEmbeds(id, iface)
	}
	if st, ok := spec.Type.(*ast.StructType); ok {
		e.extractStructEmbeds(id, st)
	}
}

func (e *extractor) extractInterfaceEmbeds(ifaceID string, iface *ast.InterfaceType) {
	if iface.Methods == nil {
		return
	}
	for _, m := range iface.Methods.List {
		if len(m.Names) == 0 {
			if embedded, ok := resolveTypeName(m.Type); ok {
				e.out.Edges = append(e.out.Edges, ir.Edge{
					CommitID: e.commitID, Type: ir.EdgeExtends, Src: ifaceID, Dst: e.pkgName + "." + embedded,
					FileSrc: e.path, Resolution: ir.ResolutionSyntactic,
				})
			}
		}
	}
}

func (e *extractor) extractStructEmbeds(structID string, st *ast.StructType) {
	if st.Fields == nil {
		return
	}
	for _, f := range st.Fields.List {
		if len(f.Names) == 0 {
			if embedded, ok := resolveTypeName(f.Type); ok {
				e.out.Edges = append(e.out.Edges, ir.Edge{
					CommitID: e.commitID, Type: ir.EdgeExtends, Src: structID, Dst: e.pkgName + "." + embedded,
					FileSrc: e.path, Resolution: ir.ResolutionSyntactic,
				})
			}
		}
	}
}

func resolveTypeName(expr ast.Expr) (string, bool) {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name, true
	case *ast.StarExpr:
		return resolveTypeName(t.X)
	case *ast.SelectorExpr:
		return t.Sel.Name, true
	}
	return "", false
}

func (e *extractor) extractValueSpec(spec *ast.ValueSpec, isConst bool) {
	startLine, endLine := e.span(spec)
	kind := ir.KindVariable
	for _, name := range spec.Names {
		if name.Name == "_" {
			continue
		}
		fqn := e.pkgName + "." + name.Name
		id := e.symbolID(fqn, "value")
		e.out.Symbols = append(e.out.Symbols, ir.Symbol{
			ID: id, CommitID: e.commitID, Kind: kind, Name: name.Name, FQN: fqn,
			SigHash: "value", Language: ir.LangGo, FilePath: e.path,
			SpanStart: startLine, SpanEnd: endLine, Visibility: visibility(name.Name),
		})
		e.out.Edges = append(e.out.Edges, ir.Edge{
			CommitID: e.commitID, Type: ir.EdgeContains, Src: e.fileSymID, Dst: id,
			FileSrc: e.path, FileDst: e.path, Resolution: ir.ResolutionSyntactic,
		})
	}
}

func (e *extractor) extractFunc(decl *ast.FuncDecl) {
	name := decl.Name.Name
	startLine, endLine := e.span(decl)

	var fqn string
	var kind ir.Kind
	var receiverID string

	if decl.Recv != nil && len(decl.Recv.List) > 0 {
		recvType, _ := resolveTypeName(decl.Recv.List[0].Type)
		fqn = e.pkgName + "." + recvType + "." + name
		kind = ir.KindMethod
		receiverID = e.symbolID(e.pkgName+"."+recvType, "type")
	} else {
		fqn = e.pkgName + "." + name
		kind = ir.KindFunction
	}

	sigHash := ir.SigHash(paramKinds(decl.Type.Params), returnKind(decl.Type.Results))
	id := e.symbolID(fqn, sigHash)

	e.out.Symbols = append(e.out.Symbols, ir.Symbol{
		ID: id, CommitID: e.commitID, Kind: kind, Name: name, FQN: fqn,
		Signature: funcSignature(decl), SigHash: sigHash, Language: ir.LangGo, FilePath: e.path,
		SpanStart: startLine, SpanEnd: endLine, Visibility: visibility(name), Doc: docText(decl.Doc),
	})
	e.out.Occurrences = append(e.out.Occurrences, ir.Occurrence{
		CommitID: e.commitID, FilePath: e.path, SymbolID: id, Role: ir.RoleDefinition,
		Span: ir.Span{StartLine: startLine, EndLine: endLine}, Token: name,
	})

	if receiverID != "" {
		e.out.Edges = append(e.out.Edges, ir.Edge{
			CommitID: e.commitID, Type: ir.EdgeContains, Src: receiverID, Dst: id,
			FileSrc: e.path, FileDst: e.path, Resolution: ir.ResolutionSyntactic,
		})
	} else {
		e.out.Edges = append(e.out.Edges, ir.Edge{
			CommitID: e.commitID, Type: ir.EdgeContains, Src: e.fileSymID, Dst: id,
			FileSrc: e.path, FileDst: e.path, Resolution: ir.ResolutionSyntactic,
		})
	}

	if decl.Body != nil {
		e.extractCalls(decl.Body, id)
	}
}

func (e *extractor) extractCalls(body *ast.BlockStmt, fromID string) {
	ast.Inspect(body, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		callee, ok := e.calleeFQN(call.Fun)
		if !ok {
			return true
		}
		line := e.fset.Position(call.Pos()).Line
		calleeID := e.symbolID(callee, "unresolved")
		e.out.Edges = append(e.out.Edges, ir.Edge{
			CommitID: e.commitID, Type: ir.EdgeCalls, Src: fromID, Dst: calleeID,
			FileSrc: e.path, Resolution: ir.ResolutionSyntactic,
			Meta: map[string]string{"callee_fqn": callee, "line": strconv.Itoa(line)},
		})
		return true
	})
}

// calleeFQN resolves a call expression's callee to a best-effort fully
// qualified name without type information. It cannot resolve interfaces,
// closures, or generic instantiations without go/types.
func (e *extractor) calleeFQN(fun ast.Expr) (string, bool) {
	switch f := fun.(type) {
	case *ast.Ident:
		return e.pkgName + "." + f.Name, true
	case *ast.SelectorExpr:
		if ident, ok := f.X.(*ast.Ident); ok {
			if importPath, isImport := e.imports[ident.Name]; isImport {
				return importPath + "." + f.Sel.Name, true
			}
			return ident.Name + "." + f.Sel.Name, true
		}
	}
	return "", false
}

func paramKinds(fields *ast.FieldList) []ir.ParamKind {
	if fields == nil {
		return nil
	}
	var kinds []ir.ParamKind
	for _, f := range fields.List {
		n := len(f.Names)
		if n == 0 {
			n = 1
		}
		kind := ir.TypedParamKind(types.ExprString(f.Type))
		if _, ok := f.Type.(*ast.Ellipsis); ok {
			kind = ir.ParamVariadic
		}
		for i := 0; i < n; i++ {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

func returnKind(fields *ast.FieldList) ir.ParamKind {
	if fields == nil || len(fields.List) == 0 {
		return ir.ParamUnknown
	}
	var parts []string
	for _, f := range fields.List {
		n := len(f.Names)
		if n == 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			parts = append(parts, types.ExprString(f.Type))
		}
	}
	return ir.TypedParamKind(strings.Join(parts, ","))
}

func funcSignature(decl *ast.FuncDecl) string {
	var b strings.Builder
	b.WriteString("func ")
	if decl.Recv != nil && len(decl.Recv.List) > 0 {
		if name, ok := resolveTypeName(decl.Recv.List[0].Type); ok {
			b.WriteString("(" + name + ") ")
		}
	}
	b.WriteString(decl.Name.Name)
	b.WriteString("(")
	if decl.Type.Params != nil {
		b.WriteString(strconv.Itoa(len(decl.Type.Params.List)))
		b.WriteString(" params")
	}
	b.WriteString(")")
	return b.String()
}

func docText(g *ast.CommentGroup) string {
	if g == nil {
		return ""
	}
	return strings.TrimSpace(g.Text())
}

func visibility(name string) string {
	if name == "" {
		return ""
	}
	if name[0] >= 'A' && name[0] <= 'Z' {
		return "public"
	}
	return "private"
}

