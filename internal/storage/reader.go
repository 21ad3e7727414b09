package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/mvp-joe/project-cortex/internal/ir"
)

// Reader answers the indexed point-lookups the graph engine and the CLI
// need without loading a whole commit into memory.
type Reader struct {
	db *sql.DB
}

// NewReader wraps an existing, schema-initialized database connection.
func NewReader(db *sql.DB) *Reader {
	return &Reader{db: db}
}

// GetSymbol fetches one symbol by its deterministic id.
func (r *Reader) GetSymbol(id string) (ir.Symbol, error) {
	row := r.db.QueryRow(
		`SELECT id, commit_id, kind, name, fqn, signature, sig_hash, language, file_path, span_start, span_end, visibility, doc
		 FROM symbol WHERE id = ?`, id,
	)
	sr, err := scanSymbolRow(row)
	if err == sql.ErrNoRows {
		return ir.Symbol{}, fmt.Errorf("symbol not found: %s", id)
	}
	if err != nil {
		return ir.Symbol{}, fmt.Errorf("get symbol: %w", err)
	}
	return rowToSymbol(sr), nil
}

// SymbolsInFile returns every symbol declared in path at commitID, ordered
// by source position.
func (r *Reader) SymbolsInFile(commitID, path string) ([]ir.Symbol, error) {
	rows, err := r.db.Query(
		`SELECT id, commit_id, kind, name, fqn, signature, sig_hash, language, file_path, span_start, span_end, visibility, doc
		 FROM symbol WHERE commit_id = ? AND file_path = ? ORDER BY span_start ASC`,
		commitID, path,
	)
	if err != nil {
		return nil, ir.NewError(ir.KindQueryError, "query", path, err)
	}
	defer rows.Close()

	var out []ir.Symbol
	for rows.Next() {
		sr, err := scanSymbolRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scan symbol row: %w", err)
		}
		out = append(out, rowToSymbol(sr))
	}
	return out, rows.Err()
}

// SymbolsByFQN returns every symbol at commitID matching an exact
// fully-qualified name (multiple overloads can share an FQN but differ
// by SigHash).
func (r *Reader) SymbolsByFQN(commitID, fqn string) ([]ir.Symbol, error) {
	rows, err := r.db.Query(
		`SELECT id, commit_id, kind, name, fqn, signature, sig_hash, language, file_path, span_start, span_end, visibility, doc
		 FROM symbol WHERE commit_id = ? AND fqn = ?`,
		commitID, fqn,
	)
	if err != nil {
		return nil, ir.NewError(ir.KindQueryError, "query", fqn, err)
	}
	defer rows.Close()

	var out []ir.Symbol
	for rows.Next() {
		sr, err := scanSymbolRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scan symbol row: %w", err)
		}
		out = append(out, rowToSymbol(sr))
	}
	return out, rows.Err()
}

// EdgesFrom returns every edge of the given type(s) whose Src is symbolID
// at commitID. An empty edgeTypes slice returns edges of every type.
func (r *Reader) EdgesFrom(commitID, symbolID string, edgeTypes ...ir.EdgeType) ([]ir.Edge, error) {
	return r.queryEdges(commitID, "src", symbolID, edgeTypes)
}

// EdgesTo returns every edge of the given type(s) whose Dst is symbolID
// at commitID.
func (r *Reader) EdgesTo(commitID, symbolID string, edgeTypes ...ir.EdgeType) ([]ir.Edge, error) {
	return r.queryEdges(commitID, "dst", symbolID, edgeTypes)
}

func (r *Reader) queryEdges(commitID, column, symbolID string, edgeTypes []ir.EdgeType) ([]ir.Edge, error) {
	sel := sq.Select("commit_id", "type", "src", "dst", "file_src", "file_dst", "resolution", "provenance", "meta").
		From("edge").
		Where(sq.Eq{"commit_id": commitID, column: symbolID})
	if len(edgeTypes) > 0 {
		types := make([]string, len(edgeTypes))
		for i, t := range edgeTypes {
			types[i] = string(t)
		}
		sel = sel.Where(sq.Eq{"type": types})
	}
	query, args, err := sel.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, ir.NewError(ir.KindQueryError, "query", symbolID, err)
	}
	defer rows.Close()

	var out []ir.Edge
	for rows.Next() {
		var e ir.Edge
		var typ, resolution, provenance, metaJSON string
		if err := rows.Scan(&e.CommitID, &typ, &e.Src, &e.Dst, &e.FileSrc, &e.FileDst, &resolution, &provenance, &metaJSON); err != nil {
			return nil, fmt.Errorf("scan edge row: %w", err)
		}
		e.Type = ir.EdgeType(typ)
		e.Resolution = ir.Resolution(resolution)
		if metaJSON != "" {
			if err := json.Unmarshal([]byte(metaJSON), &e.Meta); err != nil {
				return nil, fmt.Errorf("unmarshal edge meta: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ImportersOf returns every file-level IMPORTS edge whose FileDst is path
// at commitID, i.e. the files that import path.
func (r *Reader) ImportersOf(commitID, path string) ([]ir.Edge, error) {
	rows, err := r.db.Query(
		`SELECT commit_id, type, src, dst, file_src, file_dst, resolution, provenance, meta
		 FROM edge WHERE commit_id = ? AND type = ? AND file_dst = ?`,
		commitID, string(ir.EdgeImports), path,
	)
	if err != nil {
		return nil, ir.NewError(ir.KindQueryError, "query", path, err)
	}
	defer rows.Close()

	var out []ir.Edge
	for rows.Next() {
		var e ir.Edge
		var typ, resolution, provenance, metaJSON string
		if err := rows.Scan(&e.CommitID, &typ, &e.Src, &e.Dst, &e.FileSrc, &e.FileDst, &resolution, &provenance, &metaJSON); err != nil {
			return nil, fmt.Errorf("scan edge row: %w", err)
		}
		e.Type = ir.EdgeType(typ)
		e.Resolution = ir.Resolution(resolution)
		if metaJSON != "" {
			if err := json.Unmarshal([]byte(metaJSON), &e.Meta); err != nil {
				return nil, fmt.Errorf("unmarshal edge meta: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// FilesAt returns every file tracked at commitID, the prior-commit side
// of the planner's dirty-file diff.
func (r *Reader) FilesAt(commitID string) ([]ir.File, error) {
	rows, err := r.db.Query(
		"SELECT commit_id, path, content_hash, language FROM file WHERE commit_id = ?", commitID,
	)
	if err != nil {
		return nil, ir.NewError(ir.KindQueryError, "query", commitID, err)
	}
	defer rows.Close()

	var out []ir.File
	for rows.Next() {
		var f ir.File
		var lang string
		if err := rows.Scan(&f.CommitID, &f.Path, &f.ContentHash, &lang); err != nil {
			return nil, fmt.Errorf("scan file row: %w", err)
		}
		f.Language = ir.Language(lang)
		out = append(out, f)
	}
	return out, rows.Err()
}

// Stats summarizes one commit's store contents for the stats() query.
type Stats struct {
	Files       int
	Symbols     int
	EdgesByType map[ir.EdgeType]map[ir.Resolution]int
}

// Stats computes per-commit row counts, broken down by edge type and
// resolution.
func (r *Reader) Stats(commitID string) (Stats, error) {
	var st Stats
	st.EdgesByType = make(map[ir.EdgeType]map[ir.Resolution]int)

	if err := r.db.QueryRow("SELECT COUNT(*) FROM file WHERE commit_id = ?", commitID).Scan(&st.Files); err != nil {
		return Stats{}, ir.NewError(ir.KindQueryError, "query", commitID, err)
	}
	if err := r.db.QueryRow("SELECT COUNT(*) FROM symbol WHERE commit_id = ?", commitID).Scan(&st.Symbols); err != nil {
		return Stats{}, ir.NewError(ir.KindQueryError, "query", commitID, err)
	}

	rows, err := r.db.Query(
		"SELECT type, resolution, COUNT(*) FROM edge WHERE commit_id = ? GROUP BY type, resolution", commitID,
	)
	if err != nil {
		return Stats{}, ir.NewError(ir.KindQueryError, "query", commitID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var typ, resolution string
		var count int
		if err := rows.Scan(&typ, &resolution, &count); err != nil {
			return Stats{}, fmt.Errorf("scan edge count row: %w", err)
		}
		et := ir.EdgeType(typ)
		if st.EdgesByType[et] == nil {
			st.EdgesByType[et] = make(map[ir.Resolution]int)
		}
		st.EdgesByType[et][ir.Resolution(resolution)] = count
	}
	return st, rows.Err()
}

// OccurrencesOf returns every occurrence of symbolID at commitID, ordered
// by file then position, for "find all references" style queries.
func (r *Reader) OccurrencesOf(commitID, symbolID string) ([]ir.Occurrence, error) {
	rows, err := r.db.Query(
		`SELECT commit_id, file_path, symbol_id, role, start_line, start_col, end_line, end_col, token
		 FROM occurrence WHERE commit_id = ? AND symbol_id = ?
		 ORDER BY file_path ASC, start_line ASC, start_col ASC`,
		commitID, symbolID,
	)
	if err != nil {
		return nil, ir.NewError(ir.KindQueryError, "query", symbolID, err)
	}
	defer rows.Close()

	var out []ir.Occurrence
	for rows.Next() {
		var o ir.Occurrence
		var role string
		if err := rows.Scan(&o.CommitID, &o.FilePath, &o.SymbolID, &role, &o.Span.StartLine, &o.Span.StartCol, &o.Span.EndLine, &o.Span.EndCol, &o.Token); err != nil {
			return nil, fmt.Errorf("scan occurrence row: %w", err)
		}
		o.Role = ir.Role(role)
		out = append(out, o)
	}
	return out, rows.Err()
}

// LatestCommit returns the most recently timestamped commit_snapshot row,
// used when a caller doesn't pin an explicit commit.
func (r *Reader) LatestCommit() (ir.CommitSnapshot, error) {
	var snap ir.CommitSnapshot
	var parent sql.NullString
	err := r.db.QueryRow(
		"SELECT commit_id, timestamp, parent FROM commit_snapshot ORDER BY timestamp DESC LIMIT 1",
	).Scan(&snap.CommitID, &snap.Timestamp, &parent)
	if err == sql.ErrNoRows {
		return ir.CommitSnapshot{}, fmt.Errorf("no commit snapshots in store")
	}
	if err != nil {
		return ir.CommitSnapshot{}, ir.NewError(ir.KindQueryError, "query", "", err)
	}
	snap.Parent = parent.String
	return snap, nil
}

// HasCommit reports whether commitID has already been written, the check
// a scan makes before deciding whether any work is needed at all.
func (r *Reader) HasCommit(commitID string) (bool, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM commit_snapshot WHERE commit_id = ?", commitID).Scan(&count)
	if err != nil {
		return false, ir.NewError(ir.KindQueryError, "query", commitID, err)
	}
	return count > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSymbolRow(row *sql.Row) (SymbolRow, error) {
	return scanSymbolRows(row)
}

func scanSymbolRows(row rowScanner) (SymbolRow, error) {
	var sr SymbolRow
	var signature, visibility, doc sql.NullString
	err := row.Scan(
		&sr.ID, &sr.CommitID, &sr.Kind, &sr.Name, &sr.FQN, &signature, &sr.SigHash,
		&sr.Language, &sr.FilePath, &sr.SpanStart, &sr.SpanEnd, &visibility, &doc,
	)
	if err != nil {
		return SymbolRow{}, err
	}
	sr.Signature = signature.String
	sr.Visibility = visibility.String
	sr.Doc = doc.String
	return sr, nil
}
