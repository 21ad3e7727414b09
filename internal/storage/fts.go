package storage

import (
	"database/sql"
	"fmt"

	"github.com/mvp-joe/project-cortex/internal/ir"
)

// SearchResult pairs a matching symbol with its BM25 relevance score
// (lower is more relevant, matching SQLite FTS5's convention).
type SearchResult struct {
	Symbol ir.Symbol
	Score  float64
}

// FindSymbols runs a full-text query against names, fully-qualified names,
// doc comments, and every occurrence token recorded for a symbol, ranked
// by BM25 with a boost favoring name/fqn matches over doc or call-site
// token matches. pattern follows FTS5 query syntax (supports prefix
// queries via a trailing "*").
func (r *Reader) FindSymbols(commitID, pattern string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(
		`SELECT s.id, s.commit_id, s.kind, s.name, s.fqn, s.signature, s.sig_hash, s.language,
		        s.file_path, s.span_start, s.span_end, s.visibility, s.doc,
		        bm25(symbol_fts, 0.0, 10.0, 8.0, 1.0, 0.5) AS rank
		 FROM symbol_fts
		 JOIN symbol s ON s.id = symbol_fts.symbol_id
		 WHERE symbol_fts MATCH ? AND s.commit_id = ?
		 ORDER BY rank ASC
		 LIMIT ?`,
		pattern, commitID, limit,
	)
	if err != nil {
		return nil, ir.NewError(ir.KindQueryError, "query", pattern, err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var sr SymbolRow
		var signature, visibility, doc sql.NullString
		var score float64
		if err := rows.Scan(
			&sr.ID, &sr.CommitID, &sr.Kind, &sr.Name, &sr.FQN, &signature, &sr.SigHash,
			&sr.Language, &sr.FilePath, &sr.SpanStart, &sr.SpanEnd, &visibility, &doc, &score,
		); err != nil {
			return nil, fmt.Errorf("scan fts row: %w", err)
		}
		sr.Signature = signature.String
		sr.Visibility = visibility.String
		sr.Doc = doc.String
		out = append(out, SearchResult{Symbol: rowToSymbol(sr), Score: score})
	}
	return out, rows.Err()
}

// FindSymbolsByPrefix is a convenience wrapper that appends the FTS5
// prefix-match suffix to a raw token, for "as you type" lookups.
func (r *Reader) FindSymbolsByPrefix(commitID, prefix string, limit int) ([]SearchResult, error) {
	return r.FindSymbols(commitID, prefix+"*", limit)
}
