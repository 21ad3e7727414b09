package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/mvp-joe/project-cortex/internal/ir"
)

// BatchSize is the number of rows per transaction for bulk inserts.
const BatchSize = 2000

// Writer is the single logical writer: one owner of the connection
// funnels every mutation for a scan through it.
type Writer struct {
	db *sql.DB
}

// NewWriter wraps an existing, schema-initialized database connection.
// The caller owns the connection's lifecycle.
func NewWriter(db *sql.DB) *Writer {
	return &Writer{db: db}
}

// WriteResult reports how many rows were actually mutated, so a re-scan
// of an already-present commit can report a zero-mutation count.
type WriteResult struct {
	SnapshotsWritten int
	FilesWritten     int
	SymbolsWritten   int
	EdgesWritten     int
	OccurrencesWritten int
}

// WriteSnapshot writes one commit_snapshot, the files it contains, and the
// symbols/edges/occurrences produced for those files, in dependency order:
// commit_snapshot, then file, then symbol, then edge/occurrence. Idempotent:
// rows whose natural key already exists with equal content are not
// rewritten, so re-scanning the same commit reports zero mutations.
func (w *Writer) WriteSnapshot(
	snap ir.CommitSnapshot,
	files []ir.File,
	symbols []ir.Symbol,
	edges []ir.Edge,
	occurrences []ir.Occurrence,
) (WriteResult, error) {
	var result WriteResult

	tx, err := w.db.Begin()
	if err != nil {
		return result, fmt.Errorf("begin write transaction: %w", err)
	}
	defer tx.Rollback()

	wroteSnap, err := writeSnapshotRow(tx, snap)
	if err != nil {
		return result, fmt.Errorf("write commit_snapshot: %w", err)
	}
	if wroteSnap {
		result.SnapshotsWritten = 1
	}

	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("commit snapshot transaction: %w", err)
	}

	for start := 0; start < len(files); start += BatchSize {
		end := min(start+BatchSize, len(files))
		n, err := w.writeFileBatch(snap.CommitID, files[start:end])
		if err != nil {
			return result, fmt.Errorf("write file batch: %w", err)
		}
		result.FilesWritten += n
	}

	for start := 0; start < len(symbols); start += BatchSize {
		end := min(start+BatchSize, len(symbols))
		n, err := w.writeSymbolBatch(symbols[start:end])
		if err != nil {
			return result, fmt.Errorf("write symbol batch: %w", err)
		}
		result.SymbolsWritten += n
	}

	for start := 0; start < len(edges); start += BatchSize {
		end := min(start+BatchSize, len(edges))
		n, err := w.writeEdgeBatch(edges[start:end])
		if err != nil {
			return result, fmt.Errorf("write edge batch: %w", err)
		}
		result.EdgesWritten += n
	}

	for start := 0; start < len(occurrences); start += BatchSize {
		end := min(start+BatchSize, len(occurrences))
		n, err := w.writeOccurrenceBatch(occurrences[start:end])
		if err != nil {
			return result, fmt.Errorf("write occurrence batch: %w", err)
		}
		result.OccurrencesWritten += n
	}

	return result, nil
}

func writeSnapshotRow(tx *sql.Tx, snap ir.CommitSnapshot) (bool, error) {
	var existingTS int64
	err := tx.QueryRow("SELECT timestamp FROM commit_snapshot WHERE commit_id = ?", snap.CommitID).Scan(&existingTS)
	if err == nil {
		return false, nil // already present; re-scanning the same commit writes nothing (idempotence)
	}
	if err != sql.ErrNoRows {
		return false, err
	}
	_, err = sq.Insert("commit_snapshot").
		Columns("commit_id", "timestamp", "parent").
		Values(snap.CommitID, snap.Timestamp, snap.Parent).
		RunWith(tx).Exec()
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeletePriorRows removes all file/symbol/edge/occurrence rows previously
// written for commitID, used only when patching the same commit after a
// crash: prior rows are removed atomically before re-insertion. Ordinary
// re-scans never call this — the natural-key compare in each write*Batch
// handles the common idempotent case without a delete pass.
func (w *Writer) DeletePriorRows(commitID string) error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"occurrence", "edge", "symbol", "file"} {
		if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE commit_id = ?", table), commitID); err != nil {
			return fmt.Errorf("delete prior %s rows: %w", table, err)
		}
	}
	return tx.Commit()
}

func (w *Writer) writeFileBatch(commitID string, files []ir.File) (int, error) {
	tx, err := w.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	written := 0
	for _, f := range files {
		changed, err := upsertIfChanged(tx, "file",
			map[string]any{"commit_id": commitID, "path": f.Path},
			map[string]any{"content_hash": f.ContentHash, "language": string(f.Language)},
		)
		if err != nil {
			return written, err
		}
		if changed {
			written++
		}
	}
	return written, tx.Commit()
}

func (w *Writer) writeSymbolBatch(symbols []ir.Symbol) (int, error) {
	tx, err := w.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	written := 0
	for _, s := range symbols {
		row := symbolToRow(s)
		changed, err := upsertIfChanged(tx, "symbol",
			map[string]any{"id": row.ID},
			map[string]any{
				"commit_id": row.CommitID, "kind": row.Kind, "name": row.Name, "fqn": row.FQN,
				"signature": row.Signature, "sig_hash": row.SigHash, "language": row.Language,
				"file_path": row.FilePath, "span_start": row.SpanStart, "span_end": row.SpanEnd,
				"visibility": row.Visibility, "doc": row.Doc,
			},
		)
		if err != nil {
			return written, err
		}
		if changed {
			written++
		}
	}
	return written, tx.Commit()
}

func (w *Writer) writeEdgeBatch(edges []ir.Edge) (int, error) {
	tx, err := w.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	written := 0
	for _, e := range edges {
		metaJSON, err := json.Marshal(e.Meta)
		if err != nil {
			return written, fmt.Errorf("marshal edge meta: %w", err)
		}
		prov := ir.NormalizeProvenance(e.Provenance)

		var existing string
		err = tx.QueryRow(
			`SELECT row_id FROM edge WHERE commit_id=? AND src=? AND dst=? AND type=? AND resolution=? AND file_src=? AND file_dst=?`,
			e.CommitID, e.Src, e.Dst, string(e.Type), string(e.Resolution), e.FileSrc, e.FileDst,
		).Scan(&existing)
		if err == nil {
			continue // natural key already present; edges are immutable once written
		}
		if err != sql.ErrNoRows {
			return written, err
		}

		_, err = sq.Insert("edge").
			Columns("row_id", "commit_id", "type", "src", "dst", "file_src", "file_dst", "resolution", "provenance", "meta").
			Values(uuid.NewString(), e.CommitID, string(e.Type), e.Src, e.Dst, e.FileSrc, e.FileDst, string(e.Resolution), prov, string(metaJSON)).
			RunWith(tx).Exec()
		if err != nil {
			return written, err
		}
		written++
	}
	return written, tx.Commit()
}

func (w *Writer) writeOccurrenceBatch(occs []ir.Occurrence) (int, error) {
	tx, err := w.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	written := 0
	for _, o := range occs {
		var existing string
		err := tx.QueryRow(
			`SELECT row_id FROM occurrence WHERE commit_id=? AND file_path=? AND symbol_id=? AND role=? AND start_line=? AND start_col=? AND end_line=? AND end_col=? AND token=?`,
			o.CommitID, o.FilePath, o.SymbolID, string(o.Role), o.Span.StartLine, o.Span.StartCol, o.Span.EndLine, o.Span.EndCol, o.Token,
		).Scan(&existing)
		if err == nil {
			continue // natural key already present; occurrences are immutable once written
		}
		if err != sql.ErrNoRows {
			return written, err
		}

		_, err = sq.Insert("occurrence").
			Columns("row_id", "commit_id", "file_path", "symbol_id", "role", "start_line", "start_col", "end_line", "end_col", "token").
			Values(uuid.NewString(), o.CommitID, o.FilePath, o.SymbolID, string(o.Role), o.Span.StartLine, o.Span.StartCol, o.Span.EndLine, o.Span.EndCol, o.Token).
			RunWith(tx).Exec()
		if err != nil {
			return written, err
		}
		written++
	}
	return written, tx.Commit()
}

// upsertIfChanged inserts a row keyed by `key` columns if absent, or
// updates it if present with different `fields` values, reporting whether
// any mutation happened. This is the natural-key compare-before-write
// discipline that keeps re-scans idempotent.
func upsertIfChanged(tx *sql.Tx, table string, key map[string]any, fields map[string]any) (bool, error) {
	cols := keysOf(fields)
	sel := sq.Select(cols...).From(table)
	for k, v := range key {
		sel = sel.Where(sq.Eq{k: v})
	}
	query, args, err := sel.ToSql()
	if err != nil {
		return false, err
	}
	row := tx.QueryRow(query, args...)
	scanDest := make([]any, len(cols))
	scanVals := make([]sql.NullString, len(cols))
	for i := range scanDest {
		scanDest[i] = &scanVals[i]
	}
	err = row.Scan(scanDest...)
	switch {
	case err == sql.ErrNoRows:
		ins := sq.Insert(table)
		insCols := make([]string, 0, len(key)+len(cols))
		vals := make([]any, 0, len(key)+len(cols))
		for k, v := range key {
			insCols = append(insCols, k)
			vals = append(vals, v)
		}
		for _, k := range cols {
			insCols = append(insCols, k)
			vals = append(vals, fields[k])
		}
		_, err := ins.Columns(insCols...).Values(vals...).RunWith(tx).Exec()
		return err == nil, err
	case err != nil:
		return false, err
	default:
		changed := false
		for i, k := range cols {
			want := fmt.Sprintf("%v", fields[k])
			if !scanVals[i].Valid || scanVals[i].String != want {
				changed = true
			}
		}
		if !changed {
			return false, nil
		}
		upd := sq.Update(table)
		for _, k := range cols {
			upd = upd.Set(k, fields[k])
		}
		for k, v := range key {
			upd = upd.Where(sq.Eq{k: v})
		}
		_, err := upd.RunWith(tx).Exec()
		return err == nil, err
	}
}

func keysOf(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
