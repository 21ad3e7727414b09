// Package storage implements the persistent code graph store: schema,
// batched transactional writes, indexed reads, the FTS index, and the
// commit-keyed retention policy, over a single-file embedded SQLite
// database opened in WAL mode.
package storage

import "github.com/mvp-joe/project-cortex/internal/ir"

// SymbolRow mirrors the symbol table.
type SymbolRow struct {
	ID         string
	CommitID   string
	Kind       string
	Name       string
	FQN        string
	Signature  string
	SigHash    string
	Language   string
	FilePath   string
	SpanStart  int
	SpanEnd    int
	Visibility string
	Doc        string
}

func symbolToRow(s ir.Symbol) SymbolRow {
	return SymbolRow{
		ID: s.ID, CommitID: s.CommitID, Kind: string(s.Kind), Name: s.Name, FQN: s.FQN,
		Signature: s.Signature, SigHash: s.SigHash, Language: string(s.Language),
		FilePath: s.FilePath, SpanStart: s.SpanStart, SpanEnd: s.SpanEnd,
		Visibility: s.Visibility, Doc: s.Doc,
	}
}

func rowToSymbol(r SymbolRow) ir.Symbol {
	return ir.Symbol{
		ID: r.ID, CommitID: r.CommitID, Kind: ir.Kind(r.Kind), Name: r.Name, FQN: r.FQN,
		Signature: r.Signature, SigHash: r.SigHash, Language: ir.Language(r.Language),
		FilePath: r.FilePath, SpanStart: r.SpanStart, SpanEnd: r.SpanEnd,
		Visibility: r.Visibility, Doc: r.Doc,
	}
}

// EdgeRow mirrors the edge table.
type EdgeRow struct {
	RowID      string // surrogate uuid primary key; natural key is (CommitID,Src,Dst,Type,Resolution,FileSrc,FileDst)
	CommitID   string
	Type       string
	Src        string
	Dst        string
	FileSrc    string
	FileDst    string
	Resolution string
	Provenance string // normalized, see ir.NormalizeProvenance
	Meta       string // json-encoded map[string]string
}

// OccurrenceRow mirrors the occurrence table.
type OccurrenceRow struct {
	RowID     string
	CommitID  string
	FilePath  string
	SymbolID  string
	Role      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
	Token     string
}

// FileRow mirrors the file table.
type FileRow struct {
	CommitID    string
	Path        string
	ContentHash string
	Language    string
}

// SnapshotRow mirrors the commit_snapshot table.
type SnapshotRow struct {
	CommitID  string
	Timestamp int64
	Parent    string
}
