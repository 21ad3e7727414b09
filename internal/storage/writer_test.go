package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/project-cortex/internal/ir"
)

func sampleSnapshot() ir.CommitSnapshot {
	return ir.CommitSnapshot{CommitID: "c1", Timestamp: 1000, Parent: ""}
}

func sampleFiles() []ir.File {
	return []ir.File{
		{CommitID: "c1", Path: "a.go", ContentHash: "h1", Language: ir.LangGo},
	}
}

func sampleSymbols() []ir.Symbol {
	id := ir.ComputeID("c1", "a.go", ir.LangGo, "pkg.Foo", "sig1")
	return []ir.Symbol{
		{ID: id, CommitID: "c1", Kind: ir.KindFunction, Name: "Foo", FQN: "pkg.Foo", SigHash: "sig1", Language: ir.LangGo, FilePath: "a.go", SpanStart: 1, SpanEnd: 5},
	}
}

func TestWriter_WriteSnapshot_WritesAllRows(t *testing.T) {
	db := NewTestDB(t)
	w := NewWriter(db)

	snap := sampleSnapshot()
	files := sampleFiles()
	symbols := sampleSymbols()
	edges := []ir.Edge{
		{CommitID: "c1", Type: ir.EdgeContains, Src: "repo://c1/a.go#sym(go:pkg:file)", Dst: symbols[0].ID, FileSrc: "a.go", FileDst: "a.go", Resolution: ir.ResolutionSyntactic},
	}
	occs := []ir.Occurrence{
		{CommitID: "c1", FilePath: "a.go", SymbolID: symbols[0].ID, Role: ir.RoleDefinition, Span: ir.Span{StartLine: 1, StartCol: 0, EndLine: 1, EndCol: 3}, Token: "Foo"},
	}

	result, err := w.WriteSnapshot(snap, files, symbols, edges, occs)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SnapshotsWritten)
	assert.Equal(t, 1, result.FilesWritten)
	assert.Equal(t, 1, result.SymbolsWritten)
	assert.Equal(t, 1, result.EdgesWritten)
	assert.Equal(t, 1, result.OccurrencesWritten)
}

func TestWriter_WriteSnapshot_IdempotentOnRescan(t *testing.T) {
	db := NewTestDB(t)
	w := NewWriter(db)

	snap := sampleSnapshot()
	files := sampleFiles()
	symbols := sampleSymbols()
	occs := []ir.Occurrence{
		{CommitID: "c1", FilePath: "a.go", SymbolID: symbols[0].ID, Role: ir.RoleDefinition, Span: ir.Span{StartLine: 1, StartCol: 0, EndLine: 1, EndCol: 3}, Token: "Foo"},
	}

	_, err := w.WriteSnapshot(snap, files, symbols, nil, occs)
	require.NoError(t, err)

	result, err := w.WriteSnapshot(snap, files, symbols, nil, occs)
	require.NoError(t, err)

	assert.Equal(t, 0, result.SnapshotsWritten, "re-scanning the same commit should write zero snapshot rows")
	assert.Equal(t, 0, result.FilesWritten, "re-scanning unchanged files should write zero rows")
	assert.Equal(t, 0, result.SymbolsWritten, "re-scanning unchanged symbols should write zero rows")
	assert.Equal(t, 0, result.OccurrencesWritten, "re-scanning unchanged occurrences should write zero rows")

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM occurrence WHERE commit_id = 'c1'").Scan(&count))
	assert.Equal(t, 1, count, "occurrences must not be duplicated on re-scan")
}

func TestWriter_WriteSnapshot_UpdatesChangedFile(t *testing.T) {
	db := NewTestDB(t)
	w := NewWriter(db)

	snap := sampleSnapshot()
	files := sampleFiles()

	_, err := w.WriteSnapshot(snap, files, nil, nil, nil)
	require.NoError(t, err)

	changed := []ir.File{{CommitID: "c1", Path: "a.go", ContentHash: "h2", Language: ir.LangGo}}
	result, err := w.WriteSnapshot(snap, changed, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.FilesWritten, "a changed content hash should be rewritten")
}

func TestWriter_WriteEdgeBatch_DeduplicatesNaturalKey(t *testing.T) {
	db := NewTestDB(t)
	w := NewWriter(db)

	_, err := w.WriteSnapshot(sampleSnapshot(), sampleFiles(), sampleSymbols(), nil, nil)
	require.NoError(t, err)

	edge := ir.Edge{CommitID: "c1", Type: ir.EdgeCalls, Src: "s1", Dst: "s2", FileSrc: "a.go", FileDst: "a.go", Resolution: ir.ResolutionSyntactic}

	n1, err := w.writeEdgeBatch([]ir.Edge{edge})
	require.NoError(t, err)
	assert.Equal(t, 1, n1)

	n2, err := w.writeEdgeBatch([]ir.Edge{edge})
	require.NoError(t, err)
	assert.Equal(t, 0, n2, "an edge with the same natural key should not be rewritten")
}

func TestWriter_WriteOccurrenceBatch_DeduplicatesNaturalKey(t *testing.T) {
	db := NewTestDB(t)
	w := NewWriter(db)

	_, err := w.WriteSnapshot(sampleSnapshot(), sampleFiles(), sampleSymbols(), nil, nil)
	require.NoError(t, err)

	occ := ir.Occurrence{CommitID: "c1", FilePath: "a.go", SymbolID: sampleSymbols()[0].ID, Role: ir.RoleCall, Span: ir.Span{StartLine: 3, StartCol: 1, EndLine: 3, EndCol: 4}, Token: "Foo"}

	n1, err := w.writeOccurrenceBatch([]ir.Occurrence{occ})
	require.NoError(t, err)
	assert.Equal(t, 1, n1)

	n2, err := w.writeOccurrenceBatch([]ir.Occurrence{occ})
	require.NoError(t, err)
	assert.Equal(t, 0, n2, "an occurrence with the same natural key should not be rewritten")
}

func TestWriter_DeletePriorRows_RemovesDependents(t *testing.T) {
	db := NewTestDB(t)
	w := NewWriter(db)

	_, err := w.WriteSnapshot(sampleSnapshot(), sampleFiles(), sampleSymbols(), nil, nil)
	require.NoError(t, err)

	require.NoError(t, w.DeletePriorRows("c1"))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM symbol WHERE commit_id = 'c1'").Scan(&count))
	assert.Equal(t, 0, count)
}
