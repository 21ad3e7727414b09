package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/project-cortex/internal/ir"
)

func TestWriter_CopyForward_CarriesUnchangedFileToNewCommit(t *testing.T) {
	db := NewTestDB(t)
	w := NewWriter(db)
	reader := NewReader(db)

	files := []ir.File{{CommitID: "c0", Path: "a.go", ContentHash: "h1", Language: ir.LangGo}}
	sym := ir.Symbol{
		ID: ir.ComputeID("c0", "a.go", ir.LangGo, "pkg.A", "sig1"),
		CommitID: "c0", Kind: ir.KindFunction, Name: "A", FQN: "pkg.A",
		SigHash: "sig1", Language: ir.LangGo, FilePath: "a.go",
	}
	snap := ir.CommitSnapshot{CommitID: "c0", Timestamp: 1}
	_, err := w.WriteSnapshot(snap, files, []ir.Symbol{sym}, nil, nil)
	require.NoError(t, err)

	// the orchestrator writes the new commit_snapshot row before calling
	// CopyForward for the files it decided not to reparse.
	_, err = w.WriteSnapshot(ir.CommitSnapshot{CommitID: "c1", Parent: "c0", Timestamp: 2}, nil, nil, nil, nil)
	require.NoError(t, err)

	result, err := w.CopyForward(reader, "c0", "c1", []string{"a.go"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.FilesWritten)
	assert.Equal(t, 1, result.SymbolsWritten)

	copied, err := reader.SymbolsInFile("c1", "a.go")
	require.NoError(t, err)
	require.Len(t, copied, 1)
	assert.Equal(t, "c1", copied[0].CommitID)
	assert.Equal(t, ir.ComputeID("c1", "a.go", ir.LangGo, "pkg.A", "sig1"), copied[0].ID)
}

func TestWriter_CopyForward_RemapsEdgesBetweenCopiedSymbols(t *testing.T) {
	db := NewTestDB(t)
	w := NewWriter(db)
	reader := NewReader(db)

	files := []ir.File{
		{CommitID: "c0", Path: "a.go", ContentHash: "h1", Language: ir.LangGo},
		{CommitID: "c0", Path: "b.go", ContentHash: "h2", Language: ir.LangGo},
	}
	symA := ir.Symbol{ID: ir.ComputeID("c0", "a.go", ir.LangGo, "pkg.A", "s1"), CommitID: "c0", Kind: ir.KindFunction, Name: "A", FQN: "pkg.A", SigHash: "s1", Language: ir.LangGo, FilePath: "a.go"}
	symB := ir.Symbol{ID: ir.ComputeID("c0", "b.go", ir.LangGo, "pkg.B", "s2"), CommitID: "c0", Kind: ir.KindFunction, Name: "B", FQN: "pkg.B", SigHash: "s2", Language: ir.LangGo, FilePath: "b.go"}
	edges := []ir.Edge{{CommitID: "c0", Type: ir.EdgeCalls, Src: symA.ID, Dst: symB.ID, Resolution: ir.ResolutionSyntactic}}

	snap := ir.CommitSnapshot{CommitID: "c0", Timestamp: 1}
	_, err := w.WriteSnapshot(snap, files, []ir.Symbol{symA, symB}, edges, nil)
	require.NoError(t, err)

	_, err = w.WriteSnapshot(ir.CommitSnapshot{CommitID: "c1", Parent: "c0", Timestamp: 2}, nil, nil, nil, nil)
	require.NoError(t, err)

	_, err = w.CopyForward(reader, "c0", "c1", []string{"a.go", "b.go"})
	require.NoError(t, err)

	newSrcID := ir.ComputeID("c1", "a.go", ir.LangGo, "pkg.A", "s1")
	outgoing, err := reader.EdgesFrom("c1", newSrcID, ir.EdgeCalls)
	require.NoError(t, err)
	require.Len(t, outgoing, 1)
	assert.Equal(t, ir.ComputeID("c1", "b.go", ir.LangGo, "pkg.B", "s2"), outgoing[0].Dst)
}
