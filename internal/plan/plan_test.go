package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/project-cortex/internal/ir"
	"github.com/mvp-joe/project-cortex/internal/storage"
	"github.com/mvp-joe/project-cortex/internal/walk"
)

func TestDirtyFiles_ClassifiesAddedModifiedDeleted(t *testing.T) {
	prior := []ir.File{
		{Path: "keep.go", ContentHash: "h1"},
		{Path: "changed.go", ContentHash: "h2"},
		{Path: "removed.go", ContentHash: "h3"},
	}
	current := []walk.Entry{
		{Path: "keep.go", ContentHash: "h1"},
		{Path: "changed.go", ContentHash: "h2-new"},
		{Path: "new.go", ContentHash: "h4"},
	}

	dirty := DirtyFiles(prior, current)
	assert.Equal(t, []string{"new.go"}, dirty.Added)
	assert.Equal(t, []string{"changed.go"}, dirty.Modified)
	assert.Equal(t, []string{"removed.go"}, dirty.Deleted)
}

func TestDirtyFiles_EmptyWhenNothingChanged(t *testing.T) {
	prior := []ir.File{{Path: "a.go", ContentHash: "h1"}}
	current := []walk.Entry{{Path: "a.go", ContentHash: "h1"}}

	dirty := DirtyFiles(prior, current)
	assert.Empty(t, dirty.Added)
	assert.Empty(t, dirty.Modified)
	assert.Empty(t, dirty.Deleted)
}

func seedImportGraph(t *testing.T) *storage.Reader {
	t.Helper()
	db := storage.NewTestDB(t)
	w := storage.NewWriter(db)

	files := []ir.File{
		{CommitID: "c0", Path: "leaf.go", ContentHash: "h1", Language: ir.LangGo},
		{CommitID: "c0", Path: "mid.go", ContentHash: "h2", Language: ir.LangGo},
		{CommitID: "c0", Path: "top.go", ContentHash: "h3", Language: ir.LangGo},
		{CommitID: "c0", Path: "unrelated.go", ContentHash: "h4", Language: ir.LangGo},
	}
	edges := []ir.Edge{
		{CommitID: "c0", Type: ir.EdgeImports, FileSrc: "mid.go", FileDst: "leaf.go", Resolution: ir.ResolutionSyntactic},
		{CommitID: "c0", Type: ir.EdgeImports, FileSrc: "top.go", FileDst: "mid.go", Resolution: ir.ResolutionSyntactic},
	}
	snap := ir.CommitSnapshot{CommitID: "c0", Timestamp: 1}
	_, err := w.WriteSnapshot(snap, files, nil, edges, nil)
	require.NoError(t, err)

	return storage.NewReader(db)
}

func TestImpactedFiles_BoundedHopsStopsAtOneLevel(t *testing.T) {
	reader := seedImportGraph(t)

	impacted, err := ImpactedFiles(reader, "c0", []string{"leaf.go"}, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"mid.go"}, impacted)
}

func TestImpactedFiles_UnboundedWalksWholeChain(t *testing.T) {
	reader := seedImportGraph(t)

	impacted, err := ImpactedFiles(reader, "c0", []string{"leaf.go"}, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"mid.go", "top.go"}, impacted)
}

func TestImpactedFiles_ExcludesUnrelatedFiles(t *testing.T) {
	reader := seedImportGraph(t)

	impacted, err := ImpactedFiles(reader, "c0", []string{"leaf.go"}, 0)
	require.NoError(t, err)
	assert.NotContains(t, impacted, "unrelated.go")
}

func TestBuild_ProducesParseAndDeletePriorOperations(t *testing.T) {
	reader := seedImportGraph(t)

	current := []walk.Entry{
		{Path: "leaf.go", ContentHash: "h1-changed", Language: ir.LangGo},
		{Path: "mid.go", ContentHash: "h2", Language: ir.LangGo},
		{Path: "top.go", ContentHash: "h3", Language: ir.LangGo},
		{Path: "unrelated.go", ContentHash: "h4", Language: ir.LangGo},
	}

	p, err := Build(reader, "c0", current, false)
	require.NoError(t, err)

	ops := make(map[string]Operation, len(p.Entries))
	for _, e := range p.Entries {
		ops[e.Path] = e.Op
	}

	assert.Equal(t, OpParse, ops["leaf.go"])
	assert.Equal(t, OpParse, ops["mid.go"])
	assert.Equal(t, OpKeep, ops["top.go"])
	assert.Equal(t, OpKeep, ops["unrelated.go"])
}

func TestBuild_SemanticEnabledWidensImpactToUnbounded(t *testing.T) {
	reader := seedImportGraph(t)

	current := []walk.Entry{
		{Path: "leaf.go", ContentHash: "h1-changed", Language: ir.LangGo},
		{Path: "mid.go", ContentHash: "h2", Language: ir.LangGo},
		{Path: "top.go", ContentHash: "h3", Language: ir.LangGo},
		{Path: "unrelated.go", ContentHash: "h4", Language: ir.LangGo},
	}

	p, err := Build(reader, "c0", current, true)
	require.NoError(t, err)

	ops := make(map[string]Operation, len(p.Entries))
	for _, e := range p.Entries {
		ops[e.Path] = e.Op
	}

	assert.Equal(t, OpParse, ops["top.go"])
}

func TestBuild_DeletedFileGetsDeletePriorOperation(t *testing.T) {
	reader := seedImportGraph(t)

	current := []walk.Entry{
		{Path: "mid.go", ContentHash: "h2", Language: ir.LangGo},
		{Path: "top.go", ContentHash: "h3", Language: ir.LangGo},
		{Path: "unrelated.go", ContentHash: "h4", Language: ir.LangGo},
	}

	p, err := Build(reader, "c0", current, false)
	require.NoError(t, err)

	ops := make(map[string]Operation, len(p.Entries))
	for _, e := range p.Entries {
		ops[e.Path] = e.Op
	}
	assert.Equal(t, OpDeletePrior, ops["leaf.go"])
}

func TestBuildForSameCommit_ParsesEveryFile(t *testing.T) {
	current := []walk.Entry{{Path: "a.go"}, {Path: "b.go"}}
	p := BuildForSameCommit(current)
	require.Len(t, p.Entries, 2)
	for _, e := range p.Entries {
		assert.Equal(t, OpParse, e.Op)
	}
}
