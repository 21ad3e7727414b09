package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/project-cortex/internal/ir"
)

func writeNSnapshots(t *testing.T, w *Writer, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := w.WriteSnapshot(ir.CommitSnapshot{CommitID: commitName(i), Timestamp: int64(i)}, nil, nil, nil, nil)
		require.NoError(t, err)
	}
}

func commitName(i int) string {
	return "commit-" + string(rune('a'+i))
}

func TestDeleteStaleCommits_KeepsLatestN(t *testing.T) {
	db := NewTestDB(t)
	w := NewWriter(db)
	writeNSnapshots(t, w, 8)

	evicted, err := DeleteStaleCommits(db, RetentionPolicy{KeepLatest: 5})
	require.NoError(t, err)
	assert.Len(t, evicted, 3)

	var remaining int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM commit_snapshot").Scan(&remaining))
	assert.Equal(t, 5, remaining)
}

func TestDeleteStaleCommits_ProtectsListedCommits(t *testing.T) {
	db := NewTestDB(t)
	w := NewWriter(db)
	writeNSnapshots(t, w, 6)

	evicted, err := DeleteStaleCommits(db, RetentionPolicy{KeepLatest: 1, ProtectCommitIDs: []string{commitName(0)}})
	require.NoError(t, err)
	assert.NotContains(t, evicted, commitName(0))

	has, err := NewReader(db).HasCommit(commitName(0))
	require.NoError(t, err)
	assert.True(t, has)
}

func TestDeleteStaleCommits_NoOpWhenUnderLimit(t *testing.T) {
	db := NewTestDB(t)
	w := NewWriter(db)
	writeNSnapshots(t, w, 2)

	evicted, err := DeleteStaleCommits(db, RetentionPolicy{KeepLatest: 5})
	require.NoError(t, err)
	assert.Empty(t, evicted)
}

func TestDeleteStaleCommits_CascadesToDependents(t *testing.T) {
	db := NewTestDB(t)
	w := NewWriter(db)
	writeNSnapshots(t, w, 2)

	_, err := w.writeFileBatch(commitName(0), []ir.File{{CommitID: commitName(0), Path: "a.go", ContentHash: "h", Language: ir.LangGo}})
	require.NoError(t, err)

	_, err = DeleteStaleCommits(db, RetentionPolicy{KeepLatest: 1})
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM file WHERE commit_id = ?", commitName(0)).Scan(&count))
	assert.Equal(t, 0, count)
}
