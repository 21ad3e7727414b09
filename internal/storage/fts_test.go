package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/project-cortex/internal/ir"
)

func TestFindSymbols_MatchesByName(t *testing.T) {
	db := NewTestDB(t)
	w := NewWriter(db)

	symbols := []ir.Symbol{
		{ID: "s1", CommitID: "c1", Kind: ir.KindFunction, Name: "ParseConfig", FQN: "pkg.ParseConfig", SigHash: "h1", Language: ir.LangGo, FilePath: "a.go", SpanStart: 1, SpanEnd: 5, Doc: "parses configuration files"},
		{ID: "s2", CommitID: "c1", Kind: ir.KindFunction, Name: "WriteLog", FQN: "pkg.WriteLog", SigHash: "h2", Language: ir.LangGo, FilePath: "a.go", SpanStart: 6, SpanEnd: 9},
	}
	_, err := w.WriteSnapshot(sampleSnapshot(), sampleFiles(), symbols, nil, nil)
	require.NoError(t, err)

	r := NewReader(db)
	results, err := r.FindSymbols("c1", "ParseConfig", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "ParseConfig", results[0].Symbol.Name)
}

func TestFindSymbols_MatchesByDoc(t *testing.T) {
	db := NewTestDB(t)
	w := NewWriter(db)

	symbols := []ir.Symbol{
		{ID: "s1", CommitID: "c1", Kind: ir.KindFunction, Name: "Load", FQN: "pkg.Load", SigHash: "h1", Language: ir.LangGo, FilePath: "a.go", SpanStart: 1, SpanEnd: 5, Doc: "loads configuration from disk"},
	}
	_, err := w.WriteSnapshot(sampleSnapshot(), sampleFiles(), symbols, nil, nil)
	require.NoError(t, err)

	r := NewReader(db)
	results, err := r.FindSymbols("c1", "configuration", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestFindSymbols_PrefixMatch(t *testing.T) {
	db := NewTestDB(t)
	w := NewWriter(db)

	symbols := []ir.Symbol{
		{ID: "s1", CommitID: "c1", Kind: ir.KindFunction, Name: "HandleRequest", FQN: "pkg.HandleRequest", SigHash: "h1", Language: ir.LangGo, FilePath: "a.go", SpanStart: 1, SpanEnd: 5},
	}
	_, err := w.WriteSnapshot(sampleSnapshot(), sampleFiles(), symbols, nil, nil)
	require.NoError(t, err)

	r := NewReader(db)
	results, err := r.FindSymbolsByPrefix("c1", "Handle", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestFindSymbols_NoMatch(t *testing.T) {
	db := NewTestDB(t)
	w := NewWriter(db)
	_, err := w.WriteSnapshot(sampleSnapshot(), sampleFiles(), sampleSymbols(), nil, nil)
	require.NoError(t, err)

	r := NewReader(db)
	results, err := r.FindSymbols("c1", "doesnotexist", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindSymbols_MatchesByOccurrenceToken(t *testing.T) {
	db := NewTestDB(t)
	w := NewWriter(db)

	symbols := []ir.Symbol{
		{ID: "s1", CommitID: "c1", Kind: ir.KindFunction, Name: "Run", FQN: "pkg.Run", SigHash: "h1", Language: ir.LangGo, FilePath: "a.go", SpanStart: 1, SpanEnd: 5},
	}
	occurrences := []ir.Occurrence{
		{CommitID: "c1", FilePath: "b.go", SymbolID: "s1", Role: ir.RoleCall, Span: ir.Span{StartLine: 3, EndLine: 3}, Token: "aliasedCallSite"},
	}
	_, err := w.WriteSnapshot(sampleSnapshot(), sampleFiles(), symbols, nil, occurrences)
	require.NoError(t, err)

	r := NewReader(db)
	results, err := r.FindSymbols("c1", "aliasedCallSite", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Run", results[0].Symbol.Name)
}

func TestFindSymbols_SyncedOnDelete(t *testing.T) {
	db := NewTestDB(t)
	w := NewWriter(db)
	_, err := w.WriteSnapshot(sampleSnapshot(), sampleFiles(), sampleSymbols(), nil, nil)
	require.NoError(t, err)

	_, err = db.Exec("DELETE FROM commit_snapshot WHERE commit_id = 'c1'")
	require.NoError(t, err)

	r := NewReader(db)
	results, err := r.FindSymbols("c1", "Foo", 10)
	require.NoError(t, err)
	assert.Empty(t, results, "deleting the owning symbol should remove its fts row via the delete trigger")
}
