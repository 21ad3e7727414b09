package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/project-cortex/internal/harness"
	"github.com/mvp-joe/project-cortex/internal/harness/golang"
	"github.com/mvp-joe/project-cortex/internal/ir"
	"github.com/mvp-joe/project-cortex/internal/storage"
)

func newGoRegistry() *harness.Registry {
	r := harness.NewRegistry()
	r.Register(golang.New())
	return r
}

func writeFile(t *testing.T, root, path, contents string) {
	t.Helper()
	full := filepath.Join(root, path)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(contents), 0o644))
}

const pkgA = "package a\n\nfunc A() {}\n"
const pkgB = "package a\n\nfunc B() {\n\tA()\n}\n"

func TestScanner_Scan_FirstScanParsesEveryFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", pkgA)
	writeFile(t, root, "b.go", pkgB)

	db := storage.NewTestDB(t)
	s := New(root, newGoRegistry(), db, nil, nil)

	report, err := s.Scan(context.Background(), Request{CommitID: "c1", Jobs: 2})
	require.NoError(t, err)

	assert.Equal(t, "c1", report.CommitID)
	assert.Equal(t, 2, report.FilesSeen)
	assert.Equal(t, 2, report.WriteStats.FilesWritten)
	assert.NotZero(t, report.WriteStats.SymbolsWritten)
	assert.Empty(t, report.Warnings)

	phaseNames := make([]string, 0, len(report.Phases))
	for _, p := range report.Phases {
		phaseNames = append(phaseNames, p.Name)
	}
	assert.Equal(t, []string{"walk", "plan", "parse", "write"}, phaseNames)

	// a.go holds its file's module symbol and A.
	reader := storage.NewReader(db)
	syms, err := reader.SymbolsInFile("c1", "a.go")
	require.NoError(t, err)
	assert.Len(t, syms, 2)
}

func TestScanner_Scan_CancelledContextReturnsCancelledKind(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", pkgA)

	db := storage.NewTestDB(t)
	s := New(root, newGoRegistry(), db, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Scan(ctx, Request{CommitID: "c1", Jobs: 1})
	require.Error(t, err)
	var ierr *ir.Error
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, ir.KindCancelled, ierr.Kind)
}

func TestScanner_Scan_IncrementalScanKeepsUnchangedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", pkgA)
	writeFile(t, root, "b.go", pkgB)

	db := storage.NewTestDB(t)
	s := New(root, newGoRegistry(), db, nil, nil)

	_, err := s.Scan(context.Background(), Request{CommitID: "c1", Jobs: 1})
	require.NoError(t, err)

	// b.go changes; a.go is untouched and should be copied forward rather
	// than reparsed.
	writeFile(t, root, "b.go", "package a\n\nfunc B() {\n\tA()\n\tA()\n}\n")

	report, err := s.Scan(context.Background(), Request{CommitID: "c2", ParentCommitID: "c1", Jobs: 1})
	require.NoError(t, err)

	assert.Equal(t, 2, report.WriteStats.FilesWritten, "the parsed b.go row plus the copied-forward a.go row")

	reader := storage.NewReader(db)
	aSyms, err := reader.SymbolsInFile("c2", "a.go")
	require.NoError(t, err)
	require.Len(t, aSyms, 2)
	assert.Equal(t, ir.ComputeID("c2", "a.go", ir.LangGo, aSyms[0].FQN, aSyms[0].SigHash), aSyms[0].ID)

	bSyms, err := reader.SymbolsInFile("c2", "b.go")
	require.NoError(t, err)
	require.NotEmpty(t, bSyms)
}

func TestScanner_Scan_LanguageFilterNarrowsFilesSeen(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", pkgA)
	writeFile(t, root, "notes.py", "x = 1\n")

	db := storage.NewTestDB(t)
	s := New(root, newGoRegistry(), db, nil, nil)

	report, err := s.Scan(context.Background(), Request{CommitID: "c1", Jobs: 1, Languages: []ir.Language{ir.LangGo}})
	require.NoError(t, err)
	assert.Equal(t, 1, report.FilesSeen)
}

func TestScanner_Scan_UnchangedCommitReportsZeroMutations(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", pkgA)
	writeFile(t, root, "b.go", pkgB)

	db := storage.NewTestDB(t)
	s := New(root, newGoRegistry(), db, nil, nil)

	first, err := s.Scan(context.Background(), Request{CommitID: "c1", Jobs: 1})
	require.NoError(t, err)
	require.NotZero(t, first.WriteStats.FilesWritten)

	// re-scanning the same commit with nothing on disk changed must be a
	// true no-op: no delete-and-reparse, zero rows mutated.
	report, err := s.Scan(context.Background(), Request{CommitID: "c1", Jobs: 1})
	require.NoError(t, err)
	assert.Equal(t, 0, report.WriteStats.FilesWritten)
	assert.Equal(t, 0, report.WriteStats.SymbolsWritten)
	assert.Equal(t, 0, report.WriteStats.EdgesWritten)
	assert.Equal(t, 0, report.WriteStats.OccurrencesWritten)
	assert.Equal(t, 2, report.FilesSeen)

	reader := storage.NewReader(db)
	syms, err := reader.SymbolsInFile("c1", "a.go")
	require.NoError(t, err)
	assert.Len(t, syms, 2)
}

func TestScanner_Scan_SameCommitPatchDeletesAndReparses(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", pkgA)

	db := storage.NewTestDB(t)
	s := New(root, newGoRegistry(), db, nil, nil)

	_, err := s.Scan(context.Background(), Request{CommitID: "c1", Jobs: 1})
	require.NoError(t, err)

	writeFile(t, root, "a.go", "package a\n\nfunc A() {}\n\nfunc Extra() {}\n")

	report, err := s.Scan(context.Background(), Request{CommitID: "c1", ParentCommitID: "c1", Jobs: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, report.WriteStats.FilesWritten)

	reader := storage.NewReader(db)
	syms, err := reader.SymbolsInFile("c1", "a.go")
	require.NoError(t, err)
	assert.Len(t, syms, 3)
}

func TestScanner_Scan_ParseErrorSurfacesAsWarningNotFailure(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "good.go", pkgA)
	writeFile(t, root, "bad.go", "package a\n\nfunc( this is not valid go\n")

	db := storage.NewTestDB(t)
	s := New(root, newGoRegistry(), db, nil, nil)

	report, err := s.Scan(context.Background(), Request{CommitID: "c1", Jobs: 1})
	require.NoError(t, err)

	// the Go harness reports a syntax error as a FileOutput warning
	// rather than an error return, so it should surface on the report
	// without aborting the rest of the scan.
	found := false
	for _, w := range report.Warnings {
		if w.Path == "bad.go" {
			found = true
		}
	}
	assert.True(t, found, "expected a warning for bad.go, got %+v", report.Warnings)

	reader := storage.NewReader(db)
	syms, err := reader.SymbolsInFile("c1", "good.go")
	require.NoError(t, err)
	assert.Len(t, syms, 2)
}
