package cli

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// chdir switches the test process's working directory to dir and restores
// the original on cleanup, since every CLI command resolves its root via
// os.Getwd().
func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

func resetScanFlags() {
	scanCommitFlag = ""
	scanLanguagesFlag = ""
	scanNoSemanticFlag = false
	scanJobsFlag = 1
	scanQuietFlag = true
}

func commitFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644))
	cmd := exec.Command("git", "add", name)
	cmd.Dir = dir
	require.NoError(t, cmd.Run())
	cmd = exec.Command("git", "commit", "-m", "add "+name)
	cmd.Dir = dir
	require.NoError(t, cmd.Run())
}

func TestRunScan_FirstScanWritesGraphDB(t *testing.T) {
	dir := t.TempDir()
	initGitRepo(t, dir)
	commitFile(t, dir, "a.go", "package a\n\nfunc A() {}\n")

	chdir(t, dir)
	resetScanFlags()

	err := runScan(scanCmd, nil)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, ".codegraph", "graph.db"))
	require.NoError(t, err)
}

func TestRunShowAndSearch_FindScannedSymbol(t *testing.T) {
	dir := t.TempDir()
	initGitRepo(t, dir)
	commitFile(t, dir, "a.go", "package a\n\nfunc Widget() {}\n")

	chdir(t, dir)
	resetScanFlags()
	require.NoError(t, runScan(scanCmd, nil))

	showSymbolFlag = "a.Widget"
	showCallersFlag = true
	showCalleesFlag = false
	showImportersFlag = false
	showDepthFlag = 1
	showCommitFlag = ""
	showContextFlag = -1
	require.NoError(t, runShow(showCmd, nil))

	showContextFlag = 1
	require.NoError(t, runShow(showCmd, nil))
	showContextFlag = -1

	searchLimitFlag = 20
	searchCommitFlag = ""
	require.NoError(t, runSearch(searchCmd, []string{"Widget"}))
}
