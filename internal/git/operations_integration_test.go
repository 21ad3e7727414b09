package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration tests for real GitOperations implementation.
// These tests use actual git commands and run sequentially (NO t.Parallel()).

func TestGitOpsIntegration(t *testing.T) {
	// NO t.Parallel() - these tests run sequentially to avoid resource exhaustion

	gitOps := NewOperations()

	t.Run("GetWorktreeRoot from repo root", func(t *testing.T) {
		dir := createTestGitRepo(t)
		root := gitOps.GetWorktreeRoot(dir)
		// macOS: /var/folders is symlinked to /private/var/folders
		// Use filepath.EvalSymlinks to resolve
		dirResolved, _ := filepath.EvalSymlinks(dir)
		rootResolved, _ := filepath.EvalSymlinks(root)
		assert.Equal(t, dirResolved, rootResolved)
	})

	t.Run("GetWorktreeRoot from subdirectory", func(t *testing.T) {
		dir := createTestGitRepo(t)
		subdir := filepath.Join(dir, "subdir")
		require.NoError(t, os.MkdirAll(subdir, 0755))
		root := gitOps.GetWorktreeRoot(subdir)
		// Resolve symlinks for comparison
		dirResolved, _ := filepath.EvalSymlinks(dir)
		rootResolved, _ := filepath.EvalSymlinks(root)
		assert.Equal(t, dirResolved, rootResolved)
	})

	t.Run("GetWorktreeRoot non-git directory", func(t *testing.T) {
		dir := t.TempDir()
		root := gitOps.GetWorktreeRoot(dir)
		assert.Equal(t, dir, root)
	})
}

// Test helpers

func createTestGitRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	// Initialize repo
	cmd := exec.Command("git", "init", "-b", "main")
	cmd.Dir = dir
	require.NoError(t, cmd.Run(), "git init failed")

	// Configure git identity
	runGitCmd(t, dir, "config", "user.email", "test@example.com")
	runGitCmd(t, dir, "config", "user.name", "Test User")

	// Create initial commit
	testFile := filepath.Join(dir, "README.md")
	require.NoError(t, os.WriteFile(testFile, []byte("# Test\n"), 0644))
	runGitCmd(t, dir, "add", "README.md")
	runGitCmd(t, dir, "commit", "-m", "Initial commit")

	return dir
}

func runGitCmd(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, string(output))
}
