package walk

import (
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/mvp-joe/project-cortex/internal/ir"
)

// HeadCommit resolves the commit id currently checked out at rootDir.
// Failure means there is no usable VCS root to resolve HEAD from (no
// .git, or a repository with no commits yet), which the CLI can only
// recover from if the caller supplies an explicit --commit.
func HeadCommit(rootDir string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "HEAD")
	cmd.Dir = rootDir
	out, err := cmd.Output()
	if err != nil {
		return "", ir.NewError(ir.KindRepoNotFound, "walk", rootDir, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// ParentCommit resolves commitID's first parent, or "" for a root commit
// or a non-git directory.
func ParentCommit(rootDir, commitID string) string {
	cmd := exec.Command("git", "rev-parse", commitID+"^")
	cmd.Dir = rootDir
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// CommitTimestamp resolves commitID's committer time so a snapshot is
// stamped with when the commit was actually made rather than when it was
// scanned. Falls back to the current time outside a git repo, where
// commitID is caller-supplied rather than a real revision.
func CommitTimestamp(rootDir, commitID string) int64 {
	cmd := exec.Command("git", "show", "-s", "--format=%ct", commitID)
	cmd.Dir = rootDir
	out, err := cmd.Output()
	if err != nil {
		return time.Now().Unix()
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(string(out)), 10, 64)
	if err != nil {
		return time.Now().Unix()
	}
	return ts
}
