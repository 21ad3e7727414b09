// Package walk enumerates the files belonging to one commit snapshot,
// applying ignore-pragma filters and producing a content hash for every
// file that survives them. It prefers asking git directly so the file
// list is pinned to the commit rather than whatever happens to sit on
// disk at scan time; a plain filesystem walk is the deliberate fallback
// outside a VCS root.
package walk

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/mvp-joe/project-cortex/internal/ir"
)

// Entry is one discovered file, pinned to a commit, with its content hash
// already computed.
type Entry struct {
	Path        string
	ContentHash string
	Language    ir.Language
}

// compiledPattern mirrors a single ignore glob and the source string it
// was compiled from, so sub-path suffix matching can reuse the pattern.
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// Walker enumerates files for one repository root under a set of ignore
// patterns, resolving a commit-pinned snapshot when the root is a git
// worktree.
type Walker struct {
	rootDir        string
	ignorePatterns []compiledPattern
	langPatterns   map[ir.Language][]compiledPattern
}

// Option configures a Walker.
type Option func(*Walker)

// WithIgnorePatterns adds glob ignore patterns, matched the way the
// teacher's FileDiscovery matches "node_modules/**"-style entries.
func WithIgnorePatterns(patterns ...string) Option {
	return func(w *Walker) {
		for _, p := range patterns {
			if g, err := glob.Compile(p, '/'); err == nil {
				w.ignorePatterns = append(w.ignorePatterns, compiledPattern{pattern: p, glob: g})
			}
		}
	}
}

// New creates a Walker rooted at rootDir with sane default ignores
// (.git, vendor, node_modules, .codegraph) plus any caller-supplied
// patterns.
func New(rootDir string, opts ...Option) *Walker {
	w := &Walker{
		rootDir:      rootDir,
		langPatterns: defaultLanguagePatterns(),
	}
	WithIgnorePatterns(".git/**", "vendor/**", "node_modules/**", ".codegraph/**")(w)
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func defaultLanguagePatterns() map[ir.Language][]compiledPattern {
	compile := func(pats ...string) []compiledPattern {
		out := make([]compiledPattern, 0, len(pats))
		for _, p := range pats {
			if g, err := glob.Compile(p, '/'); err == nil {
				out = append(out, compiledPattern{pattern: p, glob: g})
			}
		}
		return out
	}
	return map[ir.Language][]compiledPattern{
		ir.LangGo:         compile("**/*.go"),
		ir.LangTypeScript: compile("**/*.ts", "**/*.tsx"),
		ir.LangJavaScript: compile("**/*.js", "**/*.jsx", "**/*.mjs"),
		ir.LangPython:     compile("**/*.py"),
	}
}

// Walk resolves the file list for commitID and returns one Entry per
// surviving file, with content already hashed. When rootDir is a git
// worktree, commitID selects the tree to enumerate via `git ls-tree`;
// otherwise commitID is only used for labeling and the current working
// tree is walked directly.
func (w *Walker) Walk(ctx context.Context, commitID string) ([]Entry, error) {
	if isGitRepo(w.rootDir) {
		entries, err := w.walkGit(ctx, commitID)
		if err == nil {
			return entries, nil
		}
		if isMissingRevision(err) {
			return nil, ir.NewError(ir.KindCommitMissing, "walk", commitID, err)
		}
		return nil, ir.NewError(ir.KindIoError, "walk", w.rootDir, err)
	}
	return w.walkFilesystem(ctx)
}

func isGitRepo(dir string) bool {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = dir
	out, err := cmd.Output()
	return err == nil && strings.TrimSpace(string(out)) == "true"
}

func isMissingRevision(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Not a valid object name") ||
		strings.Contains(msg, "unknown revision") ||
		strings.Contains(msg, "not a tree object")
}

// walkGit enumerates commitID's tree with `git ls-tree` and hashes each
// blob's content with `git cat-file`, so the result reflects exactly what
// was committed rather than any uncommitted edit sitting on disk.
func (w *Walker) walkGit(ctx context.Context, commitID string) ([]Entry, error) {
	cmd := exec.CommandContext(ctx, "git", "ls-tree", "-r", "--name-only", commitID)
	cmd.Dir = w.rootDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-tree %s: %w: %s", commitID, err, stderr.String())
	}

	var entries []Entry
	for _, line := range strings.Split(stdout.String(), "\n") {
		path := strings.TrimSpace(line)
		if path == "" {
			continue
		}
		if w.shouldIgnore(path) {
			continue
		}
		lang, ok := w.detectLanguage(path)
		if !ok {
			continue
		}
		hash, err := w.gitBlobHash(ctx, commitID, path)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Path: path, ContentHash: hash, Language: lang})
	}
	return entries, nil
}

func (w *Walker) gitBlobHash(ctx context.Context, commitID, path string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "cat-file", "blob", commitID+":"+path)
	cmd.Dir = w.rootDir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git cat-file %s:%s: %w", commitID, path, err)
	}
	sum := sha256.Sum256(out)
	return hex.EncodeToString(sum[:]), nil
}

// walkFilesystem is the non-git fallback: a plain recursive directory
// walk with SHA-256 content hashing.
func (w *Walker) walkFilesystem(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	err := filepath.Walk(w.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(w.rootDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if w.shouldIgnore(rel) {
			return nil
		}
		lang, ok := w.detectLanguage(rel)
		if !ok {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		sum := sha256.Sum256(data)
		entries = append(entries, Entry{Path: rel, ContentHash: hex.EncodeToString(sum[:]), Language: lang})
		return nil
	})
	if err != nil {
		return nil, ir.NewError(ir.KindIoError, "walk", w.rootDir, err)
	}
	return entries, nil
}

func (w *Walker) shouldIgnore(relPath string) bool {
	if matchesAny(relPath, w.ignorePatterns) {
		return true
	}
	return matchesAny(relPath+"/**", w.ignorePatterns)
}

func (w *Walker) detectLanguage(relPath string) (ir.Language, bool) {
	for lang, patterns := range w.langPatterns {
		// "**/*.ext" needs at least one '/', so a root-level file is also
		// tried with a leading one.
		if matchesAny(relPath, patterns) || matchesAny("/"+relPath, patterns) {
			return lang, true
		}
	}
	return ir.LangUnknown, false
}

func matchesAny(path string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
	}
	return false
}
