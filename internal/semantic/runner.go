package semantic

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/mvp-joe/project-cortex/internal/ir"
	"github.com/mvp-joe/project-cortex/internal/scip"
)

// DefaultTimeout is the per-project budget for an external semantic
// indexer invocation before the scan falls back to syntactic-only output
// for that project.
const DefaultTimeout = 5 * time.Minute

// Indexer describes one external semantic indexer binary and how to
// invoke it for a given language.
type Indexer struct {
	Language ir.Language
	Name     string // e.g. "scip-typescript", "scip-python"
	Version  string
	Args     []string // e.g. ["index"]; run with cwd set to the project root
}

// Runner invokes external semantic indexers as subprocesses, streaming
// their output and enforcing a per-project timeout, mirroring the
// reference mapper's own run_scip_typescript: shell out, check the exit
// status, then hand the produced artifact to the scip package for
// decoding.
type Runner struct {
	indexers    map[ir.Language]Indexer
	scipCLIPath string
	timeout     time.Duration
	cache       *Cache
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) { r.timeout = d }
}

// WithSCIPCLIPath overrides the default "scip" binary lookup.
func WithSCIPCLIPath(path string) RunnerOption {
	return func(r *Runner) { r.scipCLIPath = path }
}

// WithCache attaches an artifact cache so repeat runs on an unchanged
// project skip the indexer subprocess entirely.
func WithCache(c *Cache) RunnerOption {
	return func(r *Runner) { r.cache = c }
}

// NewRunner builds a Runner for the given indexers, keyed by language.
func NewRunner(indexers []Indexer, opts ...RunnerOption) *Runner {
	byLang := make(map[ir.Language]Indexer, len(indexers))
	for _, idx := range indexers {
		byLang[idx.Language] = idx
	}
	r := &Runner{indexers: byLang, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Supports reports whether a semantic indexer is configured for lang.
func (r *Runner) Supports(lang ir.Language) bool {
	_, ok := r.indexers[lang]
	return ok
}

// Run invokes the indexer configured for lang against projectPath,
// returning the decoded SCIP index. On timeout or when no indexer binary
// is found on PATH, Run returns an *ir.Error tagged IndexerTimeout or
// IndexerUnavailable so the caller can fall back to syntactic-only
// output for that project rather than aborting the scan.
func (r *Runner) Run(ctx context.Context, lang ir.Language, projectPath, fingerprint string) (scip.Index, error) {
	idx, ok := r.indexers[lang]
	if !ok {
		return scip.Index{}, ir.NewError(ir.KindIndexerUnavailable, "semantic.run", projectPath,
			fmt.Errorf("no semantic indexer configured for %s", lang))
	}

	if r.cache != nil {
		if cached, hit := r.cache.Get(lang, fingerprint); hit {
			return scip.Decode(cached)
		}
	}

	if _, err := exec.LookPath(idx.Name); err != nil {
		return scip.Index{}, ir.NewError(ir.KindIndexerUnavailable, "semantic.run", projectPath, err)
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.runIndexer(runCtx, idx, projectPath); err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return scip.Index{}, ir.NewError(ir.KindIndexerTimeout, "semantic.run", projectPath, err)
		}
		return scip.Index{}, ir.NewError(ir.KindIndexerUnavailable, "semantic.run", projectPath, err)
	}

	artifactPath := filepath.Join(projectPath, "index.scip")
	raw, err := scip.PrintJSONRaw(runCtx, r.scipCLIPath, artifactPath)
	if err != nil {
		return scip.Index{}, ir.NewError(ir.KindMapperError, "semantic.run", projectPath, err)
	}

	if r.cache != nil {
		r.cache.Put(lang, fingerprint, raw)
	}

	return scip.Decode(raw)
}

func (r *Runner) runIndexer(ctx context.Context, idx Indexer, projectPath string) error {
	log.Printf("running semantic indexer %s on %s", idx.Name, projectPath)

	cmd := exec.CommandContext(ctx, idx.Name, idx.Args...)
	cmd.Dir = projectPath
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.Stdout = log.Writer()

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %v: %w: %s", idx.Name, idx.Args, err, stderr.String())
	}
	return nil
}
