// Package scan sequences one commit's worth of work end to end: walk
// (every file of the commit), plan, parse, optional semantic run, map,
// and write, reporting
// per-phase timing and row counts the way the orchestrator contract
// requires.
package scan

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/mvp-joe/project-cortex/internal/harness"
	"github.com/mvp-joe/project-cortex/internal/ir"
	"github.com/mvp-joe/project-cortex/internal/plan"
	"github.com/mvp-joe/project-cortex/internal/semantic"
	"github.com/mvp-joe/project-cortex/internal/storage"
	"github.com/mvp-joe/project-cortex/internal/walk"
)

// Request parameterizes one scan.
type Request struct {
	CommitID       string
	ParentCommitID string // empty: resolved from the store's latest commit
	Languages      []ir.Language
	NoSemantic     bool
	Jobs           int
}

// PhaseTiming records how long one orchestrator phase took.
type PhaseTiming struct {
	Name     string
	Duration time.Duration
}

// Report summarizes one scan's outcome.
type Report struct {
	CommitID   string
	Phases     []PhaseTiming
	FilesSeen  int
	WriteStats storage.WriteResult
	Warnings   []ir.Warning
}

// Progress receives phase and per-file callbacks during a scan, the way
// the teacher's indexer hands a GraphProgressReporter to its builder.
// Implementations must tolerate concurrent OnFileParsed calls from the
// parse worker pool.
type Progress interface {
	OnPhaseStart(phase string, total int)
	OnFileParsed(path string)
}

// noopProgress discards every callback; the default when no Progress is
// supplied.
type noopProgress struct{}

func (noopProgress) OnPhaseStart(string, int) {}
func (noopProgress) OnFileParsed(string)      {}

// Scanner owns the components one scan pipelines through.
type Scanner struct {
	rootDir         string
	registry        *harness.Registry
	walker          *walk.Walker
	reader          *storage.Reader
	writer          *storage.Writer
	runner          *semantic.Runner
	semanticConfigs map[ir.Language]semantic.Indexer
	progress        Progress
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithProgress attaches a Progress sink for phase and per-file callbacks.
func WithProgress(p Progress) Option {
	return func(s *Scanner) { s.progress = p }
}

// New builds a Scanner rooted at rootDir, backed by db and a language
// registry, and optionally a semantic indexer runner (nil disables
// semantic enrichment entirely, as if every scan passed NoSemantic).
func New(rootDir string, registry *harness.Registry, db *sql.DB, runner *semantic.Runner, semanticConfigs []semantic.Indexer, opts ...Option) *Scanner {
	configs := make(map[ir.Language]semantic.Indexer, len(semanticConfigs))
	for _, c := range semanticConfigs {
		configs[c.Language] = c
	}
	s := &Scanner{
		rootDir:         rootDir,
		registry:        registry,
		walker:          walk.New(rootDir),
		reader:          storage.NewReader(db),
		writer:          storage.NewWriter(db),
		runner:          runner,
		semanticConfigs: configs,
		progress:        noopProgress{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// filterByLanguage narrows entries to the requested languages, preserving
// walk order.
func filterByLanguage(entries []walk.Entry, langs []ir.Language) []walk.Entry {
	want := make(map[ir.Language]bool, len(langs))
	for _, l := range langs {
		want[l] = true
	}
	filtered := make([]walk.Entry, 0, len(entries))
	for _, e := range entries {
		if want[e.Language] {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

func (s *Scanner) timePhase(report *Report, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	report.Phases = append(report.Phases, PhaseTiming{Name: name, Duration: time.Since(start)})
	return err
}

// phaseError wraps a phase failure, reclassifying it as KindCancelled when
// ctx was cancelled before or during the phase, rather than reporting the
// cancellation-induced fallout (a half-finished walk, an aborted write) as
// an ordinary fatal error.
func (s *Scanner) phaseError(ctx context.Context, phase string, err error) error {
	if ctx.Err() != nil {
		return ir.NewError(ir.KindCancelled, phase, "", ctx.Err())
	}
	return fmt.Errorf("%s phase: %w", phase, err)
}

// Scan runs one commit's worth of work through the pipeline. On a fatal
// error in any phase, no partial commit_snapshot is left behind: the
// write phase either fully commits or is never reached.
func (s *Scanner) Scan(ctx context.Context, req Request) (Report, error) {
	report := Report{CommitID: req.CommitID}
	if req.Jobs <= 0 {
		req.Jobs = runtime.NumCPU()
	}

	s.progress.OnPhaseStart("walk", 0)
	var entries []walk.Entry
	err := s.timePhase(&report, "walk", func() error {
		var walkErr error
		entries, walkErr = s.walker.Walk(ctx, req.CommitID)
		return walkErr
	})
	if err != nil {
		return report, s.phaseError(ctx, "walk", err)
	}
	if len(req.Languages) > 0 {
		entries = filterByLanguage(entries, req.Languages)
	}
	report.FilesSeen = len(entries)

	parentCommitID := req.ParentCommitID
	if parentCommitID == "" {
		if latest, err := s.reader.LatestCommit(); err == nil {
			parentCommitID = latest.CommitID
		}
	}

	hasCommit, err := s.reader.HasCommit(req.CommitID)
	if err != nil {
		return report, s.phaseError(ctx, "plan", err)
	}

	s.progress.OnPhaseStart("plan", 0)
	var p plan.Plan
	var samePatch, unchanged bool
	err = s.timePhase(&report, "plan", func() error {
		if hasCommit {
			var uerr error
			unchanged, uerr = s.commitUnchanged(req.CommitID, entries)
			if uerr != nil {
				return uerr
			}
			if unchanged {
				return nil
			}
			samePatch = true
			if err := s.writer.DeletePriorRows(req.CommitID); err != nil {
				return fmt.Errorf("delete prior rows for same-commit patch: %w", err)
			}
			p = plan.BuildForSameCommit(entries)
			return nil
		}
		built, err := plan.Build(s.reader, parentCommitID, entries, !req.NoSemantic)
		if err != nil {
			return err
		}
		p = built
		return nil
	})
	if err != nil {
		return report, s.phaseError(ctx, "plan", err)
	}
	if unchanged {
		// the commit is already fully and identically present; re-scanning
		// it does zero work rather than reparsing every file.
		return report, nil
	}

	entryByPath := make(map[string]walk.Entry, len(entries))
	for _, e := range entries {
		entryByPath[e.Path] = e
	}

	var toParse, toKeep []string
	for _, pe := range p.Entries {
		switch pe.Op {
		case plan.OpParse:
			toParse = append(toParse, pe.Path)
		case plan.OpKeep:
			toKeep = append(toKeep, pe.Path)
		}
	}

	var (
		symbols     []ir.Symbol
		edges       []ir.Edge
		occurrences []ir.Occurrence
		files       []ir.File
		warnings    []ir.Warning
	)
	err = s.timePhase(&report, "parse", func() error {
		s.progress.OnPhaseStart("parse", len(toParse))
		outputs, parseWarnings, perr := s.parseFiles(ctx, req.CommitID, toParse, req.Jobs)
		warnings = append(warnings, parseWarnings...)
		if perr != nil {
			return perr
		}
		for path, out := range outputs {
			entry := entryByPath[path]
			files = append(files, ir.File{CommitID: req.CommitID, Path: path, ContentHash: entry.ContentHash, Language: entry.Language})
			symbols = append(symbols, out.Symbols...)
			edges = append(edges, out.Edges...)
			occurrences = append(occurrences, out.Occurrences...)
			warnings = append(warnings, out.Warnings...)
		}
		return nil
	})
	if err != nil {
		return report, s.phaseError(ctx, "parse", err)
	}

	if !req.NoSemantic && s.runner != nil {
		s.progress.OnPhaseStart("semantic", 0)
		err = s.timePhase(&report, "semantic", func() error {
			semEdges, semWarnings, serr := s.runSemantic(ctx, req, entries)
			if serr != nil {
				return serr
			}
			warnings = append(warnings, semWarnings...)
			edges = semantic.Reconcile(edges, semEdges.edges)
			edges = append(edges, semEdges.edges...)
			symbols = append(symbols, semEdges.symbols...)
			occurrences = append(occurrences, semEdges.occurrences...)
			return nil
		})
		if err != nil {
			return report, s.phaseError(ctx, "semantic", err)
		}
	}

	s.progress.OnPhaseStart("write", 0)
	err = s.timePhase(&report, "write", func() error {
		snap := ir.CommitSnapshot{CommitID: req.CommitID, Parent: parentCommitID, Timestamp: walk.CommitTimestamp(s.rootDir, req.CommitID)}
		result, werr := s.writer.WriteSnapshot(snap, files, symbols, edges, occurrences)
		if werr != nil {
			return werr
		}
		report.WriteStats = result

		if len(toKeep) > 0 && parentCommitID != "" && !samePatch {
			keepResult, cerr := s.writer.CopyForward(s.reader, parentCommitID, req.CommitID, toKeep)
			if cerr != nil {
				return fmt.Errorf("copy forward unchanged files: %w", cerr)
			}
			report.WriteStats.FilesWritten += keepResult.FilesWritten
			report.WriteStats.SymbolsWritten += keepResult.SymbolsWritten
			report.WriteStats.EdgesWritten += keepResult.EdgesWritten
			report.WriteStats.OccurrencesWritten += keepResult.OccurrencesWritten
		}
		return nil
	})
	if err != nil {
		return report, s.phaseError(ctx, "write", err)
	}

	report.Warnings = warnings
	return report, nil
}

// parseFiles reads and parses toParse concurrently, bounded by jobs
// in-flight workers at once, mirroring the worker-pool shape of a
// bounded WaitGroup draining a buffered work channel.
func (s *Scanner) parseFiles(ctx context.Context, commitID string, paths []string, jobs int) (map[string]ir.FileOutput, []ir.Warning, error) {
	type job struct {
		path string
	}
	type result struct {
		path string
		out  ir.FileOutput
		err  error
	}

	jobsCh := make(chan job, len(paths))
	resultsCh := make(chan result, len(paths))

	var wg sync.WaitGroup
	for i := 0; i < jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobsCh {
				out, err := s.parseOne(ctx, commitID, j.path)
				resultsCh <- result{path: j.path, out: out, err: err}
			}
		}()
	}
	for _, path := range paths {
		jobsCh <- job{path: path}
	}
	close(jobsCh)

	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	outputs := make(map[string]ir.FileOutput, len(paths))
	var warnings []ir.Warning
	var firstErr error
	for r := range resultsCh {
		s.progress.OnFileParsed(r.path)
		if r.err != nil {
			kind := errKind(r.err)
			if ir.IsFatal(kind) {
				if firstErr == nil {
					firstErr = r.err
				}
				continue
			}
			warnings = append(warnings, ir.Warning{Kind: kind, Path: r.path, Msg: r.err.Error()})
			continue
		}
		outputs[r.path] = r.out
	}
	if firstErr != nil {
		return nil, warnings, firstErr
	}
	return outputs, warnings, nil
}

func (s *Scanner) parseOne(ctx context.Context, commitID, path string) (ir.FileOutput, error) {
	h, ok := s.registry.For(path)
	if !ok {
		return ir.FileOutput{}, nil
	}
	source, err := os.ReadFile(filepath.Join(s.rootDir, path))
	if err != nil {
		return ir.FileOutput{}, ir.NewError(ir.KindIoError, "parse", path, err)
	}
	out, err := h.Parse(ctx, commitID, path, source)
	if err != nil {
		return ir.FileOutput{}, ir.NewError(ir.KindParseError, "parse", path, err)
	}
	return out, nil
}

// commitUnchanged reports whether commitID's stored file set is identical
// (same paths, same content hashes) to the current walk entries, the check
// that lets a re-scan of an already-complete commit report zero mutations
// instead of unconditionally deleting and reparsing it. Any mismatch means
// the prior write never finished (a crash mid-scan), so the caller falls
// back to DeletePriorRows + a full re-patch of the commit.
func (s *Scanner) commitUnchanged(commitID string, entries []walk.Entry) (bool, error) {
	stored, err := s.reader.FilesAt(commitID)
	if err != nil {
		return false, err
	}
	if len(stored) != len(entries) {
		return false, nil
	}
	storedHashes := make(map[string]string, len(stored))
	for _, f := range stored {
		storedHashes[f.Path] = f.ContentHash
	}
	for _, e := range entries {
		hash, ok := storedHashes[e.Path]
		if !ok || hash != e.ContentHash {
			return false, nil
		}
	}
	return true, nil
}

func errKind(err error) ir.ErrorKind {
	var cgErr *ir.Error
	if e, ok := err.(*ir.Error); ok {
		cgErr = e
	}
	if cgErr == nil {
		return ir.KindParseError
	}
	return cgErr.Kind
}

type semanticResult struct {
	edges       []ir.Edge
	symbols     []ir.Symbol
	occurrences []ir.Occurrence
}

// runSemantic invokes the semantic indexer once per language present in
// entries, mapping each result through the mapper and returning the
// aggregate of every language's output.
func (s *Scanner) runSemantic(ctx context.Context, req Request, entries []walk.Entry) (semanticResult, []ir.Warning, error) {
	var out semanticResult
	var warnings []ir.Warning

	byLang := make(map[ir.Language]map[string]string)
	for _, e := range entries {
		if byLang[e.Language] == nil {
			byLang[e.Language] = make(map[string]string)
		}
		byLang[e.Language][e.Path] = e.ContentHash
	}

	for lang, hashes := range byLang {
		if !s.runner.Supports(lang) {
			continue
		}
		cfg, ok := s.semanticConfigs[lang]
		if !ok {
			continue
		}
		fingerprint := semantic.Fingerprint(hashes, cfg.Version)
		idx, err := s.runner.Run(ctx, lang, s.rootDir, fingerprint)
		if err != nil {
			if cgErr, ok := err.(*ir.Error); ok && !ir.IsFatal(cgErr.Kind) {
				warnings = append(warnings, ir.Warning{Kind: cgErr.Kind, Path: s.rootDir, Msg: cgErr.Error()})
				continue
			}
			return semanticResult{}, warnings, fmt.Errorf("run semantic indexer for %s: %w", lang, err)
		}

		mapper := semantic.New(cfg.Name, cfg.Version)
		mapped := mapper.Map(idx, req.CommitID, lang)
		out.edges = append(out.edges, mapped.Edges...)
		out.symbols = append(out.symbols, mapped.Symbols...)
		out.occurrences = append(out.occurrences, mapped.Occurrences...)
		warnings = append(warnings, mapped.Warnings...)
	}

	return out, warnings, nil
}
