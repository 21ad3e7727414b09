package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/project-cortex/internal/harness"
	"github.com/mvp-joe/project-cortex/internal/harness/golang"
	"github.com/mvp-joe/project-cortex/internal/harness/python"
	"github.com/mvp-joe/project-cortex/internal/harness/typescript"
	"github.com/mvp-joe/project-cortex/internal/ir"
	"github.com/mvp-joe/project-cortex/internal/scan"
	"github.com/mvp-joe/project-cortex/internal/semantic"
	"github.com/mvp-joe/project-cortex/internal/storage"
	"github.com/mvp-joe/project-cortex/internal/walk"
)

var (
	scanCommitFlag     string
	scanLanguagesFlag  string
	scanNoSemanticFlag bool
	scanJobsFlag       int
	scanQuietFlag      bool
)

// scanCmd walks, parses, optionally semantically enriches, and writes one
// commit's worth of graph data.
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Index one commit's worth of code into the graph store",
	Long: `scan walks the repository, parses every file with a registered
language harness, optionally enriches the result with an external
semantic indexer, and writes the delta to .codegraph/graph.db.

Exit codes: 0 on success, 1 on a fatal error, 2 when the scan completed
with warnings.`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVar(&scanCommitFlag, "commit", "", "commit id to scan (default: HEAD)")
	scanCmd.Flags().StringVar(&scanLanguagesFlag, "languages", "", "comma-separated language filter, e.g. go,python")
	scanCmd.Flags().BoolVar(&scanNoSemanticFlag, "no-semantic", false, "skip external semantic indexers")
	scanCmd.Flags().IntVar(&scanJobsFlag, "jobs", 0, "parse worker count (default: runtime.NumCPU())")
	scanCmd.Flags().BoolVarP(&scanQuietFlag, "quiet", "q", false, "suppress progress output")
}

func newHarnessRegistry() *harness.Registry {
	r := harness.NewRegistry()
	r.Register(golang.New())
	r.Register(python.New())
	r.Register(typescript.New())
	return r
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\ninterrupted, cancelling scan...")
		cancel()
	}()

	cfg, rootDir, err := loadConfig()
	if err != nil {
		return err
	}

	commitID := scanCommitFlag
	if commitID == "" {
		commitID, err = walk.HeadCommit(rootDir)
		if err != nil {
			return fmt.Errorf("resolve HEAD commit (pass --commit explicitly outside a git repo): %w", err)
		}
	}
	parentCommitID := walk.ParentCommit(rootDir, commitID)

	var languages []ir.Language
	if scanLanguagesFlag != "" {
		for _, l := range strings.Split(scanLanguagesFlag, ",") {
			languages = append(languages, ir.Language(strings.TrimSpace(strings.ToLower(l))))
		}
	} else {
		languages = cfg.ScanLanguages()
	}

	stateDir := cfg.Store.StateDir
	if !filepath.IsAbs(stateDir) {
		stateDir = filepath.Join(rootDir, stateDir)
	}
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	db, err := storage.Open(filepath.Join(stateDir, "graph.db"))
	if err != nil {
		return fmt.Errorf("open graph store: %w", err)
	}
	defer db.Close()

	var runner *semantic.Runner
	indexers := cfg.SemanticIndexers()
	if len(indexers) > 0 && !scanNoSemanticFlag {
		cache, cerr := semantic.NewCache(stateDir, 64)
		if cerr != nil {
			return fmt.Errorf("open semantic cache: %w", cerr)
		}
		runner = semantic.NewRunner(indexers,
			semantic.WithTimeout(cfg.Semantic.Timeout()),
			semantic.WithCache(cache),
		)
	}

	jobs := scanJobsFlag
	if jobs == 0 {
		jobs = cfg.Scan.Jobs
	}

	reporter := NewScanProgressReporter(scanQuietFlag)
	scanner := scan.New(rootDir, newHarnessRegistry(), db, runner, indexers, scan.WithProgress(reporter))

	report, err := scanner.Scan(ctx, scan.Request{
		CommitID:       commitID,
		ParentCommitID: parentCommitID,
		Languages:      languages,
		NoSemantic:     scanNoSemanticFlag,
		Jobs:           jobs,
	})
	reporter.OnReport(report)
	if err != nil {
		return err
	}
	if len(report.Warnings) > 0 {
		os.Exit(2)
	}
	return nil
}
