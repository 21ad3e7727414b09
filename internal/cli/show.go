package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/project-cortex/internal/graph"
	"github.com/mvp-joe/project-cortex/internal/storage"
)

var (
	showSymbolFlag    string
	showCallersFlag   bool
	showCalleesFlag   bool
	showImportersFlag bool
	showDepthFlag     int
	showCommitFlag    string
	showContextFlag   int
)

// showCmd expands one symbol's (or file's) immediate neighborhood.
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a symbol's callers, callees, or importers",
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().StringVar(&showSymbolFlag, "symbol", "", "fully-qualified symbol name")
	showCmd.Flags().BoolVar(&showCallersFlag, "callers", false, "show callers")
	showCmd.Flags().BoolVar(&showCalleesFlag, "callees", false, "show callees")
	showCmd.Flags().BoolVar(&showImportersFlag, "importers", false, "show importing files (--symbol is interpreted as a file path)")
	showCmd.Flags().IntVar(&showDepthFlag, "depth", 1, "traversal depth")
	showCmd.Flags().StringVar(&showCommitFlag, "commit", "", "commit id to query (default: latest scanned)")
	showCmd.Flags().IntVar(&showContextFlag, "context", -1, "print a source snippet for the target symbol, padded by this many lines")
}

func openReader() (*storage.Reader, string, func(), error) {
	cfg, rootDir, err := loadConfig()
	if err != nil {
		return nil, "", nil, err
	}
	stateDir := cfg.Store.StateDir
	if !filepath.IsAbs(stateDir) {
		stateDir = filepath.Join(rootDir, stateDir)
	}
	db, err := storage.Open(filepath.Join(stateDir, "graph.db"))
	if err != nil {
		return nil, "", nil, fmt.Errorf("open graph store: %w", err)
	}
	return storage.NewReader(db), rootDir, func() { db.Close() }, nil
}

func resolveCommit(reader *storage.Reader, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	snap, err := reader.LatestCommit()
	if err != nil {
		return "", fmt.Errorf("no scanned commit found; run 'codegraph scan' first: %w", err)
	}
	return snap.CommitID, nil
}

func runShow(cmd *cobra.Command, args []string) error {
	if showSymbolFlag == "" {
		return fmt.Errorf("--symbol is required")
	}
	exclusive := 0
	for _, b := range []bool{showCallersFlag, showCalleesFlag, showImportersFlag} {
		if b {
			exclusive++
		}
	}
	if exclusive != 1 {
		return fmt.Errorf("exactly one of --callers, --callees, --importers is required")
	}

	reader, rootDir, closeDB, err := openReader()
	if err != nil {
		return err
	}
	defer closeDB()

	commitID, err := resolveCommit(reader, showCommitFlag)
	if err != nil {
		return err
	}
	engine := graph.New(reader, commitID)
	var extractor *graph.ContextExtractor
	if showContextFlag >= 0 {
		extractor = graph.NewContextExtractor(rootDir)
	}

	if showImportersFlag {
		results, err := engine.Importers(showSymbolFlag, showDepthFlag)
		if err != nil {
			return err
		}
		for _, r := range results {
			fmt.Printf("%d\t%s\n", r.Depth, r.Path)
		}
		return nil
	}

	syms, err := reader.SymbolsByFQN(commitID, showSymbolFlag)
	if err != nil {
		return err
	}
	if len(syms) == 0 {
		return fmt.Errorf("no symbol found with fqn %q at commit %s", showSymbolFlag, commitID)
	}

	for _, sym := range syms {
		var results []graph.Result
		if showCallersFlag {
			results, err = engine.Callers(sym.ID, showDepthFlag)
		} else {
			results, err = engine.Callees(sym.ID, showDepthFlag)
		}
		if err != nil {
			return err
		}
		if len(syms) > 1 {
			fmt.Printf("# %s (%s:%d)\n", sym.ID, sym.FilePath, sym.SpanStart)
		}
		if extractor != nil {
			snippet, err := extractor.Extract(sym.FilePath, sym.SpanStart, sym.SpanEnd, showContextFlag)
			if err != nil {
				return fmt.Errorf("extract context for %s: %w", sym.ID, err)
			}
			fmt.Println(snippet)
		}
		for _, r := range results {
			fmt.Printf("%d\t%s\t%s\n", r.Depth, r.Symbol.FQN, r.Symbol.FilePath)
		}
	}
	return nil
}
