package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/project-cortex/internal/graph"
	"github.com/mvp-joe/project-cortex/internal/ir"
	"github.com/mvp-joe/project-cortex/internal/storage"
)

var (
	graphDepthFlag  int
	graphMaxFlag    int
	graphCommitFlag string
)

// graphCmd groups the traversal subcommands that need a whole loaded
// subgraph rather than a single indexed join.
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Traverse the code graph: callers, callees, cycles, path",
}

var graphCallersCmd = &cobra.Command{
	Use:   "callers <symbol-fqn>",
	Short: "List transitive callers of a symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGraphExpand(args[0], true)
	},
}

var graphCalleesCmd = &cobra.Command{
	Use:   "callees <symbol-fqn>",
	Short: "List transitive callees of a symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGraphExpand(args[0], false)
	},
}

var graphCyclesCmd = &cobra.Command{
	Use:   "cycles <symbol-fqn>",
	Short: "List simple cycles passing through a symbol",
	Args:  cobra.ExactArgs(1),
	RunE:  runGraphCycles,
}

var graphPathCmd = &cobra.Command{
	Use:   "path <from-fqn> <to-fqn>",
	Short: "Find the shortest path between two symbols",
	Args:  cobra.ExactArgs(2),
	RunE:  runGraphPath,
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.AddCommand(graphCallersCmd, graphCalleesCmd, graphCyclesCmd, graphPathCmd)

	graphCmd.PersistentFlags().StringVar(&graphCommitFlag, "commit", "", "commit id to query (default: latest scanned)")
	graphCallersCmd.Flags().IntVar(&graphDepthFlag, "depth", 0, "traversal depth (0 or less: 1; at most 10)")
	graphCalleesCmd.Flags().IntVar(&graphDepthFlag, "depth", 0, "traversal depth (0 or less: 1; at most 10)")
	graphCyclesCmd.Flags().IntVar(&graphMaxFlag, "max", 10, "maximum cycles to return")
}

// resolveSymbol looks up a symbol by fully-qualified name, erroring on a
// miss or an ambiguous match rather than silently picking one.
func resolveSymbol(reader *storage.Reader, commitID, fqn string) (ir.Symbol, error) {
	syms, err := reader.SymbolsByFQN(commitID, fqn)
	if err != nil {
		return ir.Symbol{}, err
	}
	switch len(syms) {
	case 0:
		return ir.Symbol{}, fmt.Errorf("no symbol found with fqn %q at commit %s", fqn, commitID)
	case 1:
		return syms[0], nil
	default:
		return ir.Symbol{}, fmt.Errorf("fqn %q is ambiguous: %d symbols match, pick by file path via 'show'", fqn, len(syms))
	}
}

func runGraphExpand(fqn string, callers bool) error {
	reader, _, closeDB, err := openReader()
	if err != nil {
		return err
	}
	defer closeDB()

	commitID, err := resolveCommit(reader, graphCommitFlag)
	if err != nil {
		return err
	}
	sym, err := resolveSymbol(reader, commitID, fqn)
	if err != nil {
		return err
	}

	engine := graph.New(reader, commitID)
	var results []graph.Result
	if callers {
		results, err = engine.Callers(sym.ID, graphDepthFlag)
	} else {
		results, err = engine.Callees(sym.ID, graphDepthFlag)
	}
	if err != nil {
		return err
	}
	for _, r := range results {
		fmt.Printf("%d\t%s\t%s\n", r.Depth, r.Symbol.FQN, r.Symbol.FilePath)
	}
	return nil
}

func runGraphCycles(cmd *cobra.Command, args []string) error {
	reader, _, closeDB, err := openReader()
	if err != nil {
		return err
	}
	defer closeDB()

	commitID, err := resolveCommit(reader, graphCommitFlag)
	if err != nil {
		return err
	}
	sym, err := resolveSymbol(reader, commitID, args[0])
	if err != nil {
		return err
	}

	engine := graph.New(reader, commitID)
	cycles, err := engine.CyclesThrough(sym.ID, graphMaxFlag)
	if err != nil {
		return err
	}
	if len(cycles) == 0 {
		fmt.Println("no cycles found")
		return nil
	}
	for _, c := range cycles {
		fmt.Println(joinIDs(c.SymbolIDs))
	}
	return nil
}

func runGraphPath(cmd *cobra.Command, args []string) error {
	reader, _, closeDB, err := openReader()
	if err != nil {
		return err
	}
	defer closeDB()

	commitID, err := resolveCommit(reader, graphCommitFlag)
	if err != nil {
		return err
	}
	from, err := resolveSymbol(reader, commitID, args[0])
	if err != nil {
		return err
	}
	to, err := resolveSymbol(reader, commitID, args[1])
	if err != nil {
		return err
	}

	engine := graph.New(reader, commitID)
	result, err := engine.Path(from.ID, to.ID)
	if err != nil {
		return err
	}
	if len(result.Symbols) == 0 {
		fmt.Println("no path found")
		return nil
	}
	for i, sym := range result.Symbols {
		fmt.Printf("%d\t%s\t%s\n", i, sym.FQN, sym.FilePath)
	}
	return nil
}

func joinIDs(ids []string) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += " -> "
		}
		out += id
	}
	return out
}
