// Package cli wires the codegraph command surface (scan, show, search,
// graph) onto cobra, generalizing the teacher's index/cache/mcp command
// set to this spec's operations.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mvp-joe/project-cortex/internal/config"
	"github.com/mvp-joe/project-cortex/internal/git"
	"github.com/mvp-joe/project-cortex/internal/ir"
)

// exitCancelled is the conventional SIGINT exit code, distinguishing a
// clean cancellation from a fatal error (exit 1) the way spec.md's
// Cancelled taxonomy entry requires.
const exitCancelled = 130

var gitOps = git.NewOperations()

var (
	cfgFile string
	verbose bool
)

// rootCmd is the base command when codegraph is called without any
// subcommand.
var rootCmd = &cobra.Command{
	Use:   "codegraph",
	Short: "Persistent, queryable code graph over a source repository",
	Long: `codegraph builds and queries a persistent code graph: symbols,
containment, and inter-symbol relationships (calls, imports,
inheritance, overrides) across TypeScript/JavaScript, Python, and Go
trees.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. It is called by main.main() exactly once.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var ierr *ir.Error
		if errors.As(err, &ierr) && ierr.Kind == ir.KindCancelled {
			os.Exit(exitCancelled)
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default .codegraph/config.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads environment variables so CODEGRAPH_STATE_DIR is
// honored even by commands that don't go through config.LoadConfigFromDir
// directly.
func initConfig() {
	viper.SetEnvPrefix("CODEGRAPH")
	viper.AutomaticEnv()
}

// loadConfig loads the project configuration rooted at the enclosing git
// worktree, the way every subcommand resolves its settings. Falling back
// to the working directory keeps commands usable outside a git repo.
func loadConfig() (*config.Config, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("get working directory: %w", err)
	}
	rootDir := gitOps.GetWorktreeRoot(cwd)
	cfg, err := config.LoadConfigFromDir(rootDir)
	if err != nil {
		return nil, "", fmt.Errorf("load configuration: %w", err)
	}
	return cfg, rootDir, nil
}
