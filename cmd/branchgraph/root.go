package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/branchgraph/branchgraph/internal/graph"
	"github.com/branchgraph/branchgraph/internal/logging"
	"github.com/branchgraph/branchgraph/internal/store"
	"github.com/branchgraph/branchgraph/pkg/config"
)

var (
	// Version is set during build.
	Version = "0.1.0"

	quiet bool
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "branchgraph",
	Short: "A branch-partitioned knowledge graph for AI agents",
	Long: `branchgraph is a local, offline knowledge store: a branch-partitioned
graph of named entities with ordered observations, status, and cross-branch
references, plus typed relations, queryable through multi-strategy ranked
text search.

Examples:
  branchgraph remember widget --type tool --observation "a useful gadget"
  branchgraph search "useful gadget"
  branchgraph relate widget gizmo --type related_to
  branchgraph open widget gizmo`,
	Version: Version,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().String("log_level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "suppress non-essential output")
}

// openOrchestrator loads configuration, opens the Store (running legacy
// migration when enabled), and constructs an Orchestrator. Callers must
// call Close() when done.
func openOrchestrator() (*graph.Orchestrator, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if lvl, _ := rootCmd.PersistentFlags().GetString("log_level"); lvl != "" {
		cfg.Logging.Level = lvl
	}

	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: "stderr"})

	if err := cfg.EnsureMemoryDir(); err != nil {
		return nil, nil, err
	}

	s, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}

	if cfg.Memory.AutoMigrate {
		if _, err := s.RunMigration(cfg.Memory.Path, cfg.BackupsDir()); err != nil {
			s.Close()
			return nil, nil, fmt.Errorf("legacy migration failed: %w", err)
		}
	}

	o := graph.New(s, graph.Options{
		BackupsDir:          cfg.BackupsDir(),
		MaxBackups:          cfg.Memory.MaxBackups,
		AutoCreateRelations: cfg.Indexer.AutoCreateRelations,
	})
	return o, cfg, nil
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
