package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/branchgraph/branchgraph/internal/graph"
	"github.com/branchgraph/branchgraph/internal/store"
)

var exportBranch string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a pretty JSON export of a branch to the backups directory",
	Run: func(cmd *cobra.Command, args []string) {
		runExport()
	},
}

var importBranch string

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import entities and relations from a pretty JSON export file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runImport(args[0])
	},
}

func init() {
	rootCmd.AddCommand(exportCmd, importCmd)
	exportCmd.Flags().StringVar(&exportBranch, "branch", "", "branch to export (default main)")
	importCmd.Flags().StringVar(&importBranch, "branch", "", "branch to import into (default main)")
}

func runExport() {
	o, cfg, err := openOrchestrator()
	if err != nil {
		fail("Error: %v", err)
	}
	defer o.Close()

	branch := branchOrDefault(exportBranch)
	path, err := o.ExportToFile(cfg.BackupsDir(), branch)
	if err != nil {
		fail("Error exporting branch: %v", err)
	}
	fmt.Printf("exported %q to %s\n", branch, path)
}

func runImport(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		fail("Error reading %s: %v", path, err)
	}

	var doc store.ExportDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		fail("Error parsing %s: %v", path, err)
	}

	o, _, err := openOrchestrator()
	if err != nil {
		fail("Error: %v", err)
	}
	defer o.Close()

	branch := importBranch
	if branch == "" {
		branch = branchOrDefault(doc.Branch)
	}

	entities := make([]graph.EntityInput, len(doc.Entities))
	for i, e := range doc.Entities {
		observations := make([]string, len(e.Observations))
		for j, obs := range e.Observations {
			observations[j] = obs.Content
		}
		entities[i] = graph.EntityInput{
			Name:         e.Name,
			Type:         e.EntityType,
			Observations: observations,
			Status:       e.Status,
			Reason:       e.StatusReason,
		}
	}

	relations := make([]store.RelationInput, len(doc.Relations))
	for i, r := range doc.Relations {
		relations[i] = store.RelationInput{From: r.FromEntityName, To: r.ToEntityName, RelationType: r.RelationType}
	}

	if err := o.Import(branch, entities, relations); err != nil {
		fail("Error importing: %v", err)
	}
	fmt.Printf("imported %d entit(y/ies) and %d relation(s) into %q\n", len(entities), len(relations), branch)
}
