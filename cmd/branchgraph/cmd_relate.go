package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/branchgraph/branchgraph/internal/store"
)

var (
	relateBranch string
	relateType   string
	relateDelete bool
)

var relateCmd = &cobra.Command{
	Use:   "relate <from> <to>",
	Short: "Create (or, with --delete, remove) a typed relation between two entities",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		runRelate(args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(relateCmd)
	relateCmd.Flags().StringVar(&relateBranch, "branch", "", "branch both entities live in (default main)")
	relateCmd.Flags().StringVar(&relateType, "type", "related_to", "relation type")
	relateCmd.Flags().BoolVar(&relateDelete, "delete", false, "delete the relation instead of creating it")
}

func runRelate(from, to string) {
	o, _, err := openOrchestrator()
	if err != nil {
		fail("Error: %v", err)
	}
	defer o.Close()

	branch := branchOrDefault(relateBranch)
	input := []store.RelationInput{{From: from, To: to, RelationType: relateType}}

	if relateDelete {
		if err := o.DeleteRelations(branch, input); err != nil {
			fail("Error deleting relation: %v", err)
		}
		fmt.Printf("deleted relation %s --[%s]--> %s\n", from, relateType, to)
		return
	}

	created, err := o.CreateRelations(branch, input)
	if err != nil {
		fail("Error creating relation: %v", err)
	}
	if len(created) == 0 {
		fmt.Println("no relation created (endpoints not found, or it already exists)")
		return
	}
	fmt.Printf("created relation %s --[%s]--> %s\n", from, relateType, to)
}
