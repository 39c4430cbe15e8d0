package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	openBranch   string
	openStatuses []string
)

var openCmd = &cobra.Command{
	Use:   "open <name...>",
	Short: "Fetch entities by exact name along with the relations between them",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runOpen(args)
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
	openCmd.Flags().StringVar(&openBranch, "branch", "", "branch the entities live in (default main)")
	openCmd.Flags().StringArrayVar(&openStatuses, "status", nil, "restrict to these statuses (default: all)")
}

func runOpen(names []string) {
	o, _, err := openOrchestrator()
	if err != nil {
		fail("Error: %v", err)
	}
	defer o.Close()

	branch := branchOrDefault(openBranch)
	entities, relations, err := o.OpenEntities(branch, names, openStatuses)
	if err != nil {
		fail("Error opening entities: %v", err)
	}

	if len(entities) == 0 {
		fmt.Println("no matching entities")
		return
	}

	for _, e := range entities {
		fmt.Printf("%s (type=%s, status=%s)\n", e.Name, e.EntityType, e.Status)
		for _, obs := range e.Observations {
			fmt.Printf("  - %s\n", obs.Content)
		}
	}

	if len(relations) > 0 {
		fmt.Println("\nrelations:")
		for _, rel := range relations {
			fmt.Printf("  %s --[%s]--> %s\n", rel.FromEntityName, rel.RelationType, rel.ToEntityName)
		}
	}
}
