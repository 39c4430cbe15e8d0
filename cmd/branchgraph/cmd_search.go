package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/branchgraph/branchgraph/internal/search"
)

var (
	searchBranch   string
	searchStatuses []string
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search entities by keyword, full-text, and substring strategies",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runSearch(strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVar(&searchBranch, "branch", "", `branch to search, or "*" for all branches (default main)`)
	searchCmd.Flags().StringArrayVar(&searchStatuses, "status", nil, "restrict to these statuses (default active)")
}

func runSearch(query string) {
	o, _, err := openOrchestrator()
	if err != nil {
		fail("Error: %v", err)
	}
	defer o.Close()

	branchFilter := searchBranch
	if branchFilter == "all" {
		branchFilter = search.AllBranches
	}

	outcome, err := o.Search(search.Options{
		Query:        query,
		BranchFilter: branchFilter,
		Statuses:     searchStatuses,
	})
	if err != nil {
		fail("Error searching: %v", err)
	}

	if len(outcome.Results) == 0 {
		fmt.Println("no matches")
		return
	}

	for _, r := range outcome.Results {
		fmt.Printf("%-30s score=%.2f type=%s branch_id=%d\n", r.Entity.Name, r.RelevanceScore, r.Entity.EntityType, r.Entity.BranchID)
	}

	if len(outcome.Relations) > 0 {
		fmt.Println("\nrelations:")
		for _, rel := range outcome.Relations {
			fmt.Printf("  %s --[%s]--> %s\n", rel.FromEntityName, rel.RelationType, rel.ToEntityName)
		}
	}

	if len(outcome.Expanded) > 0 {
		fmt.Println("\nalso similar:")
		for _, r := range outcome.Expanded {
			fmt.Printf("  %-30s score=%.2f\n", r.Entity.Name, r.RelevanceScore)
		}
	}
}
