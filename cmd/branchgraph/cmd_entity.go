package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/branchgraph/branchgraph/internal/graph"
)

var (
	rememberBranch       string
	rememberType         string
	rememberObservations []string
	rememberStatus       string
	rememberKeywords     []string
)

var rememberCmd = &cobra.Command{
	Use:   "remember <name>",
	Short: "Create an entity with observations",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runRemember(args[0])
	},
}

var observeBranch string

var observeCmd = &cobra.Command{
	Use:   "observe <name> <observation...>",
	Short: "Append observations to an existing entity",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		runObserve(args[0], args[1:])
	},
}

var (
	forgetBranch       string
	forgetObservations []string
)

var forgetCmd = &cobra.Command{
	Use:   "forget <name...>",
	Short: "Delete entities, or specific observations with --observation",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runForget(args)
	},
}

var (
	updateBranch string
	updateStatus string
	updateReason string
)

var updateCmd = &cobra.Command{
	Use:   "update <name>",
	Short: "Change an entity's status",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runUpdate(args[0])
	},
}

func init() {
	rootCmd.AddCommand(rememberCmd, observeCmd, forgetCmd, updateCmd)

	rememberCmd.Flags().StringVar(&rememberBranch, "branch", "", "branch to create the entity in (default main)")
	rememberCmd.Flags().StringVar(&rememberType, "type", "", "entity type")
	rememberCmd.Flags().StringArrayVar(&rememberObservations, "observation", nil, "an observation (repeatable)")
	rememberCmd.Flags().StringVar(&rememberStatus, "status", "", "initial status (default active)")
	rememberCmd.Flags().StringArrayVar(&rememberKeywords, "keyword", nil, "an explicit keyword (repeatable)")

	observeCmd.Flags().StringVar(&observeBranch, "branch", "", "branch the entity lives in (default main)")

	forgetCmd.Flags().StringVar(&forgetBranch, "branch", "", "branch the entities live in (default main)")
	forgetCmd.Flags().StringArrayVar(&forgetObservations, "observation", nil, "delete only this observation from a single entity (repeatable)")

	updateCmd.Flags().StringVar(&updateBranch, "branch", "", "branch the entity lives in (default main)")
	updateCmd.Flags().StringVar(&updateStatus, "status", "", "new status")
	updateCmd.Flags().StringVar(&updateReason, "reason", "", "reason for the status change")
}

func branchOrDefault(b string) string {
	if strings.TrimSpace(b) == "" {
		return "main"
	}
	return b
}

func runRemember(name string) {
	if len(rememberObservations) == 0 {
		fail("Error: at least one --observation is required")
	}

	o, _, err := openOrchestrator()
	if err != nil {
		fail("Error: %v", err)
	}
	defer o.Close()

	branch := branchOrDefault(rememberBranch)
	created, err := o.CreateEntities(branch, []graph.EntityInput{{
		Name:         name,
		Type:         rememberType,
		Observations: rememberObservations,
		Status:       rememberStatus,
		Keywords:     rememberKeywords,
	}})
	if err != nil {
		fail("Error creating entity: %v", err)
	}
	if len(created) == 0 {
		fail("Error: entity was not created")
	}

	e := created[0]
	fmt.Printf("remembered %q (id=%d, branch=%s, type=%s)\n", e.Name, e.ID, branch, e.EntityType)
	if len(e.Keywords) > 0 {
		terms := make([]string, len(e.Keywords))
		for i, k := range e.Keywords {
			terms[i] = k.Keyword
		}
		fmt.Printf("keywords: %s\n", strings.Join(terms, ", "))
	}
}

func runObserve(name string, observations []string) {
	o, _, err := openOrchestrator()
	if err != nil {
		fail("Error: %v", err)
	}
	defer o.Close()

	branch := branchOrDefault(observeBranch)
	added, err := o.AddObservations(branch, name, observations)
	if err != nil {
		fail("Error adding observations: %v", err)
	}
	fmt.Printf("added %d observation(s) to %q\n", len(added), name)
}

func runForget(names []string) {
	o, _, err := openOrchestrator()
	if err != nil {
		fail("Error: %v", err)
	}
	defer o.Close()

	branch := branchOrDefault(forgetBranch)

	if len(forgetObservations) > 0 {
		if len(names) != 1 {
			fail("Error: --observation only applies to a single entity")
		}
		if err := o.DeleteObservations(branch, names[0], forgetObservations); err != nil {
			fail("Error deleting observations: %v", err)
		}
		fmt.Printf("deleted %d observation(s) from %q\n", len(forgetObservations), names[0])
		return
	}

	deleted, err := o.DeleteEntities(branch, names)
	if err != nil {
		fail("Error deleting entities: %v", err)
	}
	fmt.Printf("deleted %d entit(y/ies): %s\n", len(deleted), strings.Join(deleted, ", "))
}

func runUpdate(name string) {
	if updateStatus == "" {
		fail("Error: --status is required")
	}

	o, _, err := openOrchestrator()
	if err != nil {
		fail("Error: %v", err)
	}
	defer o.Close()

	branch := branchOrDefault(updateBranch)
	e, err := o.UpdateEntityStatus(branch, name, updateStatus, updateReason)
	if err != nil {
		fail("Error updating entity: %v", err)
	}
	fmt.Printf("updated %q: status=%s\n", e.Name, e.Status)
}
