package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var branchPurpose string

var branchCmd = &cobra.Command{
	Use:   "branch",
	Short: "Manage branches",
}

var branchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all branches with entity/relation counts",
	Run: func(cmd *cobra.Command, args []string) {
		runBranchList()
	},
}

var branchCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new branch",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runBranchCreate(args[0], branchPurpose)
	},
}

var branchDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a branch and its contents",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runBranchDelete(args[0])
	},
}

func init() {
	rootCmd.AddCommand(branchCmd)
	branchCmd.AddCommand(branchListCmd, branchCreateCmd, branchDeleteCmd)
	branchCreateCmd.Flags().StringVar(&branchPurpose, "purpose", "", "free-text description of the branch's purpose")
}

func runBranchList() {
	o, _, err := openOrchestrator()
	if err != nil {
		fail("Error: %v", err)
	}
	defer o.Close()

	branches, err := o.ListBranches()
	if err != nil {
		fail("Error listing branches: %v", err)
	}

	for _, b := range branches {
		fmt.Printf("%s\t entities=%d relations=%d\n", b.Name, b.EntityCount, b.RelationCount)
		if b.Purpose != "" {
			fmt.Printf("\t purpose: %s\n", b.Purpose)
		}
	}
}

func runBranchCreate(name, purpose string) {
	o, _, err := openOrchestrator()
	if err != nil {
		fail("Error: %v", err)
	}
	defer o.Close()

	b, err := o.CreateBranch(name, purpose)
	if err != nil {
		fail("Error creating branch: %v", err)
	}
	fmt.Printf("created branch %q\n", b.Name)
}

func runBranchDelete(name string) {
	o, _, err := openOrchestrator()
	if err != nil {
		fail("Error: %v", err)
	}
	defer o.Close()

	if err := o.DeleteBranch(name); err != nil {
		fail("Error deleting branch: %v", err)
	}
	fmt.Printf("deleted branch %q\n", name)
}
