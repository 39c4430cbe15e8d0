package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/branchgraph/branchgraph/internal/store"
	"github.com/branchgraph/branchgraph/pkg/config"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check config, schema, and data integrity",
	Long:  `Run a comprehensive check of the store's configuration, schema version, and internal consistency.`,
	Run: func(cmd *cobra.Command, args []string) {
		runDoctor()
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor() {
	fmt.Println("branchgraph system check")
	fmt.Println("=========================")
	fmt.Println()

	allOk := true

	fmt.Print("Configuration... ")
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		fail("doctor aborted: cannot continue without configuration")
	}
	fmt.Println("OK")
	fmt.Printf("  Memory path: %s\n", cfg.Memory.Path)
	fmt.Printf("  Database:    %s\n", cfg.DatabasePath())
	fmt.Println()

	fmt.Print("Database... ")
	if _, err := os.Stat(cfg.DatabasePath()); os.IsNotExist(err) {
		fmt.Println("NOT INITIALIZED (will be created on first use)")
		return
	}

	s, err := store.Open(cfg.DatabasePath())
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		fail("doctor aborted: cannot open store")
	}
	defer s.Close()
	fmt.Println("OK")
	fmt.Println()

	fmt.Print("Schema version... ")
	version, err := s.GetSchemaVersion()
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		allOk = false
	} else {
		fmt.Printf("OK (v%d)\n", version)
	}

	fmt.Print("FTS shadow table... ")
	ftsOK, err := s.TableExists("entities_fts")
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		allOk = false
	} else if !ftsOK {
		fmt.Println("MISSING")
		allOk = false
	} else {
		fmt.Println("OK")
	}

	fmt.Print("FTS shadow-row parity... ")
	orphaned, missing, err := s.CheckFTSParity()
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		allOk = false
	} else if orphaned > 0 || missing > 0 {
		fmt.Printf("MISMATCH (%d orphaned, %d missing shadow rows)\n", orphaned, missing)
		allOk = false
	} else {
		fmt.Println("OK")
	}

	fmt.Println()
	fmt.Println("Stats:")
	stats, err := s.Stats()
	if err != nil {
		fmt.Printf("  ERROR: %v\n", err)
		allOk = false
	} else {
		fmt.Printf("  Branches:     %d\n", stats.BranchCount)
		fmt.Printf("  Entities:     %d\n", stats.EntityCount)
		fmt.Printf("  Observations: %d\n", stats.ObservationCount)
		fmt.Printf("  Relations:    %d\n", stats.RelationCount)
		fmt.Printf("  Keywords:     %d\n", stats.KeywordCount)
		fmt.Printf("  File size:    %d bytes\n", stats.FileSizeBytes)
	}

	fmt.Println()
	if allOk {
		fmt.Println("All checks passed.")
	} else {
		fmt.Println("Some issues detected. Please review the errors above.")
	}
}
