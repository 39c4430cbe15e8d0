package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DiscoverLegacyFiles finds legacy line-delimited JSON files under
// memoryPath and its .memory/ subdirectory: memory.json at either location,
// and any <branch>.json in .memory/ (excluding memory.json and dotfiles),
// per spec.md §6's migration rule.
func DiscoverLegacyFiles(memoryPath string) []string {
	var found []string

	candidates := []string{
		filepath.Join(memoryPath, "memory.json"),
		filepath.Join(memoryPath, ".memory", "memory.json"),
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			found = append(found, c)
		}
	}

	dotMemory := filepath.Join(memoryPath, ".memory")
	entries, err := os.ReadDir(dotMemory)
	if err != nil {
		return found
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if name == "memory.json" || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}
		found = append(found, filepath.Join(dotMemory, name))
	}
	return found
}

// branchNameFromLegacyFile derives the target branch for a legacy file:
// memory.json imports into main; <branch>.json imports into <branch>.
func branchNameFromLegacyFile(path string) string {
	base := filepath.Base(path)
	if base == "memory.json" {
		return MainBranch
	}
	return strings.TrimSuffix(base, ".json")
}

// ImportLegacyFile parses path as line-delimited JSON and imports its
// entity and relation records into branch. Lines that fail to parse are
// skipped with a warning (spec.md §7's Storage policy for migration).
// Returns the count of entities and relations actually imported.
func (s *Store) ImportLegacyFile(path string) (entityCount, relationCount int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: failed to open legacy file %q: %v", ErrStorage, path, err)
	}
	defer f.Close()

	branchName := branchNameFromLegacyFile(path)
	if _, err := s.EnsureBranch(branchName); err != nil {
		return 0, 0, err
	}

	var relationInputs []RelationInput
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec JSONRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			log.Warn("skipping unparseable legacy line", "file", path, "line", lineNum, "error", err)
			continue
		}

		switch rec.Type {
		case "entity":
			if err := s.importLegacyEntity(branchName, rec); err != nil {
				log.Warn("skipping legacy entity", "file", path, "line", lineNum, "name", rec.Name, "error", err)
				continue
			}
			entityCount++
		case "relation":
			relationInputs = append(relationInputs, RelationInput{From: rec.From, To: rec.To, RelationType: rec.RelationType})
		default:
			log.Warn("skipping legacy line with unknown type", "file", path, "line", lineNum, "type", rec.Type)
		}
	}
	if err := scanner.Err(); err != nil {
		return entityCount, relationCount, fmt.Errorf("%w: failed to read legacy file %q: %v", ErrStorage, path, err)
	}

	if len(relationInputs) > 0 {
		created, err := s.CreateRelations(branchName, relationInputs)
		if err != nil {
			return entityCount, relationCount, err
		}
		relationCount = len(created)
	}

	return entityCount, relationCount, nil
}

func (s *Store) importLegacyEntity(branchName string, rec JSONRecord) error {
	e := &Entity{
		Name:         rec.Name,
		EntityType:   rec.EntityType,
		Status:       rec.Status,
		StatusReason: rec.StatusReason,
	}
	for _, content := range rec.Observations {
		e.Observations = append(e.Observations, Observation{Content: content})
	}
	for targetBranch, names := range rec.CrossReferences {
		for _, name := range names {
			e.CrossReferences = append(e.CrossReferences, CrossReference{TargetBranchName: targetBranch, TargetEntityName: name})
		}
	}

	_, err := s.CreateEntity(branchName, e)
	return err
}

// RunMigration discovers and imports every legacy file under memoryPath,
// writing a timestamped migration backup per imported file to backupsDir.
// Partial failures (one bad file) do not abort the others.
func (s *Store) RunMigration(memoryPath, backupsDir string) (filesImported int, err error) {
	files := DiscoverLegacyFiles(memoryPath)
	if len(files) == 0 {
		return 0, nil
	}

	log.Info("running legacy JSON migration", "file_count", len(files))

	for _, path := range files {
		branchName := branchNameFromLegacyFile(path)
		entityCount, relationCount, err := s.ImportLegacyFile(path)
		if err != nil {
			log.Warn("legacy file import failed", "file", path, "error", err)
			continue
		}
		log.Info("imported legacy file", "file", path, "branch", branchName,
			"entities", entityCount, "relations", relationCount)

		if _, err := s.writeLineDelimited(backupsDir, fmt.Sprintf("migration_%s_%s.json", branchName, timestamp(time.Now())), branchName); err != nil {
			log.Warn("failed to write migration backup", "file", path, "error", err)
		}
		filesImported++
	}
	return filesImported, nil
}
