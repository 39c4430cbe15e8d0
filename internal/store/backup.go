package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// JSONRecord is one line of the line-delimited JSON record format (spec.md
// §6): either an entity snapshot or a relation snapshot, discriminated by
// Type.
type JSONRecord struct {
	Type             string         `json:"type"`
	Name             string         `json:"name,omitempty"`
	EntityType       string         `json:"entityType,omitempty"`
	Observations     []string       `json:"observations,omitempty"`
	Status           string         `json:"status,omitempty"`
	StatusReason     string         `json:"statusReason,omitempty"`
	LastUpdated      string         `json:"lastUpdated,omitempty"`
	CrossReferences  map[string][]string `json:"crossReferences,omitempty"`
	From             string         `json:"from,omitempty"`
	To               string         `json:"to,omitempty"`
	RelationType     string         `json:"relationType,omitempty"`
}

// ExportDoc is the pretty JSON export schema (spec.md §6).
type ExportDoc struct {
	Branch     string       `json:"branch"`
	ExportedAt string       `json:"exportedAt"`
	Stats      ExportStats  `json:"stats"`
	Entities   []Entity     `json:"entities"`
	Relations  []Relation   `json:"relations"`
}

// ExportStats is ExportDoc's summary block.
type ExportStats struct {
	EntityCount   int `json:"entityCount"`
	RelationCount int `json:"relationCount"`
}

// timestamp renders now in the bit-exact backup filename format:
// YYYY-MM-DDTHH-MM-SS-sssZ (colons and dots replaced with hyphens).
func timestamp(now time.Time) string {
	ts := now.UTC().Format("2006-01-02T15:04:05.000Z")
	return strings.NewReplacer(":", "-", ".", "-").Replace(ts)
}

// SnapshotBranch writes a line-delimited JSON snapshot of every entity and
// relation in branch to backupsDir, named "<branch>_<ts>.json" per spec.md
// §6. Called by the Orchestrator's write path after a createEntities batch
// commits.
func (s *Store) SnapshotBranch(backupsDir, branchName string, now time.Time) (string, error) {
	return s.writeLineDelimited(backupsDir, fmt.Sprintf("%s_%s.json", branchName, timestamp(now)), branchName)
}

// ExportBranch writes a pretty JSON export of branch to backupsDir, named
// "export_<branch>_<ts>.json".
func (s *Store) ExportBranch(backupsDir, branchName string, now time.Time) (string, error) {
	branch, err := s.GetBranch(branchName)
	if err != nil {
		return "", err
	}
	entities, err := s.ListEntities(branchName, nil)
	if err != nil {
		return "", err
	}
	for i := range entities {
		if err := s.loadEntityChildren(&entities[i]); err != nil {
			return "", err
		}
	}
	ids := make([]int64, len(entities))
	for i, e := range entities {
		ids[i] = e.ID
	}
	relations, err := s.RelationsWithBothEndpointsIn(branch.ID, ids)
	if err != nil {
		return "", err
	}

	doc := ExportDoc{
		Branch:     branchName,
		ExportedAt: now.UTC().Format(time.RFC3339),
		Stats:      ExportStats{EntityCount: len(entities), RelationCount: len(relations)},
		Entities:   entities,
		Relations:  relations,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: failed to marshal export: %v", ErrStorage, err)
	}

	path := filepath.Join(backupsDir, fmt.Sprintf("export_%s_%s.json", branchName, timestamp(now)))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("%w: failed to write export: %v", ErrStorage, err)
	}
	return path, nil
}

// writeLineDelimited renders branch's entities and relations as one
// JSONRecord per line to <backupsDir>/<filename>.
func (s *Store) writeLineDelimited(backupsDir, filename, branchName string) (string, error) {
	if err := os.MkdirAll(backupsDir, 0755); err != nil {
		return "", fmt.Errorf("%w: failed to create backups dir: %v", ErrStorage, err)
	}

	branch, err := s.GetBranch(branchName)
	if err != nil {
		return "", err
	}
	entities, err := s.ListEntities(branchName, nil)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, e := range entities {
		if err := s.loadEntityChildren(&e); err != nil {
			return "", err
		}
		rec := entityToRecord(&e)
		line, err := json.Marshal(rec)
		if err != nil {
			return "", fmt.Errorf("%w: failed to marshal entity record: %v", ErrStorage, err)
		}
		sb.Write(line)
		sb.WriteByte('\n')
	}

	ids := make([]int64, len(entities))
	for i, e := range entities {
		ids[i] = e.ID
	}
	relations, err := s.RelationsWithBothEndpointsIn(branch.ID, ids)
	if err != nil {
		return "", err
	}
	for _, r := range relations {
		rec := JSONRecord{Type: "relation", From: r.FromEntityName, To: r.ToEntityName, RelationType: r.RelationType}
		line, err := json.Marshal(rec)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrStorage, err)
		}
		sb.Write(line)
		sb.WriteByte('\n')
	}

	path := filepath.Join(backupsDir, filename)
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return "", fmt.Errorf("%w: failed to write snapshot: %v", ErrStorage, err)
	}
	return path, nil
}

func entityToRecord(e *Entity) JSONRecord {
	obs := make([]string, len(e.Observations))
	for i, o := range e.Observations {
		obs[i] = o.Content
	}
	var crs map[string][]string
	if len(e.CrossReferences) > 0 {
		crs = map[string][]string{}
		for _, cr := range e.CrossReferences {
			crs[cr.TargetBranchName] = append(crs[cr.TargetBranchName], cr.TargetEntityName)
		}
	}
	return JSONRecord{
		Type:            "entity",
		Name:            e.Name,
		EntityType:      e.EntityType,
		Observations:    obs,
		Status:          e.Status,
		StatusReason:    e.StatusReason,
		LastUpdated:     e.UpdatedAt.UTC().Format(time.RFC3339),
		CrossReferences: crs,
	}
}

// RotateBackups keeps only the most recently modified maxBackups files in
// backupsDir, deleting the rest. Called from the Orchestrator's close path
// (spec.md §5: "trims backups to the last N, default 5").
func RotateBackups(backupsDir string, maxBackups int) error {
	entries, err := os.ReadDir(backupsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: failed to read backups dir: %v", ErrStorage, err)
	}

	type fileInfo struct {
		name    string
		modTime time.Time
	}
	var files []fileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, fileInfo{name: entry.Name(), modTime: info.ModTime()})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].modTime.After(files[j].modTime) })

	if len(files) <= maxBackups {
		return nil
	}
	for _, f := range files[maxBackups:] {
		if err := os.Remove(filepath.Join(backupsDir, f.name)); err != nil {
			log.Warn("failed to remove stale backup", "error", err, "file", f.name)
		}
	}
	return nil
}
