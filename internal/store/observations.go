package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// AddObservations appends contents to entityName's observation list in
// branch, after the current max(sequence_order). Blank contents (after
// trimming) are skipped. Returns the set actually added.
func (s *Store) AddObservations(branchName, entityName string, contents []string) ([]string, error) {
	branch, err := s.GetBranch(branchName)
	if err != nil {
		return nil, err
	}

	tx, err := s.begin()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	defer tx.Rollback()

	var entityID int64
	err = tx.QueryRow(`SELECT id FROM entities WHERE name = ? AND branch_id = ?`, entityName, branch.ID).Scan(&entityID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: entity %q in branch %q", ErrNotFound, entityName, branchName)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	var maxSeq sql.NullInt64
	if err := tx.QueryRow(`SELECT MAX(sequence_order) FROM observations WHERE entity_id = ?`, entityID).Scan(&maxSeq); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	next := 0
	if maxSeq.Valid {
		next = int(maxSeq.Int64) + 1
	}

	now := time.Now()
	var added []string
	for _, c := range contents {
		content := strings.TrimSpace(c)
		if content == "" {
			continue
		}
		if _, err := tx.Exec(`
			INSERT INTO observations (entity_id, content, optimized_content, sequence_order, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, entityID, content, content, next, now); err != nil {
			return nil, fmt.Errorf("%w: failed to append observation: %v", ErrStorage, err)
		}
		added = append(added, content)
		next++
	}

	if len(added) > 0 {
		if _, err := tx.Exec(`UPDATE entities SET updated_at = ? WHERE id = ?`, now, entityID); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		if _, err := tx.Exec(`UPDATE branches SET updated_at = ? WHERE id = ?`, now, branch.ID); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: failed to commit observations: %v", ErrStorage, err)
	}

	return added, nil
}

// DeleteObservations deletes observations matching contents by exact,
// case-sensitive string. Survivors keep their existing sequence_order
// (no renumbering), per testable property 3.
func (s *Store) DeleteObservations(branchName, entityName string, contents []string) error {
	branch, err := s.GetBranch(branchName)
	if err != nil {
		return err
	}

	var entityID int64
	err = s.queryRow(`SELECT id FROM entities WHERE name = ? AND branch_id = ?`, entityName, branch.ID).Scan(&entityID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: entity %q in branch %q", ErrNotFound, entityName, branchName)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	for _, content := range contents {
		if _, err := s.exec(`DELETE FROM observations WHERE entity_id = ? AND content = ?`, entityID, content); err != nil {
			return fmt.Errorf("%w: failed to delete observation: %v", ErrStorage, err)
		}
	}
	return nil
}
