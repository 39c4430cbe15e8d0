package store

import (
	"database/sql"
	"fmt"
	"time"
)

// CreateCrossReference records a by-name pointer from an entity in
// sourceBranch to target entity names in targetBranch. Fails with
// ErrNotFound if the source entity is missing. Silently skips target
// names not present in targetBranch at call time (resolved lazily
// later, per spec.md §3).
func (s *Store) CreateCrossReference(sourceBranch, entityName, targetBranch string, targetNames []string) ([]CrossReference, error) {
	source, err := s.GetBranch(sourceBranch)
	if err != nil {
		return nil, err
	}

	tx, err := s.begin()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	defer tx.Rollback()

	var entityID int64
	err = tx.QueryRow(`SELECT id FROM entities WHERE name = ? AND branch_id = ?`, entityName, source.ID).Scan(&entityID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: entity %q in branch %q", ErrNotFound, entityName, sourceBranch)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	target, err := s.ensureBranchTx(tx, targetBranch)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var created []CrossReference
	for _, name := range targetNames {
		var exists int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM entities WHERE name = ? AND branch_id = ?`, name, target.ID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		if exists == 0 {
			continue // target missing at call time: silently skipped
		}

		res, err := tx.Exec(`
			INSERT OR IGNORE INTO cross_references (from_entity_id, target_branch_id, target_entity_name, created_at)
			VALUES (?, ?, ?, ?)
		`, entityID, target.ID, name, now)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to create cross-reference: %v", ErrStorage, err)
		}
		rows, _ := res.RowsAffected()
		if rows == 0 {
			continue
		}
		id, _ := res.LastInsertId()
		created = append(created, CrossReference{
			ID: id, FromEntityID: entityID, TargetBranchID: target.ID,
			TargetBranchName: targetBranch, TargetEntityName: name, CreatedAt: now,
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: failed to commit cross-references: %v", ErrStorage, err)
	}
	return created, nil
}

// GetCrossReferences returns entityName's outbound cross-references in
// branch, grouped by target branch.
func (s *Store) GetCrossReferences(branchName, entityName string) ([]CrossReferenceGroup, error) {
	branch, err := s.GetBranch(branchName)
	if err != nil {
		return nil, err
	}

	var entityID int64
	err = s.queryRow(`SELECT id FROM entities WHERE name = ? AND branch_id = ?`, entityName, branch.ID).Scan(&entityID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: entity %q in branch %q", ErrNotFound, entityName, branchName)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	rows, err := s.query(`
		SELECT b.name, cr.target_entity_name
		FROM cross_references cr JOIN branches b ON b.id = cr.target_branch_id
		WHERE cr.from_entity_id = ?
		ORDER BY b.name ASC, cr.target_entity_name ASC
	`, entityID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	defer rows.Close()

	grouped := map[string]*CrossReferenceGroup{}
	var order []string
	for rows.Next() {
		var branchName, targetName string
		if err := rows.Scan(&branchName, &targetName); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		g, ok := grouped[branchName]
		if !ok {
			g = &CrossReferenceGroup{TargetBranch: branchName}
			grouped[branchName] = g
			order = append(order, branchName)
		}
		g.EntityNames = append(g.EntityNames, targetName)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	out := make([]CrossReferenceGroup, 0, len(order))
	for _, name := range order {
		out = append(out, *grouped[name])
	}
	return out, nil
}
