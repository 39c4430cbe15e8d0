package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// RelationInput names a relation to create by entity name, resolved to
// ids within branch by CreateRelations.
type RelationInput struct {
	From         string
	To           string
	RelationType string
}

// CreateRelations resolves both endpoints of each input in branch and
// inserts with INSERT OR IGNORE on the uniqueness key (from, to, type).
// Only relations for which both endpoints existed are returned;
// duplicates are silent no-ops (testable property 2).
func (s *Store) CreateRelations(branchName string, inputs []RelationInput) ([]Relation, error) {
	branch, err := s.GetBranch(branchName)
	if err != nil {
		return nil, err
	}

	tx, err := s.begin()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	defer tx.Rollback()

	var created []Relation
	now := time.Now()
	for _, in := range inputs {
		var fromID int64
		err := tx.QueryRow(`SELECT id FROM entities WHERE name = ? AND branch_id = ?`, in.From, branch.ID).Scan(&fromID)
		if err == sql.ErrNoRows {
			continue // endpoint missing: silently skipped per spec.md §4.1
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}

		var toID int64
		err = tx.QueryRow(`SELECT id FROM entities WHERE name = ? AND branch_id = ?`, in.To, branch.ID).Scan(&toID)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}

		res, err := tx.Exec(`
			INSERT OR IGNORE INTO relations (from_entity_id, to_entity_id, relation_type, branch_id, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, fromID, toID, in.RelationType, branch.ID, now)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to create relation: %v", ErrStorage, err)
		}
		rows, _ := res.RowsAffected()
		if rows == 0 {
			continue // duplicate: silent no-op
		}
		id, _ := res.LastInsertId()
		created = append(created, Relation{
			ID: id, FromEntityID: fromID, FromEntityName: in.From,
			ToEntityID: toID, ToEntityName: in.To,
			RelationType: in.RelationType, BranchID: branch.ID, CreatedAt: now,
		})
	}

	if len(created) > 0 {
		if _, err := tx.Exec(`UPDATE branches SET updated_at = ? WHERE id = ?`, now, branch.ID); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: failed to commit relations: %v", ErrStorage, err)
	}
	return created, nil
}

// DeleteRelations deletes by (from, to, type) key within branch. No-op
// on absent relations.
func (s *Store) DeleteRelations(branchName string, inputs []RelationInput) error {
	branch, err := s.GetBranch(branchName)
	if err != nil {
		return err
	}

	for _, in := range inputs {
		_, err := s.exec(`
			DELETE FROM relations WHERE branch_id = ? AND relation_type = ?
			AND from_entity_id = (SELECT id FROM entities WHERE name = ? AND branch_id = ?)
			AND to_entity_id = (SELECT id FROM entities WHERE name = ? AND branch_id = ?)
		`, branch.ID, in.RelationType, in.From, branch.ID, in.To, branch.ID)
		if err != nil {
			return fmt.Errorf("%w: failed to delete relation: %v", ErrStorage, err)
		}
	}
	return nil
}

// RelationsWithBothEndpointsIn fetches relations whose endpoints both lie
// within entityIDs, scoped to branchID when non-zero. Used by the Search
// Engine (spec.md §4.3 step 6: relations for the surviving entity set).
func (s *Store) RelationsWithBothEndpointsIn(branchID int64, entityIDs []int64) ([]Relation, error) {
	return s.relationsMatching(branchID, entityIDs, entityIDs, "AND")
}

// RelationsInvolvingAny fetches relations where either endpoint lies
// within entityIDs, scoped to branchID when non-zero. Implements the
// single-query resolution for openEntities decided in SPEC_FULL.md §9
// (no whole-branch re-export).
func (s *Store) RelationsInvolvingAny(branchID int64, entityIDs []int64) ([]Relation, error) {
	return s.relationsMatching(branchID, entityIDs, entityIDs, "OR")
}

// relationsMatching builds `from_entity_id IN (fromIDs) <op> to_entity_id
// IN (toIDs)` over the relations table, joined with entity names.
func (s *Store) relationsMatching(branchID int64, fromIDs, toIDs []int64, op string) ([]Relation, error) {
	if len(fromIDs) == 0 || len(toIDs) == 0 {
		return nil, nil
	}

	fromPH, fromArgs := placeholdersFor(fromIDs)
	toPH, toArgs := placeholdersFor(toIDs)

	query := fmt.Sprintf(`
		SELECT r.id, r.from_entity_id, ef.name, r.to_entity_id, et.name, r.relation_type, r.branch_id, r.created_at
		FROM relations r
		JOIN entities ef ON ef.id = r.from_entity_id
		JOIN entities et ON et.id = r.to_entity_id
		WHERE r.from_entity_id IN (%s) %s r.to_entity_id IN (%s)
	`, fromPH, op, toPH)

	args := append(append([]interface{}{}, fromArgs...), toArgs...)
	if branchID != 0 {
		query += " AND r.branch_id = ?"
		args = append(args, branchID)
	}

	rows, err := s.query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch relations: %v", ErrStorage, err)
	}
	defer rows.Close()

	var out []Relation
	for rows.Next() {
		var r Relation
		if err := rows.Scan(&r.ID, &r.FromEntityID, &r.FromEntityName, &r.ToEntityID, &r.ToEntityName,
			&r.RelationType, &r.BranchID, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func placeholdersFor(ids []int64) (string, []interface{}) {
	ph := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		ph[i] = "?"
		args[i] = id
	}
	return strings.Join(ph, ","), args
}
