package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// CreateEntity inserts a new entity together with its observations,
// keywords, and cross-references in a single transaction. Fails with
// ErrDuplicate if (name, branch) already exists. e.Observations carry
// only Content/OptimizedContent on input; SequenceOrder is assigned
// starting at 0. e.Status defaults to StatusActive.
func (s *Store) CreateEntity(branchName string, e *Entity) (*Entity, error) {
	if strings.TrimSpace(e.Name) == "" {
		return nil, fmt.Errorf("%w: entity name is required", ErrInvalid)
	}
	if strings.TrimSpace(e.EntityType) == "" {
		return nil, fmt.Errorf("%w: entity type is required", ErrInvalid)
	}
	if e.Status == "" {
		e.Status = StatusActive
	}
	if !ValidStatuses[e.Status] {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalid, e.Status)
	}

	branch, err := s.EnsureBranch(branchName)
	if err != nil {
		return nil, err
	}

	tx, err := s.begin()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	defer tx.Rollback()

	now := time.Now()
	res, err := tx.Exec(`
		INSERT INTO entities (
			name, entity_type, branch_id, status, status_reason,
			original_content, optimized_content, token_count, compression_ratio,
			created_at, updated_at, last_accessed
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.Name, e.EntityType, branch.ID, e.Status, e.StatusReason,
		e.OriginalContent, e.OptimizedContent, e.TokenCount, e.CompressionRatio,
		now, now, now)
	if err != nil {
		if isUniqueConstraintErr(err) {
			return nil, fmt.Errorf("%w: entity %q in branch %q", ErrDuplicate, e.Name, branchName)
		}
		return nil, fmt.Errorf("%w: failed to create entity: %v", ErrStorage, err)
	}

	entityID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	seq := 0
	var storedObs []Observation
	for _, o := range e.Observations {
		content := strings.TrimSpace(o.Content)
		if content == "" {
			continue // invariant 5: empty inputs are dropped at ingest
		}
		obsRes, err := tx.Exec(`
			INSERT INTO observations (entity_id, content, optimized_content, sequence_order, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, entityID, content, o.OptimizedContent, seq, now)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to insert observation: %v", ErrStorage, err)
		}
		obsID, _ := obsRes.LastInsertId()
		storedObs = append(storedObs, Observation{
			ID: obsID, EntityID: entityID, Content: content,
			OptimizedContent: o.OptimizedContent, SequenceOrder: seq, CreatedAt: now,
		})
		seq++
	}

	var storedKeywords []Keyword
	for _, k := range e.Keywords {
		if strings.TrimSpace(k.Keyword) == "" {
			continue
		}
		kRes, err := tx.Exec(`
			INSERT INTO keywords (keyword, entity_id, weight, context) VALUES (?, ?, ?, ?)
		`, k.Keyword, entityID, k.Weight, k.Context)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to insert keyword: %v", ErrStorage, err)
		}
		kID, _ := kRes.LastInsertId()
		storedKeywords = append(storedKeywords, Keyword{ID: kID, Keyword: k.Keyword, EntityID: entityID, Weight: k.Weight, Context: k.Context})
	}

	var storedCrossRefs []CrossReference
	for _, cr := range e.CrossReferences {
		targetBranch, err := s.ensureBranchTx(tx, cr.TargetBranchName)
		if err != nil {
			return nil, err
		}
		crRes, err := tx.Exec(`
			INSERT OR IGNORE INTO cross_references (from_entity_id, target_branch_id, target_entity_name, created_at)
			VALUES (?, ?, ?, ?)
		`, entityID, targetBranch.ID, cr.TargetEntityName, now)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to insert cross-reference: %v", ErrStorage, err)
		}
		crID, _ := crRes.LastInsertId()
		storedCrossRefs = append(storedCrossRefs, CrossReference{
			ID: crID, FromEntityID: entityID, TargetBranchID: targetBranch.ID,
			TargetBranchName: cr.TargetBranchName, TargetEntityName: cr.TargetEntityName, CreatedAt: now,
		})
	}

	if _, err := tx.Exec(`UPDATE branches SET updated_at = ? WHERE id = ?`, now, branch.ID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: failed to commit entity creation: %v", ErrStorage, err)
	}

	e.ID = entityID
	e.BranchID = branch.ID
	e.Observations = storedObs
	e.Keywords = storedKeywords
	e.CrossReferences = storedCrossRefs
	e.CreatedAt = now
	e.UpdatedAt = now
	e.LastAccessed = now
	return e, nil
}

// ensureBranchTx is EnsureBranch run inside an existing transaction, used
// by CreateEntity's cross-reference target resolution so a reference to
// a not-yet-created branch doesn't abort the whole insert.
func (s *Store) ensureBranchTx(tx *sql.Tx, name string) (*Branch, error) {
	var b Branch
	err := tx.QueryRow(`SELECT id, name, purpose, created_at, updated_at FROM branches WHERE name = ?`, name).
		Scan(&b.ID, &b.Name, &b.Purpose, &b.CreatedAt, &b.UpdatedAt)
	if err == nil {
		return &b, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if !ValidBranchName(name) {
		return nil, fmt.Errorf("%w: branch name %q is not a valid identifier", ErrInvalid, name)
	}
	now := time.Now()
	res, err := tx.Exec(`INSERT INTO branches (name, purpose, created_at, updated_at) VALUES (?, '', ?, ?)`, name, now, now)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create branch: %v", ErrStorage, err)
	}
	id, _ := res.LastInsertId()
	return &Branch{ID: id, Name: name, CreatedAt: now, UpdatedAt: now}, nil
}

// EntityByID looks up an entity by id, including its observations,
// keywords, and cross-references, without bumping last_accessed. Used to
// resolve full detail for search results identified by id.
func (s *Store) EntityByID(id int64) (*Entity, error) {
	var e Entity
	err := s.queryRow(`
		SELECT id, name, entity_type, branch_id, status, status_reason,
		       original_content, optimized_content, token_count, compression_ratio,
		       created_at, updated_at, last_accessed
		FROM entities WHERE id = ?
	`, id).Scan(
		&e.ID, &e.Name, &e.EntityType, &e.BranchID, &e.Status, &e.StatusReason,
		&e.OriginalContent, &e.OptimizedContent, &e.TokenCount, &e.CompressionRatio,
		&e.CreatedAt, &e.UpdatedAt, &e.LastAccessed,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: entity id %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if err := s.loadEntityChildren(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// GetEntity looks up an entity by (name, branch), including its
// observations, keywords, and cross-references, and bumps last_accessed.
func (s *Store) GetEntity(branchName, name string) (*Entity, error) {
	branch, err := s.GetBranch(branchName)
	if err != nil {
		return nil, err
	}

	var e Entity
	err = s.queryRow(`
		SELECT id, name, entity_type, branch_id, status, status_reason,
		       original_content, optimized_content, token_count, compression_ratio,
		       created_at, updated_at, last_accessed
		FROM entities WHERE name = ? AND branch_id = ?
	`, name, branch.ID).Scan(
		&e.ID, &e.Name, &e.EntityType, &e.BranchID, &e.Status, &e.StatusReason,
		&e.OriginalContent, &e.OptimizedContent, &e.TokenCount, &e.CompressionRatio,
		&e.CreatedAt, &e.UpdatedAt, &e.LastAccessed,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: entity %q in branch %q", ErrNotFound, name, branchName)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if err := s.loadEntityChildren(&e); err != nil {
		return nil, err
	}

	now := time.Now()
	s.exec(`UPDATE entities SET last_accessed = ? WHERE id = ?`, now, e.ID)
	e.LastAccessed = now

	return &e, nil
}

// loadEntityChildren populates Observations, Keywords, and
// CrossReferences on e from e.ID.
func (s *Store) loadEntityChildren(e *Entity) error {
	obsRows, err := s.query(`
		SELECT id, entity_id, content, optimized_content, sequence_order, created_at
		FROM observations WHERE entity_id = ? ORDER BY sequence_order ASC
	`, e.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	for obsRows.Next() {
		var o Observation
		if err := obsRows.Scan(&o.ID, &o.EntityID, &o.Content, &o.OptimizedContent, &o.SequenceOrder, &o.CreatedAt); err != nil {
			obsRows.Close()
			return fmt.Errorf("%w: %v", ErrStorage, err)
		}
		e.Observations = append(e.Observations, o)
	}
	obsRows.Close()
	if err := obsRows.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	kwRows, err := s.query(`SELECT id, keyword, entity_id, weight, context FROM keywords WHERE entity_id = ?`, e.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	for kwRows.Next() {
		var k Keyword
		if err := kwRows.Scan(&k.ID, &k.Keyword, &k.EntityID, &k.Weight, &k.Context); err != nil {
			kwRows.Close()
			return fmt.Errorf("%w: %v", ErrStorage, err)
		}
		e.Keywords = append(e.Keywords, k)
	}
	kwRows.Close()
	if err := kwRows.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	crRows, err := s.query(`
		SELECT cr.id, cr.from_entity_id, cr.target_branch_id, b.name, cr.target_entity_name, cr.created_at
		FROM cross_references cr JOIN branches b ON b.id = cr.target_branch_id
		WHERE cr.from_entity_id = ?
	`, e.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	for crRows.Next() {
		var cr CrossReference
		if err := crRows.Scan(&cr.ID, &cr.FromEntityID, &cr.TargetBranchID, &cr.TargetBranchName, &cr.TargetEntityName, &cr.CreatedAt); err != nil {
			crRows.Close()
			return fmt.Errorf("%w: %v", ErrStorage, err)
		}
		e.CrossReferences = append(e.CrossReferences, cr)
	}
	crRows.Close()
	return crRows.Err()
}

// UpdateEntity replaces type, status, reason, the full ordered
// observation list, and cross-references for an existing entity. Fails
// with ErrNotFound if absent.
func (s *Store) UpdateEntity(branchName string, e *Entity) (*Entity, error) {
	branch, err := s.GetBranch(branchName)
	if err != nil {
		return nil, err
	}
	if !ValidStatuses[e.Status] {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalid, e.Status)
	}

	tx, err := s.begin()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	defer tx.Rollback()

	var entityID int64
	err = tx.QueryRow(`SELECT id FROM entities WHERE name = ? AND branch_id = ?`, e.Name, branch.ID).Scan(&entityID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: entity %q in branch %q", ErrNotFound, e.Name, branchName)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	now := time.Now()
	if _, err := tx.Exec(`
		UPDATE entities SET entity_type = ?, status = ?, status_reason = ?,
			original_content = ?, optimized_content = ?, token_count = ?, compression_ratio = ?,
			updated_at = ? WHERE id = ?
	`, e.EntityType, e.Status, e.StatusReason, e.OriginalContent, e.OptimizedContent,
		e.TokenCount, e.CompressionRatio, now, entityID); err != nil {
		return nil, fmt.Errorf("%w: failed to update entity: %v", ErrStorage, err)
	}

	if e.Observations != nil {
		if _, err := tx.Exec(`DELETE FROM observations WHERE entity_id = ?`, entityID); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		seq := 0
		for _, o := range e.Observations {
			content := strings.TrimSpace(o.Content)
			if content == "" {
				continue
			}
			if _, err := tx.Exec(`
				INSERT INTO observations (entity_id, content, optimized_content, sequence_order, created_at)
				VALUES (?, ?, ?, ?, ?)
			`, entityID, content, o.OptimizedContent, seq, now); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrStorage, err)
			}
			seq++
		}
	}

	if e.CrossReferences != nil {
		if _, err := tx.Exec(`DELETE FROM cross_references WHERE from_entity_id = ?`, entityID); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		for _, cr := range e.CrossReferences {
			targetBranch, err := s.ensureBranchTx(tx, cr.TargetBranchName)
			if err != nil {
				return nil, err
			}
			if _, err := tx.Exec(`
				INSERT OR IGNORE INTO cross_references (from_entity_id, target_branch_id, target_entity_name, created_at)
				VALUES (?, ?, ?, ?)
			`, entityID, targetBranch.ID, cr.TargetEntityName, now); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrStorage, err)
			}
		}
	}

	if _, err := tx.Exec(`UPDATE branches SET updated_at = ? WHERE id = ?`, now, branch.ID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: failed to commit entity update: %v", ErrStorage, err)
	}

	return s.GetEntity(branchName, e.Name)
}

// DeleteEntities deletes each named entity in branch, cascading
// observations, keywords, cross-references, and incident relations via
// FK constraints. Missing names are skipped (partial-failure semantics);
// the returned slice lists the names actually deleted.
func (s *Store) DeleteEntities(branchName string, names []string) ([]string, error) {
	branch, err := s.GetBranch(branchName)
	if err != nil {
		return nil, err
	}

	var deleted []string
	for _, name := range names {
		result, err := s.exec(`DELETE FROM entities WHERE name = ? AND branch_id = ?`, name, branch.ID)
		if err != nil {
			log.Warn("failed to delete entity", "error", err, "name", name, "branch", branchName)
			continue
		}
		rows, _ := result.RowsAffected()
		if rows > 0 {
			deleted = append(deleted, name)
		}
	}
	if len(deleted) > 0 {
		s.touchBranch(branch.ID)
	}
	return deleted, nil
}

// ListEntities returns entities in branch filtered by status (any
// status if statuses is empty), without loading children.
func (s *Store) ListEntities(branchName string, statuses []string) ([]Entity, error) {
	branch, err := s.GetBranch(branchName)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, name, entity_type, branch_id, status, status_reason,
		       original_content, optimized_content, token_count, compression_ratio,
		       created_at, updated_at, last_accessed
		FROM entities WHERE branch_id = ?
	`
	args := []interface{}{branch.ID}
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, st := range statuses {
			placeholders[i] = "?"
			args = append(args, st)
		}
		query += " AND status IN (" + strings.Join(placeholders, ",") + ")"
	}

	rows, err := s.query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list entities: %v", ErrStorage, err)
	}
	defer rows.Close()

	var out []Entity
	for rows.Next() {
		var e Entity
		if err := rows.Scan(&e.ID, &e.Name, &e.EntityType, &e.BranchID, &e.Status, &e.StatusReason,
			&e.OriginalContent, &e.OptimizedContent, &e.TokenCount, &e.CompressionRatio,
			&e.CreatedAt, &e.UpdatedAt, &e.LastAccessed); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
