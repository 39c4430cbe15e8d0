package store

import (
	"database/sql"
	"fmt"
	"regexp"
	"time"
)

// branchNamePattern is the permissive identifier pattern required by
// invariant 6: letters, digits, underscore, hyphen, dot.
var branchNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ValidBranchName reports whether name matches the permissive identifier
// pattern (invariant 6).
func ValidBranchName(name string) bool {
	return name != "" && branchNamePattern.MatchString(name)
}

// EnsureBranch returns the branch with the given name, creating it
// (with an empty purpose) if it does not already exist. This implements
// the "created implicitly on first reference" rule in spec.md §3.
func (s *Store) EnsureBranch(name string) (*Branch, error) {
	if b, err := s.GetBranch(name); err == nil {
		return b, nil
	}
	return s.CreateBranch(name, "")
}

// CreateBranch inserts a new branch. Fails with ErrDuplicate if the name
// already exists, or ErrInvalid if the name fails the identifier pattern.
func (s *Store) CreateBranch(name, purpose string) (*Branch, error) {
	if !ValidBranchName(name) {
		return nil, fmt.Errorf("%w: branch name %q is not a valid identifier", ErrInvalid, name)
	}

	now := time.Now()
	result, err := s.exec(`
		INSERT INTO branches (name, purpose, created_at, updated_at) VALUES (?, ?, ?, ?)
	`, name, purpose, now, now)
	if err != nil {
		if isUniqueConstraintErr(err) {
			return nil, fmt.Errorf("%w: branch %q already exists", ErrDuplicate, name)
		}
		return nil, fmt.Errorf("%w: failed to create branch: %v", ErrStorage, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return &Branch{ID: id, Name: name, Purpose: purpose, CreatedAt: now, UpdatedAt: now}, nil
}

// GetBranch looks up a branch by name.
func (s *Store) GetBranch(name string) (*Branch, error) {
	var b Branch
	err := s.queryRow(`
		SELECT id, name, purpose, created_at, updated_at FROM branches WHERE name = ?
	`, name).Scan(&b.ID, &b.Name, &b.Purpose, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: branch %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return &b, nil
}

// GetBranchByID looks up a branch by id.
func (s *Store) GetBranchByID(id int64) (*Branch, error) {
	var b Branch
	err := s.queryRow(`
		SELECT id, name, purpose, created_at, updated_at FROM branches WHERE id = ?
	`, id).Scan(&b.ID, &b.Name, &b.Purpose, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: branch id %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return &b, nil
}

// touchBranch refreshes a branch's updated_at. Called on any write that
// touches that branch, per spec.md §3's lifecycle ownership note.
func (s *Store) touchBranch(branchID int64) error {
	_, err := s.exec(`UPDATE branches SET updated_at = ? WHERE id = ?`, time.Now(), branchID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

// ListBranches returns all branches with aggregate entity/relation
// counts, ordered with main first then lexicographic.
func (s *Store) ListBranches() ([]BranchInfo, error) {
	rows, err := s.query(`
		SELECT b.id, b.name, b.purpose, b.created_at, b.updated_at,
		       COUNT(DISTINCT e.id) AS entity_count,
		       COUNT(DISTINCT r.id) AS relation_count
		FROM branches b
		LEFT JOIN entities e ON e.branch_id = b.id
		LEFT JOIN relations r ON r.branch_id = b.id
		GROUP BY b.id
		ORDER BY CASE WHEN b.name = ? THEN 0 ELSE 1 END, b.name ASC
	`, MainBranch)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list branches: %v", ErrStorage, err)
	}
	defer rows.Close()

	var out []BranchInfo
	for rows.Next() {
		var bi BranchInfo
		if err := rows.Scan(&bi.ID, &bi.Name, &bi.Purpose, &bi.CreatedAt, &bi.UpdatedAt,
			&bi.EntityCount, &bi.RelationCount); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		out = append(out, bi)
	}
	return out, rows.Err()
}

// DeleteBranch deletes a branch and cascades through entities,
// observations, relations, keywords, and cross-references via FK
// constraints. Fails with ErrCannotDeleteMain on "main", or ErrNotFound
// if the branch does not exist (decided in SPEC_FULL.md §9: reject
// rather than silently accept).
func (s *Store) DeleteBranch(name string) error {
	if name == MainBranch {
		return fmt.Errorf("%w", ErrCannotDeleteMain)
	}

	result, err := s.exec(`DELETE FROM branches WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("%w: failed to delete branch: %v", ErrStorage, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: branch %q", ErrNotFound, name)
	}
	return nil
}
