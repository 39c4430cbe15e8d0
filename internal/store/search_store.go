package store

import (
	"fmt"
	"strings"
	"time"
)

// EntityRef is the minimal entity projection returned by the low-level
// search primitives: enough to rank and later resolve full detail via
// GetEntity.
type EntityRef struct {
	ID           int64
	Name         string
	EntityType   string
	BranchID     int64
	Status       string
	LastAccessed int64 // unix nanos, for tie-break ordering
}

func statusPlaceholders(statuses []string) (string, []interface{}) {
	if len(statuses) == 0 {
		return "", nil
	}
	ph := make([]string, len(statuses))
	args := make([]interface{}, len(statuses))
	for i, st := range statuses {
		ph[i] = "?"
		args[i] = st
	}
	return " AND e.status IN (" + strings.Join(ph, ",") + ")", args
}

// SearchKeyword implements the keyword strategy (spec.md §4.3): matches
// keywords.keyword LIKE %term% for any term; raw score is
// count(matched keyword rows) * max(keyword.weight) per entity.
func (s *Store) SearchKeyword(branchID int64, statuses []string, terms []string) (map[int64]float64, map[int64]EntityRef, error) {
	if len(terms) == 0 {
		return nil, nil, nil
	}

	var termClauses []string
	args := []interface{}{}
	for _, t := range terms {
		termClauses = append(termClauses, "k.keyword LIKE ?")
		args = append(args, "%"+t+"%")
	}

	query := `
		SELECT e.id, e.name, e.entity_type, e.branch_id, e.status, e.last_accessed,
		       COUNT(k.id) AS match_count, MAX(k.weight) AS max_weight
		FROM entities e JOIN keywords k ON k.entity_id = e.id
		WHERE (` + strings.Join(termClauses, " OR ") + `)
	`
	if branchID != 0 {
		query += " AND e.branch_id = ?"
		args = append(args, branchID)
	}
	statusSQL, statusArgs := statusPlaceholders(statuses)
	query += statusSQL
	args = append(args, statusArgs...)
	query += " GROUP BY e.id"

	rows, err := s.query(query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: keyword search failed: %v", ErrStorage, err)
	}
	defer rows.Close()

	scores := map[int64]float64{}
	refs := map[int64]EntityRef{}
	for rows.Next() {
		var ref EntityRef
		var lastAccessed time.Time
		var matchCount int
		var maxWeight float64
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.EntityType, &ref.BranchID, &ref.Status, &lastAccessed,
			&matchCount, &maxWeight); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		ref.LastAccessed = lastAccessed.UnixNano()
		scores[ref.ID] = float64(matchCount) * maxWeight
		refs[ref.ID] = ref
	}
	return scores, refs, rows.Err()
}

// SearchFTS implements the FTS strategy (spec.md §4.3): an OR-of-terms
// MATCH query against the FTS shadow, ranked via bm25 (negated so
// higher is better). On FTS engine error, returns ErrFTSUnavailable and
// the caller should continue with keyword + LIKE alone.
func (s *Store) SearchFTS(branchID int64, statuses []string, terms []string) (map[int64]float64, map[int64]EntityRef, error) {
	if len(terms) == 0 {
		return nil, nil, nil
	}

	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	matchQuery := strings.Join(quoted, " OR ")

	query := `
		SELECT e.id, e.name, e.entity_type, e.branch_id, e.status, e.last_accessed,
		       bm25(entities_fts) AS rank
		FROM entities_fts fts JOIN entities e ON e.id = fts.rowid
		WHERE entities_fts MATCH ?
	`
	args := []interface{}{matchQuery}
	if branchID != 0 {
		query += " AND e.branch_id = ?"
		args = append(args, branchID)
	}
	statusSQL, statusArgs := statusPlaceholders(statuses)
	query += statusSQL
	args = append(args, statusArgs...)

	rows, err := s.query(query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrFTSUnavailable, err)
	}
	defer rows.Close()

	scores := map[int64]float64{}
	refs := map[int64]EntityRef{}
	for rows.Next() {
		var ref EntityRef
		var lastAccessed time.Time
		var rank float64
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.EntityType, &ref.BranchID, &ref.Status, &lastAccessed, &rank); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrFTSUnavailable, err)
		}
		ref.LastAccessed = lastAccessed.UnixNano()
		scores[ref.ID] = -rank // bm25 is more negative for better matches
		refs[ref.ID] = ref
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrFTSUnavailable, err)
	}
	return scores, refs, nil
}

// SearchLike implements the LIKE strategy (spec.md §4.3): per term, name
// LIKE (+10), entity_type LIKE (+8), observation content LIKE (+3);
// summed across terms per entity.
func (s *Store) SearchLike(branchID int64, statuses []string, terms []string) (map[int64]float64, map[int64]EntityRef, error) {
	if len(terms) == 0 {
		return nil, nil, nil
	}

	scores := map[int64]float64{}
	refs := map[int64]EntityRef{}
	statusSQL, statusArgs := statusPlaceholders(statuses)

	accumulate := func(query string, weight float64, args []interface{}) error {
		rows, err := s.query(query, args...)
		if err != nil {
			return fmt.Errorf("%w: like search failed: %v", ErrStorage, err)
		}
		defer rows.Close()
		for rows.Next() {
			var ref EntityRef
			var lastAccessed time.Time
			if err := rows.Scan(&ref.ID, &ref.Name, &ref.EntityType, &ref.BranchID, &ref.Status, &lastAccessed); err != nil {
				return fmt.Errorf("%w: %v", ErrStorage, err)
			}
			ref.LastAccessed = lastAccessed.UnixNano()
			scores[ref.ID] += weight
			refs[ref.ID] = ref
		}
		return rows.Err()
	}

	for _, term := range terms {
		like := "%" + term + "%"

		nameQuery := `SELECT e.id, e.name, e.entity_type, e.branch_id, e.status, e.last_accessed FROM entities e WHERE e.name LIKE ?`
		nameArgs := []interface{}{like}
		if branchID != 0 {
			nameQuery += " AND e.branch_id = ?"
			nameArgs = append(nameArgs, branchID)
		}
		nameQuery += statusSQL
		nameArgs = append(nameArgs, statusArgs...)
		if err := accumulate(nameQuery, 10, nameArgs); err != nil {
			return nil, nil, err
		}

		typeQuery := `SELECT e.id, e.name, e.entity_type, e.branch_id, e.status, e.last_accessed FROM entities e WHERE e.entity_type LIKE ?`
		typeArgs := []interface{}{like}
		if branchID != 0 {
			typeQuery += " AND e.branch_id = ?"
			typeArgs = append(typeArgs, branchID)
		}
		typeQuery += statusSQL
		typeArgs = append(typeArgs, statusArgs...)
		if err := accumulate(typeQuery, 8, typeArgs); err != nil {
			return nil, nil, err
		}

		contentQuery := `
			SELECT DISTINCT e.id, e.name, e.entity_type, e.branch_id, e.status, e.last_accessed
			FROM entities e JOIN observations o ON o.entity_id = e.id
			WHERE o.content LIKE ?
		`
		contentArgs := []interface{}{like}
		if branchID != 0 {
			contentQuery += " AND e.branch_id = ?"
			contentArgs = append(contentArgs, branchID)
		}
		contentQuery += statusSQL
		contentArgs = append(contentArgs, statusArgs...)
		if err := accumulate(contentQuery, 3, contentArgs); err != nil {
			return nil, nil, err
		}
	}

	return scores, refs, nil
}
