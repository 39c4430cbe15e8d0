// Package search implements the multi-strategy ranked entity search
// pipeline: keyword, full-text, and substring strategies merged into a
// single relevance-ordered result set.
package search

import (
	"sort"

	"github.com/branchgraph/branchgraph/internal/store"
	"github.com/branchgraph/branchgraph/internal/textproc"
)

const (
	keywordBonus = 15.0
	ftsBonus     = 10.0
	likeBonus    = 5.0
	resultLimit  = 50
)

// AllBranches is the sentinel BranchFilter value that disables the
// branch predicate (spec.md §4.3).
const AllBranches = "*"

// Engine performs ranked searches over a Store. It owns merging, scoring,
// and truncation only; the per-strategy row-fetching primitives
// (SearchKeyword/SearchFTS/SearchLike) live on store.Store, mirroring how
// the teacher's Engine delegates straight to db.SearchFTS.
type Engine struct {
	store *store.Store
}

// NewEngine constructs a search Engine over s.
func NewEngine(s *store.Store) *Engine {
	return &Engine{store: s}
}

// Options configures a Search call.
type Options struct {
	Query        string
	BranchFilter string // specific branch name, AllBranches, or "" (defaults to main)
	Statuses     []string
}

// Result is a single ranked entity match.
type Result struct {
	Entity         *store.Entity
	RelevanceScore float64
}

// SearchOutcome is Search's return value: the ranked entities and the
// relations among them (spec.md §4.3 step 6).
type SearchOutcome struct {
	Results   []Result
	Relations []store.Relation
}

// Search runs the three-strategy pipeline described in spec.md §4.3 and
// returns at most 50 ranked results plus the relations between them.
func (e *Engine) Search(opts Options) (*SearchOutcome, error) {
	terms := textproc.PrepareSearchTerms(opts.Query)
	if len(terms) == 0 {
		return &SearchOutcome{}, nil
	}

	statuses := opts.Statuses
	if len(statuses) == 0 {
		statuses = []string{store.StatusActive}
	}

	branchFilter := opts.BranchFilter
	if branchFilter == "" {
		branchFilter = store.MainBranch
	}

	var branchID int64
	if branchFilter != AllBranches {
		branch, err := e.store.GetBranch(branchFilter)
		if err != nil {
			return nil, err
		}
		branchID = branch.ID
	}

	relevance := map[int64]float64{}
	refs := map[int64]store.EntityRef{}

	accumulate := func(scores map[int64]float64, strategyRefs map[int64]store.EntityRef, bonus float64) {
		for id := range scores {
			relevance[id] += bonus
			refs[id] = strategyRefs[id]
		}
	}

	keywordScores, keywordRefs, err := e.store.SearchKeyword(branchID, statuses, terms)
	if err != nil {
		return nil, err
	}
	accumulate(keywordScores, keywordRefs, keywordBonus)

	ftsScores, ftsRefs, err := e.store.SearchFTS(branchID, statuses, terms)
	if err == nil {
		accumulate(ftsScores, ftsRefs, ftsBonus)
	}
	// FtsUnavailable: skip FTS strategy, continue with keyword + LIKE (spec.md §7).

	likeScores, likeRefs, err := e.store.SearchLike(branchID, statuses, terms)
	if err != nil {
		return nil, err
	}
	accumulate(likeScores, likeRefs, likeBonus)

	ids := make([]int64, 0, len(refs))
	for id := range refs {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool {
		a, b := ids[i], ids[j]
		if relevance[a] != relevance[b] {
			return relevance[a] > relevance[b]
		}
		return refs[a].LastAccessed > refs[b].LastAccessed
	})

	if len(ids) > resultLimit {
		ids = ids[:resultLimit]
	}

	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		entity, err := e.store.EntityByID(id)
		if err != nil {
			continue
		}
		results = append(results, Result{Entity: entity, RelevanceScore: relevance[id]})
	}

	relations, err := e.store.RelationsWithBothEndpointsIn(branchID, ids)
	if err != nil {
		return nil, err
	}

	return &SearchOutcome{Results: results, Relations: relations}, nil
}
