// Package graph implements the Orchestrator: the policy layer wrapping
// Store with write-path enrichment (text optimization, keyword
// extraction, snapshotting, indexing, auto-relation creation) and the
// read-path expansion used by search and open.
package graph

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/branchgraph/branchgraph/internal/indexer"
	"github.com/branchgraph/branchgraph/internal/logging"
	"github.com/branchgraph/branchgraph/internal/search"
	"github.com/branchgraph/branchgraph/internal/similarity"
	"github.com/branchgraph/branchgraph/internal/store"
	"github.com/branchgraph/branchgraph/internal/textproc"
)

var log = logging.GetLogger("graph")

// CrossRefInput names target entities in another branch to attach as
// cross-references while creating an entity (spec.md §9 Design Notes).
type CrossRefInput struct {
	MemoryBranch string
	EntityNames  []string
}

// EntityInput is the caller-facing shape for createEntities, distinct
// from the stored Entity/CrossReference rows (spec.md §9).
type EntityInput struct {
	Name         string
	Type         string
	Observations []string
	Status       string
	Reason       string
	Keywords     []string
	CrossRefs    []CrossRefInput
}

// Options configures an Orchestrator.
type Options struct {
	BackupsDir          string
	MaxBackups          int
	AutoCreateRelations bool
}

// Orchestrator wraps a Store with the policy described in spec.md §4.5.
type Orchestrator struct {
	store   *store.Store
	search  *search.Engine
	indexer *indexer.Queue
	opts    Options
}

// New builds an Orchestrator over s, queueing a cleanup_stale task per
// branch to build the Indexer's in-memory index and starting its
// background worker immediately.
func New(s *store.Store, opts Options) *Orchestrator {
	o := &Orchestrator{
		store:  s,
		search: search.NewEngine(s),
		opts:   opts,
	}
	o.indexer = indexer.NewQueue(s)
	o.indexer.EnqueueCleanup()
	o.indexer.Start()
	return o
}

// CreateEntities runs the write path of spec.md §4.5 for each input:
// optimize observations and derive keywords, default status, create in
// the Store, enqueue indexing, and optionally auto-create relations for
// every Similarity Engine match at high confidence or scoring above
// similarity.Threshold. Once every input is created, one snapshot of the
// branch is written; an input that fails stops the batch before that.
func (o *Orchestrator) CreateEntities(branchName string, inputs []EntityInput) ([]store.Entity, error) {
	var created []store.Entity
	for _, in := range inputs {
		e, err := o.buildEntity(in)
		if err != nil {
			return created, err
		}

		stored, err := o.store.CreateEntity(branchName, e)
		if err != nil {
			return created, err
		}
		created = append(created, *stored)

		o.indexer.Enqueue(indexer.Task{Type: indexer.TaskIndexEntity, EntityID: stored.ID, Branch: branchName, Priority: indexer.PriorityHigh})

		if o.opts.AutoCreateRelations {
			if err := o.autoCreateRelations(branchName, stored); err != nil {
				log.Warn("auto-relation creation failed", "entity", stored.Name, "error", err)
			}
		}
	}

	if len(created) > 0 && o.opts.BackupsDir != "" {
		if _, err := o.store.SnapshotBranch(o.opts.BackupsDir, branchName, time.Now()); err != nil {
			log.Warn("failed to snapshot branch after entity creation", "branch", branchName, "error", err)
		}
	}
	return created, nil
}

// buildEntity runs Text Analyzer optimization on each observation and on
// a JSON rendering of the whole entity to derive keywords, per spec.md
// §4.5's createEntities write path.
func (o *Orchestrator) buildEntity(in EntityInput) (*store.Entity, error) {
	status := in.Status
	if status == "" {
		status = store.StatusActive
	}

	e := &store.Entity{
		Name:         in.Name,
		EntityType:   in.Type,
		Status:       status,
		StatusReason: in.Reason,
	}

	var originalParts []string
	for _, content := range in.Observations {
		content = strings.TrimSpace(content)
		if content == "" {
			continue
		}
		result := textproc.Optimize(content, textproc.LevelAggressive)
		e.Observations = append(e.Observations, store.Observation{
			Content:          content,
			OptimizedContent: result.Optimized,
		})
		originalParts = append(originalParts, content)
	}
	e.OriginalContent = strings.Join(originalParts, "\n")

	rendering, err := json.Marshal(struct {
		Name         string   `json:"name"`
		Type         string   `json:"type"`
		Observations []string `json:"observations"`
	}{in.Name, in.Type, in.Observations})
	if err != nil {
		return nil, fmt.Errorf("failed to render entity for keyword extraction: %w", err)
	}
	optimized := textproc.Optimize(string(rendering), textproc.LevelAggressive)
	e.OptimizedContent = optimized.Optimized
	e.TokenCount = optimized.TokenCount
	e.CompressionRatio = optimized.CompressionRatio

	for _, kw := range optimized.Keywords {
		e.Keywords = append(e.Keywords, store.Keyword{Keyword: kw.Term, Weight: kw.Score})
	}
	for _, kw := range in.Keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		e.Keywords = append(e.Keywords, store.Keyword{Keyword: kw, Weight: 1.0, Context: "explicit"})
	}

	for _, cr := range in.CrossRefs {
		for _, name := range cr.EntityNames {
			e.CrossReferences = append(e.CrossReferences, store.CrossReference{
				TargetBranchName: cr.MemoryBranch,
				TargetEntityName: name,
			})
		}
	}

	return e, nil
}

// autoCreateRelations runs the Similarity Engine against the active+draft
// entities in branchName and inserts a Relation for every match scoring
// above threshold or at high confidence (spec.md §4.5).
func (o *Orchestrator) autoCreateRelations(branchName string, target *store.Entity) error {
	candidates, err := o.store.ListEntities(branchName, []string{store.StatusActive, store.StatusDraft})
	if err != nil {
		return err
	}
	for i := range candidates {
		if full, err := o.store.EntityByID(candidates[i].ID); err == nil {
			candidates[i] = *full
		}
	}

	matches := similarity.DetectSimilar(target, candidates)
	var inputs []store.RelationInput
	for _, m := range matches {
		if m.Confidence == similarity.ConfidenceHigh || m.Score > similarity.Threshold {
			inputs = append(inputs, store.RelationInput{
				From:         target.Name,
				To:           m.Candidate.Name,
				RelationType: m.SuggestedRelationType,
			})
		}
	}
	if len(inputs) == 0 {
		return nil
	}
	_, err = o.store.CreateRelations(branchName, inputs)
	return err
}

// UpdateEntityStatus loads, mutates, and stores entityName's status
// (spec.md §4.5).
func (o *Orchestrator) UpdateEntityStatus(branchName, entityName, status, reason string) (*store.Entity, error) {
	e, err := o.store.GetEntity(branchName, entityName)
	if err != nil {
		return nil, err
	}
	e.Status = status
	e.StatusReason = reason
	return o.store.UpdateEntity(branchName, e)
}

// DeleteEntities removes the named entities from branchName.
func (o *Orchestrator) DeleteEntities(branchName string, names []string) ([]string, error) {
	return o.store.DeleteEntities(branchName, names)
}

// AddObservations appends content to entityName's observation list. No
// Text Analyzer optimization runs here: the Store keeps each new
// observation's own text as its optimized content.
func (o *Orchestrator) AddObservations(branchName, entityName string, contents []string) ([]string, error) {
	return o.store.AddObservations(branchName, entityName, contents)
}

// DeleteObservations removes matching observation content from
// entityName.
func (o *Orchestrator) DeleteObservations(branchName, entityName string, contents []string) error {
	return o.store.DeleteObservations(branchName, entityName, contents)
}

// CreateRelations inserts relations by entity name within branchName.
func (o *Orchestrator) CreateRelations(branchName string, inputs []store.RelationInput) ([]store.Relation, error) {
	return o.store.CreateRelations(branchName, inputs)
}

// DeleteRelations removes relations by (from, to, type) within
// branchName.
func (o *Orchestrator) DeleteRelations(branchName string, inputs []store.RelationInput) error {
	return o.store.DeleteRelations(branchName, inputs)
}

// CreateCrossReference attaches targetNames in targetBranch to
// entityName in sourceBranch.
func (o *Orchestrator) CreateCrossReference(sourceBranch, entityName, targetBranch string, targetNames []string) ([]store.CrossReference, error) {
	return o.store.CreateCrossReference(sourceBranch, entityName, targetBranch, targetNames)
}

// SearchOutcome is the Orchestrator's search result: ranked entities,
// relations among them, and any Similarity Engine expansion entities
// (spec.md §4.5's read path).
type SearchOutcome struct {
	Results   []search.Result
	Relations []store.Relation
	Expanded  []search.Result
}

// Search calls the Search Engine and, for a specific-branch query with
// non-empty results, expands the result set with high/medium-confidence
// similar entities from outside the result set (spec.md §4.5). Expansion
// is skipped for all_branches searches.
func (o *Orchestrator) Search(opts search.Options) (*SearchOutcome, error) {
	outcome, err := o.search.Search(opts)
	if err != nil {
		return nil, err
	}

	branchFilter := opts.BranchFilter
	if branchFilter == "" {
		branchFilter = store.MainBranch
	}
	if branchFilter == search.AllBranches || len(outcome.Results) == 0 {
		return &SearchOutcome{Results: outcome.Results, Relations: outcome.Relations}, nil
	}

	resultIDs := map[int64]bool{}
	for _, r := range outcome.Results {
		resultIDs[r.Entity.ID] = true
	}

	allEntities, err := o.store.ListEntities(branchFilter, nil)
	if err != nil {
		return nil, err
	}
	var outsideResults []store.Entity
	for _, e := range allEntities {
		if !resultIDs[e.ID] {
			if full, err := o.store.EntityByID(e.ID); err == nil {
				e = *full
			}
			outsideResults = append(outsideResults, e)
		}
	}

	expandedIDs := map[int64]bool{}
	var expanded []search.Result
	for i := range outcome.Results {
		matches := similarity.DetectSimilar(outcome.Results[i].Entity, outsideResults)
		for _, m := range matches {
			if m.Confidence != similarity.ConfidenceHigh && m.Confidence != similarity.ConfidenceMedium {
				continue
			}
			if expandedIDs[m.Candidate.ID] {
				continue
			}
			expandedIDs[m.Candidate.ID] = true
			expanded = append(expanded, search.Result{Entity: m.Candidate, RelevanceScore: m.Score})
		}
	}

	return &SearchOutcome{Results: outcome.Results, Relations: outcome.Relations, Expanded: expanded}, nil
}

// OpenEntities looks entityNames up by exact name in branchName and
// attaches all relations involving any of them, deduplicated (spec.md
// §4.5, §9).
func (o *Orchestrator) OpenEntities(branchName string, entityNames []string, statuses []string) ([]store.Entity, []store.Relation, error) {
	branch, err := o.store.GetBranch(branchName)
	if err != nil {
		return nil, nil, err
	}

	statusSet := map[string]bool{}
	for _, s := range statuses {
		statusSet[s] = true
	}

	var found []store.Entity
	var ids []int64
	for _, name := range entityNames {
		e, err := o.store.GetEntity(branchName, name)
		if err != nil {
			continue
		}
		if len(statusSet) > 0 && !statusSet[e.Status] {
			continue
		}
		found = append(found, *e)
		ids = append(ids, e.ID)
	}

	relations, err := o.store.RelationsInvolvingAny(branch.ID, ids)
	if err != nil {
		return nil, nil, err
	}
	return found, relations, nil
}

// docKeywords and demoKeywords drive SuggestBranch's rule table (spec.md
// §4.5).
var (
	docKeywords  = map[string]bool{"doc": true, "documentation": true, "spec": true, "guide": true}
	demoKeywords = map[string]bool{"demo": true, "example": true, "sample": true, "test": true}
)

// SuggestBranch scores each known non-main branch by substring overlap of
// its name/purpose against tokenized entityType+content, plus a small
// doc/demo rule table, returning the best-scoring branch or main if none
// score above zero (spec.md §4.5, §10).
func (o *Orchestrator) SuggestBranch(entityType, content string) (string, error) {
	branches, err := o.store.ListBranches()
	if err != nil {
		return "", err
	}

	terms := textproc.Tokenize(entityType + " " + content)
	termSet := map[string]bool{}
	for _, t := range terms {
		termSet[t] = true
	}

	wantsDoc := false
	wantsDemo := false
	for t := range termSet {
		if docKeywords[t] {
			wantsDoc = true
		}
		if demoKeywords[t] {
			wantsDemo = true
		}
	}

	best := ""
	bestScore := 0
	for _, b := range branches {
		if b.Name == store.MainBranch {
			continue
		}
		score := 0
		nameAndPurpose := strings.ToLower(b.Name + " " + b.Purpose)
		for t := range termSet {
			if strings.Contains(nameAndPurpose, t) {
				score++
			}
		}
		if wantsDoc && strings.Contains(nameAndPurpose, "doc") {
			score++
		}
		if wantsDemo && strings.Contains(nameAndPurpose, "demo") {
			score++
		}
		if score > bestScore {
			bestScore = score
			best = b.Name
		}
	}

	if bestScore == 0 {
		return store.MainBranch, nil
	}
	return best, nil
}

// ExportToFile writes branchName's pretty JSON export (spec.md §6) to
// backupsDir and returns the written path.
func (o *Orchestrator) ExportToFile(backupsDir, branchName string) (string, error) {
	return o.store.ExportBranch(backupsDir, branchName, time.Now())
}

// Export returns every entity and relation in branchName (spec.md §4.5).
func (o *Orchestrator) Export(branchName string) ([]store.Entity, []store.Relation, error) {
	branch, err := o.store.GetBranch(branchName)
	if err != nil {
		return nil, nil, err
	}
	entities, err := o.store.ListEntities(branchName, nil)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]int64, len(entities))
	for i, e := range entities {
		ids[i] = e.ID
	}
	relations, err := o.store.RelationsWithBothEndpointsIn(branch.ID, ids)
	if err != nil {
		return nil, nil, err
	}
	return entities, relations, nil
}

// Import accepts a previously exported graph and recreates it in
// branchName via createEntities/createRelations (spec.md §4.5).
func (o *Orchestrator) Import(branchName string, entities []EntityInput, relations []store.RelationInput) error {
	if _, err := o.CreateEntities(branchName, entities); err != nil {
		return err
	}
	if len(relations) > 0 {
		if _, err := o.store.CreateRelations(branchName, relations); err != nil {
			return err
		}
	}
	return nil
}

// ListBranches returns every branch with aggregate counts.
func (o *Orchestrator) ListBranches() ([]store.BranchInfo, error) {
	return o.store.ListBranches()
}

// CreateBranch creates a new named branch.
func (o *Orchestrator) CreateBranch(name, purpose string) (*store.Branch, error) {
	return o.store.CreateBranch(name, purpose)
}

// DeleteBranch removes a branch and its contents.
func (o *Orchestrator) DeleteBranch(name string) error {
	return o.store.DeleteBranch(name)
}

// Stats reports store-wide counts (spec.md §4.1 Supplemental).
func (o *Orchestrator) Stats() (*store.Stats, error) {
	return o.store.Stats()
}

// Close trims backups to the configured maximum, stops the Indexer, and
// closes the Store, in that order (spec.md §5).
func (o *Orchestrator) Close() error {
	if o.opts.BackupsDir != "" {
		maxBackups := o.opts.MaxBackups
		if maxBackups <= 0 {
			maxBackups = 5
		}
		if err := store.RotateBackups(o.opts.BackupsDir, maxBackups); err != nil {
			log.Warn("failed to rotate backups on close", "error", err)
		}
	}
	o.indexer.Stop()
	return o.store.Close()
}
