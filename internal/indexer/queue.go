// Package indexer implements the background task queue that maintains
// per-entity keyword indexes and similarity-based relationship
// suggestions, polling at a fixed interval and never blocking the
// foreground write path.
package indexer

import (
	"strconv"
	"sync"
	"time"

	"github.com/branchgraph/branchgraph/internal/logging"
	"github.com/branchgraph/branchgraph/internal/similarity"
	"github.com/branchgraph/branchgraph/internal/store"
	"github.com/branchgraph/branchgraph/internal/textproc"
)

var log = logging.GetLogger("indexer")

// TaskType names the kind of background work to perform.
type TaskType string

const (
	TaskIndexEntity         TaskType = "index_entity"
	TaskDetectRelationships TaskType = "detect_relationships"
	TaskCleanupStale        TaskType = "cleanup_stale"
)

// Priority is a FIFO-per-priority hint; the queue does not reorder
// within a priority band (spec.md §4.6).
type Priority int

const (
	PriorityHigh Priority = iota
	PriorityNormal
	PriorityLow
)

// pollInterval is the Indexer's fixed polling interval (spec.md §4.6).
const pollInterval = 2 * time.Second

// candidatePoolSize bounds how many other entities detect_relationships
// pulls from the branch (spec.md §4.6).
const candidatePoolSize = 20

// cleanupBatchSize bounds how many entities per branch cleanup_stale
// enqueues (spec.md §4.6).
const cleanupBatchSize = 50

// Task is one unit of background work.
type Task struct {
	Type     TaskType
	EntityID int64
	Branch   string
	Priority Priority
}

func (t Task) dedupKey() string {
	return string(t.Type) + "|" + t.Branch + "|" + strconv.FormatInt(t.EntityID, 10)
}

// IndexEntry is the in-memory index maintained per entity (spec.md
// §4.6). It is never persisted; the Indexer rebuilds it from the Store
// on restart via cleanup_stale.
type IndexEntry struct {
	Keywords           []string
	SimilarityScores   map[int64]float64
	SuggestedRelations []similarity.Match
	LastIndexed        time.Time
}

// Queue is the single-consumer FIFO-per-priority task queue with
// (type, entityID, branch) dedup, grounded on the teacher's
// stopChan+goroutine background-loop idiom (internal/benchmark's
// LoopManager.StartLoop/StopLoop) and the mutex-guarded-struct idiom of
// internal/ratelimit's Bucket.
type Queue struct {
	store *store.Store

	mu      sync.Mutex
	byPrio  [3][]Task // indexed by Priority: FIFO within each band
	pending map[string]bool
	index   map[int64]*IndexEntry

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewQueue constructs a Queue over s. Call Start to begin draining it.
func NewQueue(s *store.Store) *Queue {
	return &Queue{
		store:   s,
		pending: map[string]bool{},
		index:   map[int64]*IndexEntry{},
	}
}

// Enqueue adds a task to the queue unless an equivalent (type, entityID,
// branch) task is already pending. Priorities are hints: the queue is
// FIFO within each priority band, and bands drain high before normal
// before low (spec.md §4.6).
func (q *Queue) Enqueue(t Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	key := t.dedupKey()
	if q.pending[key] {
		return
	}
	q.pending[key] = true
	q.byPrio[t.Priority] = append(q.byPrio[t.Priority], t)
}

// queueLen reports the total number of queued tasks across all
// priority bands.
func (q *Queue) queueLen() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, band := range q.byPrio {
		n += len(band)
	}
	return n
}

// EnqueueCleanup enqueues a cleanup_stale task for every known branch
// (called once at startup to rebuild the in-memory index).
func (q *Queue) EnqueueCleanup() {
	branches, err := q.store.ListBranches()
	if err != nil {
		log.Warn("failed to list branches for cleanup enqueue", "error", err)
		return
	}
	for _, b := range branches {
		q.Enqueue(Task{Type: TaskCleanupStale, Branch: b.Name, Priority: PriorityLow})
	}
}

// Start launches the background worker goroutine.
func (q *Queue) Start() {
	q.stopCh = make(chan struct{})
	q.wg.Add(1)
	go q.run()
}

// Stop signals the worker to exit and blocks until it does.
func (q *Queue) Stop() {
	close(q.stopCh)
	q.wg.Wait()
}

func (q *Queue) run() {
	defer q.wg.Done()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-q.stopCh:
			return
		case <-ticker.C:
			q.drain()
		}
	}
}

// drain processes every task currently queued, checking for shutdown
// between tasks (spec.md §5).
func (q *Queue) drain() {
	for {
		select {
		case <-q.stopCh:
			return
		default:
		}

		task, ok := q.dequeue()
		if !ok {
			return
		}
		if err := q.process(task); err != nil {
			log.Warn("indexer task failed", "type", task.Type, "entity", task.EntityID, "branch", task.Branch, "error", err)
		}
	}
}

func (q *Queue) dequeue() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for p := range q.byPrio {
		if len(q.byPrio[p]) == 0 {
			continue
		}
		t := q.byPrio[p][0]
		q.byPrio[p] = q.byPrio[p][1:]
		delete(q.pending, t.dedupKey())
		return t, true
	}
	return Task{}, false
}

func (q *Queue) process(t Task) error {
	switch t.Type {
	case TaskIndexEntity:
		return q.indexEntity(t)
	case TaskDetectRelationships:
		return q.detectRelationships(t)
	case TaskCleanupStale:
		return q.cleanupStale(t)
	default:
		return nil
	}
}

// indexEntity extracts the entity's keyword set and stores an
// in-memory index entry, then enqueues detect_relationships for the same
// entity (spec.md §4.6).
func (q *Queue) indexEntity(t Task) error {
	e, err := q.store.EntityByID(t.EntityID)
	if err != nil {
		return err
	}

	keywordSet := map[string]bool{}
	for _, term := range textproc.Tokenize(e.EntityType + " " + e.Name) {
		if len(term) > 2 {
			keywordSet[term] = true
		}
	}
	for _, o := range e.Observations {
		for _, term := range textproc.Tokenize(o.Content) {
			if len(term) > 2 {
				keywordSet[term] = true
			}
		}
	}
	keywords := make([]string, 0, len(keywordSet))
	for k := range keywordSet {
		keywords = append(keywords, k)
	}

	q.mu.Lock()
	q.index[t.EntityID] = &IndexEntry{Keywords: keywords, LastIndexed: time.Now()}
	q.mu.Unlock()

	q.Enqueue(Task{Type: TaskDetectRelationships, EntityID: t.EntityID, Branch: t.Branch, Priority: t.Priority})
	return nil
}

// detectRelationships pulls up to 20 other entities from the branch,
// scores them against the target with the Similarity Engine, and
// overwrites the entity's similarity scores and suggestions, keeping
// only high/medium confidence matches (spec.md §4.6).
func (q *Queue) detectRelationships(t Task) error {
	target, err := q.store.EntityByID(t.EntityID)
	if err != nil {
		return err
	}

	all, err := q.store.ListEntities(t.Branch, nil)
	if err != nil {
		return err
	}
	candidates := all
	if len(candidates) > candidatePoolSize {
		candidates = candidates[:candidatePoolSize]
	}
	for i := range candidates {
		if full, err := q.store.EntityByID(candidates[i].ID); err == nil {
			candidates[i] = *full
		}
	}

	matches := similarity.DetectSimilar(target, candidates)
	var retained []similarity.Match
	scores := map[int64]float64{}
	for _, m := range matches {
		if m.Confidence != similarity.ConfidenceHigh && m.Confidence != similarity.ConfidenceMedium {
			continue
		}
		retained = append(retained, m)
		scores[m.Candidate.ID] = m.Score
	}

	q.mu.Lock()
	entry, ok := q.index[t.EntityID]
	if !ok {
		entry = &IndexEntry{}
		q.index[t.EntityID] = entry
	}
	entry.SimilarityScores = scores
	entry.SuggestedRelations = retained
	entry.LastIndexed = time.Now()
	q.mu.Unlock()

	return nil
}

// cleanupStale enqueues index_entity for up to the first 50 entities in
// t.Branch, used to rebuild the in-memory index on startup (spec.md
// §4.6).
func (q *Queue) cleanupStale(t Task) error {
	entities, err := q.store.ListEntities(t.Branch, nil)
	if err != nil {
		return err
	}
	if len(entities) > cleanupBatchSize {
		entities = entities[:cleanupBatchSize]
	}
	for _, e := range entities {
		q.Enqueue(Task{Type: TaskIndexEntity, EntityID: e.ID, Branch: t.Branch, Priority: PriorityLow})
	}
	return nil
}

// GetRelationshipSuggestions returns entityID's top 10 suggestions by
// confidence, isAutoCreatable marked via AUTO_RELATION_THRESHOLD (spec.md
// §4.6).
func (q *Queue) GetRelationshipSuggestions(entityID int64) []Suggestion {
	q.mu.Lock()
	entry, ok := q.index[entityID]
	q.mu.Unlock()
	if !ok {
		return nil
	}

	suggestions := make([]Suggestion, len(entry.SuggestedRelations))
	for i, m := range entry.SuggestedRelations {
		suggestions[i] = Suggestion{Match: m, IsAutoCreatable: m.Score >= similarity.AutoRelationThreshold}
	}
	if len(suggestions) > 10 {
		suggestions = suggestions[:10]
	}
	return suggestions
}

// Suggestion pairs a Similarity Engine match with the auto-creatable
// classification (spec.md §4.6).
type Suggestion struct {
	Match           similarity.Match
	IsAutoCreatable bool
}
