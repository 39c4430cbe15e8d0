package indexer

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/branchgraph/branchgraph/internal/store"
)

func newTestQueue(t *testing.T) (*Queue, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "indexer.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewQueue(s), s
}

func TestEnqueueDedupsSameTask(t *testing.T) {
	q, _ := newTestQueue(t)

	q.Enqueue(Task{Type: TaskIndexEntity, EntityID: 1, Branch: store.MainBranch})
	q.Enqueue(Task{Type: TaskIndexEntity, EntityID: 1, Branch: store.MainBranch})

	n := q.queueLen()
	if n != 1 {
		t.Errorf("expected duplicate enqueue to be suppressed, got %d queued tasks", n)
	}
}

func TestIndexEntityBuildsKeywordsAndEnqueuesDetect(t *testing.T) {
	q, s := newTestQueue(t)

	e, err := s.CreateEntity(store.MainBranch, &store.Entity{
		Name: "redis-cache", EntityType: "service",
		Observations: []store.Observation{{Content: "an in-memory cache for sessions"}},
	})
	if err != nil {
		t.Fatalf("failed to create entity: %v", err)
	}

	if err := q.indexEntity(Task{Type: TaskIndexEntity, EntityID: e.ID, Branch: store.MainBranch}); err != nil {
		t.Fatalf("indexEntity failed: %v", err)
	}

	q.mu.Lock()
	entry, ok := q.index[e.ID]
	q.mu.Unlock()
	tasks := q.queueLen()

	if !ok {
		t.Fatal("expected an index entry to be stored")
	}
	if len(entry.Keywords) == 0 {
		t.Error("expected non-empty keyword set")
	}
	if tasks != 1 {
		t.Errorf("expected detect_relationships to be enqueued, got %d queued tasks", tasks)
	}
}

func TestDetectRelationshipsRetainsOnlyHighMediumConfidence(t *testing.T) {
	q, s := newTestQueue(t)

	target, err := s.CreateEntity(store.MainBranch, &store.Entity{
		Name: "auth-service", EntityType: "service",
		Observations: []store.Observation{{Content: "handles login and tokens"}},
	})
	if err != nil {
		t.Fatalf("failed to create entity: %v", err)
	}
	if _, err := s.CreateEntity(store.MainBranch, &store.Entity{
		Name: "auth-service-v2", EntityType: "service",
		Observations: []store.Observation{{Content: "handles login and tokens"}},
	}); err != nil {
		t.Fatalf("failed to create entity: %v", err)
	}
	if _, err := s.CreateEntity(store.MainBranch, &store.Entity{
		Name: "quarterly-report", EntityType: "document",
		Observations: []store.Observation{{Content: "finance numbers for q3"}},
	}); err != nil {
		t.Fatalf("failed to create entity: %v", err)
	}

	if err := q.detectRelationships(Task{Type: TaskDetectRelationships, EntityID: target.ID, Branch: store.MainBranch}); err != nil {
		t.Fatalf("detectRelationships failed: %v", err)
	}

	q.mu.Lock()
	entry := q.index[target.ID]
	q.mu.Unlock()

	if entry == nil || len(entry.SuggestedRelations) == 0 {
		t.Fatal("expected at least one retained suggestion for the near-duplicate entity")
	}
	for _, m := range entry.SuggestedRelations {
		if m.Candidate.Name == "quarterly-report" {
			t.Error("unrelated entity should not survive the high/medium confidence filter")
		}
	}
}

func TestCleanupStaleEnqueuesIndexEntityPerEntity(t *testing.T) {
	q, s := newTestQueue(t)

	if _, err := s.CreateEntity(store.MainBranch, &store.Entity{Name: "a", EntityType: "t"}); err != nil {
		t.Fatalf("failed to create entity: %v", err)
	}
	if _, err := s.CreateEntity(store.MainBranch, &store.Entity{Name: "b", EntityType: "t"}); err != nil {
		t.Fatalf("failed to create entity: %v", err)
	}

	if err := q.cleanupStale(Task{Type: TaskCleanupStale, Branch: store.MainBranch}); err != nil {
		t.Fatalf("cleanupStale failed: %v", err)
	}

	n := q.queueLen()
	if n != 2 {
		t.Errorf("expected 2 index_entity tasks enqueued, got %d", n)
	}
}

func TestStartStopShutsDownCleanly(t *testing.T) {
	q, _ := newTestQueue(t)
	q.Start()

	done := make(chan struct{})
	go func() {
		q.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Stop did not return in time")
	}
}

func TestGetRelationshipSuggestionsMarksAutoCreatable(t *testing.T) {
	q, s := newTestQueue(t)

	target, err := s.CreateEntity(store.MainBranch, &store.Entity{
		Name: "payment-gateway", EntityType: "service",
		Observations: []store.Observation{{Content: "processes card transactions"}},
	})
	if err != nil {
		t.Fatalf("failed to create entity: %v", err)
	}
	if _, err := s.CreateEntity(store.MainBranch, &store.Entity{
		Name: "payment-gateway-v2", EntityType: "service",
		Observations: []store.Observation{{Content: "processes card transactions"}},
	}); err != nil {
		t.Fatalf("failed to create entity: %v", err)
	}

	if err := q.detectRelationships(Task{Type: TaskDetectRelationships, EntityID: target.ID, Branch: store.MainBranch}); err != nil {
		t.Fatalf("detectRelationships failed: %v", err)
	}

	suggestions := q.GetRelationshipSuggestions(target.ID)
	if len(suggestions) == 0 {
		t.Fatal("expected at least one suggestion")
	}
	if len(suggestions) > 10 {
		t.Errorf("expected at most 10 suggestions, got %d", len(suggestions))
	}
}
