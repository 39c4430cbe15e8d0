package similarity

import (
	"testing"

	"github.com/branchgraph/branchgraph/internal/store"
)

func TestDetectSimilarRanksNearDuplicateHighest(t *testing.T) {
	target := &store.Entity{ID: 1, Name: "redis-cache", EntityType: "service", Status: store.StatusActive,
		Observations: []store.Observation{{Content: "in-memory cache used for session storage"}}}

	candidates := []store.Entity{
		{ID: 2, Name: "redis-cache-cluster", EntityType: "service", Status: store.StatusActive,
			Observations: []store.Observation{{Content: "in-memory cache used for session storage"}}},
		{ID: 3, Name: "postgres-primary", EntityType: "database", Status: store.StatusActive,
			Observations: []store.Observation{{Content: "durable relational storage for orders"}}},
	}

	matches := DetectSimilar(target, candidates)
	if len(matches) == 0 {
		t.Fatalf("expected at least one match")
	}
	if matches[0].Candidate.ID != 2 {
		t.Errorf("expected near-duplicate ranked first, got entity %d", matches[0].Candidate.ID)
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Score > matches[i-1].Score {
			t.Errorf("matches not sorted by score descending")
		}
	}
}

func TestDetectSimilarExcludesSelf(t *testing.T) {
	target := &store.Entity{ID: 1, Name: "widget", EntityType: "tool"}
	candidates := []store.Entity{{ID: 1, Name: "widget", EntityType: "tool"}}

	matches := DetectSimilar(target, candidates)
	if len(matches) != 0 {
		t.Errorf("expected target excluded from its own candidate set, got %d matches", len(matches))
	}
}

func TestDetectSimilarDropsBelowThreshold(t *testing.T) {
	target := &store.Entity{ID: 1, Name: "kubernetes-operator", EntityType: "tool",
		Observations: []store.Observation{{Content: "manages custom resources in a cluster"}}}
	candidates := []store.Entity{
		{ID: 2, Name: "quarterly-budget-spreadsheet", EntityType: "document",
			Observations: []store.Observation{{Content: "finance tracking for q3 headcount"}}},
	}

	matches := DetectSimilar(target, candidates)
	if len(matches) != 0 {
		t.Errorf("expected unrelated entity below threshold to be dropped, got %d matches", len(matches))
	}
}

func TestDetectSimilarCapsAtEightResults(t *testing.T) {
	target := &store.Entity{ID: 1, Name: "service-alpha", EntityType: "service",
		Observations: []store.Observation{{Content: "handles alpha traffic"}}}

	var candidates []store.Entity
	for i := 2; i < 14; i++ {
		candidates = append(candidates, store.Entity{
			ID: int64(i), Name: "service-alpha-replica", EntityType: "service",
			Observations: []store.Observation{{Content: "handles alpha traffic"}},
		})
	}

	matches := DetectSimilar(target, candidates)
	if len(matches) > 8 {
		t.Errorf("expected at most 8 matches, got %d", len(matches))
	}
}

func TestSuggestRelationTypeContainment(t *testing.T) {
	a := &store.Entity{Name: "auth-service", EntityType: "service"}
	b := &store.Entity{Name: "auth-service-v2", EntityType: "service"}

	got := suggestRelationType(a, b, 0.6)
	if got != "part_of" {
		t.Errorf("suggestRelationType(a contained in b) = %q, want part_of", got)
	}

	got = suggestRelationType(b, a, 0.6)
	if got != "contains" {
		t.Errorf("suggestRelationType(b contains a) = %q, want contains", got)
	}
}

func TestSuggestRelationTypeSameTypeHighScore(t *testing.T) {
	a := &store.Entity{Name: "alpha", EntityType: "service"}
	b := &store.Entity{Name: "beta", EntityType: "service"}

	if got := suggestRelationType(a, b, 0.95); got != "similar_to" {
		t.Errorf("suggestRelationType same type high score = %q, want similar_to", got)
	}
	if got := suggestRelationType(a, b, 0.6); got != "related_to" {
		t.Errorf("suggestRelationType same type low score = %q, want related_to", got)
	}
}

func TestSuggestRelationTypeDifferentTypeHighScore(t *testing.T) {
	a := &store.Entity{Name: "alpha", EntityType: "service"}
	b := &store.Entity{Name: "beta", EntityType: "database"}

	if got := suggestRelationType(a, b, 0.95); got != "closely_related" {
		t.Errorf("suggestRelationType different type high score = %q, want closely_related", got)
	}
	if got := suggestRelationType(a, b, 0.6); got != "related_to" {
		t.Errorf("suggestRelationType different type low score = %q, want related_to", got)
	}
}

func TestConfidenceBands(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{0.9, ConfidenceHigh},
		{0.85, ConfidenceHigh},
		{0.8, ConfidenceMedium},
		{0.75, ConfidenceMedium},
		{0.6, ConfidenceLow},
	}
	for _, tc := range cases {
		if got := confidenceBand(tc.score); got != tc.want {
			t.Errorf("confidenceBand(%v) = %q, want %q", tc.score, got, tc.want)
		}
	}
}
