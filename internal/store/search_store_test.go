package store

import (
	"testing"
)

func TestSearchKeyword(t *testing.T) {
	s := newTestStore(t)

	created, err := s.CreateEntity(MainBranch, &Entity{
		Name: "postgres", EntityType: "technology",
		Keywords: []Keyword{{Keyword: "database", Weight: 5}, {Keyword: "sql", Weight: 3}},
	})
	if err != nil {
		t.Fatalf("failed to create entity: %v", err)
	}

	scores, refs, err := s.SearchKeyword(0, nil, []string{"data"})
	if err != nil {
		t.Fatalf("keyword search failed: %v", err)
	}
	if scores[created.ID] != 5 {
		t.Errorf("expected score 5 (1 match * weight 5), got %v", scores[created.ID])
	}
	if refs[created.ID].Name != "postgres" {
		t.Errorf("unexpected ref: %+v", refs[created.ID])
	}
}

func TestSearchLikeWeightsByColumn(t *testing.T) {
	s := newTestStore(t)

	nameMatch, err := s.CreateEntity(MainBranch, &Entity{Name: "kubernetes", EntityType: "tool"})
	if err != nil {
		t.Fatalf("failed to create entity: %v", err)
	}
	contentMatch, err := s.CreateEntity(MainBranch, &Entity{
		Name: "unrelated", EntityType: "tool",
		Observations: []Observation{{Content: "runs on kubernetes clusters"}},
	})
	if err != nil {
		t.Fatalf("failed to create entity: %v", err)
	}

	scores, _, err := s.SearchLike(0, nil, []string{"kubernetes"})
	if err != nil {
		t.Fatalf("like search failed: %v", err)
	}
	if scores[nameMatch.ID] != 10 {
		t.Errorf("expected name match score 10, got %v", scores[nameMatch.ID])
	}
	if scores[contentMatch.ID] != 3 {
		t.Errorf("expected content match score 3, got %v", scores[contentMatch.ID])
	}
}

func TestSearchLikeFiltersByBranch(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CreateEntity(MainBranch, &Entity{Name: "docker", EntityType: "tool"}); err != nil {
		t.Fatalf("failed to create entity: %v", err)
	}
	other, err := s.CreateEntity("other", &Entity{Name: "docker", EntityType: "tool"})
	if err != nil {
		t.Fatalf("failed to create entity: %v", err)
	}

	otherBranch, err := s.GetBranch("other")
	if err != nil {
		t.Fatalf("failed to get branch: %v", err)
	}

	scores, _, err := s.SearchLike(otherBranch.ID, nil, []string{"docker"})
	if err != nil {
		t.Fatalf("like search failed: %v", err)
	}
	if len(scores) != 1 {
		t.Fatalf("expected exactly 1 match scoped to branch, got %d", len(scores))
	}
	if _, ok := scores[other.ID]; !ok {
		t.Errorf("expected match to be the 'other' branch entity")
	}
}

func TestSearchLikeFiltersByStatus(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CreateEntity(MainBranch, &Entity{Name: "active-widget", EntityType: "tool", Status: StatusActive}); err != nil {
		t.Fatalf("failed to create entity: %v", err)
	}
	if _, err := s.CreateEntity(MainBranch, &Entity{Name: "archived-widget", EntityType: "tool", Status: StatusArchived}); err != nil {
		t.Fatalf("failed to create entity: %v", err)
	}

	scores, _, err := s.SearchLike(0, []string{StatusActive}, []string{"widget"})
	if err != nil {
		t.Fatalf("like search failed: %v", err)
	}
	if len(scores) != 1 {
		t.Errorf("expected only active-status match, got %d matches", len(scores))
	}
}

func TestSearchFTSMatchesContent(t *testing.T) {
	s := newTestStore(t)

	created, err := s.CreateEntity(MainBranch, &Entity{
		Name: "elasticsearch", EntityType: "technology",
		OptimizedContent: "distributed search and analytics engine",
	})
	if err != nil {
		t.Fatalf("failed to create entity: %v", err)
	}

	scores, refs, err := s.SearchFTS(0, nil, []string{"analytics"})
	if err != nil {
		t.Fatalf("fts search failed: %v", err)
	}
	if _, ok := scores[created.ID]; !ok {
		t.Fatalf("expected FTS match for entity id %d, scores: %v", created.ID, scores)
	}
	if refs[created.ID].Name != "elasticsearch" {
		t.Errorf("unexpected ref: %+v", refs[created.ID])
	}
}

func TestSearchFTSNoTermsReturnsNil(t *testing.T) {
	s := newTestStore(t)

	scores, refs, err := s.SearchFTS(0, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scores != nil || refs != nil {
		t.Errorf("expected nil results for empty terms, got %v, %v", scores, refs)
	}
}
