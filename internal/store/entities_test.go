package store

import (
	"errors"
	"testing"
)

func TestCreateAndGetEntity(t *testing.T) {
	s := newTestStore(t)

	e := &Entity{
		Name:       "redis",
		EntityType: "technology",
		Observations: []Observation{
			{Content: "used for caching"},
			{Content: "supports pub/sub"},
		},
	}
	created, err := s.CreateEntity(MainBranch, e)
	if err != nil {
		t.Fatalf("failed to create entity: %v", err)
	}
	if created.Status != StatusActive {
		t.Errorf("expected default status %q, got %q", StatusActive, created.Status)
	}
	if len(created.Observations) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(created.Observations))
	}
	if created.Observations[0].SequenceOrder != 0 || created.Observations[1].SequenceOrder != 1 {
		t.Errorf("expected monotonic sequence order, got %d, %d",
			created.Observations[0].SequenceOrder, created.Observations[1].SequenceOrder)
	}

	got, err := s.GetEntity(MainBranch, "redis")
	if err != nil {
		t.Fatalf("failed to get entity: %v", err)
	}
	if got.Name != "redis" || len(got.Observations) != 2 {
		t.Errorf("unexpected entity: %+v", got)
	}
}

func TestCreateEntityEmptyObservationsDropped(t *testing.T) {
	s := newTestStore(t)

	e := &Entity{
		Name:       "beta",
		EntityType: "concept",
		Observations: []Observation{
			{Content: "   "},
			{Content: "real content"},
			{Content: ""},
		},
	}
	created, err := s.CreateEntity(MainBranch, e)
	if err != nil {
		t.Fatalf("failed to create entity: %v", err)
	}
	if len(created.Observations) != 1 {
		t.Fatalf("expected 1 surviving observation, got %d", len(created.Observations))
	}
	if created.Observations[0].Content != "real content" {
		t.Errorf("unexpected observation content: %q", created.Observations[0].Content)
	}
}

func TestCreateEntityRequiresNameAndType(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CreateEntity(MainBranch, &Entity{EntityType: "concept"}); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for missing name, got %v", err)
	}
	if _, err := s.CreateEntity(MainBranch, &Entity{Name: "gamma"}); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for missing type, got %v", err)
	}
}

func TestCreateEntityDuplicateName(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CreateEntity(MainBranch, &Entity{Name: "delta", EntityType: "concept"}); err != nil {
		t.Fatalf("failed to create entity: %v", err)
	}
	if _, err := s.CreateEntity(MainBranch, &Entity{Name: "delta", EntityType: "concept"}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestCreateEntityUnknownStatus(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateEntity(MainBranch, &Entity{Name: "epsilon", EntityType: "concept", Status: "bogus"})
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for unknown status, got %v", err)
	}
}

func TestCreateEntityEnsuresCrossReferenceBranch(t *testing.T) {
	s := newTestStore(t)

	e := &Entity{
		Name:       "zeta",
		EntityType: "concept",
		CrossReferences: []CrossReference{
			{TargetBranchName: "notes", TargetEntityName: "whatever"},
		},
	}
	if _, err := s.CreateEntity(MainBranch, e); err != nil {
		t.Fatalf("failed to create entity: %v", err)
	}
	if _, err := s.GetBranch("notes"); err != nil {
		t.Errorf("expected target branch to be implicitly created: %v", err)
	}
}

func TestEntityByIDDoesNotBumpLastAccessed(t *testing.T) {
	s := newTestStore(t)

	created, err := s.CreateEntity(MainBranch, &Entity{Name: "eta", EntityType: "concept"})
	if err != nil {
		t.Fatalf("failed to create entity: %v", err)
	}

	before, err := s.EntityByID(created.ID)
	if err != nil {
		t.Fatalf("failed to get entity by id: %v", err)
	}
	after, err := s.EntityByID(created.ID)
	if err != nil {
		t.Fatalf("failed to get entity by id: %v", err)
	}
	if !before.LastAccessed.Equal(after.LastAccessed) {
		t.Errorf("EntityByID should not bump last_accessed: %v != %v", before.LastAccessed, after.LastAccessed)
	}
}

func TestUpdateEntity(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CreateEntity(MainBranch, &Entity{Name: "theta", EntityType: "concept"}); err != nil {
		t.Fatalf("failed to create entity: %v", err)
	}

	updated, err := s.UpdateEntity(MainBranch, &Entity{
		Name:       "theta",
		EntityType: "concept",
		Status:     StatusDeprecated,
		Observations: []Observation{
			{Content: "new fact"},
		},
	})
	if err != nil {
		t.Fatalf("failed to update entity: %v", err)
	}
	if updated.Status != StatusDeprecated {
		t.Errorf("expected status %q, got %q", StatusDeprecated, updated.Status)
	}
	if len(updated.Observations) != 1 || updated.Observations[0].Content != "new fact" {
		t.Errorf("unexpected observations after update: %+v", updated.Observations)
	}
}

func TestUpdateEntityNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.UpdateEntity(MainBranch, &Entity{Name: "missing", EntityType: "concept", Status: StatusActive})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteEntitiesPartialSuccess(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CreateEntity(MainBranch, &Entity{Name: "iota", EntityType: "concept"}); err != nil {
		t.Fatalf("failed to create entity: %v", err)
	}

	deleted, err := s.DeleteEntities(MainBranch, []string{"iota", "nonexistent"})
	if err != nil {
		t.Fatalf("failed to delete entities: %v", err)
	}
	if len(deleted) != 1 || deleted[0] != "iota" {
		t.Errorf("expected only iota deleted, got %v", deleted)
	}
}

func TestListEntitiesFilteredByStatus(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CreateEntity(MainBranch, &Entity{Name: "kappa", EntityType: "concept", Status: StatusActive}); err != nil {
		t.Fatalf("failed to create entity: %v", err)
	}
	if _, err := s.CreateEntity(MainBranch, &Entity{Name: "lambda", EntityType: "concept", Status: StatusArchived}); err != nil {
		t.Fatalf("failed to create entity: %v", err)
	}

	active, err := s.ListEntities(MainBranch, []string{StatusActive})
	if err != nil {
		t.Fatalf("failed to list entities: %v", err)
	}
	if len(active) != 1 || active[0].Name != "kappa" {
		t.Errorf("expected only kappa, got %+v", active)
	}

	all, err := s.ListEntities(MainBranch, nil)
	if err != nil {
		t.Fatalf("failed to list entities: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 entities unfiltered, got %d", len(all))
	}
}
