package store

import (
	"errors"
	"testing"
)

func TestAddObservationsAppendsAfterMaxSequence(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CreateEntity(MainBranch, &Entity{
		Name: "mu", EntityType: "concept",
		Observations: []Observation{{Content: "first"}, {Content: "second"}},
	}); err != nil {
		t.Fatalf("failed to create entity: %v", err)
	}

	added, err := s.AddObservations(MainBranch, "mu", []string{"third", "  ", "fourth"})
	if err != nil {
		t.Fatalf("failed to add observations: %v", err)
	}
	if len(added) != 2 {
		t.Fatalf("expected 2 added (blank skipped), got %d", len(added))
	}

	e, err := s.GetEntity(MainBranch, "mu")
	if err != nil {
		t.Fatalf("failed to get entity: %v", err)
	}
	if len(e.Observations) != 4 {
		t.Fatalf("expected 4 total observations, got %d", len(e.Observations))
	}
	for i, o := range e.Observations {
		if o.SequenceOrder != i {
			t.Errorf("expected monotonic sequence order at %d, got %d", i, o.SequenceOrder)
		}
	}
}

func TestAddObservationsEntityNotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.AddObservations(MainBranch, "nonexistent", []string{"x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteObservationsNoRenumbering(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CreateEntity(MainBranch, &Entity{
		Name: "nu", EntityType: "concept",
		Observations: []Observation{{Content: "a"}, {Content: "b"}, {Content: "c"}},
	}); err != nil {
		t.Fatalf("failed to create entity: %v", err)
	}

	if err := s.DeleteObservations(MainBranch, "nu", []string{"b"}); err != nil {
		t.Fatalf("failed to delete observation: %v", err)
	}

	e, err := s.GetEntity(MainBranch, "nu")
	if err != nil {
		t.Fatalf("failed to get entity: %v", err)
	}
	if len(e.Observations) != 2 {
		t.Fatalf("expected 2 surviving observations, got %d", len(e.Observations))
	}
	if e.Observations[0].Content != "a" || e.Observations[0].SequenceOrder != 0 {
		t.Errorf("expected first observation unchanged, got %+v", e.Observations[0])
	}
	if e.Observations[1].Content != "c" || e.Observations[1].SequenceOrder != 2 {
		t.Errorf("expected surviving observation to keep original sequence order, got %+v", e.Observations[1])
	}
}
