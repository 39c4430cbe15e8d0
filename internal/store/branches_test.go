package store

import (
	"errors"
	"testing"
)

func TestValidBranchName(t *testing.T) {
	cases := map[string]bool{
		"main":        true,
		"feature-123": true,
		"release.v2":  true,
		"under_score": true,
		"":            false,
		"has space":   false,
		"has/slash":   false,
	}
	for name, want := range cases {
		if got := ValidBranchName(name); got != want {
			t.Errorf("ValidBranchName(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestCreateAndGetBranch(t *testing.T) {
	s := newTestStore(t)

	b, err := s.CreateBranch("feature-x", "experimenting")
	if err != nil {
		t.Fatalf("failed to create branch: %v", err)
	}
	if b.Name != "feature-x" || b.Purpose != "experimenting" {
		t.Errorf("unexpected branch: %+v", b)
	}

	got, err := s.GetBranch("feature-x")
	if err != nil {
		t.Fatalf("failed to get branch: %v", err)
	}
	if got.ID != b.ID {
		t.Errorf("expected id %d, got %d", b.ID, got.ID)
	}

	byID, err := s.GetBranchByID(b.ID)
	if err != nil {
		t.Fatalf("failed to get branch by id: %v", err)
	}
	if byID.Name != "feature-x" {
		t.Errorf("expected name feature-x, got %q", byID.Name)
	}
}

func TestCreateBranchDuplicate(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CreateBranch("dup", ""); err != nil {
		t.Fatalf("failed to create branch: %v", err)
	}
	if _, err := s.CreateBranch("dup", ""); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestCreateBranchInvalidName(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CreateBranch("has space", ""); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestEnsureBranchCreatesOnce(t *testing.T) {
	s := newTestStore(t)

	first, err := s.EnsureBranch("implicit")
	if err != nil {
		t.Fatalf("failed to ensure branch: %v", err)
	}
	second, err := s.EnsureBranch("implicit")
	if err != nil {
		t.Fatalf("failed to ensure branch second time: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected same branch id, got %d and %d", first.ID, second.ID)
	}
}

func TestListBranchesMainFirst(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CreateBranch("aardvark", ""); err != nil {
		t.Fatalf("failed to create branch: %v", err)
	}

	branches, err := s.ListBranches()
	if err != nil {
		t.Fatalf("failed to list branches: %v", err)
	}
	if len(branches) != 2 {
		t.Fatalf("expected 2 branches, got %d", len(branches))
	}
	if branches[0].Name != MainBranch {
		t.Errorf("expected main branch first, got %q", branches[0].Name)
	}
}

func TestDeleteBranchCannotDeleteMain(t *testing.T) {
	s := newTestStore(t)

	if err := s.DeleteBranch(MainBranch); !errors.Is(err, ErrCannotDeleteMain) {
		t.Errorf("expected ErrCannotDeleteMain, got %v", err)
	}
}

func TestDeleteBranchNotFound(t *testing.T) {
	s := newTestStore(t)

	if err := s.DeleteBranch("nonexistent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteBranchCascadesEntities(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CreateBranch("doomed", ""); err != nil {
		t.Fatalf("failed to create branch: %v", err)
	}
	if _, err := s.CreateEntity("doomed", &Entity{Name: "alpha", EntityType: "concept"}); err != nil {
		t.Fatalf("failed to create entity: %v", err)
	}

	if err := s.DeleteBranch("doomed"); err != nil {
		t.Fatalf("failed to delete branch: %v", err)
	}
	if _, err := s.GetEntity("doomed", "alpha"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected entity to be cascaded away, got %v", err)
	}
}
