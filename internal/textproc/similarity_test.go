package textproc

import "testing"

func TestJaccardIdentityAndEmpty(t *testing.T) {
	if got := Jaccard(nil, nil); got != 1 {
		t.Errorf("Jaccard(nil, nil) = %v, want 1", got)
	}
	if got := Jaccard([]string{"a"}, nil); got != 0 {
		t.Errorf("Jaccard({a}, nil) = %v, want 0", got)
	}
	if got := Jaccard([]string{"a", "b"}, []string{"a", "b"}); got != 1 {
		t.Errorf("Jaccard identical sets = %v, want 1", got)
	}
}

func TestJaccardSymmetric(t *testing.T) {
	a := []string{"redis", "cache", "database"}
	b := []string{"database", "storage"}
	if Jaccard(a, b) != Jaccard(b, a) {
		t.Errorf("Jaccard should be symmetric")
	}
}

func TestJaccardPartialOverlap(t *testing.T) {
	got := Jaccard([]string{"a", "b", "c"}, []string{"b", "c", "d"})
	want := 2.0 / 4.0
	if got != want {
		t.Errorf("Jaccard = %v, want %v", got, want)
	}
}

func TestLevenshteinNormalized(t *testing.T) {
	if got := LevenshteinNormalized("", ""); got != 1 {
		t.Errorf("LevenshteinNormalized(\"\",\"\") = %v, want 1", got)
	}
	if got := LevenshteinNormalized("kitten", "kitten"); got != 1 {
		t.Errorf("LevenshteinNormalized identical = %v, want 1", got)
	}
	got := LevenshteinNormalized("kitten", "sitting")
	if got <= 0 || got >= 1 {
		t.Errorf("LevenshteinNormalized(kitten, sitting) = %v, want in (0,1)", got)
	}
}

func TestNamePatternScoreSharedWords(t *testing.T) {
	score := NamePatternScore("redis cache server", "redis cache cluster")
	if score <= 0 {
		t.Errorf("expected positive score for shared words, got %v", score)
	}
	if score > 1 {
		t.Errorf("expected score clamped to 1, got %v", score)
	}
}

func TestNamePatternScoreClampedToOne(t *testing.T) {
	score := NamePatternScore("alpha beta gamma delta epsilon", "alpha beta gamma delta epsilon")
	if score != 1 {
		t.Errorf("expected clamped score of 1, got %v", score)
	}
}
