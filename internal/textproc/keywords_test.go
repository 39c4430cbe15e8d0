package textproc

import "testing"

func TestExtractKeywordsRanksByScoreThenLexicographic(t *testing.T) {
	keywords := ExtractKeywords("database database database cache cache server", 10)
	if len(keywords) == 0 {
		t.Fatal("expected non-empty keywords")
	}
	if keywords[0].Term != "database" {
		t.Errorf("expected highest-frequency term first, got %q", keywords[0].Term)
	}
	for i := 1; i < len(keywords); i++ {
		prev, cur := keywords[i-1], keywords[i]
		if prev.Score < cur.Score {
			t.Errorf("keywords not sorted by score desc: %+v before %+v", prev, cur)
		}
		if prev.Score == cur.Score && prev.Term > cur.Term {
			t.Errorf("equal-score keywords not tie-broken lexicographically: %+v before %+v", prev, cur)
		}
	}
}

func TestExtractKeywordsRespectsMaxK(t *testing.T) {
	keywords := ExtractKeywords("alpha beta gamma delta epsilon zeta eta theta", 3)
	if len(keywords) != 3 {
		t.Errorf("expected 3 keywords, got %d", len(keywords))
	}
}

func TestExtractKeywordsBoostsPatterns(t *testing.T) {
	keywords := ExtractKeywords("see /etc/config/settings.yaml for the default setup", 10)
	found := false
	for _, k := range keywords {
		if k.Term == "etc/config/settings.yaml" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected file path pattern to be extracted as a keyword, got %+v", keywords)
	}
}
