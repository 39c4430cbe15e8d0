package textproc

import "testing"

func TestTokenizeDropsStopWordsAndShortTerms(t *testing.T) {
	tokens := Tokenize("The quick brown fox and a lazy dog")
	want := []string{"quick", "brown", "fox", "lazy", "dog"}
	if len(tokens) != len(want) {
		t.Fatalf("Tokenize() = %v, want %v", tokens, want)
	}
	for i, w := range want {
		if tokens[i] != w {
			t.Errorf("token[%d] = %q, want %q", i, tokens[i], w)
		}
	}
}

func TestTokenizeLowercases(t *testing.T) {
	tokens := Tokenize("PostgreSQL Database")
	if len(tokens) != 2 || tokens[0] != "postgresql" || tokens[1] != "database" {
		t.Errorf("Tokenize() = %v", tokens)
	}
}

func TestPrepareSearchTermsDeduplicatesAndSplits(t *testing.T) {
	terms := PrepareSearchTerms("redis-cache, redis_cache and the cache")
	seen := map[string]int{}
	for _, term := range terms {
		seen[term]++
	}
	for term, count := range seen {
		if count > 1 {
			t.Errorf("expected term %q to be deduplicated, appeared %d times", term, count)
		}
	}
	if seen["redis"] == 0 || seen["cache"] == 0 {
		t.Errorf("expected redis and cache terms, got %v", terms)
	}
}

func TestPrepareSearchTermsEmptyQuery(t *testing.T) {
	if terms := PrepareSearchTerms("   "); terms != nil {
		t.Errorf("expected nil for empty query, got %v", terms)
	}
}
