package textproc

import (
	"strings"
	"testing"
)

func TestOptimizeMinimalCollapsesWhitespace(t *testing.T) {
	result := Optimize("  too   much    whitespace  ", LevelMinimal)
	if result.Optimized != "too much whitespace" {
		t.Errorf("Optimize(minimal) = %q", result.Optimized)
	}
}

func TestOptimizeBalancedAppliesAbbreviations(t *testing.T) {
	result := Optimize("update the configuration for production", LevelBalanced)
	if !containsWord(result.Optimized, "config") {
		t.Errorf("expected 'configuration' abbreviated to 'config', got %q", result.Optimized)
	}
	if !containsWord(result.Optimized, "prod") {
		t.Errorf("expected 'production' abbreviated to 'prod', got %q", result.Optimized)
	}
}

func TestOptimizeAggressiveAppliesShorthand(t *testing.T) {
	result := Optimize("this service is critical and has dependencies", LevelAggressive)
	if containsWord(result.Optimized, "is") {
		t.Errorf("expected 'is' replaced by shorthand, got %q", result.Optimized)
	}
}

func TestOptimizeIdempotentPerLevel(t *testing.T) {
	for _, level := range []Level{LevelMinimal, LevelBalanced, LevelAggressive} {
		once := Optimize("The application server configuration requires validation", level)
		twice := Optimize(once.Optimized, level)
		if once.Optimized != twice.Optimized {
			t.Errorf("Optimize(%s) not idempotent: %q != %q", level, once.Optimized, twice.Optimized)
		}
	}
}

func TestOptimizeCompressionRatio(t *testing.T) {
	result := Optimize("the quick brown fox jumps over the lazy dog", LevelAggressive)
	if result.CompressionRatio <= 0 || result.CompressionRatio > 1.5 {
		t.Errorf("unexpected compression ratio %v", result.CompressionRatio)
	}
}

func TestOptimizeDetectsEntities(t *testing.T) {
	result := Optimize("see internal/database/operations.go or call CreateRelationship(tx) for LOG_LEVEL=debug", LevelMinimal)
	want := []string{"internal/database/operations.go", "CreateRelationship(tx)", "LOG_LEVEL=debug"}
	for _, w := range want {
		found := false
		for _, e := range result.Entities {
			if e == w {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected Entities to contain %q, got %v", w, result.Entities)
		}
	}
}

func containsWord(text, word string) bool {
	for _, w := range strings.Fields(text) {
		if w == word {
			return true
		}
	}
	return false
}
