// Package similarity implements the weighted entity-to-entity similarity
// scoring used to detect candidate relations between entities: a
// composite score over name, type, content, naming-pattern, and
// structural features, plus confidence banding and relation-type
// inference.
package similarity

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/branchgraph/branchgraph/internal/store"
	"github.com/branchgraph/branchgraph/internal/textproc"
)

// Confidence bands (glossary: "Confidence band").
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Threshold is the minimum score considered a real similarity match
// (spec.md §4.4, decided authoritative in SPEC_FULL.md §9).
const Threshold = 0.5

// AutoRelationThreshold is the score at or above which the Indexer
// marks a suggestion auto-creatable (glossary: "Auto-relation threshold").
const AutoRelationThreshold = 0.78

const maxResults = 8

// weight coefficients for the composite score (spec.md §4.4).
const (
	weightName       = 0.35
	weightType       = 0.20
	weightContent    = 0.25
	weightPattern    = 0.15
	weightStructural = 0.05
)

// Match is one candidate's similarity result relative to a target entity.
type Match struct {
	Candidate             *store.Entity
	Score                 float64
	Confidence            string
	SuggestedRelationType string
	Reasoning             string
}

// DetectSimilar scores every candidate against target and returns at most
// 8 matches scoring at or above Threshold, sorted by score descending.
func DetectSimilar(target *store.Entity, candidates []store.Entity) []Match {
	var matches []Match

	for i := range candidates {
		candidate := &candidates[i]
		if candidate.ID == target.ID {
			continue
		}

		score := score(target, candidate)
		if score < Threshold {
			continue
		}

		matches = append(matches, Match{
			Candidate:             candidate,
			Score:                 score,
			Confidence:            confidenceBand(score),
			SuggestedRelationType: suggestRelationType(target, candidate, score),
			Reasoning:             reasoning(target, candidate, score),
		})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })

	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	return matches
}

func score(a, b *store.Entity) float64 {
	return weightName*nameSimilarity(a.Name, b.Name) +
		weightType*typeSimilarity(a.EntityType, b.EntityType) +
		weightContent*contentSimilarity(a, b) +
		weightPattern*textproc.NamePatternScore(a.Name, b.Name) +
		weightStructural*structuralSimilarity(a, b)
}

// nameSimilarity is the max of Levenshtein-normalised and
// Jaccard-of-meaningful-words x0.8 (spec.md §4.4).
func nameSimilarity(a, b string) float64 {
	lev := textproc.LevenshteinNormalized(strings.ToLower(a), strings.ToLower(b))
	jaccard := textproc.Jaccard(textproc.Tokenize(a), textproc.Tokenize(b)) * 0.8
	if jaccard > lev {
		return jaccard
	}
	return lev
}

func typeSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	return textproc.LevenshteinNormalized(strings.ToLower(a), strings.ToLower(b))
}

// contentSimilarity is 0.6*sentence + 0.4*keyword-set similarity of the
// joined observation content, or a 0.3 neutral value if either side has
// no observations.
func contentSimilarity(a, b *store.Entity) float64 {
	contentA := joinObservations(a)
	contentB := joinObservations(b)
	if contentA == "" || contentB == "" {
		return 0.3
	}

	sentence := textproc.LevenshteinNormalized(contentA, contentB)
	keywordSet := textproc.Jaccard(textproc.Tokenize(contentA), textproc.Tokenize(contentB))
	return 0.6*sentence + 0.4*keywordSet
}

func joinObservations(e *store.Entity) string {
	parts := make([]string, len(e.Observations))
	for i, o := range e.Observations {
		parts[i] = o.Content
	}
	return strings.Join(parts, " ")
}

// structuralSimilarity compares observation counts and status equality
// (spec.md §4.4), clamped to [0,1].
func structuralSimilarity(a, b *store.Entity) float64 {
	oa, ob := len(a.Observations), len(b.Observations)
	score := 0.0
	if oa > 0 || ob > 0 {
		maxO := oa
		if ob > maxO {
			maxO = ob
		}
		diff := oa - ob
		if diff < 0 {
			diff = -diff
		}
		score += 0.4 * (1 - float64(diff)/float64(maxO))
	}
	if a.Status == b.Status {
		score += 0.3
	}
	if score > 1 {
		return 1
	}
	return score
}

func confidenceBand(score float64) string {
	switch {
	case score >= 0.85:
		return ConfidenceHigh
	case score >= 0.75:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// suggestRelationType implements spec.md §4.4's ordered inference rules.
func suggestRelationType(a, b *store.Entity, score float64) string {
	lowerA, lowerB := strings.ToLower(a.Name), strings.ToLower(b.Name)
	if strings.Contains(lowerA, lowerB) || strings.Contains(lowerB, lowerA) {
		if len(lowerA) >= len(lowerB) {
			return "contains"
		}
		return "part_of"
	}

	if a.EntityType == b.EntityType {
		if score > 0.9 {
			return "similar_to"
		}
		return "related_to"
	}

	if score > 0.9 {
		return "closely_related"
	}
	return "related_to"
}

func reasoning(a, b *store.Entity, score float64) string {
	data, _ := json.Marshal(map[string]interface{}{
		"name":  a.Name,
		"other": b.Name,
		"score": score,
	})
	return string(data)
}
