package textproc

import (
	"regexp"
	"sort"
	"strings"
)

// Keyword is a single extracted term with its computed score.
type Keyword struct {
	Term  string
	Score float64
}

var (
	camelOrPascalPattern = regexp.MustCompile(`^[a-z0-9]+[A-Z][a-zA-Z0-9]*$|^[A-Z][a-z0-9]+[A-Z][a-zA-Z0-9]*$`)
	hasDigitPattern      = regexp.MustCompile(`\d`)
	filePathPattern      = regexp.MustCompile(`(?:[\w.-]+/)+[\w.-]+|[\w-]+\.[a-zA-Z]{1,4}\b`)
	urlPattern           = regexp.MustCompile(`https?://\S+`)
	namespacePattern     = regexp.MustCompile(`@[\w.-]+/[\w.-]+`)
	upperSnakeAssignment = regexp.MustCompile(`\b[A-Z][A-Z0-9_]{2,}=\S+`)
	callPattern          = regexp.MustCompile(`\b[\w.]+\([^)]*\)`)
	capitalizedRun       = regexp.MustCompile(`\b([A-Z][a-zA-Z0-9]*(?:\s+[A-Z][a-zA-Z0-9]*)*)\b`)
)

// technicalTokenBonus classifies whether a raw (pre-tokenize) word looks
// like code: camelCase/PascalCase or contains a digit.
func technicalTokenBonus(word string) float64 {
	if camelOrPascalPattern.MatchString(word) || hasDigitPattern.MatchString(word) {
		return 2.0
	}
	return 0
}

// patternBonus sums 3x weight for every recognised pattern occurrence in
// text: file paths, URLs, @namespace/pkg, UPPER_SNAKE=value, call(args).
func patternBonus(text string) map[string]float64 {
	bonuses := map[string]float64{}
	add := func(matches []string) {
		for _, m := range matches {
			bonuses[strings.ToLower(m)] += 3.0
		}
	}
	add(filePathPattern.FindAllString(text, -1))
	add(urlPattern.FindAllString(text, -1))
	add(namespacePattern.FindAllString(text, -1))
	add(upperSnakeAssignment.FindAllString(text, -1))
	add(callPattern.FindAllString(text, -1))
	return bonuses
}

// ExtractEntities surfaces the technical-entity tokens recognised in text:
// file paths, URLs, @namespace/pkg references, UPPER_SNAKE=value
// assignments, call(args) expressions, and capitalized runs (spec.md
// §4.2's "entities" member of optimize's result). Unlike ExtractKeywords,
// matches keep their original casing and are deduplicated and sorted
// lexicographically rather than scored.
func ExtractEntities(text string) []string {
	seen := map[string]bool{}
	var entities []string
	add := func(matches []string) {
		for _, m := range matches {
			if seen[m] {
				continue
			}
			seen[m] = true
			entities = append(entities, m)
		}
	}

	add(filePathPattern.FindAllString(text, -1))
	add(urlPattern.FindAllString(text, -1))
	add(namespacePattern.FindAllString(text, -1))
	add(upperSnakeAssignment.FindAllString(text, -1))
	add(callPattern.FindAllString(text, -1))
	add(capitalizedRun.FindAllString(text, -1))

	sort.Strings(entities)
	return entities
}

// ExtractKeywords scores text's vocabulary by frequency plus additive
// bonuses for technical-looking tokens, recognised patterns (3x weight),
// and capitalized runs, returning the top maxK terms ordered by score
// descending then lexicographically (spec.md §4.2).
func ExtractKeywords(text string, maxK int) []Keyword {
	words := strings.Fields(text)
	freq := map[string]float64{}

	for _, w := range words {
		clean := strings.ToLower(strings.Trim(w, ".,;:!?()[]{}\"'"))
		if len(clean) <= 2 || stopWords[clean] {
			continue
		}
		freq[clean] += 1.0
		freq[clean] += technicalTokenBonus(w)
	}

	for term, bonus := range patternBonus(text) {
		freq[term] += bonus
	}

	for _, run := range capitalizedRun.FindAllString(text, -1) {
		clean := strings.ToLower(run)
		if len(clean) <= 2 || stopWords[clean] {
			continue
		}
		freq[clean] += 1.5
	}

	keywords := make([]Keyword, 0, len(freq))
	for term, score := range freq {
		keywords = append(keywords, Keyword{Term: term, Score: score})
	}

	sort.Slice(keywords, func(i, j int) bool {
		if keywords[i].Score != keywords[j].Score {
			return keywords[i].Score > keywords[j].Score
		}
		return keywords[i].Term < keywords[j].Term
	})

	if maxK > 0 && len(keywords) > maxK {
		keywords = keywords[:maxK]
	}
	return keywords
}
