// Package textproc implements the pure, I/O-free text-processing
// primitives shared by the search and similarity engines: tokenization,
// stemming, keyword extraction, content optimization, and similarity
// scoring. None of these functions touch a database or the filesystem,
// following the small deterministic pure-function idiom the teacher uses
// for tag normalization in its memory service.
package textproc

import (
	"regexp"
	"strings"
)

// stopWords is the small English stop-word list named in spec.md §4.2.
var stopWords = map[string]bool{}

func init() {
	for _, w := range strings.Fields(
		"the a an and or but in on at to for of with by is are was were " +
			"have has had will would can that this it its as be from he by " +
			"during including",
	) {
		stopWords[w] = true
	}
}

var splitPattern = regexp.MustCompile(`[^a-zA-Z]+`)

// Tokenize lowercases text, splits on non-letter runs, drops terms of
// length <= 2, and drops stop words.
func Tokenize(text string) []string {
	lower := strings.ToLower(text)
	raw := splitPattern.Split(lower, -1)

	out := make([]string, 0, len(raw))
	for _, t := range raw {
		if len(t) <= 2 {
			continue
		}
		if stopWords[t] {
			continue
		}
		out = append(out, t)
	}
	return out
}

// queryTermPattern is the Search Engine's query-term splitter (spec.md
// §4.3 step 1): lowercase, split on whitespace/hyphen/underscore/comma/
// dot/slash, drop length <= 1 and stop words, deduplicate.
var queryTermPattern = regexp.MustCompile(`[\s\-_,./]+`)

// PrepareSearchTerms implements the Search Engine's term-preparation step.
// Order of first occurrence is preserved; duplicates are dropped.
func PrepareSearchTerms(query string) []string {
	lower := strings.ToLower(strings.TrimSpace(query))
	if lower == "" {
		return nil
	}
	raw := queryTermPattern.Split(lower, -1)

	seen := map[string]bool{}
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		if len(t) <= 1 || stopWords[t] || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
