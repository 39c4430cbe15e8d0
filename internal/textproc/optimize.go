package textproc

import (
	"regexp"
	"strings"
)

// Level is a content optimization level (spec.md §4.2).
type Level string

const (
	LevelMinimal    Level = "minimal"
	LevelBalanced   Level = "balanced"
	LevelAggressive Level = "aggressive"
)

// abbreviations is the fixed abbreviation table applied at balanced and
// aggressive levels (glossary: "Compression level").
var abbreviations = map[string]string{
	"configuration":  "config",
	"implementation": "impl",
	"application":    "app",
	"environment":    "env",
	"development":    "dev",
	"production":     "prod",
	"repository":     "repo",
	"documentation":  "docs",
	"requirements":   "reqs",
	"specification":  "spec",
	"performance":    "perf",
	"optimization":   "opt",
	"management":     "mgmt",
	"information":    "info",
	"technology":     "tech",
	"framework":      "fw",
	"library":        "lib",
	"service":        "svc",
	"server":         "srv",
	"client":         "cli",
	"request":        "req",
	"response":       "resp",
	"message":        "msg",
	"session":        "sess",
	"transaction":    "txn",
	"operation":      "op",
	"process":        "proc",
	"system":         "sys",
	"network":        "net",
	"security":       "sec",
	"encryption":     "enc",
	"validation":     "val",
}

// connectiveShorthand is the aggressive-level substitution table, matched
// against whole words case-insensitively.
var connectiveShorthand = []struct{ from, to string }{
	{"is", "="},
	{"has", ">"},
	{"with", "+"},
	{"and", "&"},
	{"that", ":"},
	{"which", ":"},
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Result is optimize's return value (spec.md §4.2).
type Result struct {
	Optimized          string
	Keywords           []Keyword
	Entities           []string
	TokenCount         int
	OriginalTokenCount int
	CompressionRatio   float64
}

// isImportantWord reports whether word should survive filler-word
// dropping at balanced/aggressive levels: contains a digit, contains an
// uppercase letter, or is longer than 3 runes.
func isImportantWord(word string) bool {
	if hasDigitPattern.MatchString(word) {
		return true
	}
	for _, r := range word {
		if r >= 'A' && r <= 'Z' {
			return true
		}
	}
	return len(word) > 3
}

func collapseWhitespace(text string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

func applyAbbreviations(text string) string {
	words := strings.Fields(text)
	for i, w := range words {
		lower := strings.ToLower(w)
		if abbr, ok := abbreviations[lower]; ok {
			words[i] = abbr
		}
	}
	return strings.Join(words, " ")
}

// dropFillerWords removes stop words unless they are adjacent to an
// "important" word (balanced level's filler-drop rule).
func dropFillerWords(text string) string {
	words := strings.Fields(text)
	out := make([]string, 0, len(words))
	for i, w := range words {
		clean := strings.ToLower(strings.Trim(w, ".,;:!?"))
		if !stopWords[clean] {
			out = append(out, w)
			continue
		}
		adjacentImportant := (i > 0 && isImportantWord(words[i-1])) || (i+1 < len(words) && isImportantWord(words[i+1]))
		if adjacentImportant {
			out = append(out, w)
		}
	}
	return strings.Join(out, " ")
}

// dropAllFillerWords removes every stop word unconditionally (aggressive
// level, after the balanced pass already ran).
func dropAllFillerWords(text string) string {
	words := strings.Fields(text)
	out := make([]string, 0, len(words))
	for _, w := range words {
		clean := strings.ToLower(strings.Trim(w, ".,;:!?"))
		if !stopWords[clean] {
			out = append(out, w)
		}
	}
	return strings.Join(out, " ")
}

func applyConnectiveShorthand(text string) string {
	words := strings.Fields(text)
	for i, w := range words {
		lower := strings.ToLower(w)
		for _, sub := range connectiveShorthand {
			if lower == sub.from {
				words[i] = sub.to
				break
			}
		}
	}
	return strings.Join(words, " ")
}

// Optimize implements spec.md §4.2's three-level content compression.
// Idempotent at each level: re-running Optimize on an already-optimized
// string at the same level returns the same string.
func Optimize(text string, level Level) Result {
	originalTokens := CountTokens(text)

	optimized := collapseWhitespace(text)

	switch level {
	case LevelBalanced:
		optimized = applyAbbreviations(optimized)
		optimized = dropFillerWords(optimized)
		optimized = collapseWhitespace(optimized)
	case LevelAggressive:
		optimized = applyAbbreviations(optimized)
		optimized = dropFillerWords(optimized)
		optimized = applyConnectiveShorthand(optimized)
		optimized = dropAllFillerWords(optimized)
		optimized = collapseWhitespace(optimized)
	}

	tokenCount := CountTokens(optimized)
	ratio := 1.0
	if originalTokens > 0 {
		ratio = float64(tokenCount) / float64(originalTokens)
	}

	return Result{
		Optimized:          optimized,
		Keywords:           ExtractKeywords(text, 10),
		Entities:           ExtractEntities(text),
		TokenCount:         tokenCount,
		OriginalTokenCount: originalTokens,
		CompressionRatio:   ratio,
	}
}
