package textproc

import (
	"strings"
	"unicode"
)

// commonPairs is a small fixed table of frequent two-character byte pairs,
// approximating a BPE vocabulary closely enough to produce a stable token
// estimate without shipping a full subword tokenizer (spec.md §4.2: "byte-
// pair-style estimate when available").
var commonPairs = map[string]bool{
	"th": true, "he": true, "in": true, "er": true, "an": true,
	"re": true, "on": true, "at": true, "en": true, "nd": true,
	"ti": true, "es": true, "or": true, "te": true, "of": true,
	"ed": true, "is": true, "it": true, "al": true, "ar": true,
}

// CountTokens estimates text's token count with a byte-pair-style
// heuristic: each word contributes one token per 2-3 characters it
// doesn't share a recognised common pair with, falling back to
// ceil(len(text)/4) for inputs too short or irregular to estimate this
// way.
func CountTokens(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return ceilDiv(len(text), 4)
	}

	total := 0
	for _, w := range words {
		total += estimateWordTokens(w)
	}
	if total == 0 {
		return ceilDiv(len(text), 4)
	}
	return total
}

func estimateWordTokens(word string) int {
	runes := []rune(strings.ToLower(word))
	if len(runes) == 0 {
		return 0
	}
	if !isASCIIWord(runes) {
		return ceilDiv(len(word), 4)
	}

	tokens := 1
	i := 0
	for i < len(runes)-1 {
		pair := string(runes[i : i+2])
		if commonPairs[pair] {
			i += 2
		} else {
			i++
			tokens++
		}
	}
	return tokens
}

func isASCIIWord(runes []rune) bool {
	for _, r := range runes {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
