package textproc

import "strings"

// suffixRule is one step of the Porter-style suffix-stripping cascade:
// strip suffix if the stem that remains is at least minStem runes long.
type suffixRule struct {
	suffix  string
	replace string
	minStem int
}

// stemRules approximates Porter's step 1 (plurals and common verb/noun
// suffixes), applied longest-match-first. A full Porter implementation
// isn't warranted here; spec.md §4.2 only requires a "lightweight,
// deterministic" stemmer.
var stemRules = []suffixRule{
	{"ational", "ate", 3},
	{"tional", "tion", 3},
	{"ization", "ize", 3},
	{"fulness", "ful", 3},
	{"iveness", "ive", 3},
	{"ousness", "ous", 3},
	{"ing", "", 3},
	{"edly", "", 3},
	{"ies", "y", 2},
	{"ied", "y", 2},
	{"ed", "", 3},
	{"es", "", 3},
	{"s", "", 3},
}

// Stem applies the suffix-stripping cascade to a single lowercase term.
// Deterministic: the same input always produces the same output.
func Stem(term string) string {
	t := strings.ToLower(term)
	for _, rule := range stemRules {
		if strings.HasSuffix(t, rule.suffix) {
			stem := strings.TrimSuffix(t, rule.suffix)
			if len(stem) < rule.minStem {
				continue
			}
			return stem + rule.replace
		}
	}
	return t
}

// StemAll stems each term in terms.
func StemAll(terms []string) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = Stem(t)
	}
	return out
}
