/* search.go
 * Contains the logic for parsing free text input: identifier detection, quoted term splitting and fuzzy name matching
 * Authors: Zachary Bower
 */

package logic

import (
	"regexp"
	"sort"
	"strings"

	"github.com/go-andiamo/splitter"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// IsEmail reports whether identifier should be looked up as an email rather than a username
func IsEmail(identifier string) bool {
	return emailPattern.MatchString(strings.TrimSpace(identifier))
}

var quoteReplacer = strings.NewReplacer("\"", "", "“", "", "”", "")

// SplitTerms splits input on spaces, keeping quoted phrases such as "Friday Cup" together as one term
// Preconditions: Receives raw user input
// Postconditions: Returns the non-empty terms with their quotes removed, or an error for unbalanced quotes
func SplitTerms(input string) ([]string, error) {
	spaceSplitter, err := splitter.NewSplitter(' ', splitter.DoubleQuotes, splitter.LeftRightDoubleDoubleQuotes)
	if err != nil {
		return nil, err
	}
	parts, err := spaceSplitter.Split(strings.TrimSpace(input))
	if err != nil {
		return nil, err
	}

	terms := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(quoteReplacer.Replace(p))
		if p != "" {
			terms = append(terms, p)
		}
	}
	return terms, nil
}

// FuzzyFilter returns the candidates matching any of the terms, best matches first
// Preconditions: Receives search terms and the candidate names
// Postconditions: Returns each matching candidate once, with its original casing. Exact matches rank first, then by
// fuzzy distance, then alphabetically
func FuzzyFilter(terms []string, candidates []string) []string {
	lookup := make(map[string]string, len(candidates))
	lower := make([]string, 0, len(candidates))
	for _, c := range candidates {
		l := strings.ToLower(c)
		if _, ok := lookup[l]; !ok {
			lookup[l] = c
			lower = append(lower, l)
		}
	}

	best := make(map[string]int)
	for _, term := range terms {
		term = strings.ToLower(term)
		for _, r := range fuzzy.RankFind(term, lower) {
			dist := r.Distance + 1
			if r.Target == term {
				dist = 0
			}
			if prev, ok := best[r.Target]; !ok || dist < prev {
				best[r.Target] = dist
			}
		}
	}

	matched := make([]string, 0, len(best))
	for target := range best {
		matched = append(matched, target)
	}
	sort.Slice(matched, func(i, j int) bool {
		if best[matched[i]] != best[matched[j]] {
			return best[matched[i]] < best[matched[j]]
		}
		return matched[i] < matched[j]
	})

	out := make([]string, len(matched))
	for i, m := range matched {
		out[i] = lookup[m]
	}
	return out
}

// BestMatch returns the single candidate closest to name, preferring an exact case insensitive match
func BestMatch(name string, candidates []string) (string, bool) {
	matches := FuzzyFilter([]string{name}, candidates)
	if len(matches) == 0 {
		return "", false
	}
	return matches[0], true
}
