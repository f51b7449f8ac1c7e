package segment

import "unicode/utf8"

// DefaultQuery is the terminal query when no rule yields a term
const DefaultQuery = "technology"

// QueryRule picks an image search term for a segment, or "" to defer
type QueryRule func(text string, keywords []string) string

// FirstKeyword uses the first derived keyword
func FirstKeyword(_ string, keywords []string) string {
	if len(keywords) == 0 {
		return ""
	}
	return keywords[0]
}

// FirstLongWord uses the first word of the text longer than three runes
func FirstLongWord(text string, _ []string) string {
	for _, w := range Words(text) {
		if utf8.RuneCountInString(w) > 3 {
			return w
		}
	}
	return ""
}

// DefaultQueryRules is the priority order used by ImageQuery
var DefaultQueryRules = []QueryRule{FirstKeyword, FirstLongWord}

// ImageQuery evaluates rules in order and falls back to fallback
func ImageQuery(text string, keywords []string, rules []QueryRule, fallback string) string {
	for _, rule := range rules {
		if q := rule(text, keywords); q != "" {
			return q
		}
	}
	if fallback == "" {
		return DefaultQuery
	}
	return fallback
}
