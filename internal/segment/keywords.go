package segment

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxKeywords caps the keywords kept per segment
const MaxKeywords = 3

// minKeywordLen is exclusive: tokens need more runes than this
const minKeywordLen = 4

var stopWords = map[string]struct{}{
	"about": {}, "above": {}, "after": {}, "again": {}, "against": {},
	"always": {}, "among": {}, "another": {}, "anything": {}, "around": {},
	"because": {}, "before": {}, "being": {}, "below": {}, "between": {},
	"could": {}, "couldnt": {}, "didnt": {}, "doesnt": {}, "doing": {}, "during": {},
	"either": {}, "every": {}, "everything": {}, "first": {}, "going": {},
	"gonna": {}, "having": {}, "however": {}, "itself": {}, "little": {},
	"maybe": {}, "might": {}, "myself": {}, "never": {}, "other": {},
	"others": {}, "ourselves": {}, "really": {}, "right": {}, "should": {},
	"since": {}, "something": {}, "still": {}, "their": {}, "theirs": {},
	"themselves": {}, "there": {}, "these": {}, "thing": {}, "things": {},
	"think": {}, "those": {}, "through": {}, "today": {}, "under": {},
	"until": {}, "wanna": {}, "where": {}, "which": {}, "while": {},
	"would": {}, "wouldnt": {}, "yourself": {}, "yourselves": {},
}

// IsStopWord reports whether the lower-case token is on the stop list
func IsStopWord(token string) bool {
	_, ok := stopWords[token]
	return ok
}

// Words lower-cases text, strips punctuation and splits on whitespace.
// Apostrophes inside words are dropped so "we'll" becomes "well".
func Words(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return unicode.ToLower(r)
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, text)
	return strings.Fields(cleaned)
}

// Keywords returns at most MaxKeywords distinct tokens longer than four
// runes that are not stop words, in order of first occurrence.
func Keywords(text string) []string {
	keywords := make([]string, 0, MaxKeywords)
	seen := make(map[string]bool)

	for _, w := range Words(text) {
		if utf8.RuneCountInString(w) <= minKeywordLen || IsStopWord(w) || seen[w] {
			continue
		}
		seen[w] = true
		keywords = append(keywords, w)
		if len(keywords) == MaxKeywords {
			break
		}
	}

	return keywords
}
