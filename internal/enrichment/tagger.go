// Package enrichment derives searchable tags for products after they are created.
package enrichment

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MaxTags caps how many tags a product receives.
const MaxTags = 10

const minTagLength = 4

var stopWords = map[string]struct{}{
	"about": {}, "also": {}, "been": {}, "could": {}, "each": {}, "from": {}, "have": {},
	"into": {}, "just": {}, "made": {}, "more": {}, "most": {}, "only": {}, "other": {},
	"over": {}, "should": {}, "some": {}, "such": {}, "than": {}, "that": {}, "their": {},
	"them": {}, "then": {}, "there": {}, "these": {}, "they": {}, "this": {}, "those": {},
	"very": {}, "were": {}, "what": {}, "when": {}, "which": {}, "will": {}, "with": {},
	"would": {}, "your": {},
}

// GenerateTags returns up to MaxTags lowercase words from name followed by description,
// in first-seen order. Words shorter than four letters and common stop words are skipped.
func GenerateTags(name, description string) []string {
	lower := cases.Lower(language.English)
	words := strings.FieldsFunc(name+" "+description, func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	seen := make(map[string]struct{}, len(words))
	tags := make([]string, 0, MaxTags)
	for _, word := range words {
		if utf8.RuneCountInString(word) < minTagLength {
			continue
		}
		tag := lower.String(word)
		if _, stop := stopWords[tag]; stop {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
		if len(tags) == MaxTags {
			break
		}
	}
	return tags
}
