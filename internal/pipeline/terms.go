package pipeline

import (
	"sort"
	"strings"
	"unicode"

	"news_sentiment/internal/domain"
)

var stopWords = map[string]struct{}{
	"a": {}, "about": {}, "after": {}, "all": {}, "also": {}, "amid": {}, "an": {},
	"and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "been": {}, "but": {},
	"by": {}, "can": {}, "could": {}, "for": {}, "from": {}, "has": {}, "have": {},
	"he": {}, "her": {}, "his": {}, "how": {}, "if": {}, "in": {}, "into": {},
	"is": {}, "it": {}, "its": {}, "it's": {}, "new": {}, "not": {}, "of": {},
	"on": {}, "or": {}, "over": {}, "says": {}, "she": {}, "so": {}, "than": {},
	"that": {}, "the": {}, "their": {}, "they": {}, "this": {}, "to": {}, "up": {},
	"was": {}, "we": {}, "were": {}, "what": {}, "when": {}, "which": {},
	"who": {}, "why": {}, "will": {}, "with": {}, "would": {}, "you": {},
}

// topTerms counts folded whitespace tokens across headlines and returns the
// k most frequent. Equal counts keep first-appearance order.
func topTerms(items []domain.ScoredItem, k int, hygiene bool, fold func(string) string) []domain.TermCount {
	index := make(map[string]int)
	var counts []domain.TermCount

	for _, it := range items {
		for _, tok := range strings.Fields(it.HeadlineOrText) {
			term := fold(tok)
			if hygiene {
				term = strings.TrimFunc(term, func(r rune) bool {
					return !unicode.IsLetter(r) && !unicode.IsNumber(r)
				})
				if len([]rune(term)) < 2 {
					continue
				}
				if _, stop := stopWords[term]; stop {
					continue
				}
			}

			if i, ok := index[term]; ok {
				counts[i].Count++
				continue
			}
			index[term] = len(counts)
			counts = append(counts, domain.TermCount{Term: term, Count: 1})
		}
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})

	if len(counts) > k {
		counts = counts[:k]
	}
	if counts == nil {
		counts = []domain.TermCount{}
	}
	return counts
}
