package extract

import (
	"regexp"
	"strings"

	"github.com/ppiankov/mediator/internal/model"
)

var termPattern = regexp.MustCompile(`[a-z][a-z\-']*[a-z]`)

// minTermLength is the shortest token kept as an index term
const minTermLength = 4

// domainTermWeight multiplies the frequency of domain vocabulary terms
const domainTermWeight = 3

// TermExtractor turns free text into index terms
type TermExtractor struct {
	stopWords   map[string]bool
	domainTerms map[string]bool
}

// NewTermExtractor creates a term extractor from the given rule tables
func NewTermExtractor(rules *model.Rules) *TermExtractor {
	if rules == nil {
		rules = model.DefaultRules()
	}

	e := &TermExtractor{
		stopWords:   make(map[string]bool, len(rules.StopWords)),
		domainTerms: make(map[string]bool, len(rules.DomainTerms)),
	}
	for _, w := range rules.StopWords {
		e.stopWords[strings.ToLower(w)] = true
	}
	for _, w := range rules.DomainTerms {
		e.domainTerms[strings.ToLower(w)] = true
	}
	return e
}

// Extract returns the meaningful terms of text in order of appearance.
// Text is lowercased, stop words and tokens of three characters or less
// are discarded. Duplicates are kept.
func (e *TermExtractor) Extract(text string) []string {
	words := termPattern.FindAllString(strings.ToLower(text), -1)
	terms := make([]string, 0, len(words))
	for _, w := range words {
		if e.stopWords[w] || len(w) < minTermLength {
			continue
		}
		terms = append(terms, w)
	}
	return terms
}

// Frequencies returns weighted term frequencies for text
func (e *TermExtractor) Frequencies(text string) map[string]int {
	tf := make(map[string]int)
	for _, t := range e.Extract(text) {
		weight := 1
		if e.domainTerms[t] {
			weight = domainTermWeight
		}
		tf[t] += weight
	}
	return tf
}
