package validate

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/mediator/internal/model"
)

// GroundsValidator enforces positional independence on challenge grounds.
// A challenge may attack an artifact's factual basis, never the stated
// intent or authorship of whoever submitted it.
type GroundsValidator struct {
	signals   []string
	minLength int
}

// NewGroundsValidator creates a grounds validator from rule tables
func NewGroundsValidator(rules *model.Rules) *GroundsValidator {
	if rules == nil {
		rules = model.DefaultRules()
	}
	minLength := rules.MinGroundsLength
	if minLength <= 0 {
		minLength = 30
	}
	return &GroundsValidator{
		signals:   rules.PositionalSignals,
		minLength: minLength,
	}
}

// Validate returns whether the grounds are admissible and why.
// Positional phrases are searched in the grounds and every claim; only
// then is the grounds length checked.
func (v *GroundsValidator) Validate(grounds string, claims []string) (bool, string) {
	combined := grounds + " " + strings.Join(claims, " ")
	if phrases := matchedPhrases(combined, v.signals); len(phrases) > 0 {
		return false, fmt.Sprintf(
			"Challenge blocked: positional argument detected ('%s'). "+
				"Positional Independence requires challenges engage the invariant "+
				"on its merits only. You cannot argue intent, authorship, or "+
				"what you meant when you submitted a claim.", strings.Join(phrases, "', '"))
	}

	if utf8.RuneCountInString(strings.TrimSpace(grounds)) < v.minLength {
		return false, "Challenge blocked: grounds too thin. State specific new evidence or scope argument."
	}

	return true, "Grounds accepted for CMP."
}

// ValidateGrounds validates challenge grounds with the default rule tables
func ValidateGrounds(grounds string, claims []string) (bool, string) {
	return NewGroundsValidator(nil).Validate(grounds, claims)
}

// matchedPhrases returns every signal found in text, quoted as the text
// spells it, in signal-list order
func matchedPhrases(text string, signals []string) []string {
	lower, offsets := lowerWithOffsets(text)

	var phrases []string
	for _, signal := range signals {
		if signal == "" {
			continue
		}
		needle := strings.ToLower(signal)
		idx := strings.Index(lower, needle)
		if idx < 0 {
			continue
		}
		start, end := offsets[idx], offsets[idx+len(needle)]
		if start >= 0 && end >= 0 {
			phrases = append(phrases, text[start:end])
		} else {
			phrases = append(phrases, signal)
		}
	}
	return phrases
}

// lowerWithOffsets lowercases text rune by rune. offsets maps each byte of
// the result to the byte offset of its rune in text, or -1 inside a rune.
// The final entry maps the end of the result to len(text).
func lowerWithOffsets(text string) (string, []int) {
	var b strings.Builder
	offsets := make([]int, 0, len(text)+1)
	for i, r := range text {
		start := b.Len()
		b.WriteRune(unicode.ToLower(r))
		offsets = append(offsets, i)
		for j := start + 1; j < b.Len(); j++ {
			offsets = append(offsets, -1)
		}
	}
	offsets = append(offsets, len(text))
	return b.String(), offsets
}
