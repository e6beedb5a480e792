// Package moderation censors relayed message text against a configured word
// list using an Aho-Corasick automaton. Matching ignores case and
// punctuation noise, so spaced or dotted variants of a forbidden word are
// still caught; masking preserves the original length and spacing.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Moderator replaces forbidden words with a mask rune. The zero word list
// yields a pass-through moderator.
type Moderator struct {
	machine *goahocorasick.Machine
	mask    rune
}

// New builds the automaton from words. Words that normalize to nothing are
// skipped; an empty effective list disables matching entirely.
func New(words []string, mask rune) (*Moderator, error) {
	patterns := make([][]rune, 0, len(words))
	for _, word := range words {
		if norm, _ := normalize([]rune(word)); len(norm) > 0 {
			patterns = append(patterns, norm)
		}
	}
	if len(patterns) == 0 {
		return &Moderator{mask: mask}, nil
	}

	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{machine: machine, mask: mask}, nil
}

// Censor masks every occurrence of a forbidden word in text. Runes between
// the first and last matched position are masked too, so "b.a.d" becomes
// "*****" rather than leaking its separators.
func (m *Moderator) Censor(text string) string {
	if m == nil || m.machine == nil {
		return text
	}

	orig := []rune(text)
	norm, origIdx := normalize(orig)
	if len(norm) == 0 {
		return text
	}

	terms := m.machine.MultiPatternSearch(norm, false)
	if len(terms) == 0 {
		return text
	}

	for _, term := range terms {
		start := term.Pos
		end := start + len(term.Word)
		if start < 0 || end > len(origIdx) {
			continue
		}
		for i := origIdx[start]; i <= origIdx[end-1]; i++ {
			orig[i] = m.mask
		}
	}
	return string(orig)
}

// normalize lowercases the input and drops every rune that is not a letter
// or digit, keeping a map from normalized positions back to the original
// rune positions.
func normalize(in []rune) ([]rune, []int) {
	norm := make([]rune, 0, len(in))
	idx := make([]int, 0, len(in))
	for i, r := range in {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		norm = append(norm, unicode.ToLower(r))
		idx = append(idx, i)
	}
	return norm, idx
}
