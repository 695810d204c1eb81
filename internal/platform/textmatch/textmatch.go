// Package textmatch centralizes the keyword-in-text matching used by every
// guideline rule.
package textmatch

import (
	"strings"

	"golang.org/x/text/cases"
)

// Matcher decides whether a free-text field satisfies a rule's keyword set.
type Matcher interface {
	Match(text string, keywords []string) bool
}

// Normalize trims and case-folds s. A cases.Caser is stateful, so one is
// built per call.
func Normalize(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// Contains matches when the text contains any keyword.
type Contains struct{}

func (Contains) Match(text string, keywords []string) bool {
	t := Normalize(text)
	if t == "" {
		return false
	}
	for _, k := range keywords {
		if k := Normalize(k); k != "" && strings.Contains(t, k) {
			return true
		}
	}
	return false
}

// Either matches when the text contains a keyword or a keyword contains the
// text. Drug names are matched this way so that "warfarin sodium 5 mg" and
// "warfarin" find each other regardless of which side is more specific.
type Either struct{}

func (Either) Match(text string, keywords []string) bool {
	t := Normalize(text)
	if t == "" {
		return false
	}
	for _, k := range keywords {
		k := Normalize(k)
		if k == "" {
			continue
		}
		if strings.Contains(t, k) || strings.Contains(k, t) {
			return true
		}
	}
	return false
}

// AnyText reports whether any of texts matches keywords under m.
func AnyText(m Matcher, texts, keywords []string) bool {
	for _, t := range texts {
		if m.Match(t, keywords) {
			return true
		}
	}
	return false
}
