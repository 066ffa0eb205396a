// Package profanity masks abusive terms in chat text. Moderation here is a
// soft guarantee: it reduces visible abuse, it is not a security boundary.
package profanity

import (
	goaway "github.com/TwiN/go-away"
)

// Filter censors profane terms in text. It is immutable after construction
// and safe for concurrent use.
type Filter struct {
	detector *goaway.ProfanityDetector
}

// New builds a filter from the library's base dictionary plus any extra
// words (locale slang and obfuscated spellings the base list misses).
func New(extra ...string) *Filter {
	words := make([]string, 0, len(goaway.DefaultProfanities)+len(extra))
	words = append(words, goaway.DefaultProfanities...)
	words = append(words, extra...)

	d := goaway.NewProfanityDetector().WithCustomDictionary(
		words,
		goaway.DefaultFalsePositives,
		goaway.DefaultFalseNegatives,
	)
	return &Filter{detector: d}
}

// Clean returns text with profane terms masked. It never fails: if the
// detector panics the original text is returned so a moderation bug cannot
// take chat down.
func (f *Filter) Clean(text string) (cleaned string) {
	defer func() {
		if recover() != nil {
			cleaned = text
		}
	}()
	return f.detector.Censor(text)
}
