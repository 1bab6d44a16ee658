// Package tokenizer provides the text normalisation chain used to build the
// vocabulary: it splits text into lowercase runs of letters, removes
// stop-words supplied by the caller, and reduces words to their stems.
package tokenizer

import (
	"iter"
	"strings"
	"unicode"
)

// Tokenize returns the tokens of text in left-to-right order. A token is a
// maximal run of Unicode letters, lowercased; every other rune is a
// separator. The sequence is lazy and may be ranged over any number of times.
func Tokenize(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		start := -1
		for i, r := range text {
			if unicode.IsLetter(r) {
				if start < 0 {
					start = i
				}
				continue
			}
			if start >= 0 {
				if !yield(strings.ToLower(text[start:i])) {
					return
				}
				start = -1
			}
		}
		if start >= 0 {
			yield(strings.ToLower(text[start:]))
		}
	}
}

// Terms collects a token sequence into a slice.
func Terms(seq iter.Seq[string]) []string {
	var out []string
	for t := range seq {
		out = append(out, t)
	}
	return out
}
