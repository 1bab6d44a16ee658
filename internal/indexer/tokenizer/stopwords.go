package tokenizer

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"os"

	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-dictionary/pkg/errors"
)

// Stopwords is a set of words removed from token streams. Entries are
// matched exactly, so callers supply them already lowercased.
type Stopwords map[string]struct{}

// NewStopwords builds a set from words, used verbatim.
func NewStopwords(words ...string) Stopwords {
	s := make(Stopwords, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

// Contains reports whether word is a stopword.
func (s Stopwords) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

// Filter drops stopwords from seq, keeping the order of the rest.
func (s Stopwords) Filter(seq iter.Seq[string]) iter.Seq[string] {
	return FilterStopwords(seq, s)
}

// FilterStopwords drops every token of seq present in stop. A nil set
// filters nothing.
func FilterStopwords(seq iter.Seq[string], stop Stopwords) iter.Seq[string] {
	return func(yield func(string) bool) {
		for t := range seq {
			if stop.Contains(t) {
				continue
			}
			if !yield(t) {
				return
			}
		}
	}
}

// LoadStopwords reads whitespace-separated words from r.
func LoadStopwords(r io.Reader) (Stopwords, error) {
	s := make(Stopwords)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	sc.Split(bufio.ScanWords)
	for sc.Scan() {
		s[sc.Text()] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading stopwords: %w", err)
	}
	return s, nil
}

// LoadStopwordsFile reads the stopword list at path.
func LoadStopwordsFile(path string) (Stopwords, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStopwordsUnavailable, err)
	}
	defer f.Close()
	s, err := LoadStopwords(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrStopwordsUnavailable, path, err)
	}
	return s, nil
}
