package dictionary

import (
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/internal/indexer/tokenizer"
)

// Set is the builder output: the stemmed term dictionary and the document
// dictionary.
type Set struct {
	Terms     *Dictionary
	Documents *Dictionary
	// RawTerms is the number of distinct unstemmed tokens the terms came from.
	RawTerms int
}

// Builder turns merged scan results into a Set.
type Builder struct {
	stemmer tokenizer.Stemmer
}

func NewBuilder(stemmer tokenizer.Stemmer) *Builder {
	return &Builder{stemmer: stemmer}
}

// Build stems every distinct raw term once and numbers the distinct stems
// and the document ids. Term counts are ignored; only distinctness matters.
// The inputs must no longer be mutated.
func (b *Builder) Build(terms index.TermTable, docs index.DocSet) *Set {
	raw := terms.SortedTerms()
	stems := make([]string, 0, len(raw))
	for _, term := range raw {
		stems = append(stems, b.stemmer.Stem(term))
	}
	return &Set{
		Terms:     FromKeys(stems),
		Documents: FromKeys(docs.Sorted()),
		RawTerms:  len(raw),
	}
}
