package tokenizer

import "github.com/kljensen/snowball/english"

// Stemmer reduces a surface word to its stem.
type Stemmer interface {
	Stem(word string) string
}

// StemmerFunc adapts a plain function to the Stemmer interface.
type StemmerFunc func(string) string

func (f StemmerFunc) Stem(word string) string { return f(word) }

// SnowballStemmer applies the Snowball English (Porter2) algorithm.
type SnowballStemmer struct{}

func NewSnowballStemmer() SnowballStemmer {
	return SnowballStemmer{}
}

// Stem stems every word, including words on Snowball's own stop list.
func (SnowballStemmer) Stem(word string) string {
	return english.Stem(word, true)
}
