// Package output reads and writes the plain-text dictionary file: a term
// section and a document section, each a header followed by key<TAB>id lines
// sorted by key.
package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/internal/indexer/dictionary"
)

// Section headers of the dictionary file.
const (
	TermHeader     = "Term Dictionary:"
	DocumentHeader = "Document Dictionary:"
)

// Encode writes set to w.
func Encode(w io.Writer, set *dictionary.Set) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, TermHeader)
	for term, id := range set.Terms.All() {
		fmt.Fprintf(bw, "%s\t%d\n", term, id)
	}
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, DocumentHeader)
	for doc, id := range set.Documents.All() {
		fmt.Fprintf(bw, "%s\t%d\n", doc, id)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing dictionary: %w", err)
	}
	return nil
}

// WriteFile atomically replaces path with the encoded set. It writes to a
// .tmp sibling first and renames on success.
func WriteFile(path string, set *dictionary.Set) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp output file: %w", err)
	}
	defer os.Remove(tmpPath)
	defer f.Close()

	if err := Encode(f, set); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing output file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming output file: %w", err)
	}
	return nil
}
