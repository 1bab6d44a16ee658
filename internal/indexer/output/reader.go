package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/internal/indexer/dictionary"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-dictionary/pkg/errors"
)

// Decode parses a dictionary file. Each section must list its keys in
// strictly increasing order with ids 1..N. RawTerms is not recorded in the
// file and is left zero.
func Decode(r io.Reader) (*dictionary.Set, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	next := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		lineNo++
		return sc.Text(), true
	}
	malformed := func(format string, args ...any) error {
		return fmt.Errorf("%w: line %d: %s", apperrors.ErrMalformedOutput, lineNo, fmt.Sprintf(format, args...))
	}

	if line, ok := next(); !ok || line != TermHeader {
		return nil, malformed("expected %q", TermHeader)
	}
	var terms, docs []string
	inDocs := false
	for {
		line, ok := next()
		if !ok {
			break
		}
		if !inDocs && line == "" {
			header, ok := next()
			if !ok || header != DocumentHeader {
				return nil, malformed("expected %q", DocumentHeader)
			}
			inDocs = true
			continue
		}
		key, id, err := parseLine(line)
		if err != nil {
			return nil, malformed("%v", err)
		}
		section := &terms
		if inDocs {
			section = &docs
		}
		if id != len(*section)+1 {
			return nil, malformed("id %d out of sequence", id)
		}
		if n := len(*section); n > 0 && (*section)[n-1] >= key {
			return nil, malformed("key %q not in increasing order", key)
		}
		*section = append(*section, key)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading dictionary: %w", err)
	}
	if !inDocs {
		return nil, malformed("missing %q section", DocumentHeader)
	}
	return &dictionary.Set{
		Terms:     dictionary.FromKeys(terms),
		Documents: dictionary.FromKeys(docs),
	}, nil
}

func parseLine(line string) (string, int, error) {
	i := strings.LastIndexByte(line, '\t')
	if i <= 0 {
		return "", 0, fmt.Errorf("expected key<TAB>id, got %q", line)
	}
	id, err := strconv.Atoi(line[i+1:])
	if err != nil {
		return "", 0, fmt.Errorf("bad id in %q", line)
	}
	return line[:i], id, nil
}

// ReadFile decodes the dictionary file at path.
func ReadFile(path string) (*dictionary.Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dictionary file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
