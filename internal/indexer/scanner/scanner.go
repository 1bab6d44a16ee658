// Package scanner extracts document records from tagged corpus files and
// turns each file into a partial result: the document ids it declares and
// the stopword-filtered token counts of their text fields.
package scanner

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-dictionary/pkg/errors"
)

// Markers names the tags delimiting a record, its id field and its text field.
type Markers struct {
	Record string
	ID     string
	Text   string
}

// DefaultMarkers matches TREC-style <DOC>/<DOCNO>/<TEXT> files.
var DefaultMarkers = Markers{Record: "DOC", ID: "DOCNO", Text: "TEXT"}

// RawDocument is one extracted record.
type RawDocument struct {
	ID      string
	Text    string
	HasText bool
}

// Result is the contribution of one file. When Err is set the file failed
// to scan and DocIDs and Terms are empty.
type Result struct {
	Path    string
	DocIDs  []string
	Terms   index.TermTable
	Records int
	Skipped int
	Tokens  int
	Err     error
}

// Scanner is safe for concurrent use: it holds only compiled patterns and a
// read-only stopword set.
type Scanner struct {
	record *regexp.Regexp
	id     *regexp.Regexp
	text   *regexp.Regexp
	stop   tokenizer.Stopwords
}

func New(m Markers, stop tokenizer.Stopwords) *Scanner {
	return &Scanner{
		record: fieldPattern(m.Record),
		id:     fieldPattern(m.ID),
		text:   fieldPattern(m.Text),
		stop:   stop,
	}
}

// fieldPattern matches <tag>...</tag> non-greedily across lines.
func fieldPattern(tag string) *regexp.Regexp {
	t := regexp.QuoteMeta(tag)
	return regexp.MustCompile(`(?s)<` + t + `>(.*?)</` + t + `>`)
}

// Extract returns the records of content that carry a usable id, plus the
// number of records dropped for lacking one. Surrounding whitespace is
// trimmed; an id that is then blank or still holds a tab or line break counts
// as missing, since the output writes one id per line.
func (s *Scanner) Extract(content []byte) (docs []RawDocument, skipped int) {
	for _, rec := range s.record.FindAllSubmatch(content, -1) {
		body := rec[1]
		idMatch := s.id.FindSubmatch(body)
		if idMatch == nil {
			skipped++
			continue
		}
		id := strings.TrimSpace(string(idMatch[1]))
		if id == "" || strings.ContainsAny(id, "\t\r\n") {
			skipped++
			continue
		}
		doc := RawDocument{ID: id}
		if textMatch := s.text.FindSubmatch(body); textMatch != nil {
			doc.Text = strings.TrimSpace(string(textMatch[1]))
			doc.HasText = true
		}
		docs = append(docs, doc)
	}
	return docs, skipped
}

// ScanContent extracts the records of content and counts their tokens.
func (s *Scanner) ScanContent(content []byte) Result {
	docs, skipped := s.Extract(content)
	res := Result{
		DocIDs:  make([]string, 0, len(docs)),
		Terms:   make(index.TermTable),
		Records: len(docs),
		Skipped: skipped,
	}
	for _, doc := range docs {
		res.DocIDs = append(res.DocIDs, doc.ID)
		if !doc.HasText {
			continue
		}
		res.Tokens += res.Terms.Add(s.stop.Filter(tokenizer.Tokenize(doc.Text)))
	}
	return res
}

// ScanFile reads and scans the file at path. Failures are reported through
// Result.Err wrapping ErrFileScan; ScanFile never panics.
func (s *Scanner) ScanFile(path string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Path: path, Terms: index.TermTable{}, Err: fmt.Errorf("%w: %s: panic: %v", apperrors.ErrFileScan, path, r)}
		}
	}()
	content, err := os.ReadFile(path)
	if err != nil {
		return failed(path, err)
	}
	if !utf8.Valid(content) {
		return failed(path, fmt.Errorf("content is not valid UTF-8"))
	}
	res = s.ScanContent(content)
	res.Path = path
	return res
}

func failed(path string, err error) Result {
	return Result{
		Path:  path,
		Terms: index.TermTable{},
		Err:   fmt.Errorf("%w: %s: %v", apperrors.ErrFileScan, path, err),
	}
}
