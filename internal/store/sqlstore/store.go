// Package sqlstore persists built dictionaries to a relational database.
// The same store serves Postgres and SQLite; only placeholder syntax differs.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/internal/indexer/dictionary"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/pkg/resilience"
)

// Dialect selects the SQL placeholder style.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// createdLayout is fixed-width so created_at sorts lexicographically.
const createdLayout = "2006-01-02T15:04:05.000000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS dictionary_runs (
	run_id         TEXT PRIMARY KEY,
	created_at     TEXT NOT NULL,
	term_count     INTEGER NOT NULL,
	document_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS term_dictionary (
	run_id  TEXT NOT NULL REFERENCES dictionary_runs(run_id) ON DELETE CASCADE,
	term    TEXT NOT NULL,
	term_id INTEGER NOT NULL,
	PRIMARY KEY (run_id, term_id),
	UNIQUE (run_id, term)
);

CREATE TABLE IF NOT EXISTS document_dictionary (
	run_id  TEXT NOT NULL REFERENCES dictionary_runs(run_id) ON DELETE CASCADE,
	doc_key TEXT NOT NULL,
	doc_id  INTEGER NOT NULL,
	PRIMARY KEY (run_id, doc_id),
	UNIQUE (run_id, doc_key)
);
`

// Run is one stored dictionary build.
type Run struct {
	RunID         string
	CreatedAt     time.Time
	TermCount     int
	DocumentCount int
}

// Store writes dictionary sets inside a single transaction per run.
type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

// New wraps an open database handle. The handle stays owned by the caller.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{
		db:      db,
		dialect: dialect,
		logger:  logger.WithComponent("sqlstore").With("dialect", string(dialect)),
	}
}

func (s *Store) Name() string {
	return string(s.dialect)
}

// EnsureSchema creates the dictionary tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating %s schema: %w", s.dialect, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ErrRunConflict is returned when runID is already stored with different
// contents.
var ErrRunConflict = errors.New("run already stored with different contents")

// Write stores set under runID. Writing a run that is already stored with the
// same sizes is a no-op, so a retried delivery whose commit did land succeeds.
// A conflicting copy, or any unique violation, is returned as a permanent
// error and the first copy is left untouched.
func (s *Store) Write(ctx context.Context, runID string, set *dictionary.Set) error {
	start := time.Now()
	stored := false
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var terms, docs int
		err := tx.QueryRowContext(ctx, s.rebind(
			`SELECT term_count, document_count FROM dictionary_runs WHERE run_id = ?`), runID,
		).Scan(&terms, &docs)
		switch {
		case err == nil:
			stored = true
			if terms != set.Terms.Len() || docs != set.Documents.Len() {
				return resilience.Permanent(fmt.Errorf("run %s: %w: %d/%d terms, %d/%d documents",
					runID, ErrRunConflict, set.Terms.Len(), terms, set.Documents.Len(), docs))
			}
			return nil
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("looking up run %s: %w", runID, err)
		}

		if _, err := tx.ExecContext(ctx, s.rebind(
			`INSERT INTO dictionary_runs (run_id, created_at, term_count, document_count) VALUES (?, ?, ?, ?)`),
			runID, time.Now().UTC().Format(createdLayout), set.Terms.Len(), set.Documents.Len(),
		); err != nil {
			return classify(fmt.Errorf("inserting run %s: %w", runID, err))
		}
		if err := s.insertEntries(ctx, tx,
			`INSERT INTO term_dictionary (run_id, term, term_id) VALUES (?, ?, ?)`,
			runID, set.Terms); err != nil {
			return classify(fmt.Errorf("inserting terms: %w", err))
		}
		if err := s.insertEntries(ctx, tx,
			`INSERT INTO document_dictionary (run_id, doc_key, doc_id) VALUES (?, ?, ?)`,
			runID, set.Documents); err != nil {
			return classify(fmt.Errorf("inserting documents: %w", err))
		}
		return nil
	})
	if err != nil {
		return err
	}
	if stored {
		s.logger.Info("dictionary already stored", "run_id", runID)
		return nil
	}
	s.logger.Info("dictionary stored",
		"run_id", runID,
		"terms", set.Terms.Len(),
		"documents", set.Documents.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// classify marks unique violations as permanent: repeating the insert can
// only hit the same constraint.
func classify(err error) error {
	if isUniqueViolation(err) {
		return resilience.Permanent(err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return false
}

func (s *Store) insertEntries(ctx context.Context, tx *sql.Tx, query, runID string, d *dictionary.Dictionary) error {
	stmt, err := tx.PrepareContext(ctx, s.rebind(query))
	if err != nil {
		return err
	}
	defer stmt.Close()
	for key, id := range d.All() {
		if _, err := stmt.ExecContext(ctx, runID, key, id); err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
	}
	return nil
}

// Read loads the dictionaries stored for runID. sql.ErrNoRows is returned
// when the run does not exist.
func (s *Store) Read(ctx context.Context, runID string) (*dictionary.Set, error) {
	var run Run
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT run_id, term_count, document_count FROM dictionary_runs WHERE run_id = ?`), runID,
	).Scan(&run.RunID, &run.TermCount, &run.DocumentCount)
	if err != nil {
		return nil, fmt.Errorf("reading run %s: %w", runID, err)
	}
	terms, err := s.readKeys(ctx, `SELECT term FROM term_dictionary WHERE run_id = ? ORDER BY term_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("reading terms: %w", err)
	}
	docs, err := s.readKeys(ctx, `SELECT doc_key FROM document_dictionary WHERE run_id = ? ORDER BY doc_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("reading documents: %w", err)
	}
	if len(terms) != run.TermCount || len(docs) != run.DocumentCount {
		return nil, fmt.Errorf("run %s is incomplete: %d/%d terms, %d/%d documents",
			runID, len(terms), run.TermCount, len(docs), run.DocumentCount)
	}
	return &dictionary.Set{
		Terms:     dictionary.FromKeys(terms),
		Documents: dictionary.FromKeys(docs),
	}, nil
}

// Runs lists stored runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, created_at, term_count, document_count FROM dictionary_runs ORDER BY created_at DESC, run_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r       Run
			created string
		)
		if err := rows.Scan(&r.RunID, &created, &r.TermCount, &r.DocumentCount); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if r.CreatedAt, err = time.Parse(createdLayout, created); err != nil {
			return nil, fmt.Errorf("run %s: parsing created_at: %w", r.RunID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *Store) readKeys(ctx context.Context, query, runID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rolling back transaction after error %v: %w", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders as $1, $2, ... for Postgres.
func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	out := make([]byte, 0, len(query)+8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			out = append(out, '$')
			out = strconv.AppendInt(out, int64(n), 10)
			continue
		}
		out = append(out, query[i])
	}
	return string(out)
}
