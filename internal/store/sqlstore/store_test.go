package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/internal/indexer/dictionary"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/pkg/sqlite"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	client, err := sqlite.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	s := New(client.DB, SQLite)
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	return s
}

func sampleSet() *dictionary.Set {
	return &dictionary.Set{
		Terms:     dictionary.FromKeys([]string{"sleep", "cat", "run"}),
		Documents: dictionary.FromKeys([]string{"FT911-2", "FT911-1"}),
		RawTerms:  4,
	}
}

func TestWriteAndRead(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Write(ctx, "run-1", sampleSet()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read(ctx, "run-1")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := sampleSet()
	if diff := cmp.Diff(want.Terms.Entries(), got.Terms.Entries()); diff != "" {
		t.Errorf("terms mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.Documents.Entries(), got.Documents.Entries()); diff != "" {
		t.Errorf("documents mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteSameRunTwiceKeepsFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Write(ctx, "run-1", sampleSet()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	other := &dictionary.Set{
		Terms:     dictionary.FromKeys([]string{"zebra"}),
		Documents: dictionary.FromKeys([]string{"X-1"}),
	}
	if err := s.Write(ctx, "run-1", other); !errors.Is(err, ErrRunConflict) {
		t.Fatalf("err = %v, want ErrRunConflict", err)
	}
	got, err := s.Read(ctx, "run-1")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Terms.Len() != 3 || got.Documents.Len() != 2 {
		t.Errorf("sizes = %d/%d, want 3/2", got.Terms.Len(), got.Documents.Len())
	}
}

func TestWriteSameRunTwiceIsNoop(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := s.Write(ctx, "run-1", sampleSet()); err != nil {
			t.Fatalf("Write #%d: %v", i+1, err)
		}
	}
	runs, err := s.Runs(ctx)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("len(runs) = %d, want 1", len(runs))
	}
}

func TestConflictingWriteIsNotRetried(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.Write(ctx, "run-1", sampleSet()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	other := &dictionary.Set{
		Terms:     dictionary.FromKeys([]string{"zebra"}),
		Documents: dictionary.FromKeys(nil),
	}

	attempts := 0
	cfg := resilience.RetryConfig{MaxAttempts: 4, InitialDelay: time.Millisecond}
	err := resilience.Call(ctx, "sqlite", time.Second, cfg, func(ctx context.Context) error {
		attempts++
		return s.Write(ctx, "run-1", other)
	})
	if !errors.Is(err, ErrRunConflict) {
		t.Fatalf("err = %v, want ErrRunConflict", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestUniqueViolationIsPermanent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insert := `INSERT INTO dictionary_runs (run_id, created_at, term_count, document_count) VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, insert, "run-1", "x", 0, 0); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err := s.db.ExecContext(ctx, insert, "run-1", "x", 0, 0)
	if err == nil {
		t.Fatal("expected duplicate insert to fail")
	}
	if !isUniqueViolation(err) {
		t.Fatalf("isUniqueViolation(%v) = false", err)
	}
	if isUniqueViolation(errors.New("connection reset")) {
		t.Error("plain error classified as unique violation")
	}

	attempts := 0
	cfg := resilience.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond}
	_ = resilience.Retry(ctx, "insert", cfg, func() error {
		attempts++
		return classify(err)
	})
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestReadMissingRun(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Read(context.Background(), "nope"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestEmptySetAndRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	empty := &dictionary.Set{
		Terms:     dictionary.FromKeys(nil),
		Documents: dictionary.FromKeys(nil),
	}
	for _, id := range []string{"run-a", "run-b"} {
		if err := s.Write(ctx, id, empty); err != nil {
			t.Fatalf("Write %s: %v", id, err)
		}
	}
	got, err := s.Read(ctx, "run-a")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Terms.Len() != 0 || got.Documents.Len() != 0 {
		t.Errorf("expected empty dictionaries, got %d/%d", got.Terms.Len(), got.Documents.Len())
	}

	runs, err := s.Runs(ctx)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len(runs) = %d, want 2", len(runs))
	}
	for _, r := range runs {
		if r.CreatedAt.IsZero() {
			t.Errorf("run %s has zero created_at", r.RunID)
		}
	}
}

func TestRebind(t *testing.T) {
	q := `INSERT INTO t (a, b, c) VALUES (?, ?, ?)`
	pg := New(nil, Postgres)
	if got, want := pg.rebind(q), `INSERT INTO t (a, b, c) VALUES ($1, $2, $3)`; got != want {
		t.Errorf("postgres rebind = %q, want %q", got, want)
	}
	lite := New(nil, SQLite)
	if got := lite.rebind(q); got != q {
		t.Errorf("sqlite rebind = %q, want unchanged", got)
	}
}
