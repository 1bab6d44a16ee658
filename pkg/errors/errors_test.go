package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"config", fmt.Errorf("loading: %w", ErrInvalidConfig), ExitUsage},
		{"corpus", fmt.Errorf("listing: %w", ErrCorpusNotFound), ExitInput},
		{"stopwords", ErrStopwordsUnavailable, ExitInput},
		{"sink", fmt.Errorf("postgres: %w", ErrSinkUnavailable), ExitUnavailable},
		{"timeout", ErrTimeout, ExitUnavailable},
		{"unknown", errors.New("boom"), ExitFailure},
		{"app error wins", New(ErrInvalidConfig, ExitInput, "custom"), ExitInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	err := Newf(ErrFileScan, ExitFailure, "reading %s", "a.txt")
	if !errors.Is(err, ErrFileScan) {
		t.Fatalf("expected errors.Is to match ErrFileScan")
	}
	if got, want := err.Error(), "file scan failed: reading a.txt"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
