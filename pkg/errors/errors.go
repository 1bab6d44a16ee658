package errors

import (
	"errors"
	"fmt"
)

var (
	ErrCorpusNotFound       = errors.New("corpus not found")
	ErrStopwordsUnavailable = errors.New("stopword list unavailable")
	ErrFileScan             = errors.New("file scan failed")
	ErrInvalidConfig        = errors.New("invalid configuration")
	ErrMalformedOutput      = errors.New("malformed dictionary output")
	ErrSinkUnavailable      = errors.New("sink unavailable")
	ErrTimeout              = errors.New("operation timed out")
	ErrInternal             = errors.New("internal error")
)

// Process exit codes returned by ExitCode.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2
	ExitInput       = 3
	ExitUnavailable = 4
)

type AppError struct {
	Err      error
	Message  string
	ExitCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, exitCode int, message string) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  message,
		ExitCode: exitCode,
	}
}

func Newf(sentinel error, exitCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  fmt.Sprintf(format, args...),
		ExitCode: exitCode,
	}
}

func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ExitCode
	}

	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitUsage
	case errors.Is(err, ErrCorpusNotFound), errors.Is(err, ErrStopwordsUnavailable), errors.Is(err, ErrMalformedOutput):
		return ExitInput
	case errors.Is(err, ErrSinkUnavailable), errors.Is(err, ErrTimeout):
		return ExitUnavailable
	default:
		return ExitFailure
	}
}
