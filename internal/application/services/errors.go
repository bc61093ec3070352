package services

import (
	"errors"
	"fmt"
)

var (
	ErrFetchFailed         = errors.New("market fetch failed")
	ErrSnapshotTooSmall    = errors.New("snapshot below minimum size")
	ErrSnapshotShrunk      = errors.New("snapshot shrank beyond retain ratio")
	ErrSchedulerRunning    = errors.New("refresh scheduler already running")
	ErrSchedulerNotRunning = errors.New("refresh scheduler not running")
	ErrSchedulerStopped    = errors.New("refresh cycle abandoned by scheduler shutdown")
)

// FetchError wraps a failure to obtain the market universe, including a fetch
// that ran past its deadline.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch from %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrFetchFailed) match any FetchError.
func (e *FetchError) Is(target error) bool { return target == ErrFetchFailed }

// ValidationError reports a built snapshot that failed the sanity checks and
// was not installed.
type ValidationError struct {
	Reason   error
	Size     int
	Previous int
	Minimum  int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: size=%d previous=%d minimum=%d", e.Reason, e.Size, e.Previous, e.Minimum)
}

func (e *ValidationError) Unwrap() error { return e.Reason }

// IsFetchError reports whether err came from the fetch step.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// IsValidationError reports whether err came from the validation step.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
