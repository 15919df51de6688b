package tmdb

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork is matched by every NetworkError.
	ErrNetwork = errors.New("tmdb network error")
	// ErrParse is matched by every ParseError.
	ErrParse = errors.New("tmdb parse error")
)

// NetworkError means TMDb could not be reached or answered with a non-2xx
// status. StatusCode is 0 for transport failures.
type NetworkError struct {
	Path       string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("tmdb %s: status %d: %v", e.Path, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("tmdb %s: %v", e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// ParseError means the body was not JSON or lacked the expected shape.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("tmdb %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }
