package validation

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/icco/cinerank/models"
)

// dateRegex is a regular expression that matches dates in YYYY-MM-DD format.
var dateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ErrInvalid is matched by every ValidationError.
var ErrInvalid = errors.New("invalid input")

// ValidationError reports the offending field and value.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, fmt.Sprint(e.Value), e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

// Invalid builds a ValidationError.
func Invalid(field string, value any, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// IsValidDate checks the YYYY-MM-DD shape only. It does not check that the
// date exists on the calendar.
func IsValidDate(s string) bool {
	return dateRegex.MatchString(s)
}

// IsValidTitle reports whether s has any non-whitespace content.
func IsValidTitle(s string) bool {
	return strings.TrimSpace(s) != ""
}

// IsValidScore reports whether x is a finite number in [0, 10].
func IsValidScore(x float64) bool {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return false
	}
	return x >= 0 && x <= 10
}

// ValidateDate returns a ValidationError for the named field when the date
// is not in YYYY-MM-DD format.
func ValidateDate(field, date string) error {
	if !IsValidDate(date) {
		return Invalid(field, date, "expected YYYY-MM-DD")
	}
	return nil
}

// ValidateQuery checks a discover query before it is sent. Dates in the
// validated shape compare correctly as strings.
func ValidateQuery(q models.GenreQuery) error {
	if q.GenreID <= 0 {
		return Invalid("genre_id", q.GenreID, "must be greater than 0")
	}
	if err := ValidateDate("date_from", q.DateFrom); err != nil {
		return err
	}
	if err := ValidateDate("date_to", q.DateTo); err != nil {
		return err
	}
	if q.DateFrom > q.DateTo {
		return Invalid("date_from", q.DateFrom, "must not be after date_to "+q.DateTo)
	}
	return nil
}

// ValidateTopN rejects a result count that is not positive.
func ValidateTopN(n int) error {
	if n <= 0 {
		return Invalid("top_n", n, "must be greater than 0")
	}
	return nil
}

// NormalizeTopN returns def when n is not a usable top-N.
func NormalizeTopN(n, def int) int {
	if n < 1 {
		return def
	}
	return n
}

// ValidateRecord checks the fields of a parsed record and returns the first
// problem found.
func ValidateRecord(m models.MovieRecord) error {
	if !IsValidTitle(m.Title) {
		return Invalid("title", m.Title, "must not be empty")
	}
	if !IsValidScore(m.Score) {
		return Invalid("vote_average", m.Score, "must be between 0 and 10")
	}
	if !IsValidDate(m.ReleaseDate) {
		return Invalid("release_date", m.ReleaseDate, "expected YYYY-MM-DD")
	}
	return nil
}
