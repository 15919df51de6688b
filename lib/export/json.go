package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/icco/cinerank/lib/validation"
	"github.com/icco/cinerank/models"
	"github.com/tidwall/pretty"
)

var prettyOptions = &pretty.Options{Width: 80, Indent: "    "}

// WriteJSON writes records as an indented JSON array.
func WriteJSON(w io.Writer, records models.RankedSet) error {
	if records == nil {
		records = models.RankedSet{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}

	if _, err := w.Write(pretty.PrettyOptions(buf.Bytes(), prettyOptions)); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}

func WriteJSONFile(path string, records models.RankedSet) error {
	return writeTo(path, func(w io.Writer) error { return WriteJSON(w, records) })
}

// loadedRecord keeps vote_average loose so one bad entry cannot fail the
// whole file.
type loadedRecord struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	ReleaseDate string          `json:"release_date"`
	VoteAverage json.RawMessage `json:"vote_average"`
	PosterPath  string          `json:"poster_path"`
}

// Rejected is an entry LoadJSON did not keep.
type Rejected struct {
	Index int
	Err   error
}

// LoadJSON reads a JSON array previously written by WriteJSON and keeps the
// entries that pass validation, in file order.
func LoadJSON(r io.Reader) (models.RankedSet, []Rejected, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, nil, fmt.Errorf("failed to decode JSON export: %w", err)
	}

	records := models.RankedSet{}
	var rejected []Rejected
	for i, item := range raw {
		rec, err := decodeRecord(item)
		if err != nil {
			rejected = append(rejected, Rejected{Index: i, Err: err})
			continue
		}
		records = append(records, rec)
	}
	return records, rejected, nil
}

func LoadJSONFile(path string) (models.RankedSet, []Rejected, error) {
	// #nosec G304 - path is supplied by the operator on the command line
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return LoadJSON(f)
}

func decodeRecord(item json.RawMessage) (models.MovieRecord, error) {
	var lr loadedRecord
	if err := json.Unmarshal(item, &lr); err != nil {
		return models.MovieRecord{}, validation.Invalid("record", string(item), "not a movie object")
	}

	if lr.ID <= 0 {
		return models.MovieRecord{}, validation.Invalid("id", lr.ID, "missing or not positive")
	}

	var score float64
	if len(lr.VoteAverage) == 0 || string(lr.VoteAverage) == "null" {
		return models.MovieRecord{}, validation.Invalid("vote_average", "null", "missing score")
	}
	if err := json.Unmarshal(lr.VoteAverage, &score); err != nil {
		return models.MovieRecord{}, validation.Invalid("vote_average", string(lr.VoteAverage), "not a number")
	}

	rec := models.MovieRecord{
		ID:          lr.ID,
		Title:       lr.Title,
		ReleaseDate: lr.ReleaseDate,
		Score:       score,
		PosterPath:  lr.PosterPath,
	}
	if err := validation.ValidateRecord(rec); err != nil {
		return models.MovieRecord{}, err
	}
	return rec, nil
}

// writeTo creates path, runs write and closes the file, reporting the first
// error.
func writeTo(path string, write func(io.Writer) error) (err error) {
	// #nosec G304 - path is built from the configured output directory
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	return write(f)
}
