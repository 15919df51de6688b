package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/icco/cinerank/lib/stats"
	"github.com/icco/cinerank/models"
)

// FormatScore prints a score the shortest way that round-trips, e.g. 8.5.
func FormatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteText writes one "<title> - Puntuación: <score>" line per record.
func WriteText(w io.Writer, records models.RankedSet) error {
	for _, m := range records {
		if _, err := fmt.Fprintf(w, "%s - Puntuación: %s\n", m.Title, FormatScore(m.Score)); err != nil {
			return fmt.Errorf("failed to write text: %w", err)
		}
	}
	return nil
}

func WriteTextFile(path string, records models.RankedSet) error {
	return writeTo(path, func(w io.Writer) error { return WriteText(w, records) })
}

var csvHeader = []string{"id", "title", "release_date", "vote_average"}

// WriteCSV writes a header row followed by one row per record.
func WriteCSV(w io.Writer, records models.RankedSet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, m := range records {
		row := []string{strconv.Itoa(m.ID), m.Title, m.ReleaseDate, FormatScore(m.Score)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteCSVFile(path string, records models.RankedSet) error {
	return writeTo(path, func(w io.Writer) error { return WriteCSV(w, records) })
}

// WriteListing prints the numbered console listing shown after a run.
func WriteListing(w io.Writer, records models.RankedSet, descending bool) error {
	heading := "Mejores películas:"
	if !descending {
		heading = "Peores películas:"
	}
	if _, err := fmt.Fprintf(w, "\n%s\n", heading); err != nil {
		return err
	}
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No se encontraron películas.")
		return err
	}
	for i, m := range records {
		if _, err := fmt.Fprintf(w, "%d. %s (%s) - Puntuación: %s\n", i+1, m.Title, m.ReleaseDate, FormatScore(m.Score)); err != nil {
			return err
		}
	}
	return nil
}

// ModeLabel renders the mode, or "No única" when there is no unique mode.
func ModeLabel(s stats.Summary) string {
	if !s.UniqueMode {
		return "No única"
	}
	return FormatScore(s.Mode)
}

// WriteSummary prints the statistics block shown after a run.
func WriteSummary(w io.Writer, s *stats.Summary) error {
	if s == nil {
		return nil
	}
	r := s.Rounded(2)
	_, err := fmt.Fprintf(w, "\nEstadísticas de puntuaciones:\n- Media: %s\n- Mediana: %s\n- Moda: %s\n- Desviación estándar: %s\n",
		FormatScore(r.Mean), FormatScore(r.Median), ModeLabel(r), FormatScore(r.StdDev))
	return err
}
