// Package prompt asks for run parameters on a terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/icco/cinerank/lib/export"
	"github.com/icco/cinerank/lib/validation"
	"github.com/icco/cinerank/models"
)

// DefaultTopN is used when the answer to the count question is not a
// positive integer.
const DefaultTopN = 10

// ErrNoInput is returned when the input ends before a question is answered.
var ErrNoInput = errors.New("no more input")

// Prompter reads answers line by line from in and writes questions to out.
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewScanner(in), out: out}
}

func (p *Prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return "", ErrNoInput
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// Genres lists the genres with a final "all" entry and returns the chosen
// genre IDs in the order they were typed. Duplicates are dropped.
func (p *Prompter) Genres(genres []models.Genre) ([]int, error) {
	if len(genres) == 0 {
		return nil, validation.Invalid("genres", "", "no genres available")
	}

	all := len(genres) + 1
	fmt.Fprintln(p.out, "Selecciona uno o más géneros (separados por coma):")
	for i, g := range genres {
		fmt.Fprintf(p.out, "%d. %s\n", i+1, g.Name)
	}
	fmt.Fprintf(p.out, "%d. Todos los géneros\n", all)

	for {
		answer, err := p.ask("\nElige géneros: ")
		if err != nil {
			return nil, err
		}
		ids, err := pickGenres(answer, genres)
		if err == nil {
			return ids, nil
		}
		fmt.Fprintln(p.out, "Opción no válida.")
	}
}

func pickGenres(answer string, genres []models.Genre) ([]int, error) {
	all := len(genres) + 1
	var ids []int
	seen := make(map[int]struct{})
	for _, part := range strings.Split(answer, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 1 || n > all {
			return nil, validation.Invalid("genres", part, "not an option")
		}
		if n == all {
			ids = ids[:0]
			for _, g := range genres {
				ids = append(ids, g.ID)
			}
			return ids, nil
		}
		id := genres[n-1].ID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// DateRange asks for a start and end date, repeating each question until the
// answer is a valid YYYY-MM-DD date and the pair is in order.
func (p *Prompter) DateRange() (from, to string, err error) {
	for {
		from, err = p.date("Introduce la fecha de inicio (YYYY-MM-DD): ")
		if err != nil {
			return "", "", err
		}
		to, err = p.date("Introduce la fecha de fin (YYYY-MM-DD): ")
		if err != nil {
			return "", "", err
		}
		if from <= to {
			return from, to, nil
		}
		fmt.Fprintln(p.out, "La fecha de inicio debe ser anterior a la fecha de fin.")
	}
}

func (p *Prompter) date(question string) (string, error) {
	for {
		answer, err := p.ask(question)
		if err != nil {
			return "", err
		}
		if validation.IsValidDate(answer) {
			return answer, nil
		}
		fmt.Fprintln(p.out, "Fecha inválida.")
	}
}

// Direction reports whether the best (true) or worst (false) films were
// asked for. Unrecognised answers mean best.
func (p *Prompter) Direction() (bool, error) {
	answer, err := p.ask("¿Quieres ver las mejores o las peores películas? (mejores/peores): ")
	if err != nil {
		return true, err
	}
	switch strings.ToLower(answer) {
	case "mejores":
		return true, nil
	case "peores":
		return false, nil
	default:
		fmt.Fprintln(p.out, "Opción inválida. Mostrando las mejores por defecto.")
		return true, nil
	}
}

func (p *Prompter) TopN() (int, error) {
	answer, err := p.ask(fmt.Sprintf("\n¿Cuántas películas quieres ver? (Por defecto son %d): ", DefaultTopN))
	if err != nil {
		return DefaultTopN, err
	}
	n, err := strconv.Atoi(answer)
	if err != nil {
		return DefaultTopN, nil
	}
	return validation.NormalizeTopN(n, DefaultTopN), nil
}

// SaveFormats asks whether to save the results and in which format. A
// negative answer returns no formats.
func (p *Prompter) SaveFormats() ([]export.Format, error) {
	answer, err := p.ask("\n¿Quieres guardar los resultados en un archivo? (sí/no): ")
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(answer) {
	case "sí", "si", "s":
	default:
		return nil, nil
	}

	for {
		answer, err := p.ask("¿En qué formato deseas guardarlo? (txt/json/ambos/todos): ")
		if err != nil {
			return nil, err
		}
		switch strings.ToLower(answer) {
		case "txt":
			return []export.Format{export.FormatText}, nil
		case "json":
			return []export.Format{export.FormatJSON}, nil
		case "ambos":
			return []export.Format{export.FormatJSON, export.FormatText}, nil
		case "todos":
			return export.AllFormats, nil
		}
		fmt.Fprintln(p.out, "Opción no válida.")
	}
}

// Params are the answers collected by Ask.
type Params struct {
	GenreIDs   []int
	DateFrom   string
	DateTo     string
	Descending bool
	TopN       int
}

// Ask runs the full questionnaire in the order the questions are shown.
func (p *Prompter) Ask(genres []models.Genre) (Params, error) {
	var params Params
	var err error

	if params.GenreIDs, err = p.Genres(genres); err != nil {
		return Params{}, err
	}
	if params.DateFrom, params.DateTo, err = p.DateRange(); err != nil {
		return Params{}, err
	}
	if params.Descending, err = p.Direction(); err != nil {
		return Params{}, err
	}
	if params.TopN, err = p.TopN(); err != nil {
		return Params{}, err
	}
	return params, nil
}
