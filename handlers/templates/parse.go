package templates

import (
	"embed"
	"html/template"
	"strconv"

	"github.com/icco/cinerank/lib/tmdb"
)

//go:embed *.html
var FS embed.FS

// ParseTemplates parses HTML templates from the embedded filesystem.
// The first file is the one Execute renders.
func ParseTemplates(files ...string) (*template.Template, error) {
	funcMap := template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"score": func(v float64) string {
			return strconv.FormatFloat(v, 'f', 2, 64)
		},
		"poster": tmdb.PosterURL,
		"date": func(s string) string {
			if s == "" {
				return "sin fecha"
			}
			return s
		},
	}

	return template.New(files[0]).Funcs(funcMap).ParseFS(FS, files...)
}
