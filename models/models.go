package models

import "gorm.io/gorm"

// MovieRecord is a single title returned by TMDb after validation. Records
// are never mutated once parsed, only filtered and reordered.
type MovieRecord struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	Score       float64 `json:"vote_average"`
	PosterPath  string  `json:"poster_path,omitempty"`
}

// RankedSet is an ordered, deduplicated and length-bounded list of records.
type RankedSet []MovieRecord

// Scores returns the scores in rank order.
func (s RankedSet) Scores() []float64 {
	scores := make([]float64, len(s))
	for i, m := range s {
		scores[i] = m.Score
	}
	return scores
}

// GenreQuery describes one discover call.
type GenreQuery struct {
	GenreID  int
	DateFrom string
	DateTo   string
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Run is one exported pipeline run as stored in the SQLite export.
type Run struct {
	gorm.Model
	UUID       string `gorm:"column:uuid;uniqueIndex"`
	Genres     string // comma separated genre ids
	DateFrom   string
	DateTo     string
	TopN       int
	Descending bool
	Count      int
	Mean       float64
	Median     float64
	Mode       float64
	UniqueMode bool
	StdDev     float64
	Movies     []RankedMovie
}

type RankedMovie struct {
	gorm.Model
	RunID       uint `gorm:"index"`
	Position    int
	TMDbID      int `gorm:"column:tmdb_id"`
	Title       string
	ReleaseDate string
	Score       float64
	PosterPath  string
}

// Record converts a stored row back into a MovieRecord.
func (m RankedMovie) Record() MovieRecord {
	return MovieRecord{
		ID:          m.TMDbID,
		Title:       m.Title,
		ReleaseDate: m.ReleaseDate,
		Score:       m.Score,
		PosterPath:  m.PosterPath,
	}
}
