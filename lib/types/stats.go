package types

import "time"

// RunStats summarises everything stored in a runs database.
type RunStats struct {
	TotalRuns    int64
	TotalMovies  int64
	FirstRun     time.Time
	LastRun      time.Time
	AverageScore float64
	// titles that appear in the most runs, most frequent first
	FrequentTitles []TitleCount
}

type TitleCount struct {
	Title string
	Count int64
}
