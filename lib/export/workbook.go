package export

import (
	"fmt"
	_ "image/png"

	"github.com/icco/cinerank/lib/stats"
	"github.com/icco/cinerank/models"
	"github.com/xuri/excelize/v2"
)

const (
	MoviesSheet = "Películas"
	StatsSheet  = "Estadísticas"
	ChartsSheet = "Gráficas"

	// rows between embedded charts
	chartRowStride = 30
)

// WriteWorkbook writes the records, the summary metrics and any rendered
// chart images into an XLSX file.
func WriteWorkbook(path string, records models.RankedSet, summary *stats.Summary, charts []string) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close workbook: %w", cerr)
		}
	}()

	if err := f.SetSheetName("Sheet1", MoviesSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := writeMoviesSheet(f, records); err != nil {
		return err
	}

	if _, err := f.NewSheet(StatsSheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", StatsSheet, err)
	}
	if err := writeStatsSheet(f, summary); err != nil {
		return err
	}

	if len(charts) > 0 {
		if _, err := f.NewSheet(ChartsSheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", ChartsSheet, err)
		}
		for i, chartPath := range charts {
			cell, err := excelize.CoordinatesToCellName(1, 1+i*chartRowStride)
			if err != nil {
				return err
			}
			if err := f.AddPicture(ChartsSheet, cell, chartPath, nil); err != nil {
				return fmt.Errorf("failed to embed %s: %w", chartPath, err)
			}
		}
	}

	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeMoviesSheet(f *excelize.File, records models.RankedSet) error {
	header := []interface{}{"id", "title", "release_date", "vote_average"}
	if err := f.SetSheetRow(MoviesSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, m := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{m.ID, m.Title, m.ReleaseDate, m.Score}
		if err := f.SetSheetRow(MoviesSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	return nil
}

func writeStatsSheet(f *excelize.File, summary *stats.Summary) error {
	rows := [][]interface{}{{"Métrica", "Valor"}}
	if summary != nil {
		var mode interface{} = ModeLabel(*summary)
		if summary.UniqueMode {
			mode = summary.Mode
		}
		rows = append(rows,
			[]interface{}{"Películas", summary.Count},
			[]interface{}{"Media", summary.Mean},
			[]interface{}{"Mediana", summary.Median},
			[]interface{}{"Moda", mode},
			[]interface{}{"Desviación estándar", summary.StdDev},
		)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(StatsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}
