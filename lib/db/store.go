package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/icco/cinerank/lib/types"
	"github.com/icco/cinerank/models"
	"gorm.io/gorm"
)

// ErrRunNotFound is returned when no run matches a lookup.
var ErrRunNotFound = errors.New("run not found")

// SaveRun stores a run and its ranked movies in one transaction.
func SaveRun(ctx context.Context, gormDB *gorm.DB, run *models.Run) error {
	err := gormDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(run).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.UUID, err)
	}
	return nil
}

// GetRun loads one run with its movies in rank order.
func GetRun(ctx context.Context, gormDB *gorm.DB, uuid string) (*models.Run, error) {
	var run models.Run
	err := gormDB.WithContext(ctx).
		Preload("Movies", func(tx *gorm.DB) *gorm.DB { return tx.Order("position asc") }).
		Where("uuid = ?", uuid).
		First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get run %s: %w", uuid, err)
	}
	return &run, nil
}

// LatestRun loads the most recently stored run.
func LatestRun(ctx context.Context, gormDB *gorm.DB) (*models.Run, error) {
	var run models.Run
	err := gormDB.WithContext(ctx).
		Preload("Movies", func(tx *gorm.DB) *gorm.DB { return tx.Order("position asc") }).
		Order("id desc").
		First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return &run, nil
}

// ListRuns returns stored runs newest first, without their movies.
func ListRuns(ctx context.Context, gormDB *gorm.DB, limit int) ([]models.Run, error) {
	var runs []models.Run
	q := gormDB.WithContext(ctx).Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// Stats aggregates the stored runs for the run list page.
func Stats(ctx context.Context, gormDB *gorm.DB, topTitles int) (types.RunStats, error) {
	var s types.RunStats
	q := gormDB.WithContext(ctx)

	if err := q.Model(&models.Run{}).Count(&s.TotalRuns).Error; err != nil {
		return s, fmt.Errorf("failed to count runs: %w", err)
	}
	if s.TotalRuns == 0 {
		return s, nil
	}
	if err := q.Model(&models.RankedMovie{}).Count(&s.TotalMovies).Error; err != nil {
		return s, fmt.Errorf("failed to count movies: %w", err)
	}

	var first, last models.Run
	if err := q.Order("id asc").First(&first).Error; err != nil {
		return s, fmt.Errorf("failed to get first run: %w", err)
	}
	if err := q.Order("id desc").First(&last).Error; err != nil {
		return s, fmt.Errorf("failed to get last run: %w", err)
	}
	s.FirstRun, s.LastRun = first.CreatedAt, last.CreatedAt

	var avg struct{ Avg float64 }
	if err := q.Model(&models.RankedMovie{}).Select("COALESCE(AVG(score), 0) AS avg").Scan(&avg).Error; err != nil {
		return s, fmt.Errorf("failed to average scores: %w", err)
	}
	s.AverageScore = avg.Avg

	if topTitles > 0 {
		err := q.Model(&models.RankedMovie{}).
			Select("title, COUNT(DISTINCT run_id) AS count").
			Group("title").
			Order("count desc, title asc").
			Limit(topTitles).
			Scan(&s.FrequentTitles).Error
		if err != nil {
			return s, fmt.Errorf("failed to count titles: %w", err)
		}
	}
	return s, nil
}
