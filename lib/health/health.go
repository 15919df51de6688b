package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/icco/cinerank/models"
	"gorm.io/gorm"
)

// Status is the body served by the health endpoint.
type Status struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	DB        DBStatus  `json:"db"`
}

type DBStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Runs    int64  `json:"runs"`
}

// Check pings the runs database and reports how many runs it holds. Any
// failure answers 503.
func Check(db *gorm.DB, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := Status{Status: "ok", Timestamp: time.Now().UTC()}
		if msg := pingDB(ctx, db, &status.DB); msg != "" {
			status.Status = "degraded"
			status.DB.Status = "error"
			status.DB.Message = msg
			write(w, logger, status, http.StatusServiceUnavailable)
			return
		}

		status.DB.Status = "ok"
		write(w, logger, status, http.StatusOK)
	}
}

func pingDB(ctx context.Context, db *gorm.DB, s *DBStatus) string {
	sqlDB, err := db.DB()
	if err != nil {
		return "Failed to get database connection"
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return "Database ping failed"
	}
	if err := db.WithContext(ctx).Model(&models.Run{}).Count(&s.Runs).Error; err != nil {
		return "Failed to count runs"
	}
	return ""
}

func write(w http.ResponseWriter, logger *slog.Logger, status Status, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(status); err != nil {
		logger.Error("Failed to encode health response", slog.Any("error", err))
	}
}
