package repository

import (
	"github.com/totargaming/stockinfo/internal/models"
	"gorm.io/gorm"
)

// GormAPILogRepository is a GORM implementation of APILogRepository
type GormAPILogRepository struct {
	db *gorm.DB
}

// NewAPILogRepository creates a new APILogRepository
func NewAPILogRepository(db *gorm.DB) APILogRepository {
	return &GormAPILogRepository{db: db}
}

// Insert appends one call record
func (r *GormAPILogRepository) Insert(entry *models.APILog) error {
	return r.db.Create(entry).Error
}

// List returns call records matching the filter, newest first, with the
// total count for pagination.
func (r *GormAPILogRepository) List(filter APILogFilter, offset, limit int) ([]models.APILog, int64, error) {
	query := r.db.Model(&models.APILog{})

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Endpoint != nil {
		query = query.Where("endpoint = ?", *filter.Endpoint)
	}
	if filter.Success != nil {
		query = query.Where("success = ?", *filter.Success)
	}
	if filter.Since != nil {
		query = query.Where("request_time >= ?", *filter.Since)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	logs := []models.APILog{}
	if err := query.Order("request_time DESC").Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// Stats aggregates the whole log: call count, success rate, mean latency.
func (r *GormAPILogRepository) Stats() (*APILogStats, error) {
	var stats APILogStats
	row := r.db.Model(&models.APILog{}).
		Select("COUNT(*) AS total_calls, " +
			"COALESCE(SUM(CASE WHEN success THEN 1 ELSE 0 END), 0) AS success_calls, " +
			"COALESCE(AVG(response_time_ms), 0) AS avg_latency_ms").
		Row()
	if err := row.Scan(&stats.TotalCalls, &stats.SuccessCalls, &stats.AvgLatencyMs); err != nil {
		return nil, err
	}
	if stats.TotalCalls > 0 {
		stats.SuccessRate = float64(stats.SuccessCalls) / float64(stats.TotalCalls)
	}
	return &stats, nil
}
