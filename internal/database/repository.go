package database

import (
	"time"

	"controllerblocker/internal/models"

	"github.com/pkg/errors"

	"gorm.io/gorm"
)

// Repository handles all database operations for block history
type Repository struct {
	db *DB
}

// NewRepository creates a new repository instance
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// CreateBlockEvent inserts a new block event into the database
func (r *Repository) CreateBlockEvent(event *models.BlockEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	result := r.db.Create(event)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert block event")
	}
	return nil
}

// GetEventsSince retrieves all block events since a given time, oldest first
func (r *Repository) GetEventsSince(since time.Time) ([]*models.BlockEvent, error) {
	var events []*models.BlockEvent
	result := r.db.Where("timestamp >= ?", since).Order("timestamp ASC").Find(&events)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query block events")
	}

	return events, nil
}

// GetSummarySince returns discarded-event totals per controller and program
func (r *Repository) GetSummarySince(since time.Time) ([]models.BlockSummary, error) {
	var summaries []models.BlockSummary

	result := r.db.Model(&models.BlockEvent{}).
		Select("controller, program, SUM(discarded) as total_discarded, COUNT(*) as tick_count").
		Where("timestamp >= ?", since).
		Group("controller, program").
		Order("total_discarded DESC").
		Scan(&summaries)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query block summary")
	}

	return summaries, nil
}

// GetLatest retrieves the most recent block event, or nil when there is none
func (r *Repository) GetLatest() (*models.BlockEvent, error) {
	var event models.BlockEvent
	result := r.db.Order("timestamp DESC").First(&event)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(result.Error, "failed to get latest event")
	}
	return &event, nil
}

// DeleteOldEvents permanently removes block events and error logs recorded
// before the given time. It returns the number of block events removed.
func (r *Repository) DeleteOldEvents(before time.Time) (int64, error) {
	result := r.db.Unscoped().Where("timestamp < ?", before).Delete(&models.BlockEvent{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to delete old events")
	}
	if err := r.db.Unscoped().Where("timestamp < ?", before).Delete(&models.ErrorLog{}).Error; err != nil {
		return result.RowsAffected, errors.Wrap(err, "failed to delete old error logs")
	}
	return result.RowsAffected, nil
}

// CreateErrorLog inserts a new error log into the database
func (r *Repository) CreateErrorLog(errorLog *models.ErrorLog) error {
	result := r.db.Create(errorLog)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert error log")
	}
	return nil
}

// CountErrorsSince counts enumeration errors since a given time
func (r *Repository) CountErrorsSince(since time.Time) (int64, error) {
	var count int64
	result := r.db.Model(&models.ErrorLog{}).Where("timestamp >= ?", since).Count(&count)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to count error logs")
	}
	return count, nil
}

// Clear removes all block history and error logs
func (r *Repository) Clear() error {
	if result := r.db.Exec("DELETE FROM block_events"); result.Error != nil {
		return errors.Wrap(result.Error, "failed to clear block events")
	}
	if result := r.db.Exec("DELETE FROM error_logs"); result.Error != nil {
		return errors.Wrap(result.Error, "failed to clear error logs")
	}
	return nil
}

// GetErrorsSince retrieves enumeration errors since a given time, newest first
func (r *Repository) GetErrorsSince(since time.Time) ([]*models.ErrorLog, error) {
	var logs []*models.ErrorLog
	result := r.db.Where("timestamp >= ?", since).Order("timestamp DESC").Find(&logs)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query error logs")
	}
	return logs, nil
}
