package models

import (
	"time"

	"gorm.io/gorm"
)

// BlockEvent records one blocking tick that discarded queued input. Block
// lists themselves are never stored.
type BlockEvent struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Timestamp  time.Time      `gorm:"not null;index" json:"timestamp"`
	Controller string         `gorm:"not null;index" json:"controller"`
	Program    string         `gorm:"not null;index" json:"program"`
	Discarded  int64          `gorm:"not null;default:0" json:"discarded"` // Events removed from the queue
	Scope      string         `gorm:"not null" json:"scope"`               // "global" or "device"
	CreatedAt  time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

type BlockSummary struct {
	Controller     string  `json:"controller"`
	Program        string  `json:"program"`
	TotalDiscarded int64   `json:"total_discarded"`
	TickCount      int     `json:"tick_count"`
	Percentage     float64 `json:"percentage,omitempty"`
}

type ReportPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Type  string    `json:"type"` // "day", "week", "month"
}

type Report struct {
	Period         ReportPeriod   `json:"period"`
	Entries        []BlockSummary `json:"entries"`
	TotalDiscarded int64          `json:"total_discarded"`
	TotalTicks     int            `json:"total_ticks"`
	Errors         int64          `json:"errors"`
	GeneratedAt    time.Time      `json:"generated_at"`
}
