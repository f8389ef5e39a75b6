package models

import (
	"time"

	"github.com/tzheng846/studyWme/internal/scoring"
)

// Violation is one reported absence. Rows are append-only and ordered by ID.
type Violation struct {
	ID              uint             `gorm:"primaryKey" json:"-"`
	SessionID       string           `gorm:"size:36;not null;index" json:"-"`
	UserID          string           `gorm:"size:36;not null" json:"user_id"`
	Timestamp       time.Time        `gorm:"not null" json:"timestamp"`
	Type            string           `gorm:"size:100;not null" json:"type"`
	DurationSeconds int              `gorm:"not null;default:0" json:"duration_seconds"`
	Category        scoring.Category `gorm:"-" json:"category"`
}

const (
	ViolationTypeLeftApp   = "left app"
	ViolationTypeManual    = "manually reported"
	ViolationTypeAppSwitch = "app-switch"
)
