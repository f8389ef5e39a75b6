package models

import "time"

// User is an account together with its lifetime focus statistics.
type User struct {
	ID                string    `gorm:"primaryKey;size:36" json:"id"`
	Username          string    `gorm:"size:100;not null" json:"username"`
	Email             string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash      string    `gorm:"size:255;not null" json:"-"`
	TotalHours        float64   `gorm:"not null;default:0" json:"total_hours"`
	Violations        int       `gorm:"not null;default:0" json:"violations"`
	SessionsCompleted int       `gorm:"not null;default:0" json:"sessions_completed"`
	CreatedAt         time.Time `json:"created_at"`
}
