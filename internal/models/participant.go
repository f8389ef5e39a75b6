package models

import "time"

type Participant struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	SessionID string    `gorm:"size:36;not null;uniqueIndex:idx_participant_session_user" json:"session_id"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_participant_session_user;index" json:"user_id"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	JoinedAt  time.Time `json:"joined_at"`
}
