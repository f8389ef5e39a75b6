package models

import "time"

// OutcomeCredit marks that a session's outcome was folded into a user's stats.
type OutcomeCredit struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_credit_user_session" json:"user_id"`
	SessionID string    `gorm:"size:36;not null;uniqueIndex:idx_credit_user_session" json:"session_id"`
	Outcome   string    `gorm:"size:20;not null" json:"outcome"`
	AppliedAt time.Time `json:"applied_at"`
}
