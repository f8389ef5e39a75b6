package models

import (
	"slices"
	"time"

	"github.com/tzheng846/studyWme/internal/scoring"
)

type Session struct {
	ID           string        `gorm:"primaryKey;size:36" json:"id"`
	RoomCode     string        `gorm:"size:6;not null;index" json:"room_code"`
	HostID       string        `gorm:"size:36;not null;index" json:"host_id"`
	Status       string        `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Outcome      string        `gorm:"size:20" json:"outcome,omitempty"`
	FailReason   string        `gorm:"size:255" json:"fail_reason,omitempty"`
	Duration     int           `gorm:"not null" json:"duration"`
	Version      int64         `gorm:"not null;default:0" json:"version"`
	Participants []Participant `gorm:"foreignKey:SessionID" json:"-"`
	Members      []string      `gorm:"-" json:"participants"`
	Violations   []Violation   `gorm:"foreignKey:SessionID" json:"violations"`
	CreatedAt    time.Time     `gorm:"index" json:"created_at"`
	StartTime    *time.Time    `json:"start_time,omitempty"`
	EndTime      *time.Time    `json:"end_time,omitempty"`
}

const (
	SessionStatusPending   = "pending"
	SessionStatusActive    = "active"
	SessionStatusEnded     = "ended"
	SessionStatusCancelled = "cancelled"

	OutcomeSuccessful = "successful"
	OutcomeFailed     = "failed"
)

// Hydrate fills the derived fields that are never persisted: the ordered
// member list and each violation's category.
func (s *Session) Hydrate() {
	slices.SortStableFunc(s.Participants, func(a, b Participant) int {
		return a.Position - b.Position
	})
	s.Members = make([]string, 0, len(s.Participants))
	for _, p := range s.Participants {
		s.Members = append(s.Members, p.UserID)
	}
	for i := range s.Violations {
		s.Violations[i].Category = scoring.Classify(s.Violations[i].DurationSeconds)
	}
}

// IsClosed reports whether the session reached a terminal status.
func (s *Session) IsClosed() bool {
	return s.Status == SessionStatusEnded || s.Status == SessionStatusCancelled
}

func (s *Session) HasMember(userID string) bool {
	for _, p := range s.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// Target is the configured session length.
func (s *Session) Target() time.Duration {
	return time.Duration(s.Duration) * time.Minute
}

// Elapsed is the tracked time since start, zero before the session starts.
func (s *Session) Elapsed(now time.Time) time.Duration {
	if s.StartTime == nil {
		return 0
	}
	end := now
	if s.EndTime != nil {
		end = *s.EndTime
	}
	if end.Before(*s.StartTime) {
		return 0
	}
	return end.Sub(*s.StartTime)
}
