package services

import (
	"github.com/tzheng846/studyWme/internal/models"
	"github.com/tzheng846/studyWme/internal/scoring"
)

type ParticipantReport struct {
	UserID       string                   `json:"user_id"`
	Count        int                      `json:"count"`
	TotalSeconds int                      `json:"total_seconds"`
	ByCategory   map[scoring.Category]int `json:"by_category"`
}

type Report struct {
	SessionID       string              `json:"session_id"`
	Status          string              `json:"status"`
	Outcome         string              `json:"outcome,omitempty"`
	FailReason      string              `json:"fail_reason,omitempty"`
	Duration        int                 `json:"duration"`
	TotalViolations int                 `json:"total_violations"`
	TotalSeconds    int                 `json:"total_seconds"`
	Participants    []ParticipantReport `json:"participants"`
	MVP             string              `json:"mvp,omitempty"`
}

// BuildReport summarises a session's absences per participant. The MVP is
// the participant with the least absent time and is only named for a
// successful session; ties go to whoever joined first.
func BuildReport(session *models.Session) Report {
	r := Report{
		SessionID:       session.ID,
		Status:          session.Status,
		Outcome:         session.Outcome,
		FailReason:      session.FailReason,
		Duration:        session.Duration,
		TotalViolations: len(session.Violations),
	}

	index := make(map[string]int, len(session.Members))
	add := func(userID string) int {
		if i, ok := index[userID]; ok {
			return i
		}
		index[userID] = len(r.Participants)
		r.Participants = append(r.Participants, ParticipantReport{
			UserID: userID,
			ByCategory: map[scoring.Category]int{
				scoring.Minor:        0,
				scoring.Medium:       0,
				scoring.Large:        0,
				scoring.Catastrophic: 0,
			},
		})
		return index[userID]
	}
	for _, userID := range session.Members {
		add(userID)
	}

	for _, v := range session.Violations {
		p := &r.Participants[add(v.UserID)]
		p.Count++
		p.TotalSeconds += v.DurationSeconds
		p.ByCategory[scoring.Classify(v.DurationSeconds)]++
		r.TotalSeconds += v.DurationSeconds
	}

	if session.Outcome == models.OutcomeSuccessful && len(r.Participants) > 0 {
		best := 0
		for i, p := range r.Participants {
			if p.TotalSeconds < r.Participants[best].TotalSeconds {
				best = i
			}
		}
		r.MVP = r.Participants[best].UserID
	}
	return r
}
