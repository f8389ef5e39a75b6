package services

import (
	"strings"
	"time"

	"github.com/tzheng846/studyWme/internal/models"
	"github.com/tzheng846/studyWme/internal/scoring"
)

const (
	ReasonEndedEarly     = "Session ended early"
	ReasonBudgetExceeded = "Total violations exceeded 5 minute limit"
	ReasonCatastrophic   = "Catastrophic violation recorded"
	ReasonTerminated     = "Session terminated"
)

// change is the row-level effect of one transition. Planning functions below
// compute it from the current snapshot without touching the store.
type change struct {
	updates   map[string]any
	join      *models.Participant
	leave     string
	violation *models.Violation
}

func (c change) empty() bool {
	return len(c.updates) == 0 && c.join == nil && c.leave == "" && c.violation == nil
}

// IsSuccessful applies the pooled absence budget. Participants do not change
// the verdict; the budget is shared by the whole group.
func IsSuccessful(violations []models.Violation, participants []string) bool {
	durations := make([]int, len(violations))
	for i, v := range violations {
		durations[i] = v.DurationSeconds
	}
	return scoring.IsSuccessful(durations)
}

func judge(violations []models.Violation) (outcome, reason string) {
	if IsSuccessful(violations, nil) {
		return models.OutcomeSuccessful, ""
	}
	for _, v := range violations {
		if scoring.Classify(v.DurationSeconds) == scoring.Catastrophic {
			return models.OutcomeFailed, ReasonCatastrophic
		}
	}
	return models.OutcomeFailed, ReasonBudgetExceeded
}

func requireStatus(sess *models.Session, want, op string) error {
	if sess.IsClosed() {
		return ErrSessionClosed
	}
	if sess.Status != want {
		return illegalFrom(sess.Status, op)
	}
	return nil
}

func requireMember(sess *models.Session, userID string) error {
	if !sess.HasMember(userID) {
		return ErrNotParticipant
	}
	return nil
}

func notBefore(t time.Time, floor *time.Time) time.Time {
	if floor != nil && t.Before(*floor) {
		return *floor
	}
	return t
}

func planJoin(sess *models.Session, userID string, now time.Time) (change, error) {
	if sess.IsClosed() {
		return change{}, errJoinClosed
	}
	if sess.Status != models.SessionStatusPending {
		return change{}, ErrSessionNotJoinable
	}
	if strings.TrimSpace(userID) == "" {
		return change{}, ErrInvalidInput
	}
	if sess.HasMember(userID) {
		return change{}, nil
	}

	next := 0
	for _, p := range sess.Participants {
		if p.Position >= next {
			next = p.Position + 1
		}
	}
	return change{join: &models.Participant{
		SessionID: sess.ID,
		UserID:    userID,
		Position:  next,
		JoinedAt:  now,
	}}, nil
}

func planLeave(sess *models.Session, userID string) (change, error) {
	if err := requireStatus(sess, models.SessionStatusPending, "leave"); err != nil {
		return change{}, err
	}
	if userID == sess.HostID {
		return change{}, ErrHostCannotLeave
	}
	if err := requireMember(sess, userID); err != nil {
		return change{}, err
	}
	return change{leave: userID}, nil
}

func planCancel(sess *models.Session, actorID string) (change, error) {
	if err := requireStatus(sess, models.SessionStatusPending, "cancel"); err != nil {
		return change{}, err
	}
	if actorID != sess.HostID {
		return change{}, ErrNotHost
	}
	return change{updates: map[string]any{"status": models.SessionStatusCancelled}}, nil
}

func planStart(sess *models.Session, actorID string, now time.Time) (change, error) {
	if err := requireStatus(sess, models.SessionStatusPending, "start"); err != nil {
		return change{}, err
	}
	if actorID != sess.HostID {
		return change{}, ErrNotHost
	}
	return change{updates: map[string]any{
		"status":     models.SessionStatusActive,
		"start_time": notBefore(now, &sess.CreatedAt),
	}}, nil
}

func planRecordViolation(sess *models.Session, userID string, durationSeconds int, kind string, now time.Time) (change, error) {
	if err := requireStatus(sess, models.SessionStatusActive, "record a violation in"); err != nil {
		return change{}, err
	}
	if durationSeconds < 0 {
		return change{}, ErrInvalidViolation
	}
	if err := requireMember(sess, userID); err != nil {
		return change{}, err
	}
	kind = strings.TrimSpace(kind)
	if kind == "" {
		kind = models.ViolationTypeLeftApp
	}
	return change{violation: &models.Violation{
		SessionID:       sess.ID,
		UserID:          userID,
		Timestamp:       now,
		Type:            kind,
		DurationSeconds: durationSeconds,
		Category:        scoring.Classify(durationSeconds),
	}}, nil
}

func ended(sess *models.Session, outcome, reason string, now time.Time) change {
	return change{updates: map[string]any{
		"status":      models.SessionStatusEnded,
		"outcome":     outcome,
		"fail_reason": reason,
		"end_time":    notBefore(now, sess.StartTime),
	}}
}

func planEndEarly(sess *models.Session, actorID, reason string, now time.Time) (change, error) {
	if err := requireStatus(sess, models.SessionStatusActive, "end"); err != nil {
		return change{}, err
	}
	if err := requireMember(sess, actorID); err != nil {
		return change{}, err
	}

	reachedTarget := sess.Elapsed(now) >= sess.Target()
	outcome, defaultReason := judge(sess.Violations)
	if !reachedTarget {
		outcome, defaultReason = models.OutcomeFailed, ReasonEndedEarly
	}
	if outcome == models.OutcomeSuccessful {
		return ended(sess, outcome, "", now), nil
	}
	if reason = strings.TrimSpace(reason); reason == "" {
		reason = defaultReason
	}
	return ended(sess, outcome, reason, now), nil
}

// planAutoComplete closes a session whose target has elapsed. An empty
// actorID is the server's own deadline check.
func planAutoComplete(sess *models.Session, actorID string, now time.Time) (change, error) {
	if err := requireStatus(sess, models.SessionStatusActive, "complete"); err != nil {
		return change{}, err
	}
	if actorID != "" {
		if err := requireMember(sess, actorID); err != nil {
			return change{}, err
		}
	}
	if sess.Elapsed(now) < sess.Target() {
		return change{}, ErrTargetNotReached
	}
	outcome, reason := judge(sess.Violations)
	return ended(sess, outcome, reason, now), nil
}

func planTerminate(sess *models.Session, actorID, cause string, now time.Time) (change, error) {
	if err := requireStatus(sess, models.SessionStatusActive, "terminate"); err != nil {
		return change{}, err
	}
	if err := requireMember(sess, actorID); err != nil {
		return change{}, err
	}
	if cause = strings.TrimSpace(cause); cause == "" {
		cause = ReasonTerminated
	}
	return ended(sess, models.OutcomeFailed, cause, now), nil
}
