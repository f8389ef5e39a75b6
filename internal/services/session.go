package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tzheng846/studyWme/internal/models"
	"github.com/tzheng846/studyWme/internal/scoring"
	"github.com/tzheng846/studyWme/internal/ws"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxCASAttempts = 5

// Publisher receives every committed session snapshot.
type Publisher interface {
	Publish(session models.Session, alsoNotify ...string)
}

// SessionService owns the session lifecycle. Every mutation is one
// transaction that bumps sessions.version with a compare-and-set, so racing
// callers never overwrite each other.
type SessionService struct {
	db    *gorm.DB
	codes *RoomCodeAllocator
	hub   *ws.Hub
	pub   Publisher
	now   func() time.Time
}

func NewSessionService(db *gorm.DB, codes *RoomCodeAllocator, hub *ws.Hub, now func() time.Time) *SessionService {
	if now == nil {
		now = time.Now
	}
	s := &SessionService{db: db, codes: codes, hub: hub, now: now}
	if hub != nil {
		s.pub = hub
	}
	return s
}

func (s *SessionService) clock() time.Time {
	return s.now().UTC()
}

func loadSession(db *gorm.DB, sessionID string) (*models.Session, error) {
	var session models.Session
	err := db.
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Violations", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		First(&session, "id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	session.Hydrate()
	return &session, nil
}

func (s *SessionService) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	return loadSession(s.db.WithContext(ctx), sessionID)
}

func (s *SessionService) Create(ctx context.Context, hostID string, participantIDs []string, duration int) (*models.Session, error) {
	hostID = strings.TrimSpace(hostID)
	if hostID == "" {
		return nil, ErrInvalidInput
	}
	if duration <= 0 {
		return nil, ErrInvalidDuration
	}

	members := []string{hostID}
	seen := map[string]bool{hostID: true}
	for _, id := range participantIDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		members = append(members, id)
	}

	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		code, err := s.codes.Allocate(ctx)
		if err != nil {
			return nil, err
		}

		now := s.clock()
		session := models.Session{
			ID:        uuid.NewString(),
			RoomCode:  code,
			HostID:    hostID,
			Status:    models.SessionStatusPending,
			Duration:  duration,
			CreatedAt: now,
		}
		for i, id := range members {
			session.Participants = append(session.Participants, models.Participant{
				SessionID: session.ID,
				UserID:    id,
				Position:  i,
				JoinedAt:  now,
			})
		}

		err = s.db.WithContext(ctx).Create(&session).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Another creator took the same code between allocation and insert.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}

		created, err := s.Get(ctx, session.ID)
		if err != nil {
			return nil, err
		}
		s.publish(created)
		return created, nil
	}
	return nil, ErrAllocationExhausted
}

// mutate loads the session, plans a change against that snapshot and commits
// it only if no one else committed in between. A lost race is replanned
// against the fresh row.
func (s *SessionService) mutate(ctx context.Context, sessionID string, plan func(*models.Session) (change, error)) (*models.Session, change, error) {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		var applied change
		conflict := false

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			current, err := loadSession(tx, sessionID)
			if err != nil {
				return err
			}
			c, err := plan(current)
			if err != nil {
				return err
			}
			applied = c
			if c.empty() {
				return nil
			}

			updates := map[string]any{"version": current.Version + 1}
			for k, v := range c.updates {
				updates[k] = v
			}
			res := tx.Model(&models.Session{}).
				Where("id = ? AND version = ?", sessionID, current.Version).
				Updates(updates)
			if res.Error != nil {
				return fmt.Errorf("update session: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				conflict = true
				return ErrConcurrentUpdate
			}

			if c.join != nil {
				if err := tx.Create(c.join).Error; err != nil {
					return fmt.Errorf("add participant: %w", err)
				}
			}
			if c.leave != "" {
				if err := tx.Where("session_id = ? AND user_id = ?", sessionID, c.leave).
					Delete(&models.Participant{}).Error; err != nil {
					return fmt.Errorf("remove participant: %w", err)
				}
			}
			if c.violation != nil {
				if err := tx.Create(c.violation).Error; err != nil {
					return fmt.Errorf("append violation: %w", err)
				}
			}
			return nil
		})
		if conflict {
			continue
		}
		if err != nil {
			return nil, change{}, err
		}

		fresh, err := s.Get(ctx, sessionID)
		if err != nil {
			return nil, change{}, err
		}
		if !applied.empty() {
			if applied.leave != "" {
				s.publish(fresh, applied.leave)
			} else {
				s.publish(fresh)
			}
		}
		return fresh, applied, nil
	}
	return nil, change{}, ErrConcurrentUpdate
}

func (s *SessionService) publish(session *models.Session, alsoNotify ...string) {
	if s.pub == nil {
		return
	}
	s.pub.Publish(*session, alsoNotify...)
}

// Join adds userID to the pending session holding code. Joining twice is a
// no-op.
func (s *SessionService) Join(ctx context.Context, code, userID string) (*models.Session, error) {
	sessionID, err := s.codes.Resolve(ctx, code)
	if err != nil {
		return nil, err
	}
	session, _, err := s.mutate(ctx, sessionID, func(cur *models.Session) (change, error) {
		return planJoin(cur, userID, s.clock())
	})
	return session, err
}

func (s *SessionService) Leave(ctx context.Context, sessionID, userID string) (*models.Session, error) {
	session, _, err := s.mutate(ctx, sessionID, func(cur *models.Session) (change, error) {
		return planLeave(cur, userID)
	})
	return session, err
}

func (s *SessionService) Cancel(ctx context.Context, sessionID, actorID string) (*models.Session, error) {
	session, _, err := s.mutate(ctx, sessionID, func(cur *models.Session) (change, error) {
		return planCancel(cur, actorID)
	})
	return session, err
}

func (s *SessionService) Start(ctx context.Context, sessionID, actorID string) (*models.Session, error) {
	session, _, err := s.mutate(ctx, sessionID, func(cur *models.Session) (change, error) {
		return planStart(cur, actorID, s.clock())
	})
	return session, err
}

// RecordViolation appends one absence and reports whether it was
// catastrophic. It never ends the session; callers follow a catastrophic
// result with Terminate.
func (s *SessionService) RecordViolation(ctx context.Context, sessionID, userID string, durationSeconds int, kind string) (*models.Violation, bool, error) {
	_, applied, err := s.mutate(ctx, sessionID, func(cur *models.Session) (change, error) {
		return planRecordViolation(cur, userID, durationSeconds, kind, s.clock())
	})
	if err != nil {
		return nil, false, err
	}
	v := applied.violation
	return v, v.Category == scoring.Catastrophic, nil
}

func (s *SessionService) EndEarly(ctx context.Context, sessionID, actorID, reason string) (*models.Session, error) {
	session, _, err := s.mutate(ctx, sessionID, func(cur *models.Session) (change, error) {
		return planEndEarly(cur, actorID, reason, s.clock())
	})
	return session, err
}

func (s *SessionService) AutoComplete(ctx context.Context, sessionID, actorID string) (*models.Session, error) {
	session, _, err := s.mutate(ctx, sessionID, func(cur *models.Session) (change, error) {
		return planAutoComplete(cur, actorID, s.clock())
	})
	return session, err
}

func (s *SessionService) Terminate(ctx context.Context, sessionID, actorID, cause string) (*models.Session, error) {
	session, _, err := s.mutate(ctx, sessionID, func(cur *models.Session) (change, error) {
		return planTerminate(cur, actorID, cause, s.clock())
	})
	return session, err
}

// Subscribe opens a live feed for one session, seeded with its current
// snapshot. The caller must Close the subscription.
func (s *SessionService) Subscribe(ctx context.Context, sessionID string) (*ws.Subscription, error) {
	if s.hub == nil {
		return nil, errors.New("live updates are not configured")
	}
	sub := s.hub.Subscribe(ws.SessionTopic(sessionID))
	current, err := s.Get(ctx, sessionID)
	if err != nil {
		sub.Close()
		return nil, err
	}
	sub.Offer(*current)
	return sub, nil
}

// SubscribeUser opens a feed of every session userID belongs to, seeded with
// their current open session if there is one.
func (s *SessionService) SubscribeUser(ctx context.Context, userID string) (*ws.Subscription, error) {
	if s.hub == nil {
		return nil, errors.New("live updates are not configured")
	}
	sub := s.hub.Subscribe(ws.UserTopic(userID))
	current, err := NewDirectoryService(s.db, s.codes).ActiveForUser(ctx, userID)
	if err != nil {
		sub.Close()
		return nil, err
	}
	if current != nil {
		sub.Offer(*current)
	}
	return sub, nil
}

// ListOverdue returns active sessions whose target duration has elapsed.
func (s *SessionService) ListOverdue(ctx context.Context) ([]models.Session, error) {
	var active []models.Session
	if err := s.db.WithContext(ctx).
		Where("status = ?", models.SessionStatusActive).
		Find(&active).Error; err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}

	now := s.clock()
	overdue := active[:0]
	for _, sess := range active {
		if sess.Elapsed(now) >= sess.Target() {
			overdue = append(overdue, sess)
		}
	}
	return overdue, nil
}
