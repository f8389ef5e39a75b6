package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tzheng846/studyWme/internal/models"

	"gorm.io/gorm"
)

// StatsDelta is what one finalized session adds to one user's totals.
type StatsDelta struct {
	Violations        int     `json:"violations"`
	Hours             float64 `json:"hours"`
	SessionsCompleted int     `json:"sessions_completed"`
}

// CreditFor computes userID's share of an ended session. Violations always
// count; hours and completion only for a successful outcome.
func CreditFor(userID string, session *models.Session) StatsDelta {
	var d StatsDelta
	for _, v := range session.Violations {
		if v.UserID == userID {
			d.Violations++
		}
	}
	if session.Outcome == models.OutcomeSuccessful {
		d.Hours = float64(session.Duration) / 60
		d.SessionsCompleted = 1
	}
	return d
}

// StatsService folds session outcomes into lifetime user statistics, at most
// once per (user, session).
type StatsService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewStatsService(db *gorm.DB, now func() time.Time) *StatsService {
	if now == nil {
		now = time.Now
	}
	return &StatsService{db: db, now: now}
}

// ApplyOutcome credits userID with the outcome of an ended session. The
// returned flag is false when the credit had already been applied.
func (s *StatsService) ApplyOutcome(ctx context.Context, userID, sessionID string) (*models.User, bool, error) {
	applied := false
	var user models.User

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := loadSession(tx, sessionID)
		if err != nil {
			return err
		}
		if session.Status != models.SessionStatusEnded {
			return illegalFrom(session.Status, "credit the outcome of")
		}
		if err := requireMember(session, userID); err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.OutcomeCredit{}).
			Where("user_id = ? AND session_id = ?", userID, sessionID).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("check outcome credit: %w", err)
		}

		if existing == 0 {
			credit := models.OutcomeCredit{
				UserID:    userID,
				SessionID: sessionID,
				Outcome:   session.Outcome,
				AppliedAt: s.now().UTC(),
			}
			if err := tx.Create(&credit).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return errAlreadyCredited
				}
				return fmt.Errorf("record outcome credit: %w", err)
			}

			d := CreditFor(userID, session)
			res := tx.Model(&models.User{}).
				Where("id = ?", userID).
				Updates(map[string]any{
					"violations":         gorm.Expr("violations + ?", d.Violations),
					"total_hours":        gorm.Expr("total_hours + ?", d.Hours),
					"sessions_completed": gorm.Expr("sessions_completed + ?", d.SessionsCompleted),
				})
			if res.Error != nil {
				return fmt.Errorf("update user stats: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return ErrUserNotFound
			}
			applied = true
		}

		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("load user: %w", err)
		}
		return nil
	})
	if errors.Is(err, errAlreadyCredited) {
		// A concurrent call won the insert; its credit stands.
		profile, err := s.profile(ctx, userID)
		return profile, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return &user, applied, nil
}

var errAlreadyCredited = errors.New("outcome already credited")

func (s *StatsService) profile(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &user, nil
}
