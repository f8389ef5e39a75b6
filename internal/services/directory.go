package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/tzheng846/studyWme/internal/models"

	"gorm.io/gorm"
)

// DirectoryService looks sessions up by member and by room code.
type DirectoryService struct {
	db    *gorm.DB
	codes *RoomCodeAllocator
}

func NewDirectoryService(db *gorm.DB, codes *RoomCodeAllocator) *DirectoryService {
	return &DirectoryService{db: db, codes: codes}
}

func (d *DirectoryService) memberOf(ctx context.Context, userID string) *gorm.DB {
	db := d.db.WithContext(ctx)
	return db.Where("id IN (?)", db.Model(&models.Participant{}).
		Select("session_id").
		Where("user_id = ?", userID))
}

func preloadSession(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Violations", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		})
}

// ListForUser returns every session userID belongs to, newest first.
func (d *DirectoryService) ListForUser(ctx context.Context, userID string) ([]models.Session, error) {
	var sessions []models.Session
	if err := preloadSession(d.memberOf(ctx, userID)).
		Order("created_at DESC").
		Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	for i := range sessions {
		sessions[i].Hydrate()
	}
	return sessions, nil
}

// ActiveForUser returns the newest pending or active session userID is in,
// or nil when there is none.
func (d *DirectoryService) ActiveForUser(ctx context.Context, userID string) (*models.Session, error) {
	var session models.Session
	err := preloadSession(d.memberOf(ctx, userID)).
		Where("status IN ?", []string{models.SessionStatusPending, models.SessionStatusActive}).
		Order("created_at DESC").
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active session: %w", err)
	}
	session.Hydrate()
	return &session, nil
}

func (d *DirectoryService) ResolveCode(ctx context.Context, code string) (string, error) {
	return d.codes.Resolve(ctx, code)
}
