package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/tzheng846/studyWme/internal/models"

	"gorm.io/gorm"
)

const (
	RoomCodeLength          = 6
	DefaultRoomCodeAttempts = 10
)

// RoomCodeAllocator hands out 6-digit join codes that are unique among
// pending sessions and resolves them back to sessions.
type RoomCodeAllocator struct {
	db       *gorm.DB
	attempts int
	draw     func() int
}

func NewRoomCodeAllocator(db *gorm.DB, attempts int) *RoomCodeAllocator {
	if attempts <= 0 {
		attempts = DefaultRoomCodeAttempts
	}
	return &RoomCodeAllocator{
		db:       db,
		attempts: attempts,
		draw:     func() int { return rand.IntN(1000000) },
	}
}

func (a *RoomCodeAllocator) Allocate(ctx context.Context) (string, error) {
	for i := 0; i < a.attempts; i++ {
		code := fmt.Sprintf("%06d", a.draw())
		var count int64
		err := a.db.WithContext(ctx).Model(&models.Session{}).
			Where("room_code = ? AND status = ?", code, models.SessionStatusPending).
			Count(&count).Error
		if err != nil {
			return "", fmt.Errorf("check room code: %w", err)
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", ErrAllocationExhausted
}

// Resolve prefers the pending session holding code. Failing that it returns
// the newest session that ever held it, so callers can tell a closed room
// from an unknown one.
func (a *RoomCodeAllocator) Resolve(ctx context.Context, code string) (string, error) {
	if err := ValidateRoomCode(code); err != nil {
		return "", err
	}

	var session models.Session
	err := a.db.WithContext(ctx).
		Where("room_code = ? AND status = ?", code, models.SessionStatusPending).
		First(&session).Error
	if err == nil {
		return session.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("resolve room code: %w", err)
	}

	err = a.db.WithContext(ctx).
		Where("room_code = ?", code).
		Order("created_at DESC").
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolve room code: %w", err)
	}
	return session.ID, nil
}

func ValidateRoomCode(code string) error {
	if len(code) != RoomCodeLength {
		return ErrInvalidRoomCode
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return ErrInvalidRoomCode
		}
	}
	return nil
}
