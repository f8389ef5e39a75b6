package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/tzheng846/studyWme/internal/models"

	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) Get(ctx context.Context, userID string) (*models.User, error) {
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

func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, email)
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// ResolveEmails maps invitee emails to user ids, failing on the first unknown
// address.
func (s *UserService) ResolveEmails(ctx context.Context, emails []string) ([]string, error) {
	ids := make([]string, 0, len(emails))
	for _, email := range emails {
		user, err := s.FindByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		ids = append(ids, user.ID)
	}
	return ids, nil
}

// RequireUsers fails with ErrUserNotFound unless every id names an account.
func (s *UserService) RequireUsers(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if _, err := s.Get(ctx, id); err != nil {
			if errors.Is(err, ErrUserNotFound) {
				return fmt.Errorf("%w: %s", ErrUserNotFound, id)
			}
			return err
		}
	}
	return nil
}
