package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/01moynul/storefront-api/internal/models"
	"gorm.io/gorm"
)

// CreateUser inserts u; a taken email returns ErrDuplicate.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if err := s.conn(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", translate(err))
	}
	return nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.conn(ctx).First(&u, "email = ?", strings.ToLower(email)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &u, nil
}

// FindUserRole reads only the role column.
func (s *Store) FindUserRole(ctx context.Context, id string) (string, error) {
	var roles []string
	err := s.conn(ctx).Model(&models.User{}).Where("id = ?", id).Limit(1).Pluck("role", &roles).Error
	if err != nil {
		return "", fmt.Errorf("failed to read role: %w", err)
	}
	if len(roles) == 0 {
		return "", ErrNotFound
	}
	return roles[0], nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.conn(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *Store) FindUserByMobile(ctx context.Context, mobile string) (*models.User, error) {
	var u models.User
	if err := s.conn(ctx).First(&u, "mobile_number = ?", mobile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &u, nil
}
