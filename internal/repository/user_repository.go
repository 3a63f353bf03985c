package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/blaisecz/smart-sleep/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRepository stores sleepers and their home timezone.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	// UpdateTimezone changes the home timezone. Sessions keep the zone they were started in.
	UpdateTimezone(ctx context.Context, id uuid.UUID, timezone string) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Take(&user, "id = ?", id).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, domain.ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("load user %s: %w", id, err)
	}
	return &user, nil
}

func (r *userRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var found int64
	err := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Limit(1).
		Count(&found).Error
	if err != nil {
		return false, fmt.Errorf("check user %s: %w", id, err)
	}
	return found > 0, nil
}

func (r *userRepository) UpdateTimezone(ctx context.Context, id uuid.UUID, timezone string) error {
	res := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Update("timezone", timezone)
	if res.Error != nil {
		return fmt.Errorf("update user %s timezone: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
