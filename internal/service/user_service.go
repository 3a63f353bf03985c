package service

import (
	"context"

	"github.com/blaisecz/smart-sleep/internal/domain"
	"github.com/blaisecz/smart-sleep/internal/repository"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// DefaultTimezone is assigned to users registered without a home timezone.
const DefaultTimezone = "UTC"

type UserService interface {
	Create(ctx context.Context, req *domain.CreateUserRequest) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	// UpdateTimezone moves the user to a new home timezone. Only sessions started
	// afterwards are rendered in it.
	UpdateTimezone(ctx context.Context, id uuid.UUID, req *domain.UpdateUserRequest) (*domain.User, error)
}

type userService struct {
	repo   repository.UserRepository
	logger *zap.Logger
}

func NewUserService(repo repository.UserRepository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

func (s *userService) Create(ctx context.Context, req *domain.CreateUserRequest) (*domain.User, error) {
	ctx, span := otel.Tracer("smart-sleep/users").Start(ctx, "UserService.Create")
	defer span.End()

	tz := req.Timezone
	if tz == "" {
		tz = DefaultTimezone
	}
	user := &domain.User{ID: uuid.New(), Timezone: tz}
	span.SetAttributes(
		attribute.String("user.id", user.ID.String()),
		attribute.String("user.timezone", tz),
	)

	if err := s.repo.Create(ctx, user); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create user")
		return nil, err
	}

	s.logger.Info("user registered", zap.Stringer("user_id", user.ID), zap.String("timezone", tz))
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *userService) UpdateTimezone(ctx context.Context, id uuid.UUID, req *domain.UpdateUserRequest) (*domain.User, error) {
	ctx, span := otel.Tracer("smart-sleep/users").Start(ctx, "UserService.UpdateTimezone")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", id.String()),
		attribute.String("user.timezone", req.Timezone),
	)

	if err := s.repo.UpdateTimezone(ctx, id, req.Timezone); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update timezone")
		return nil, err
	}

	s.logger.Info("user timezone changed", zap.Stringer("user_id", id), zap.String("timezone", req.Timezone))
	return s.repo.GetByID(ctx, id)
}
