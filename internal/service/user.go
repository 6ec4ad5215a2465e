package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/placeshare/places-server/internal/domain"
	domainerrors "github.com/placeshare/places-server/internal/errors"
	"github.com/placeshare/places-server/internal/id"
	"github.com/placeshare/places-server/internal/normalize"
	"github.com/placeshare/places-server/internal/store"
	"github.com/placeshare/places-server/internal/validation"
)

// CreateUserInput holds the fields of a new user.
type CreateUserInput struct {
	Name  string `json:"name" validate:"notblank,max=100"`
	Email string `json:"email" validate:"required,email,max=254"`
}

// UserService manages user records. A user's place set is never written
// here; only PlaceService changes it.
type UserService struct {
	store     store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(st store.Store, validator *validation.Validator, logger *slog.Logger) *UserService {
	return &UserService{
		store:     st,
		validator: validator,
		logger:    logger,
	}
}

// CreateUser creates a user with an empty place set.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	in.Name = normalize.Text(in.Name)
	in.Email = normalize.Email(in.Email)
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	userID, err := id.Generate(id.UserPrefix)
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}
	user := domain.NewUser(userID, in.Name, in.Email)

	err = s.store.Update(ctx, func(tx store.Tx) error {
		return tx.SaveUser(ctx, user)
	})
	if errors.Is(err, store.ErrEmailExists) {
		return nil, domainerrors.AlreadyExists("a user with this email already exists")
	}
	if err != nil {
		return nil, domainerrors.WriteFailed(userID, err)
	}

	s.logger.InfoContext(ctx, "user created", "user_id", user.ID)
	return user, nil
}

// GetUser returns a user by ID.
func (s *UserService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	var user *domain.User
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		user, err = tx.GetUser(ctx, userID)
		return err
	})
	if errors.Is(err, store.ErrUserNotFound) {
		return nil, domainerrors.UserNotFound(userID)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// GetUserByEmail returns the user registered with email.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user *domain.User
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		user, err = tx.GetUserByEmail(ctx, email)
		return err
	})
	if errors.Is(err, store.ErrUserNotFound) {
		return nil, domainerrors.UserNotFound(email)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}
