package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zatekoja/waitwise/backend/internal/domain/entities"
	"github.com/zatekoja/waitwise/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/waitwise/backend/pkg/errors"
)

// RegisterInput carries the registration form
type RegisterInput struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	IDType string `json:"id_type"`
}

// UserService handles patient registration
type UserService struct {
	users  repositories.UserRepository
	logger zerolog.Logger
	now    func() time.Time
}

// NewUserService creates a new user service
func NewUserService(users repositories.UserRepository, logger zerolog.Logger) *UserService {
	return &UserService{
		users:  users,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Register validates the form and stores a new user. Emails are unique.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*entities.User, error) {
	user, err := s.validate(input)
	if err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, user.Email)
	if err == nil && existing != nil {
		return nil, apperrors.NewConflictError("email already registered")
	}
	if err != nil && !apperrors.IsNotFound(err) {
		return nil, err
	}

	user.ID = uuid.New().String()
	user.CreatedAt = s.now()

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Str("id_type", string(user.IDType)).Msg("User registered")
	return user, nil
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, id string) (*entities.User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.NewValidationError("user id is required")
	}
	return s.users.GetByID(ctx, id)
}

func (s *UserService) validate(input RegisterInput) (*entities.User, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required")
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, apperrors.NewValidationError("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid email address %q", input.Email))
	}

	phone := strings.TrimSpace(input.Phone)
	if !validPhone(phone) {
		return nil, apperrors.NewValidationError("phone must contain between 7 and 15 digits")
	}

	idType := entities.IDType(strings.TrimSpace(input.IDType))
	if !idType.Valid() {
		return nil, apperrors.NewValidationError("id_type must be Healthcard or GovID")
	}

	return &entities.User{
		Name:   name,
		Email:  email,
		Phone:  phone,
		IDType: idType,
	}, nil
}

// validPhone accepts digits with common separators and an optional leading +
func validPhone(phone string) bool {
	digits := 0
	for i, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return false
		}
	}
	return digits >= 7 && digits <= 15
}
