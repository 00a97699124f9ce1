package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"anoa.com/civicreport/internal/entity"
	"anoa.com/civicreport/internal/modules/user/dto"
	"anoa.com/civicreport/internal/modules/user/repository"
	"anoa.com/civicreport/pkg/apperror"
	"anoa.com/civicreport/pkg/password"
	"anoa.com/civicreport/pkg/sanitize"
	"anoa.com/civicreport/pkg/token"
)

var (
	ErrUserExists         = repository.ErrEmailTaken
	ErrInvalidCredentials = fmt.Errorf("invalid email or password: %w", apperror.ErrValidation)
)

type AuthService interface {
	Register(ctx context.Context, input dto.RegisterInput) (*entity.User, error)
	Login(ctx context.Context, input dto.LoginInput) (*dto.LoginResponse, error)
}

type authService struct {
	repo   repository.UserRepository
	hasher password.Hasher
	tokens token.Service
}

func NewAuthService(repo repository.UserRepository, hasher password.Hasher, tokens token.Service) AuthService {
	return &authService{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
	}
}

// Register never grants admin. Administrators come from the startup seed.
func (s *authService) Register(ctx context.Context, input dto.RegisterInput) (*entity.User, error) {
	email := normalizeEmail(input.Email)
	username := sanitize.Text(input.Username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserExists
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *authService) Login(ctx context.Context, input dto.LoginInput) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	signed, err := s.tokens.Issue(user.ID, user.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &dto.LoginResponse{
		ID:           user.ID,
		IsAdmin:      user.IsAdmin,
		ProfilePhoto: user.ProfilePhoto,
		Token:        signed,
		Username:     user.Username,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateUsername checks the stored form of a username. Stripping markup can
// shorten a value that passed binding.
func validateUsername(username string) error {
	switch n := utf8.RuneCountInString(username); {
	case n < 2:
		return fmt.Errorf("username must be at least 2 characters: %w", apperror.ErrValidation)
	case n > 100:
		return fmt.Errorf("username must be at most 100 characters: %w", apperror.ErrValidation)
	}
	return nil
}
