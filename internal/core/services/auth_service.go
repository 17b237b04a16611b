package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/fintrack/internal/apperrors"
	"github.com/SscSPs/fintrack/internal/core/domain"
	portsrepo "github.com/SscSPs/fintrack/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/fintrack/internal/core/ports/services"
	"github.com/SscSPs/fintrack/internal/dto"
	"github.com/SscSPs/fintrack/internal/platform/config"
	"github.com/SscSPs/fintrack/internal/utils"
)

// authService implements AuthSvcFacade with bcrypt passwords and HS256 access tokens.
type authService struct {
	BaseService
	cfg      *config.Config
	userRepo portsrepo.UserRepositoryFacade
}

// NewAuthService creates a new instance of authService.
func NewAuthService(cfg *config.Config, userRepo portsrepo.UserRepositoryFacade, opts ...ServiceOption) portssvc.AuthSvcFacade {
	return &authService{
		BaseService: newBaseService(opts...),
		cfg:         cfg,
		userRepo:    userRepo,
	}
}

var _ portssvc.AuthSvcFacade = (*authService)(nil)

// Login returns ErrUnauthorized for both unknown emails and wrong passwords.
func (s *authService) Login(ctx context.Context, email, password string) (string, time.Time, *domain.User, error) {
	user, err := s.userRepo.FindUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.LogDebug(ctx, "Login for unknown email")
			return "", time.Time{}, nil, apperrors.ErrUnauthorized
		}
		return "", time.Time{}, nil, err
	}
	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		s.LogWarn(ctx, "Login with wrong password", slog.Int64("user_id", user.ID))
		return "", time.Time{}, nil, apperrors.ErrUnauthorized
	}

	token, expiresAt, err := utils.GenerateJWT(user.ID, s.cfg.JWTSecret, s.cfg.JWTExpiryDuration, s.cfg.JWTIssuer, s.Now())
	if err != nil {
		s.LogError(ctx, err, "Failed to sign access token", slog.Int64("user_id", user.ID))
		return "", time.Time{}, nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	return token, expiresAt, user, nil
}

func (s *authService) RegisterUser(ctx context.Context, req dto.CreateUserRequest) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name and email are required", apperrors.ErrValidation)
	}
	if len(req.Password) < 8 {
		return nil, fmt.Errorf("%w: password must have at least 8 characters", apperrors.ErrValidation)
	}
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.Now()
	user := &domain.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		AuditFields:  domain.AuditFields{CreatedAt: now, UpdatedAt: now},
	}
	if err := s.userRepo.SaveUser(ctx, user); err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "User registered", slog.Int64("user_id", user.ID))
	return user, nil
}
