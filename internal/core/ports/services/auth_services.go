package services

import (
	"context"
	"time"

	"github.com/SscSPs/fintrack/internal/core/domain"
	"github.com/SscSPs/fintrack/internal/dto"
)

// AuthSvcFacade authenticates users with email and password.
type AuthSvcFacade interface {
	// Login checks the credentials and issues a signed access token.
	Login(ctx context.Context, email, password string) (string, time.Time, *domain.User, error)

	// RegisterUser hashes the password and stores a new user.
	RegisterUser(ctx context.Context, req dto.CreateUserRequest) (*domain.User, error)
}
