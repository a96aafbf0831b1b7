package member

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/chrono60/backend/internal/domain/member"
	"github.com/chrono60/backend/internal/domain/shared"
)

// AuthService verifies member credentials
type AuthService struct {
	users  member.UserRepository
	logger *zap.Logger
}

// NewAuthService creates an AuthService
func NewAuthService(users member.UserRepository, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{users: users, logger: logger}
}

// Authenticate checks email and password. A wrong email and a wrong password
// return the same error so the endpoint does not leak which emails exist.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*member.User, error) {
	invalidCredentials := shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, invalidCredentials
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Debug("password mismatch", zap.String("user_id", user.ID.String()))
		return nil, invalidCredentials
	}

	return user, nil
}
