package member

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/chrono60/backend/internal/domain/member"
	"github.com/chrono60/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// RegistrationService creates member accounts and resolves referral codes
type RegistrationService struct {
	users  member.UserRepository
	logger *zap.Logger
}

// NewRegistrationService creates a RegistrationService
func NewRegistrationService(users member.UserRepository, logger *zap.Logger) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{users: users, logger: logger}
}

// RegisterInput is the registration request
type RegisterInput struct {
	Name         string
	Email        string
	Password     string
	ReferralCode string // code of the referrer, optional
}

// Register creates a new member. When a referral code is given the new
// member joins that user's downline; an unknown code is rejected so typos
// do not silently orphan the referral.
func (s *RegistrationService) Register(ctx context.Context, input RegisterInput) (*member.User, error) {
	if len(input.Password) < 8 {
		return nil, shared.NewDomainError("INVALID_PASSWORD", "Password must have at least 8 characters")
	}

	var referredBy *member.User
	if code := strings.TrimSpace(input.ReferralCode); code != "" {
		referrer, err := s.users.FindByReferralCode(ctx, code)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("INVALID_REFERRAL_CODE", "Referral code does not exist")
			}
			return nil, fmt.Errorf("find referrer: %w", err)
		}
		referredBy = referrer
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	code, err := generateReferralCode()
	if err != nil {
		return nil, fmt.Errorf("generate referral code: %w", err)
	}

	var referrerID *uuid.UUID
	if referredBy != nil {
		id := referredBy.ID
		referrerID = &id
	}

	user, err := member.NewUser(input.Name, input.Email, string(hash), code, referrerID)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError("EMAIL_TAKEN", "Email is already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("member registered",
		zap.String("user_id", user.ID.String()),
		zap.Bool("referred", referredBy != nil))

	return user, nil
}

func generateReferralCode() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}
