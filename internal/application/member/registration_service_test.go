package member

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/chrono60/backend/internal/domain/shared"
	"github.com/chrono60/backend/internal/testutil"
)

func requireDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var domErr *shared.DomainError
	require.True(t, errors.As(err, &domErr), "error %v is not a domain error", err)
	assert.Equal(t, code, domErr.Code)
}

func TestRegister(t *testing.T) {
	users := testutil.NewMemoryUserRepository()
	svc := NewRegistrationService(users, zap.NewNop())

	user, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Diego Ramos",
		Email:    "Diego@Example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)

	assert.Equal(t, "diego@example.com", user.Email)
	assert.Len(t, user.ReferralCode, 8)
	assert.Nil(t, user.ReferredBy)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct horse")))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("wrong")))
}

func TestRegister_WithReferral(t *testing.T) {
	users := testutil.NewMemoryUserRepository()
	svc := NewRegistrationService(users, zap.NewNop())

	sponsor, err := svc.Register(context.Background(), RegisterInput{
		Name: "Carla", Email: "carla@example.com", Password: "longenough",
	})
	require.NoError(t, err)

	joiner, err := svc.Register(context.Background(), RegisterInput{
		Name: "Diego", Email: "diego@example.com", Password: "longenough",
		ReferralCode: sponsor.ReferralCode,
	})
	require.NoError(t, err)
	require.NotNil(t, joiner.ReferredBy)
	assert.Equal(t, sponsor.ID, *joiner.ReferredBy)

	downline, err := users.FindDownline(context.Background(), sponsor.ID)
	require.NoError(t, err)
	require.Len(t, downline, 1)
	assert.Equal(t, joiner.ID, downline[0].ID)
}

func TestRegister_UnknownReferralCode(t *testing.T) {
	users := testutil.NewMemoryUserRepository()
	svc := NewRegistrationService(users, zap.NewNop())

	_, err := svc.Register(context.Background(), RegisterInput{
		Name: "Diego", Email: "diego@example.com", Password: "longenough",
		ReferralCode: "NOPE1234",
	})
	requireDomainCode(t, err, "INVALID_REFERRAL_CODE")
}

func TestRegister_ShortPassword(t *testing.T) {
	users := testutil.NewMemoryUserRepository()
	svc := NewRegistrationService(users, zap.NewNop())

	_, err := svc.Register(context.Background(), RegisterInput{
		Name: "Diego", Email: "diego@example.com", Password: "short",
	})
	requireDomainCode(t, err, "INVALID_PASSWORD")
}

func TestRegister_DuplicateEmail(t *testing.T) {
	users := testutil.NewMemoryUserRepository()
	svc := NewRegistrationService(users, zap.NewNop())

	_, err := svc.Register(context.Background(), RegisterInput{
		Name: "Diego", Email: "diego@example.com", Password: "longenough",
	})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterInput{
		Name: "Other", Email: "DIEGO@example.com", Password: "longenough",
	})
	requireDomainCode(t, err, "EMAIL_TAKEN")
}

func TestAuthenticate(t *testing.T) {
	users := testutil.NewMemoryUserRepository()
	reg := NewRegistrationService(users, zap.NewNop())
	auth := NewAuthService(users, zap.NewNop())

	created, err := reg.Register(context.Background(), RegisterInput{
		Name: "Diego", Email: "diego@example.com", Password: "longenough",
	})
	require.NoError(t, err)

	user, err := auth.Authenticate(context.Background(), "diego@example.com", "longenough")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, err = auth.Authenticate(context.Background(), "diego@example.com", "wrongpass")
	requireDomainCode(t, err, "INVALID_CREDENTIALS")

	// unknown email yields the same error as a bad password
	_, err = auth.Authenticate(context.Background(), "nobody@example.com", "longenough")
	requireDomainCode(t, err, "INVALID_CREDENTIALS")
}
