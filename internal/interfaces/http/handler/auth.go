package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appmember "github.com/chrono60/backend/internal/application/member"
	"github.com/chrono60/backend/internal/domain/member"
	"github.com/chrono60/backend/internal/infrastructure/auth"
)

// AuthHandler handles registration, login and profile endpoints
type AuthHandler struct {
	BaseHandler
	registration *appmember.RegistrationService
	authService  *appmember.AuthService
	users        member.UserRepository
	jwt          *auth.JWTService
	logger       *zap.Logger
}

// NewAuthHandler creates an AuthHandler
func NewAuthHandler(
	registration *appmember.RegistrationService,
	authService *appmember.AuthService,
	users member.UserRepository,
	jwt *auth.JWTService,
	logger *zap.Logger,
) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		registration: registration,
		authService:  authService,
		users:        users,
		jwt:          jwt,
		logger:       logger,
	}
}

// RegisterRequest is the registration payload
type RegisterRequest struct {
	Name         string `json:"name" binding:"required,min=2,max=120"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=8"`
	ReferralCode string `json:"referral_code" binding:"omitempty,alphanum"`
}

// LoginRequest is the login payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserResponse is the member-facing account view
type UserResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	ReferralCode     string    `json:"referral_code"`
	Balance          string    `json:"balance"`
	BalanceWithdrawn string    `json:"balance_withdrawn"`
	TotalInvested    string    `json:"total_invested"`
	TotalEarned      string    `json:"total_earned"`
	TotalWithdrawn   string    `json:"total_withdrawn"`
	CreatedAt        time.Time `json:"created_at"`
}

func toUserResponse(u *member.User) UserResponse {
	return UserResponse{
		ID:               u.ID.String(),
		Name:             u.Name,
		Email:            u.Email,
		ReferralCode:     u.ReferralCode,
		Balance:          u.Balance.StringFixed(2),
		BalanceWithdrawn: u.BalanceWithdrawn.StringFixed(2),
		TotalInvested:    u.TotalInvested.StringFixed(2),
		TotalEarned:      u.TotalEarned.StringFixed(2),
		TotalWithdrawn:   u.TotalWithdrawn.StringFixed(2),
		CreatedAt:        u.CreatedAt,
	}
}

// LoginResponse carries the token and the account
type LoginResponse struct {
	Token *auth.Token  `json:"token"`
	User  UserResponse `json:"user"`
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	user, err := h.registration.Register(c.Request.Context(), appmember.RegisterInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	token, err := h.jwt.GenerateToken(auth.GenerateTokenInput{
		UserID:  user.ID,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
	})
	if err != nil {
		h.InternalError(c, "Failed to issue token")
		return
	}

	h.Created(c, LoginResponse{Token: token, User: toUserResponse(user)})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	user, err := h.authService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	token, err := h.jwt.GenerateToken(auth.GenerateTokenInput{
		UserID:  user.ID,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
	})
	if err != nil {
		h.InternalError(c, "Failed to issue token")
		return
	}

	h.Success(c, LoginResponse{Token: token, User: toUserResponse(user)})
}

// Me handles GET /api/v1/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	user, err := h.users.FindByID(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toUserResponse(user))
}
