package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chrono60/backend/internal/infrastructure/auth"
	"github.com/chrono60/backend/internal/interfaces/http/handler"
	"github.com/chrono60/backend/internal/interfaces/http/middleware"
)

// Handlers bundles every HTTP handler the router mounts
type Handlers struct {
	Auth       *handler.AuthHandler
	Deposit    *handler.DepositHandler
	Webhook    *handler.WebhookHandler
	Investment *handler.InvestmentHandler
	Withdrawal *handler.WithdrawalHandler
	Network    *handler.NetworkHandler
	Adjustment *handler.AdjustmentHandler
	Ledger     *handler.LedgerHandler
	System     *handler.SystemHandler
}

// Config carries router dependencies
type Config struct {
	JWTService  *auth.JWTService
	Logger      *zap.Logger
	MaxBodySize int64
	Handlers    Handlers
}

// Setup builds the gin engine with middleware and all routes mounted
func Setup(cfg Config) *gin.Engine {
	engine := gin.New()

	engine.Use(middleware.Recovery(cfg.Logger))
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger(cfg.Logger))
	engine.Use(middleware.CORS())
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}

	h := cfg.Handlers

	engine.GET("/healthz", h.System.Health)

	api := engine.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(cfg.JWTService))

	// Public endpoints, excluded from auth by the middleware skip list
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/webhooks/vizzion", h.Webhook.Receive)

	// Member endpoints
	api.GET("/me", h.Auth.Me)
	api.POST("/deposits", h.Deposit.Create)
	api.GET("/deposits", h.Deposit.List)
	api.GET("/plans", h.Investment.ListPlans)
	api.POST("/investments", h.Investment.Purchase)
	api.GET("/investments", h.Investment.ListCycles)
	api.GET("/earnings", h.Investment.ListEarnings)
	api.POST("/withdrawals", h.Withdrawal.Request)
	api.GET("/withdrawals", h.Withdrawal.List)
	api.GET("/withdrawals/window", h.Withdrawal.Window)
	api.GET("/network", h.Network.Get)
	api.GET("/ledger", h.Ledger.List)

	// Admin endpoints
	admin := api.Group("/admin")
	admin.Use(middleware.AdminOnly())
	admin.GET("/webhooks", h.Webhook.List)
	admin.POST("/webhooks/:id/reprocess", h.Webhook.Reprocess)
	admin.POST("/deposits/:id/confirm", h.Webhook.ConfirmDeposit)
	admin.POST("/users/:id/adjust", h.Adjustment.Adjust)
	admin.GET("/withdrawals", h.Withdrawal.ListByStatus)
	admin.POST("/withdrawals/:id/approve", h.Withdrawal.Approve)
	admin.POST("/withdrawals/:id/reject", h.Withdrawal.Reject)
	admin.POST("/withdrawals/:id/pay", h.Withdrawal.PayOut)
	admin.POST("/cycles/:id/cancel", h.Investment.CancelCycle)
	admin.GET("/scheduler", h.System.SchedulerStatus)
	admin.POST("/scheduler/run", h.System.TriggerSettlement)

	return engine
}
