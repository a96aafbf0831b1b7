package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appcommission "github.com/chrono60/backend/internal/application/commission"
	appinvestment "github.com/chrono60/backend/internal/application/investment"
	appmember "github.com/chrono60/backend/internal/application/member"
	apppayment "github.com/chrono60/backend/internal/application/payment"
	appwithdrawal "github.com/chrono60/backend/internal/application/withdrawal"
	"github.com/chrono60/backend/internal/domain/payment"
	"github.com/chrono60/backend/internal/domain/shared"
	"github.com/chrono60/backend/internal/infrastructure/auth"
	"github.com/chrono60/backend/internal/infrastructure/cache"
	"github.com/chrono60/backend/internal/infrastructure/config"
	"github.com/chrono60/backend/internal/infrastructure/logger"
	"github.com/chrono60/backend/internal/infrastructure/persistence"
	"github.com/chrono60/backend/internal/infrastructure/pix"
	"github.com/chrono60/backend/internal/infrastructure/scheduler"
	"github.com/chrono60/backend/internal/interfaces/http/handler"
	"github.com/chrono60/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting chrono60 backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	ledgerRepo := persistence.NewGormLedgerRepository(db.DB)
	planRepo := persistence.NewGormPlanRepository(db.DB)
	cycleRepo := persistence.NewGormCycleRepository(db.DB)
	earningRepo := persistence.NewGormEarningRepository(db.DB)
	commissionRepo := persistence.NewGormCommissionRepository(db.DB)
	depositRepo := persistence.NewGormDepositRepository(db.DB)
	webhookRepo := persistence.NewGormWebhookEventRepository(db.DB)
	withdrawalRepo := persistence.NewGormWithdrawalRepository(db.DB)

	// Transaction scopes
	investmentScope := persistence.NewGormInvestmentScope(db.DB)
	paymentScope := persistence.NewGormPaymentScope(db.DB)
	withdrawalScope := persistence.NewGormWithdrawalScope(db.DB)
	memberScope := persistence.NewGormMemberScope(db.DB)

	// Webhook deduplication store. The unique index on the event hash is
	// the ground truth; the store is a fast path in front of it.
	var dedup shared.IdempotencyStore
	if cfg.Redis.Enabled {
		redisStore, err := cache.NewRedisIdempotencyStore(cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer func() {
			if err := redisStore.Close(); err != nil {
				log.Error("Error closing redis", zap.Error(err))
			}
		}()
		dedup = redisStore
		log.Info("Redis idempotency store connected", zap.String("addr", cfg.Redis.Addr()))
	} else {
		memStore := cache.NewInMemoryIdempotencyStore()
		defer func() { _ = memStore.Close() }()
		dedup = memStore
	}

	// PIX provider
	var provider payment.PixProvider
	if cfg.Pix.UseStub {
		provider = pix.NewStubProvider(log)
		log.Warn("Using stub PIX provider, no real transfers will be made")
	} else {
		adapter, err := pix.NewVizzionAdapter(cfg.Pix, log)
		if err != nil {
			log.Fatal("Failed to initialize PIX provider", zap.Error(err))
		}
		provider = adapter
	}

	clock := shared.SystemClock{}

	// Application services
	distributor, err := appcommission.NewDistributor(cfg.Commission.Scheme(), log)
	if err != nil {
		log.Fatal("Invalid commission scheme", zap.Error(err))
	}

	registrationService := appmember.NewRegistrationService(userRepo, log)
	authService := appmember.NewAuthService(userRepo, log)
	networkService := appmember.NewNetworkService(userRepo, commissionRepo, log)
	adjustmentService := appmember.NewAdjustmentService(memberScope, log)

	purchaseService := appinvestment.NewPurchaseService(investmentScope, distributor, clock, log)
	settlementService := appinvestment.NewSettlementService(investmentScope, cycleRepo, planRepo, distributor, log)

	depositService := apppayment.NewDepositService(
		paymentScope, userRepo, depositRepo, provider,
		apppayment.DepositServiceConfig{
			MinAmount:   decimal.NewFromFloat(cfg.Deposit.MinAmount),
			ExpiresIn:   cfg.Deposit.ExpiresIn,
			CallbackURL: cfg.Pix.CallbackURL,
		},
		clock, log,
	)
	webhookService := apppayment.NewWebhookService(paymentScope, webhookRepo, dedup, "vizzion", clock, log)

	withdrawalService, err := appwithdrawal.NewService(withdrawalScope, cfg.Withdrawal.Window(), provider, clock, log)
	if err != nil {
		log.Fatal("Invalid withdrawal window", zap.Error(err))
	}

	// Settlement scheduler
	var settlementScheduler *scheduler.SettlementScheduler
	if cfg.Settlement.Enabled {
		executor := scheduler.NewSettlementExecutor(settlementService, depositService, log)
		settlementScheduler = scheduler.NewSettlementScheduler(cfg.Settlement, executor, clock, log)
		if err := settlementScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start settlement scheduler", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := settlementScheduler.Stop(stopCtx); err != nil {
				log.Error("Error stopping settlement scheduler", zap.Error(err))
			}
		}()
		log.Info("Settlement scheduler started",
			zap.Int("hour_utc", cfg.Settlement.Hour),
			zap.Int("workers", cfg.Settlement.Workers),
		)
	}

	jwtService := auth.NewJWTService(cfg.JWT)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := router.Setup(router.Config{
		JWTService:  jwtService,
		Logger:      log,
		MaxBodySize: cfg.HTTP.MaxBodySize,
		Handlers: router.Handlers{
			Auth:       handler.NewAuthHandler(registrationService, authService, userRepo, jwtService, log),
			Deposit:    handler.NewDepositHandler(depositService, depositRepo),
			Webhook:    handler.NewWebhookHandler(webhookService, webhookRepo, log),
			Investment: handler.NewInvestmentHandler(purchaseService, planRepo, cycleRepo, earningRepo),
			Withdrawal: handler.NewWithdrawalHandler(withdrawalService, withdrawalRepo),
			Network:    handler.NewNetworkHandler(networkService),
			Adjustment: handler.NewAdjustmentHandler(adjustmentService),
			Ledger:     handler.NewLedgerHandler(ledgerRepo),
			System:     handler.NewSystemHandler(db.DB, settlementScheduler),
		},
	})

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}

	server := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Forced server shutdown", zap.Error(err))
	}

	log.Info("Server stopped")
}
