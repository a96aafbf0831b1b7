package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/chrono60/backend/internal/domain/member"
	"github.com/chrono60/backend/internal/domain/payment"
	"github.com/chrono60/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DepositServiceConfig holds the tunables of deposit creation
type DepositServiceConfig struct {
	MinAmount   decimal.Decimal
	ExpiresIn   time.Duration
	CallbackURL string
}

// DefaultDepositServiceConfig returns the stock deposit settings
func DefaultDepositServiceConfig() DepositServiceConfig {
	return DepositServiceConfig{
		MinAmount: decimal.NewFromInt(10),
		ExpiresIn: 30 * time.Minute,
	}
}

// DepositService creates PIX charges and sweeps expired deposits
type DepositService struct {
	scope    TransactionScope
	users    member.UserRepository
	deposits payment.DepositRepository
	provider payment.PixProvider
	config   DepositServiceConfig
	clock    shared.Clock
	logger   *zap.Logger
}

// NewDepositService creates a DepositService
func NewDepositService(
	scope TransactionScope,
	users member.UserRepository,
	deposits payment.DepositRepository,
	provider payment.PixProvider,
	config DepositServiceConfig,
	clock shared.Clock,
	logger *zap.Logger,
) *DepositService {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DepositService{
		scope:    scope,
		users:    users,
		deposits: deposits,
		provider: provider,
		config:   config,
		clock:    clock,
		logger:   logger,
	}
}

// CreateDeposit asks the provider for a PIX charge and records a PENDING
// deposit. The provider call happens before and outside any transaction;
// if persisting fails afterwards the charge simply expires unclaimed.
func (s *DepositService) CreateDeposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*payment.Deposit, error) {
	if amount.LessThan(s.config.MinAmount) {
		return nil, shared.NewDomainError("AMOUNT_TOO_LOW",
			fmt.Sprintf("Minimum deposit is %s", s.config.MinAmount.StringFixed(2)))
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	charge, err := s.provider.CreateCharge(ctx, payment.ChargeRequest{
		Amount:       amount,
		PayerName:    user.Name,
		PayerEmail:   user.Email,
		CallbackURL:  s.config.CallbackURL,
		ExpiresAfter: s.config.ExpiresIn,
	})
	if err != nil {
		return nil, fmt.Errorf("create pix charge: %w", err)
	}

	expiresAt := charge.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = s.clock.Now().Add(s.config.ExpiresIn)
	}

	deposit, err := payment.NewDeposit(userID, amount, charge.TransactionID, expiresAt)
	if err != nil {
		return nil, err
	}
	deposit.QRCode = charge.QRCode
	deposit.QRCodeText = charge.QRCodeText

	if err := s.deposits.Create(ctx, deposit); err != nil {
		return nil, fmt.Errorf("create deposit: %w", err)
	}

	s.logger.Info("deposit created",
		zap.String("user_id", userID.String()),
		zap.String("deposit_id", deposit.GetID().String()),
		zap.String("transaction_id", deposit.TransactionID),
		zap.String("amount", amount.String()))

	return deposit, nil
}

// ExpireDeposits transitions PENDING deposits past their deadline to
// EXPIRED. Failures on single deposits are logged and skipped.
func (s *DepositService) ExpireDeposits(ctx context.Context, asOf time.Time) (int, error) {
	stale, err := s.deposits.FindExpired(ctx, asOf, 500)
	if err != nil {
		return 0, fmt.Errorf("find expired deposits: %w", err)
	}

	expired := 0
	for _, d := range stale {
		err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			deposit, err := repos.Deposits().FindByTransactionIDForUpdate(ctx, d.TransactionID)
			if err != nil {
				return err
			}
			if err := deposit.MarkExpired(); err != nil {
				// settled while we were scanning
				return nil
			}
			return repos.Deposits().Save(ctx, deposit)
		})
		if err != nil {
			s.logger.Error("deposit expiry failed",
				zap.String("deposit_id", d.GetID().String()),
				zap.Error(err))
			continue
		}
		expired++
	}

	if expired > 0 {
		s.logger.Info("expired stale deposits", zap.Int("count", expired))
	}
	return expired, nil
}
