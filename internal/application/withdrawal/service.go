package withdrawal

import (
	"context"
	"fmt"

	"github.com/chrono60/backend/internal/domain/ledger"
	"github.com/chrono60/backend/internal/domain/payment"
	"github.com/chrono60/backend/internal/domain/shared"
	"github.com/chrono60/backend/internal/domain/withdrawal"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service admits, approves, rejects, and pays out withdrawal requests
type Service struct {
	scope    TransactionScope
	window   withdrawal.WindowConfig
	provider payment.PixProvider
	clock    shared.Clock
	logger   *zap.Logger
}

// NewService creates a withdrawal Service with a validated window
func NewService(scope TransactionScope, window withdrawal.WindowConfig, provider payment.PixProvider, clock shared.Clock, logger *zap.Logger) (*Service, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = shared.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{scope: scope, window: window, provider: provider, clock: clock, logger: logger}, nil
}

// Window exposes the admission policy for UI surfaces
func (s *Service) Window() withdrawal.WindowConfig {
	return s.window
}

// HasWithdrawnToday reports whether the user already consumed the daily
// allowance
func (s *Service) HasWithdrawnToday(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		count, err = repos.Withdrawals().CountForDay(ctx, userID, s.clock.Now())
		return err
	})
	if err != nil {
		return false, err
	}
	return count >= int64(s.window.DailyLimit), nil
}

// RequestWithdrawal admits a withdrawal: window open, amount above the
// minimum, at least one cycle ever purchased, daily allowance left, and
// enough spendable balance. The balance check and debit run against a
// locked user row so concurrent requests cannot both pass on a stale read.
func (s *Service) RequestWithdrawal(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, pixKey string, keyType withdrawal.PixKeyType) (*withdrawal.Withdrawal, error) {
	now := s.clock.Now()

	if !s.window.IsOpen(now) {
		return nil, shared.NewDomainError("WITHDRAW_WINDOW_CLOSED", "Withdrawals are not accepted at this time")
	}
	if amount.LessThan(s.window.MinAmount) {
		return nil, shared.NewDomainError("AMOUNT_TOO_LOW",
			fmt.Sprintf("Minimum withdrawal is %s", s.window.MinAmount.StringFixed(2)))
	}

	var request *withdrawal.Withdrawal
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		cycles, err := repos.Cycles().CountByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("count cycles: %w", err)
		}
		if cycles == 0 {
			return shared.NewDomainError("NO_INVESTMENT", "At least one investment is required before withdrawing")
		}

		today, err := repos.Withdrawals().CountForDay(ctx, userID, now)
		if err != nil {
			return fmt.Errorf("count withdrawals: %w", err)
		}
		if today >= int64(s.window.DailyLimit) {
			return shared.NewDomainError("DAILY_LIMIT_REACHED", "Daily withdrawal limit reached")
		}

		user, err := repos.Users().FindByIDForUpdate(ctx, userID)
		if err != nil {
			return fmt.Errorf("lock user: %w", err)
		}

		request, err = withdrawal.NewWithdrawal(userID, amount, s.window.FeePercent, pixKey, keyType, now)
		if err != nil {
			return err
		}

		before := user.BalanceWithdrawn
		if err := user.DebitWithdrawable(amount); err != nil {
			return err
		}
		user.RecordWithdrawal(amount)

		entry, err := ledger.NewEntry(
			userID,
			ledger.EntryTypeWithdrawal,
			ledger.Reference{Kind: ledger.ReferenceKindWithdrawal, ID: request.GetID()},
			amount,
			ledger.OperationDebit,
			ledger.BalanceKindWithdrawable,
			before,
		)
		if err != nil {
			return err
		}
		entry.WithDescription("Withdrawal request")

		if err := repos.Withdrawals().Create(ctx, request); err != nil {
			return fmt.Errorf("create withdrawal: %w", err)
		}
		if err := repos.Entries().Create(ctx, entry); err != nil {
			return fmt.Errorf("create withdrawal ledger entry: %w", err)
		}
		return repos.Users().Save(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("withdrawal requested",
		zap.String("user_id", userID.String()),
		zap.String("withdrawal_id", request.GetID().String()),
		zap.String("amount", request.Amount.String()),
		zap.String("fee", request.FeeAmount.String()))

	return request, nil
}

// Approve admits a pending withdrawal into the payout pipeline. Funds are
// already reserved, so no balance change happens here.
func (s *Service) Approve(ctx context.Context, withdrawalID uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		w, err := repos.Withdrawals().FindByID(ctx, withdrawalID)
		if err != nil {
			return fmt.Errorf("find withdrawal: %w", err)
		}
		if err := w.Approve(s.clock.Now()); err != nil {
			return err
		}
		return repos.Withdrawals().SaveWithLock(ctx, w)
	})
}

// Reject refuses a pending or approved withdrawal and refunds the
// reserved amount with a matching ledger entry.
func (s *Service) Reject(ctx context.Context, withdrawalID uuid.UUID, reason string) error {
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		w, err := repos.Withdrawals().FindByID(ctx, withdrawalID)
		if err != nil {
			return fmt.Errorf("find withdrawal: %w", err)
		}
		if err := w.Reject(reason, s.clock.Now()); err != nil {
			return err
		}

		user, err := repos.Users().FindByIDForUpdate(ctx, w.UserID)
		if err != nil {
			return fmt.Errorf("lock user: %w", err)
		}

		before := user.BalanceWithdrawn
		if err := user.CreditWithdrawable(w.Amount, false); err != nil {
			return err
		}
		user.UnrecordWithdrawal(w.Amount)

		entry, err := ledger.NewEntry(
			w.UserID,
			ledger.EntryTypeWithdrawalRefund,
			ledger.Reference{Kind: ledger.ReferenceKindWithdrawal, ID: w.GetID()},
			w.Amount,
			ledger.OperationCredit,
			ledger.BalanceKindWithdrawable,
			before,
		)
		if err != nil {
			return err
		}
		entry.WithDescription(fmt.Sprintf("Withdrawal rejected: %s", reason))

		if err := repos.Withdrawals().SaveWithLock(ctx, w); err != nil {
			return fmt.Errorf("save withdrawal: %w", err)
		}
		if err := repos.Entries().Create(ctx, entry); err != nil {
			return fmt.Errorf("create refund ledger entry: %w", err)
		}
		return repos.Users().Save(ctx, user)
	})
	if err != nil {
		return err
	}

	s.logger.Info("withdrawal rejected",
		zap.String("withdrawal_id", withdrawalID.String()),
		zap.String("reason", reason))
	return nil
}

// PayOut transfers the net amount of an approved withdrawal via the PIX
// provider and records the transfer id. The withdrawal is marked
// PROCESSING before the provider call, which runs outside any
// transaction; a withdrawal stuck in PROCESSING can be paid out again.
func (s *Service) PayOut(ctx context.Context, withdrawalID uuid.UUID) error {
	var w *withdrawal.Withdrawal
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		w, err = repos.Withdrawals().FindByID(ctx, withdrawalID)
		if err != nil {
			return fmt.Errorf("find withdrawal: %w", err)
		}
		if w.Status == withdrawal.StatusProcessing {
			// a previous attempt died mid-transfer, retry the provider call
			return nil
		}
		if err := w.BeginProcessing(); err != nil {
			return err
		}
		return repos.Withdrawals().SaveWithLock(ctx, w)
	})
	if err != nil {
		return err
	}

	transfer, err := s.provider.CreateTransfer(ctx, payment.TransferRequest{
		Amount:      w.NetAmount,
		PixKey:      w.PixKey,
		PixKeyType:  string(w.PixKeyType),
		Description: "Withdrawal payout",
	})
	if err != nil {
		return fmt.Errorf("create pix transfer: %w", err)
	}

	return s.MarkPaid(ctx, withdrawalID, transfer.TransferID)
}

// MarkPaid records a completed provider transfer
func (s *Service) MarkPaid(ctx context.Context, withdrawalID uuid.UUID, transferID string) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		w, err := repos.Withdrawals().FindByID(ctx, withdrawalID)
		if err != nil {
			return fmt.Errorf("find withdrawal: %w", err)
		}
		if err := w.MarkPaid(transferID, s.clock.Now()); err != nil {
			return err
		}
		return repos.Withdrawals().SaveWithLock(ctx, w)
	})
}
