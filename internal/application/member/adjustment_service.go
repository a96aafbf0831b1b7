package member

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/chrono60/backend/internal/domain/ledger"
	"github.com/chrono60/backend/internal/domain/shared"
)

// AdjustmentService applies manual corrections to a member's withdrawable
// balance, recording each one as an ADJUSTMENT ledger entry.
type AdjustmentService struct {
	scope  TransactionScope
	logger *zap.Logger
}

// NewAdjustmentService creates an AdjustmentService
func NewAdjustmentService(scope TransactionScope, logger *zap.Logger) *AdjustmentService {
	return &AdjustmentService{scope: scope, logger: logger}
}

// AdjustBalance credits or debits the user's withdrawable balance by delta
// and posts the matching ledger entry. A debit larger than the current
// balance is clamped so the balance never goes negative; the returned
// amount is the delta actually applied.
func (s *AdjustmentService) AdjustBalance(ctx context.Context, userID uuid.UUID, delta decimal.Decimal, description string) (decimal.Decimal, error) {
	delta = delta.Round(2)
	if delta.IsZero() {
		return decimal.Zero, shared.NewDomainError("INVALID_AMOUNT", "Adjustment amount cannot be zero")
	}

	var applied decimal.Decimal
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		user, err := repos.Users().FindByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		before := user.BalanceWithdrawn
		applied = user.AdjustWithdrawable(delta)
		if applied.IsZero() {
			// nothing to debit, the balance was already zero
			return nil
		}

		op := ledger.OperationCredit
		if applied.IsNegative() {
			op = ledger.OperationDebit
		}
		entry, err := ledger.NewEntry(
			user.ID,
			ledger.EntryTypeAdjustment,
			ledger.Reference{Kind: ledger.ReferenceKindAdjustment, ID: uuid.New()},
			applied.Abs(),
			op,
			ledger.BalanceKindWithdrawable,
			before,
		)
		if err != nil {
			return err
		}
		if description != "" {
			entry.WithDescription(description)
		}
		if err := repos.Entries().Create(ctx, entry); err != nil {
			return err
		}
		return repos.Users().Save(ctx, user)
	})
	if err != nil {
		return decimal.Zero, err
	}

	s.logger.Info("balance adjusted",
		zap.String("user_id", userID.String()),
		zap.String("requested", delta.String()),
		zap.String("applied", applied.String()))
	return applied, nil
}
