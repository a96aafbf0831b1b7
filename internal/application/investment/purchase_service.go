package investment

import (
	"context"
	"fmt"

	appcommission "github.com/chrono60/backend/internal/application/commission"
	"github.com/chrono60/backend/internal/domain/investment"
	"github.com/chrono60/backend/internal/domain/ledger"
	"github.com/chrono60/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PurchaseService creates investment cycles from plan purchases
type PurchaseService struct {
	scope       TransactionScope
	distributor *appcommission.Distributor
	clock       shared.Clock
	logger      *zap.Logger
}

// NewPurchaseService creates a PurchaseService
func NewPurchaseService(scope TransactionScope, distributor *appcommission.Distributor, clock shared.Clock, logger *zap.Logger) *PurchaseService {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurchaseService{scope: scope, distributor: distributor, clock: clock, logger: logger}
}

// PurchasePlan buys a plan for a user: checks the plan is active, the
// user's concurrent-cycle limit and balance, debits the investable
// balance, creates the cycle, posts the ledger entry, and distributes
// purchase commissions. Everything runs in one transaction.
func (s *PurchaseService) PurchasePlan(ctx context.Context, userID, planID uuid.UUID) (*investment.Cycle, error) {
	var cycle *investment.Cycle

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		plan, err := repos.Plans().FindByID(ctx, planID)
		if err != nil {
			return fmt.Errorf("find plan: %w", err)
		}
		if !plan.IsActive {
			return shared.NewDomainError("PLAN_INACTIVE", "Plan is not available for purchase")
		}

		if plan.MaxPurchases > 0 {
			active, err := repos.Cycles().CountActiveByUserAndPlan(ctx, userID, planID)
			if err != nil {
				return fmt.Errorf("count active cycles: %w", err)
			}
			if active >= int64(plan.MaxPurchases) {
				return shared.NewDomainError("PURCHASE_LIMIT_REACHED", "Concurrent purchase limit reached for this plan")
			}
		}

		total, err := repos.Cycles().CountByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("count cycles: %w", err)
		}
		isFirstPurchase := total == 0

		user, err := repos.Users().FindByIDForUpdate(ctx, userID)
		if err != nil {
			return fmt.Errorf("lock user: %w", err)
		}

		if user.Balance.LessThan(plan.Price) {
			missing := plan.Price.Sub(user.Balance)
			return shared.NewDomainError("INSUFFICIENT_BALANCE",
				fmt.Sprintf("Insufficient balance, missing %s", missing.StringFixed(2)))
		}

		now := s.clock.Now()
		cycle, err = investment.NewCycle(userID, plan, now, isFirstPurchase)
		if err != nil {
			return err
		}

		before := user.Balance
		if err := user.DebitBalance(plan.Price); err != nil {
			return err
		}
		user.RecordInvestment(plan.Price)

		entry, err := ledger.NewEntry(
			userID,
			ledger.EntryTypeInvestment,
			ledger.Reference{Kind: ledger.ReferenceKindCycle, ID: cycle.GetID()},
			plan.Price,
			ledger.OperationDebit,
			ledger.BalanceKindInvestable,
			before,
		)
		if err != nil {
			return err
		}
		entry.WithDescription(fmt.Sprintf("Purchase of plan %s", plan.Name))

		if err := repos.Cycles().Create(ctx, cycle); err != nil {
			return fmt.Errorf("create cycle: %w", err)
		}
		if err := repos.Entries().Create(ctx, entry); err != nil {
			return fmt.Errorf("create purchase ledger entry: %w", err)
		}
		if err := repos.Users().Save(ctx, user); err != nil {
			return fmt.Errorf("save purchaser: %w", err)
		}

		return s.distributor.DistributeOnPurchase(ctx, repos, cycle)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("plan purchased",
		zap.String("user_id", userID.String()),
		zap.String("plan_id", planID.String()),
		zap.String("cycle_id", cycle.GetID().String()),
		zap.Bool("first_purchase", cycle.IsFirstPurchase))

	return cycle, nil
}

// CancelCycle stops an active cycle via admin action. No refund is made.
func (s *PurchaseService) CancelCycle(ctx context.Context, cycleID uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		cycle, err := repos.Cycles().FindByID(ctx, cycleID)
		if err != nil {
			return fmt.Errorf("find cycle: %w", err)
		}
		if err := cycle.Cancel(); err != nil {
			return err
		}
		return repos.Cycles().SaveWithLock(ctx, cycle)
	})
}
