package investment

import (
	"context"
	"errors"
	"fmt"
	"time"

	appcommission "github.com/chrono60/backend/internal/application/commission"
	"github.com/chrono60/backend/internal/domain/investment"
	"github.com/chrono60/backend/internal/domain/ledger"
	"github.com/chrono60/backend/internal/domain/member"
	"github.com/chrono60/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SettlementReport summarizes one settlement batch
type SettlementReport struct {
	Processed int
	Skipped   int
	Failed    int
}

// SettlementService advances active cycles: daily yields for DAILY plans,
// lump-sum payout for END_CYCLE plans, FINISHED transitions, and residual
// commission distribution.
type SettlementService struct {
	scope       TransactionScope
	cycles      investment.CycleRepository
	plans       investment.PlanRepository
	distributor *appcommission.Distributor
	logger      *zap.Logger
}

// NewSettlementService creates a SettlementService. The cycle and plan
// repositories are used for the read-only candidate scan; all writes go
// through the transaction scope.
func NewSettlementService(
	scope TransactionScope,
	cycles investment.CycleRepository,
	plans investment.PlanRepository,
	distributor *appcommission.Distributor,
	logger *zap.Logger,
) *SettlementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettlementService{
		scope:       scope,
		cycles:      cycles,
		plans:       plans,
		distributor: distributor,
		logger:      logger,
	}
}

// RunDailySettlement settles every active cycle that is due at asOf. Each
// cycle runs in its own transaction; a failure is logged and does not stop
// the batch. Cycles of the same user are processed in sequence so two
// settlements never contend on one user row.
func (s *SettlementService) RunDailySettlement(ctx context.Context, asOf time.Time) (SettlementReport, error) {
	var report SettlementReport

	active, err := s.cycles.FindActive(ctx)
	if err != nil {
		return report, fmt.Errorf("find active cycles: %w", err)
	}

	planCache := make(map[uuid.UUID]*investment.Plan)
	byUser := make(map[uuid.UUID][]*investment.Cycle)
	order := make([]uuid.UUID, 0)
	for _, c := range active {
		if _, ok := byUser[c.UserID]; !ok {
			order = append(order, c.UserID)
		}
		byUser[c.UserID] = append(byUser[c.UserID], c)
	}

	for _, userID := range order {
		for _, candidate := range byUser[userID] {
			plan, ok := planCache[candidate.PlanID]
			if !ok {
				plan, err = s.plans.FindByID(ctx, candidate.PlanID)
				if err != nil {
					s.logger.Error("settlement: plan lookup failed",
						zap.String("cycle_id", candidate.GetID().String()),
						zap.Error(err))
					report.Failed++
					continue
				}
				planCache[candidate.PlanID] = plan
			}

			processed, err := s.settleCycle(ctx, candidate.GetID(), plan, asOf)
			switch {
			case err != nil:
				s.logger.Error("settlement: cycle failed",
					zap.String("cycle_id", candidate.GetID().String()),
					zap.Error(err))
				report.Failed++
			case processed:
				report.Processed++
			default:
				report.Skipped++
			}
		}
	}

	s.logger.Info("daily settlement finished",
		zap.Time("as_of", asOf),
		zap.Int("processed", report.Processed),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed))

	return report, nil
}

// settleCycle pays one cycle inside its own transaction. Returns false
// when the cycle was not due or the day was already paid.
func (s *SettlementService) settleCycle(ctx context.Context, cycleID uuid.UUID, plan *investment.Plan, asOf time.Time) (bool, error) {
	processed := false

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		cycle, err := repos.Cycles().FindByID(ctx, cycleID)
		if err != nil {
			return fmt.Errorf("find cycle: %w", err)
		}

		switch {
		case cycle.IsDueDaily(plan, asOf):
			processed, err = s.settleDaily(ctx, repos, cycle, plan, asOf)
			return err
		case cycle.IsDueEnd(plan, asOf):
			processed, err = s.settleEnd(ctx, repos, cycle, plan, asOf)
			return err
		default:
			return nil
		}
	})

	return processed, err
}

func (s *SettlementService) settleDaily(ctx context.Context, repos TransactionalRepositories, cycle *investment.Cycle, plan *investment.Plan, asOf time.Time) (bool, error) {
	earning, err := investment.NewEarning(cycle.GetID(), cycle.UserID, asOf, plan.DailyIncome, investment.EarningTypeDaily)
	if err != nil {
		return false, err
	}

	// the unique (cycle, date, type) key is the double-payment guard
	if err := repos.Earnings().Create(ctx, earning); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return false, nil
		}
		return false, fmt.Errorf("create earning: %w", err)
	}

	if err := s.creditEarning(ctx, repos, cycle.UserID, earning, ledger.EntryTypeEarning, true,
		fmt.Sprintf("Daily yield of plan %s", plan.Name)); err != nil {
		return false, err
	}

	if err := cycle.RecordDailyPayment(plan.DailyIncome, plan.DurationDays, asOf); err != nil {
		return false, err
	}
	if err := repos.Cycles().SaveWithLock(ctx, cycle); err != nil {
		return false, fmt.Errorf("save cycle: %w", err)
	}

	if err := s.distributor.DistributeResidual(ctx, repos, cycle, earning); err != nil {
		return false, fmt.Errorf("distribute residual: %w", err)
	}

	return true, nil
}

func (s *SettlementService) settleEnd(ctx context.Context, repos TransactionalRepositories, cycle *investment.Cycle, plan *investment.Plan, asOf time.Time) (bool, error) {
	profit := plan.Profit()

	if profit.IsPositive() {
		lump, err := investment.NewEarning(cycle.GetID(), cycle.UserID, asOf, profit, investment.EarningTypeEndLumpSum)
		if err != nil {
			return false, err
		}
		if err := repos.Earnings().Create(ctx, lump); err != nil {
			if errors.Is(err, shared.ErrAlreadyExists) {
				return false, nil
			}
			return false, fmt.Errorf("create lump-sum earning: %w", err)
		}
		if err := s.creditEarning(ctx, repos, cycle.UserID, lump, ledger.EntryTypeEarning, true,
			fmt.Sprintf("Final yield of plan %s", plan.Name)); err != nil {
			return false, err
		}
	}

	capital, err := investment.NewEarning(cycle.GetID(), cycle.UserID, asOf, cycle.Amount, investment.EarningTypeCapitalReturn)
	if err != nil {
		return false, err
	}
	if err := repos.Earnings().Create(ctx, capital); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return false, nil
		}
		return false, fmt.Errorf("create capital-return earning: %w", err)
	}
	if err := s.creditEarning(ctx, repos, cycle.UserID, capital, ledger.EntryTypeEarning, false,
		fmt.Sprintf("Principal return of plan %s", plan.Name)); err != nil {
		return false, err
	}

	if err := cycle.Finish(plan.TotalReturn, asOf); err != nil {
		return false, err
	}
	if err := repos.Cycles().SaveWithLock(ctx, cycle); err != nil {
		return false, fmt.Errorf("save cycle: %w", err)
	}

	return true, nil
}

// creditEarning locks the user, credits the spendable balance, and posts
// the matching ledger entry
func (s *SettlementService) creditEarning(ctx context.Context, repos TransactionalRepositories, userID uuid.UUID, earning *investment.Earning, entryType ledger.EntryType, earned bool, description string) error {
	user, err := lockUser(ctx, repos.Users(), userID)
	if err != nil {
		return err
	}

	before := user.BalanceWithdrawn
	if err := user.CreditWithdrawable(earning.Value, earned); err != nil {
		return err
	}

	entry, err := ledger.NewEntry(
		userID,
		entryType,
		ledger.Reference{Kind: ledger.ReferenceKindEarning, ID: earning.GetID()},
		earning.Value,
		ledger.OperationCredit,
		ledger.BalanceKindWithdrawable,
		before,
	)
	if err != nil {
		return err
	}
	entry.WithDescription(description)

	if err := repos.Entries().Create(ctx, entry); err != nil {
		return fmt.Errorf("create earning ledger entry: %w", err)
	}
	if err := repos.Users().Save(ctx, user); err != nil {
		return fmt.Errorf("save earning receiver: %w", err)
	}
	return nil
}

func lockUser(ctx context.Context, users member.UserRepository, userID uuid.UUID) (*member.User, error) {
	user, err := users.FindByIDForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("lock user: %w", err)
	}
	return user, nil
}
