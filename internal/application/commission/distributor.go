package commission

import (
	"context"
	"errors"
	"fmt"

	"github.com/chrono60/backend/internal/domain/commission"
	"github.com/chrono60/backend/internal/domain/investment"
	"github.com/chrono60/backend/internal/domain/ledger"
	"github.com/chrono60/backend/internal/domain/member"
	"github.com/chrono60/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Repos is the repository set a distribution runs against. Callers pass
// their in-transaction repositories so the whole distribution commits or
// rolls back with the triggering event.
type Repos interface {
	Users() member.UserRepository
	Commissions() commission.Repository
	Entries() ledger.EntryRepository
}

// Distributor posts multi-level referral commissions. One instance is
// shared by the purchase and settlement services.
type Distributor struct {
	scheme commission.Scheme
	logger *zap.Logger
}

// NewDistributor creates a Distributor with a validated scheme
func NewDistributor(scheme commission.Scheme, logger *zap.Logger) (*Distributor, error) {
	if err := scheme.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Distributor{scheme: scheme, logger: logger}, nil
}

// DistributeOnPurchase pays purchase commissions up the referral chain of
// the cycle's owner. Missing upline levels are skipped silently. A level
// already paid for this cycle (unique key collision) is skipped, which
// makes retries safe.
func (d *Distributor) DistributeOnPurchase(ctx context.Context, repos Repos, cycle *investment.Cycle) error {
	tiers, commissionType := d.scheme.PurchaseTiers(cycle.IsFirstPurchase)
	return d.distribute(ctx, repos, distribution{
		fromUserID:     cycle.UserID,
		cycleID:        cycle.GetID(),
		base:           cycle.Amount,
		tiers:          tiers,
		commissionType: commissionType,
	})
}

// DistributeResidual pays residual commissions on a daily earning
func (d *Distributor) DistributeResidual(ctx context.Context, repos Repos, cycle *investment.Cycle, earning *investment.Earning) error {
	earningID := earning.GetID()
	return d.distribute(ctx, repos, distribution{
		fromUserID:     cycle.UserID,
		cycleID:        cycle.GetID(),
		earningID:      &earningID,
		base:           earning.Value,
		tiers:          d.scheme.Residual,
		commissionType: commission.TypeResidual,
	})
}

type distribution struct {
	fromUserID     uuid.UUID
	cycleID        uuid.UUID
	earningID      *uuid.UUID
	base           decimal.Decimal
	tiers          commission.Tiers
	commissionType commission.Type
}

func (d *Distributor) distribute(ctx context.Context, repos Repos, dist distribution) error {
	resolver := member.NewUplineResolver(repos.Users())
	chain, err := resolver.Chain(ctx, dist.fromUserID, commission.MaxLevels)
	if err != nil {
		return fmt.Errorf("resolve upline chain: %w", err)
	}

	for i, upline := range chain {
		level := i + 1
		amount, pct := dist.tiers.AmountFor(level, dist.base)
		if !amount.IsPositive() {
			continue
		}

		row, err := commission.NewCommission(upline.ID, dist.fromUserID, dist.cycleID, level, amount, pct, dist.commissionType)
		if err != nil {
			return err
		}
		if dist.earningID != nil {
			row.ForEarning(*dist.earningID)
		}

		if err := repos.Commissions().Create(ctx, row); err != nil {
			if errors.Is(err, shared.ErrAlreadyExists) {
				d.logger.Debug("commission level already paid, skipping",
					zap.String("cycle_id", dist.cycleID.String()),
					zap.Int("level", level),
					zap.String("type", dist.commissionType.String()))
				continue
			}
			return fmt.Errorf("create commission: %w", err)
		}

		// lock the receiver before touching the balance
		receiver, err := repos.Users().FindByIDForUpdate(ctx, upline.ID)
		if err != nil {
			return fmt.Errorf("lock commission receiver: %w", err)
		}

		before := receiver.BalanceWithdrawn
		if err := receiver.CreditWithdrawable(amount, true); err != nil {
			return err
		}

		entryType := ledger.EntryTypeCommission
		if dist.commissionType == commission.TypeResidual {
			entryType = ledger.EntryTypeCommissionResidual
		}
		entry, err := ledger.NewEntry(
			receiver.ID,
			entryType,
			ledger.Reference{Kind: ledger.ReferenceKindCommission, ID: row.GetID()},
			amount,
			ledger.OperationCredit,
			ledger.BalanceKindWithdrawable,
			before,
		)
		if err != nil {
			return err
		}
		entry.WithDescription(fmt.Sprintf("Level %d %s commission", level, dist.commissionType))

		if err := repos.Entries().Create(ctx, entry); err != nil {
			return fmt.Errorf("create commission ledger entry: %w", err)
		}
		if err := repos.Users().Save(ctx, receiver); err != nil {
			return fmt.Errorf("save commission receiver: %w", err)
		}

		d.logger.Info("commission posted",
			zap.String("receiver_id", receiver.ID.String()),
			zap.String("from_user_id", dist.fromUserID.String()),
			zap.Int("level", level),
			zap.String("amount", amount.String()),
			zap.String("type", dist.commissionType.String()))
	}

	return nil
}
