package investment

import (
	"context"

	appcommission "github.com/chrono60/backend/internal/application/commission"
	"github.com/chrono60/backend/internal/domain/commission"
	"github.com/chrono60/backend/internal/domain/investment"
	"github.com/chrono60/backend/internal/domain/ledger"
	"github.com/chrono60/backend/internal/domain/member"
)

// TransactionScope provides transactional access to the repositories a
// purchase or settlement touches. All repository operations inside Execute
// share one database transaction and commit or roll back together.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the repositories scoped to the current
// transaction. It satisfies the commission distributor's Repos so a
// distribution joins the caller's transaction.
type TransactionalRepositories interface {
	appcommission.Repos
	Plans() investment.PlanRepository
	Cycles() investment.CycleRepository
	Earnings() investment.EarningRepository
}

// NoOpTransactionScope runs the function without a real transaction.
// Used by service tests with mock repositories.
type NoOpTransactionScope struct {
	users       member.UserRepository
	plans       investment.PlanRepository
	cycles      investment.CycleRepository
	earnings    investment.EarningRepository
	commissions commission.Repository
	entries     ledger.EntryRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given
// repositories
func NewNoOpTransactionScope(
	users member.UserRepository,
	plans investment.PlanRepository,
	cycles investment.CycleRepository,
	earnings investment.EarningRepository,
	commissions commission.Repository,
	entries ledger.EntryRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		users:       users,
		plans:       plans,
		cycles:      cycles,
		earnings:    earnings,
		commissions: commissions,
		entries:     entries,
	}
}

// Execute runs the function without transactional guarantees
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Users returns the user repository
func (s *NoOpTransactionScope) Users() member.UserRepository { return s.users }

// Plans returns the plan repository
func (s *NoOpTransactionScope) Plans() investment.PlanRepository { return s.plans }

// Cycles returns the cycle repository
func (s *NoOpTransactionScope) Cycles() investment.CycleRepository { return s.cycles }

// Earnings returns the earning repository
func (s *NoOpTransactionScope) Earnings() investment.EarningRepository { return s.earnings }

// Commissions returns the commission repository
func (s *NoOpTransactionScope) Commissions() commission.Repository { return s.commissions }

// Entries returns the ledger entry repository
func (s *NoOpTransactionScope) Entries() ledger.EntryRepository { return s.entries }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
