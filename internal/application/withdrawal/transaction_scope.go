package withdrawal

import (
	"context"

	"github.com/chrono60/backend/internal/domain/investment"
	"github.com/chrono60/backend/internal/domain/ledger"
	"github.com/chrono60/backend/internal/domain/member"
	"github.com/chrono60/backend/internal/domain/withdrawal"
)

// TransactionScope provides transactional access to the repositories a
// withdrawal touches
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the repositories scoped to the
// current transaction
type TransactionalRepositories interface {
	Users() member.UserRepository
	Withdrawals() withdrawal.Repository
	Cycles() investment.CycleRepository
	Entries() ledger.EntryRepository
}

// NoOpTransactionScope runs the function without a real transaction
type NoOpTransactionScope struct {
	users       member.UserRepository
	withdrawals withdrawal.Repository
	cycles      investment.CycleRepository
	entries     ledger.EntryRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given
// repositories
func NewNoOpTransactionScope(
	users member.UserRepository,
	withdrawals withdrawal.Repository,
	cycles investment.CycleRepository,
	entries ledger.EntryRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{users: users, withdrawals: withdrawals, cycles: cycles, entries: entries}
}

// Execute runs the function without transactional guarantees
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Users returns the user repository
func (s *NoOpTransactionScope) Users() member.UserRepository { return s.users }

// Withdrawals returns the withdrawal repository
func (s *NoOpTransactionScope) Withdrawals() withdrawal.Repository { return s.withdrawals }

// Cycles returns the cycle repository
func (s *NoOpTransactionScope) Cycles() investment.CycleRepository { return s.cycles }

// Entries returns the ledger entry repository
func (s *NoOpTransactionScope) Entries() ledger.EntryRepository { return s.entries }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
