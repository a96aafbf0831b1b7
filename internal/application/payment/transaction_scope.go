package payment

import (
	"context"

	"github.com/chrono60/backend/internal/domain/ledger"
	"github.com/chrono60/backend/internal/domain/member"
	"github.com/chrono60/backend/internal/domain/payment"
)

// TransactionScope provides transactional access to the repositories
// webhook reconciliation touches
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the repositories scoped to the
// current transaction
type TransactionalRepositories interface {
	Users() member.UserRepository
	Deposits() payment.DepositRepository
	Webhooks() payment.WebhookEventRepository
	Entries() ledger.EntryRepository
}

// NoOpTransactionScope runs the function without a real transaction
type NoOpTransactionScope struct {
	users    member.UserRepository
	deposits payment.DepositRepository
	webhooks payment.WebhookEventRepository
	entries  ledger.EntryRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given
// repositories
func NewNoOpTransactionScope(
	users member.UserRepository,
	deposits payment.DepositRepository,
	webhooks payment.WebhookEventRepository,
	entries ledger.EntryRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{users: users, deposits: deposits, webhooks: webhooks, entries: entries}
}

// Execute runs the function without transactional guarantees
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Users returns the user repository
func (s *NoOpTransactionScope) Users() member.UserRepository { return s.users }

// Deposits returns the deposit repository
func (s *NoOpTransactionScope) Deposits() payment.DepositRepository { return s.deposits }

// Webhooks returns the webhook event repository
func (s *NoOpTransactionScope) Webhooks() payment.WebhookEventRepository { return s.webhooks }

// Entries returns the ledger entry repository
func (s *NoOpTransactionScope) Entries() ledger.EntryRepository { return s.entries }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
