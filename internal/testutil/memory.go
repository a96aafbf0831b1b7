// Package testutil provides in-memory repository implementations for
// application-layer tests. The fakes enforce the same unique keys the
// database schema does, returning shared.ErrAlreadyExists on collision,
// so idempotency paths behave as in production.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chrono60/backend/internal/domain/commission"
	"github.com/chrono60/backend/internal/domain/investment"
	"github.com/chrono60/backend/internal/domain/ledger"
	"github.com/chrono60/backend/internal/domain/member"
	"github.com/chrono60/backend/internal/domain/payment"
	"github.com/chrono60/backend/internal/domain/shared"
	"github.com/chrono60/backend/internal/domain/withdrawal"
)

// MemoryUserRepository is an in-memory member.UserRepository.
// Email and referral code are unique.
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]member.User
}

// NewMemoryUserRepository creates an empty user repository
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[uuid.UUID]member.User)}
}

// Create stores a new user
func (r *MemoryUserRepository) Create(_ context.Context, user *member.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, user.Email) || existing.ReferralCode == user.ReferralCode {
			return shared.ErrAlreadyExists
		}
	}
	r.users[user.ID] = *user
	return nil
}

// FindByID loads a user by ID
func (r *MemoryUserRepository) FindByID(_ context.Context, id uuid.UUID) (*member.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &u, nil
}

// FindByIDForUpdate behaves like FindByID; the fake has no row locks
func (r *MemoryUserRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*member.User, error) {
	return r.FindByID(ctx, id)
}

// FindByEmail loads a user by email, case-insensitive
func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*member.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			out := u
			return &out, nil
		}
	}
	return nil, shared.ErrNotFound
}

// FindByReferralCode loads a user by referral code
func (r *MemoryUserRepository) FindByReferralCode(_ context.Context, code string) (*member.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ReferralCode == code {
			out := u
			return &out, nil
		}
	}
	return nil, shared.ErrNotFound
}

// FindReferrerOf returns the direct upline or shared.ErrNotFound
func (r *MemoryUserRepository) FindReferrerOf(_ context.Context, userID uuid.UUID) (*member.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok || u.ReferredBy == nil {
		return nil, shared.ErrNotFound
	}
	ref, ok := r.users[*u.ReferredBy]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &ref, nil
}

// FindDownline returns users directly referred by userID
func (r *MemoryUserRepository) FindDownline(_ context.Context, userID uuid.UUID) ([]*member.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*member.User
	for _, u := range r.users {
		if u.ReferredBy != nil && *u.ReferredBy == userID {
			cp := u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Save persists the user state
func (r *MemoryUserRepository) Save(_ context.Context, user *member.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return shared.ErrNotFound
	}
	r.users[user.ID] = *user
	return nil
}

// SaveWithLock persists the user, bumping its version
func (r *MemoryUserRepository) SaveWithLock(_ context.Context, user *member.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[user.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != user.Version {
		return shared.ErrConcurrencyConflict
	}
	user.Version++
	r.users[user.ID] = *user
	return nil
}

// MemoryEntryRepository is an append-only in-memory ledger.EntryRepository
type MemoryEntryRepository struct {
	mu      sync.Mutex
	entries []ledger.Entry
}

// NewMemoryEntryRepository creates an empty entry repository
func NewMemoryEntryRepository() *MemoryEntryRepository {
	return &MemoryEntryRepository{}
}

// Create appends an entry
func (r *MemoryEntryRepository) Create(_ context.Context, entry *ledger.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

// FindByID loads an entry by ID
func (r *MemoryEntryRepository) FindByID(_ context.Context, id uuid.UUID) (*ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.ID == id {
			out := e
			return &out, nil
		}
	}
	return nil, shared.ErrNotFound
}

func matchesFilter(e ledger.Entry, userID uuid.UUID, filter ledger.Filter) bool {
	if e.UserID != userID {
		return false
	}
	if filter.Type != nil && e.Type != *filter.Type {
		return false
	}
	if filter.RefKind != nil && e.Reference.Kind != *filter.RefKind {
		return false
	}
	if filter.RefID != nil && e.Reference.ID != *filter.RefID {
		return false
	}
	if filter.From != nil && e.CreatedAt.Before(*filter.From) {
		return false
	}
	if filter.To != nil && e.CreatedAt.After(*filter.To) {
		return false
	}
	return true
}

// FindByUser returns the user's entries matching the filter
func (r *MemoryEntryRepository) FindByUser(_ context.Context, userID uuid.UUID, filter ledger.Filter) ([]*ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*ledger.Entry
	for i := range r.entries {
		if matchesFilter(r.entries[i], userID, filter) {
			cp := r.entries[i]
			matched = append(matched, &cp)
		}
	}
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// FindByReference returns entries pointing at the given reference
func (r *MemoryEntryRepository) FindByReference(_ context.Context, ref ledger.Reference) ([]*ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*ledger.Entry
	for i := range r.entries {
		if r.entries[i].Reference == ref {
			cp := r.entries[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

// CountByUser counts the user's entries matching the filter
func (r *MemoryEntryRepository) CountByUser(_ context.Context, userID uuid.UUID, filter ledger.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i := range r.entries {
		if matchesFilter(r.entries[i], userID, filter) {
			n++
		}
	}
	return n, nil
}

// All returns a snapshot of every stored entry, in insertion order
func (r *MemoryEntryRepository) All() []*ledger.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*ledger.Entry, len(r.entries))
	for i := range r.entries {
		cp := r.entries[i]
		out[i] = &cp
	}
	return out
}

// MemoryPlanRepository is an in-memory investment.PlanRepository
type MemoryPlanRepository struct {
	mu    sync.Mutex
	plans map[uuid.UUID]investment.Plan
}

// NewMemoryPlanRepository creates an empty plan repository
func NewMemoryPlanRepository() *MemoryPlanRepository {
	return &MemoryPlanRepository{plans: make(map[uuid.UUID]investment.Plan)}
}

// Create stores a new plan
func (r *MemoryPlanRepository) Create(_ context.Context, plan *investment.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans[plan.ID] = *plan
	return nil
}

// FindByID loads a plan by ID
func (r *MemoryPlanRepository) FindByID(_ context.Context, id uuid.UUID) (*investment.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

// FindAll returns every plan ordered by sort order
func (r *MemoryPlanRepository) FindAll(_ context.Context) ([]*investment.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*investment.Plan
	for _, p := range r.plans {
		cp := p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

// ListActive returns active plans ordered by sort order
func (r *MemoryPlanRepository) ListActive(ctx context.Context) ([]*investment.Plan, error) {
	all, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []*investment.Plan
	for _, p := range all {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

// Save persists the plan state
func (r *MemoryPlanRepository) Save(_ context.Context, plan *investment.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plans[plan.ID]; !ok {
		return shared.ErrNotFound
	}
	r.plans[plan.ID] = *plan
	return nil
}

// Delete removes the plan
func (r *MemoryPlanRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plans[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.plans, id)
	return nil
}

// MemoryCycleRepository is an in-memory investment.CycleRepository
type MemoryCycleRepository struct {
	mu     sync.Mutex
	cycles map[uuid.UUID]investment.Cycle
	order  []uuid.UUID
}

// NewMemoryCycleRepository creates an empty cycle repository
func NewMemoryCycleRepository() *MemoryCycleRepository {
	return &MemoryCycleRepository{cycles: make(map[uuid.UUID]investment.Cycle)}
}

// Create stores a new cycle
func (r *MemoryCycleRepository) Create(_ context.Context, cycle *investment.Cycle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cycles[cycle.ID] = *cycle
	r.order = append(r.order, cycle.ID)
	return nil
}

// FindByID loads a cycle by ID
func (r *MemoryCycleRepository) FindByID(_ context.Context, id uuid.UUID) (*investment.Cycle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cycles[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &c, nil
}

// FindByUser returns the user's cycles in creation order
func (r *MemoryCycleRepository) FindByUser(_ context.Context, userID uuid.UUID) ([]*investment.Cycle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*investment.Cycle
	for _, id := range r.order {
		c := r.cycles[id]
		if c.UserID == userID {
			cp := c
			out = append(out, &cp)
		}
	}
	return out, nil
}

// FindActive returns all ACTIVE cycles in creation order
func (r *MemoryCycleRepository) FindActive(_ context.Context) ([]*investment.Cycle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*investment.Cycle
	for _, id := range r.order {
		c := r.cycles[id]
		if c.Status == investment.CycleStatusActive {
			cp := c
			out = append(out, &cp)
		}
	}
	return out, nil
}

// CountActiveByUserAndPlan counts the user's ACTIVE cycles on a plan
func (r *MemoryCycleRepository) CountActiveByUserAndPlan(_ context.Context, userID, planID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.cycles {
		if c.UserID == userID && c.PlanID == planID && c.Status == investment.CycleStatusActive {
			n++
		}
	}
	return n, nil
}

// CountByUser counts every cycle the user ever opened
func (r *MemoryCycleRepository) CountByUser(_ context.Context, userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.cycles {
		if c.UserID == userID {
			n++
		}
	}
	return n, nil
}

// Save persists the cycle state
func (r *MemoryCycleRepository) Save(_ context.Context, cycle *investment.Cycle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cycles[cycle.ID]; !ok {
		return shared.ErrNotFound
	}
	r.cycles[cycle.ID] = *cycle
	return nil
}

// SaveWithLock persists the cycle, bumping its version
func (r *MemoryCycleRepository) SaveWithLock(_ context.Context, cycle *investment.Cycle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.cycles[cycle.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != cycle.Version {
		return shared.ErrConcurrencyConflict
	}
	cycle.Version++
	r.cycles[cycle.ID] = *cycle
	return nil
}

// MemoryEarningRepository is an in-memory investment.EarningRepository.
// (cycle_id, reference_date, type) is unique.
type MemoryEarningRepository struct {
	mu       sync.Mutex
	earnings map[uuid.UUID]investment.Earning
	keys     map[string]struct{}
	order    []uuid.UUID
}

// NewMemoryEarningRepository creates an empty earning repository
func NewMemoryEarningRepository() *MemoryEarningRepository {
	return &MemoryEarningRepository{
		earnings: make(map[uuid.UUID]investment.Earning),
		keys:     make(map[string]struct{}),
	}
}

func earningKey(cycleID uuid.UUID, referenceDate time.Time, earningType investment.EarningType) string {
	return fmt.Sprintf("%s|%s|%s", cycleID, referenceDate.UTC().Format("2006-01-02"), earningType)
}

// Create stores an earning, enforcing the double-payment guard
func (r *MemoryEarningRepository) Create(_ context.Context, earning *investment.Earning) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := earningKey(earning.CycleID, earning.ReferenceDate, earning.Type)
	if _, dup := r.keys[key]; dup {
		return shared.ErrAlreadyExists
	}
	r.keys[key] = struct{}{}
	r.earnings[earning.ID] = *earning
	r.order = append(r.order, earning.ID)
	return nil
}

// FindByID loads an earning by ID
func (r *MemoryEarningRepository) FindByID(_ context.Context, id uuid.UUID) (*investment.Earning, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.earnings[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &e, nil
}

// FindByCycle returns the cycle's earnings in creation order
func (r *MemoryEarningRepository) FindByCycle(_ context.Context, cycleID uuid.UUID) ([]*investment.Earning, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*investment.Earning
	for _, id := range r.order {
		e := r.earnings[id]
		if e.CycleID == cycleID {
			cp := e
			out = append(out, &cp)
		}
	}
	return out, nil
}

// FindByUser returns the user's earnings in creation order
func (r *MemoryEarningRepository) FindByUser(_ context.Context, userID uuid.UUID) ([]*investment.Earning, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*investment.Earning
	for _, id := range r.order {
		e := r.earnings[id]
		if e.UserID == userID {
			cp := e
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ExistsForDate reports whether an earning exists for the key
func (r *MemoryEarningRepository) ExistsForDate(_ context.Context, cycleID uuid.UUID, referenceDate time.Time, earningType investment.EarningType) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.keys[earningKey(cycleID, referenceDate, earningType)]
	return ok, nil
}

// MemoryCommissionRepository is an in-memory commission.Repository.
// (cycle_id, earning_id, level, type) is unique.
type MemoryCommissionRepository struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]commission.Commission
	keys  map[string]struct{}
	order []uuid.UUID
}

// NewMemoryCommissionRepository creates an empty commission repository
func NewMemoryCommissionRepository() *MemoryCommissionRepository {
	return &MemoryCommissionRepository{
		rows: make(map[uuid.UUID]commission.Commission),
		keys: make(map[string]struct{}),
	}
}

func commissionKey(c *commission.Commission) string {
	earning := "-"
	if c.EarningID != nil {
		earning = c.EarningID.String()
	}
	return fmt.Sprintf("%s|%s|%d|%s", c.CycleID, earning, c.Level, c.Type)
}

// Create stores a commission, enforcing the idempotency key
func (r *MemoryCommissionRepository) Create(_ context.Context, c *commission.Commission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := commissionKey(c)
	if _, dup := r.keys[key]; dup {
		return shared.ErrAlreadyExists
	}
	r.keys[key] = struct{}{}
	r.rows[c.ID] = *c
	r.order = append(r.order, c.ID)
	return nil
}

// FindByID loads a commission by ID
func (r *MemoryCommissionRepository) FindByID(_ context.Context, id uuid.UUID) (*commission.Commission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &c, nil
}

// FindByReceiver returns all commissions paid to the user
func (r *MemoryCommissionRepository) FindByReceiver(_ context.Context, userID uuid.UUID) ([]*commission.Commission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*commission.Commission
	for _, id := range r.order {
		c := r.rows[id]
		if c.UserID == userID {
			cp := c
			out = append(out, &cp)
		}
	}
	return out, nil
}

// FindByCycle returns all commissions triggered by the cycle
func (r *MemoryCommissionRepository) FindByCycle(_ context.Context, cycleID uuid.UUID) ([]*commission.Commission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*commission.Commission
	for _, id := range r.order {
		c := r.rows[id]
		if c.CycleID == cycleID {
			cp := c
			out = append(out, &cp)
		}
	}
	return out, nil
}

// MemoryDepositRepository is an in-memory payment.DepositRepository.
// Transaction ID is unique.
type MemoryDepositRepository struct {
	mu       sync.Mutex
	deposits map[uuid.UUID]payment.Deposit
	order    []uuid.UUID
}

// NewMemoryDepositRepository creates an empty deposit repository
func NewMemoryDepositRepository() *MemoryDepositRepository {
	return &MemoryDepositRepository{deposits: make(map[uuid.UUID]payment.Deposit)}
}

// Create stores a deposit, enforcing the transaction ID unique key
func (r *MemoryDepositRepository) Create(_ context.Context, deposit *payment.Deposit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.deposits {
		if d.TransactionID == deposit.TransactionID {
			return shared.ErrAlreadyExists
		}
	}
	r.deposits[deposit.ID] = *deposit
	r.order = append(r.order, deposit.ID)
	return nil
}

// FindByID loads a deposit by ID
func (r *MemoryDepositRepository) FindByID(_ context.Context, id uuid.UUID) (*payment.Deposit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.deposits[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &d, nil
}

// FindByIDForUpdate behaves like FindByID; the fake has no row locks
func (r *MemoryDepositRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*payment.Deposit, error) {
	return r.FindByID(ctx, id)
}

// FindByTransactionID loads a deposit by provider transaction ID
func (r *MemoryDepositRepository) FindByTransactionID(_ context.Context, transactionID string) (*payment.Deposit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.deposits {
		if d.TransactionID == transactionID {
			out := d
			return &out, nil
		}
	}
	return nil, shared.ErrNotFound
}

// FindByTransactionIDForUpdate behaves like FindByTransactionID
func (r *MemoryDepositRepository) FindByTransactionIDForUpdate(ctx context.Context, transactionID string) (*payment.Deposit, error) {
	return r.FindByTransactionID(ctx, transactionID)
}

// FindByUser returns the user's deposits in creation order
func (r *MemoryDepositRepository) FindByUser(_ context.Context, userID uuid.UUID) ([]*payment.Deposit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*payment.Deposit
	for _, id := range r.order {
		d := r.deposits[id]
		if d.UserID == userID {
			cp := d
			out = append(out, &cp)
		}
	}
	return out, nil
}

// FindExpired returns PENDING deposits whose expiry passed
func (r *MemoryDepositRepository) FindExpired(_ context.Context, asOf time.Time, limit int) ([]*payment.Deposit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*payment.Deposit
	for _, id := range r.order {
		d := r.deposits[id]
		if d.Status == payment.DepositStatusPending && d.ExpiresAt.Before(asOf) {
			cp := d
			out = append(out, &cp)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// Save persists the deposit state
func (r *MemoryDepositRepository) Save(_ context.Context, deposit *payment.Deposit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.deposits[deposit.ID]; !ok {
		return shared.ErrNotFound
	}
	r.deposits[deposit.ID] = *deposit
	return nil
}

// SaveWithLock persists the deposit, bumping its version
func (r *MemoryDepositRepository) SaveWithLock(_ context.Context, deposit *payment.Deposit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.deposits[deposit.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != deposit.Version {
		return shared.ErrConcurrencyConflict
	}
	deposit.Version++
	r.deposits[deposit.ID] = *deposit
	return nil
}

// MemoryWebhookEventRepository is an in-memory payment.WebhookEventRepository.
// The idempotency hash is unique.
type MemoryWebhookEventRepository struct {
	mu     sync.Mutex
	events map[uuid.UUID]payment.WebhookEvent
	order  []uuid.UUID
}

// NewMemoryWebhookEventRepository creates an empty webhook repository
func NewMemoryWebhookEventRepository() *MemoryWebhookEventRepository {
	return &MemoryWebhookEventRepository{events: make(map[uuid.UUID]payment.WebhookEvent)}
}

// Create stores an event, enforcing the hash unique key
func (r *MemoryWebhookEventRepository) Create(_ context.Context, event *payment.WebhookEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.IdempotencyHash == event.IdempotencyHash {
			return shared.ErrAlreadyExists
		}
	}
	r.events[event.ID] = *event
	r.order = append(r.order, event.ID)
	return nil
}

// FindByID loads an event by ID
func (r *MemoryWebhookEventRepository) FindByID(_ context.Context, id uuid.UUID) (*payment.WebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &e, nil
}

// FindByHash loads an event by idempotency hash
func (r *MemoryWebhookEventRepository) FindByHash(_ context.Context, idempotencyHash string) (*payment.WebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.IdempotencyHash == idempotencyHash {
			out := e
			return &out, nil
		}
	}
	return nil, shared.ErrNotFound
}

// FindByDeposit returns events linked to the deposit in creation order
func (r *MemoryWebhookEventRepository) FindByDeposit(_ context.Context, depositID uuid.UUID) ([]*payment.WebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*payment.WebhookEvent
	for _, id := range r.order {
		e := r.events[id]
		if e.DepositID != nil && *e.DepositID == depositID {
			cp := e
			out = append(out, &cp)
		}
	}
	return out, nil
}

// FindManualPendingByDeposit returns the deposit's manual-pending events
func (r *MemoryWebhookEventRepository) FindManualPendingByDeposit(_ context.Context, depositID uuid.UUID) ([]*payment.WebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*payment.WebhookEvent
	for _, id := range r.order {
		e := r.events[id]
		if e.DepositID != nil && *e.DepositID == depositID && e.Status == payment.WebhookStatusManualPending {
			cp := e
			out = append(out, &cp)
		}
	}
	return out, nil
}

// FindRecent returns events newest-first
func (r *MemoryWebhookEventRepository) FindRecent(_ context.Context, limit, offset int) ([]*payment.WebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*payment.WebhookEvent
	for i := len(r.order) - 1; i >= 0; i-- {
		e := r.events[r.order[i]]
		cp := e
		out = append(out, &cp)
	}
	if offset > 0 {
		if offset >= len(out) {
			return nil, nil
		}
		out = out[offset:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Save persists the event state
func (r *MemoryWebhookEventRepository) Save(_ context.Context, event *payment.WebhookEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[event.ID]; !ok {
		return shared.ErrNotFound
	}
	r.events[event.ID] = *event
	return nil
}

// MemoryWithdrawalRepository is an in-memory withdrawal.Repository
type MemoryWithdrawalRepository struct {
	mu          sync.Mutex
	withdrawals map[uuid.UUID]withdrawal.Withdrawal
	order       []uuid.UUID
}

// NewMemoryWithdrawalRepository creates an empty withdrawal repository
func NewMemoryWithdrawalRepository() *MemoryWithdrawalRepository {
	return &MemoryWithdrawalRepository{withdrawals: make(map[uuid.UUID]withdrawal.Withdrawal)}
}

// Create stores a withdrawal request
func (r *MemoryWithdrawalRepository) Create(_ context.Context, w *withdrawal.Withdrawal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.withdrawals[w.ID] = *w
	r.order = append(r.order, w.ID)
	return nil
}

// FindByID loads a withdrawal by ID
func (r *MemoryWithdrawalRepository) FindByID(_ context.Context, id uuid.UUID) (*withdrawal.Withdrawal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.withdrawals[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &w, nil
}

// FindByUser returns the user's withdrawals in creation order
func (r *MemoryWithdrawalRepository) FindByUser(_ context.Context, userID uuid.UUID) ([]*withdrawal.Withdrawal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*withdrawal.Withdrawal
	for _, id := range r.order {
		w := r.withdrawals[id]
		if w.UserID == userID {
			cp := w
			out = append(out, &cp)
		}
	}
	return out, nil
}

// FindByStatus returns withdrawals in the given status
func (r *MemoryWithdrawalRepository) FindByStatus(_ context.Context, status withdrawal.Status) ([]*withdrawal.Withdrawal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*withdrawal.Withdrawal
	for _, id := range r.order {
		w := r.withdrawals[id]
		if w.Status == status {
			cp := w
			out = append(out, &cp)
		}
	}
	return out, nil
}

// CountForDay counts requests on the calendar day of ref, excluding
// REJECTED and CANCELLED
func (r *MemoryWithdrawalRepository) CountForDay(_ context.Context, userID uuid.UUID, ref time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	day := ref.UTC().Format("2006-01-02")
	var n int64
	for _, w := range r.withdrawals {
		if w.UserID != userID {
			continue
		}
		if w.Status == withdrawal.StatusRejected || w.Status == withdrawal.StatusCancelled {
			continue
		}
		if w.RequestedAt.UTC().Format("2006-01-02") == day {
			n++
		}
	}
	return n, nil
}

// Save persists the withdrawal state
func (r *MemoryWithdrawalRepository) Save(_ context.Context, w *withdrawal.Withdrawal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.withdrawals[w.ID]; !ok {
		return shared.ErrNotFound
	}
	r.withdrawals[w.ID] = *w
	return nil
}

// SaveWithLock persists the withdrawal, bumping its version
func (r *MemoryWithdrawalRepository) SaveWithLock(_ context.Context, w *withdrawal.Withdrawal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.withdrawals[w.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != w.Version {
		return shared.ErrConcurrencyConflict
	}
	w.Version++
	r.withdrawals[w.ID] = *w
	return nil
}

var (
	_ member.UserRepository          = (*MemoryUserRepository)(nil)
	_ ledger.EntryRepository         = (*MemoryEntryRepository)(nil)
	_ investment.PlanRepository      = (*MemoryPlanRepository)(nil)
	_ investment.CycleRepository     = (*MemoryCycleRepository)(nil)
	_ investment.EarningRepository   = (*MemoryEarningRepository)(nil)
	_ commission.Repository          = (*MemoryCommissionRepository)(nil)
	_ payment.DepositRepository      = (*MemoryDepositRepository)(nil)
	_ payment.WebhookEventRepository = (*MemoryWebhookEventRepository)(nil)
	_ withdrawal.Repository          = (*MemoryWithdrawalRepository)(nil)
)
