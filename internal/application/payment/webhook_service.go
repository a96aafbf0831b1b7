package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/chrono60/backend/internal/domain/ledger"
	"github.com/chrono60/backend/internal/domain/payment"
	"github.com/chrono60/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrDuplicateWebhook is returned when a delivery with the same payload
// hash was already stored
var ErrDuplicateWebhook = errors.New("webhook: duplicate delivery")

// WebhookService reconciles provider notifications with deposits. The
// stored event row with its unique payload hash is the at-most-once
// ground truth; the idempotency store is only a fast path in front of it.
type WebhookService struct {
	scope    TransactionScope
	webhooks payment.WebhookEventRepository
	dedup    shared.IdempotencyStore
	provider string
	clock    shared.Clock
	logger   *zap.Logger
}

// NewWebhookService creates a WebhookService
func NewWebhookService(
	scope TransactionScope,
	webhooks payment.WebhookEventRepository,
	dedup shared.IdempotencyStore,
	provider string,
	clock shared.Clock,
	logger *zap.Logger,
) *WebhookService {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookService{
		scope:    scope,
		webhooks: webhooks,
		dedup:    dedup,
		provider: provider,
		clock:    clock,
		logger:   logger,
	}
}

// ProcessWebhook stores a raw delivery and reconciles the referenced
// deposit. Returns ErrDuplicateWebhook for payloads seen before. The event
// row is stored outside the reconciliation transaction so a failed
// reconciliation leaves a reprocessable record behind.
func (s *WebhookService) ProcessWebhook(ctx context.Context, raw []byte) (*payment.WebhookEvent, error) {
	hash := payment.HashPayload(raw)

	if s.dedup != nil {
		seen, err := s.dedup.IsProcessed(ctx, "webhook:"+hash)
		if err != nil {
			s.logger.Warn("idempotency store unavailable, falling back to unique index", zap.Error(err))
		} else if seen {
			return nil, ErrDuplicateWebhook
		}
	}

	parsed, parseErr := payment.ParseWebhookPayload(raw)
	externalID := ""
	if parsed != nil {
		externalID = parsed.TransactionID
	}

	event, err := payment.NewWebhookEvent(s.provider, externalID, raw)
	if err != nil {
		return nil, err
	}
	if err := s.webhooks.Create(ctx, event); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, ErrDuplicateWebhook
		}
		return nil, fmt.Errorf("store webhook event: %w", err)
	}

	// mark only after the row exists; a delivery lost on insert must
	// stay retryable by the provider
	if s.dedup != nil {
		if _, err := s.dedup.MarkProcessed(ctx, "webhook:"+hash, shared.DefaultIdempotencyConfig().TTL); err != nil {
			s.logger.Warn("idempotency store unavailable, duplicates fall back to unique index", zap.Error(err))
		}
	}

	if parseErr != nil {
		event.MarkFailed(parseErr.Error())
		if err := s.webhooks.Save(ctx, event); err != nil {
			return nil, fmt.Errorf("save webhook event: %w", err)
		}
		return event, nil
	}

	return s.reconcile(ctx, event, parsed)
}

// ReprocessWebhook re-runs reconciliation for a stored event. Only
// received and failed events are eligible; the same guards apply, so a
// retry can never double-credit.
func (s *WebhookService) ReprocessWebhook(ctx context.Context, webhookID uuid.UUID) (*payment.WebhookEvent, error) {
	event, err := s.webhooks.FindByID(ctx, webhookID)
	if err != nil {
		return nil, fmt.Errorf("find webhook event: %w", err)
	}

	if event.Status != payment.WebhookStatusReceived && event.Status != payment.WebhookStatusFailed {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Webhook in status %s cannot be reprocessed", event.Status))
	}

	parsed, err := payment.ParseWebhookPayload([]byte(event.Payload))
	if err != nil {
		event.MarkFailed(err.Error())
		if saveErr := s.webhooks.Save(ctx, event); saveErr != nil {
			return nil, saveErr
		}
		return event, nil
	}

	return s.reconcile(ctx, event, parsed)
}

// reconcile applies one parsed notification to its deposit atomically and
// persists the event's outcome inside the same transaction.
func (s *WebhookService) reconcile(ctx context.Context, event *payment.WebhookEvent, parsed *payment.WebhookPayload) (*payment.WebhookEvent, error) {
	canonical, known := payment.NormalizeProviderStatus(parsed.RawStatus)
	if !known {
		event.MarkFailed(fmt.Sprintf("unknown provider status %q", parsed.RawStatus))
		if err := s.webhooks.Save(ctx, event); err != nil {
			return nil, fmt.Errorf("save webhook event: %w", err)
		}
		return event, nil
	}

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		deposit, err := repos.Deposits().FindByTransactionIDForUpdate(ctx, parsed.TransactionID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				event.MarkFailed(fmt.Sprintf("no deposit for transaction %s", parsed.TransactionID))
				return repos.Webhooks().Save(ctx, event)
			}
			return fmt.Errorf("find deposit: %w", err)
		}
		event.LinkDeposit(deposit.GetID())

		switch canonical {
		case payment.ProviderStatusPaid:
			if deposit.IsPaid() {
				// settled earlier by another webhook or manual confirm
				event.MarkLateArrival()
				if err := s.flipManualPending(ctx, repos, deposit.GetID()); err != nil {
					return err
				}
				return repos.Webhooks().Save(ctx, event)
			}
			if err := s.creditDeposit(ctx, repos, deposit); err != nil {
				return err
			}
		case payment.ProviderStatusPending:
			// nothing to change, deposit is already PENDING
		case payment.ProviderStatusCancelled:
			if err := deposit.MarkCancelled(); err == nil {
				if err := repos.Deposits().Save(ctx, deposit); err != nil {
					return fmt.Errorf("save deposit: %w", err)
				}
			}
		case payment.ProviderStatusExpired:
			if err := deposit.MarkExpired(); err == nil {
				if err := repos.Deposits().Save(ctx, deposit); err != nil {
					return fmt.Errorf("save deposit: %w", err)
				}
			}
		}

		event.MarkProcessed()
		return repos.Webhooks().Save(ctx, event)
	})
	if err != nil {
		event.MarkFailed(err.Error())
		if saveErr := s.webhooks.Save(ctx, event); saveErr != nil {
			s.logger.Error("failed to persist webhook failure",
				zap.String("webhook_id", event.GetID().String()),
				zap.Error(saveErr))
		}
		return event, err
	}

	s.logger.Info("webhook reconciled",
		zap.String("webhook_id", event.GetID().String()),
		zap.String("transaction_id", parsed.TransactionID),
		zap.String("status", string(event.Status)))

	return event, nil
}

// ConfirmDepositManually settles a deposit by admin action before the
// provider webhook arrived. A placeholder event marks the deposit so the
// real webhook is recognized as a late arrival.
func (s *WebhookService) ConfirmDepositManually(ctx context.Context, depositID uuid.UUID, note string) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		deposit, err := repos.Deposits().FindByIDForUpdate(ctx, depositID)
		if err != nil {
			return fmt.Errorf("find deposit: %w", err)
		}
		if deposit.IsPaid() {
			return shared.NewDomainError("INVALID_STATE", "Deposit is already paid")
		}

		if err := s.creditDeposit(ctx, repos, deposit); err != nil {
			return err
		}

		manual := payment.NewManualWebhookEvent(s.provider, deposit.TransactionID, deposit.GetID(), note)
		return repos.Webhooks().Create(ctx, manual)
	})
}

// creditDeposit applies the one credit a deposit ever gets: user balance,
// ledger entry, deposit PAID. Caller holds the deposit row lock.
func (s *WebhookService) creditDeposit(ctx context.Context, repos TransactionalRepositories, deposit *payment.Deposit) error {
	user, err := repos.Users().FindByIDForUpdate(ctx, deposit.UserID)
	if err != nil {
		return fmt.Errorf("lock user: %w", err)
	}

	before := user.Balance
	if err := user.CreditBalance(deposit.Amount); err != nil {
		return err
	}

	entry, err := ledger.NewEntry(
		user.ID,
		ledger.EntryTypeDeposit,
		ledger.Reference{Kind: ledger.ReferenceKindDeposit, ID: deposit.GetID()},
		deposit.Amount,
		ledger.OperationCredit,
		ledger.BalanceKindInvestable,
		before,
	)
	if err != nil {
		return err
	}
	entry.WithDescription("PIX deposit")

	if err := deposit.MarkPaid(s.clock.Now()); err != nil {
		return err
	}

	if err := repos.Entries().Create(ctx, entry); err != nil {
		return fmt.Errorf("create deposit ledger entry: %w", err)
	}
	if err := repos.Users().Save(ctx, user); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	if err := repos.Deposits().Save(ctx, deposit); err != nil {
		return fmt.Errorf("save deposit: %w", err)
	}
	return nil
}

// flipManualPending marks manual placeholder events whose real webhook has
// now arrived
func (s *WebhookService) flipManualPending(ctx context.Context, repos TransactionalRepositories, depositID uuid.UUID) error {
	pending, err := repos.Webhooks().FindManualPendingByDeposit(ctx, depositID)
	if err != nil {
		return fmt.Errorf("find manual pending events: %w", err)
	}
	for _, m := range pending {
		m.MarkManualArrived()
		if err := repos.Webhooks().Save(ctx, m); err != nil {
			return fmt.Errorf("save manual event: %w", err)
		}
	}
	return nil
}
