package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DepositRepository persists deposits
type DepositRepository interface {
	Create(ctx context.Context, deposit *Deposit) error
	FindByID(ctx context.Context, id uuid.UUID) (*Deposit, error)
	// FindByIDForUpdate locks the row; call inside a transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Deposit, error)
	// FindByTransactionIDForUpdate locks the row; call inside a transaction
	FindByTransactionIDForUpdate(ctx context.Context, transactionID string) (*Deposit, error)
	FindByTransactionID(ctx context.Context, transactionID string) (*Deposit, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*Deposit, error)
	FindExpired(ctx context.Context, asOf time.Time, limit int) ([]*Deposit, error)
	Save(ctx context.Context, deposit *Deposit) error
	SaveWithLock(ctx context.Context, deposit *Deposit) error
}

// WebhookEventRepository persists webhook deliveries. Create returns
// shared.ErrAlreadyExists when the idempotency hash collides.
type WebhookEventRepository interface {
	Create(ctx context.Context, event *WebhookEvent) error
	FindByID(ctx context.Context, id uuid.UUID) (*WebhookEvent, error)
	FindByHash(ctx context.Context, idempotencyHash string) (*WebhookEvent, error)
	FindByDeposit(ctx context.Context, depositID uuid.UUID) ([]*WebhookEvent, error)
	FindManualPendingByDeposit(ctx context.Context, depositID uuid.UUID) ([]*WebhookEvent, error)
	FindRecent(ctx context.Context, limit, offset int) ([]*WebhookEvent, error)
	Save(ctx context.Context, event *WebhookEvent) error
}
