package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Filter narrows ledger queries
type Filter struct {
	UserID  *uuid.UUID
	Type    *EntryType
	RefKind *ReferenceKind
	RefID   *uuid.UUID
	From    *time.Time
	To      *time.Time
	Limit   int
	Offset  int
}

// EntryRepository persists ledger entries. Entries are append-only;
// there is no update or delete.
type EntryRepository interface {
	Create(ctx context.Context, entry *Entry) error
	FindByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	FindByUser(ctx context.Context, userID uuid.UUID, filter Filter) ([]*Entry, error)
	FindByReference(ctx context.Context, ref Reference) ([]*Entry, error)
	CountByUser(ctx context.Context, userID uuid.UUID, filter Filter) (int64, error)
}
