package payment

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/chrono60/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// WebhookStatus tracks what happened to a received webhook delivery
type WebhookStatus string

const (
	// WebhookStatusReceived is the initial state after storing the payload
	WebhookStatusReceived WebhookStatus = "received"
	// WebhookStatusProcessed means the deposit state was updated
	WebhookStatusProcessed WebhookStatus = "processed"
	// WebhookStatusFailed means processing raised an error
	WebhookStatusFailed WebhookStatus = "failed"
	// WebhookStatusManualPending marks a synthetic event created by a
	// manual admin confirmation while the real webhook is still expected
	WebhookStatusManualPending WebhookStatus = "manual_pending_webhook"
	// WebhookStatusManualArrived marks the manual event after the real
	// webhook showed up
	WebhookStatusManualArrived WebhookStatus = "manual_webhook_arrived"
	// WebhookStatusLateArrival marks a webhook for an already-settled
	// deposit; no credit is applied
	WebhookStatusLateArrival WebhookStatus = "late_arrival"
)

// IsValid returns true if the webhook status is valid
func (s WebhookStatus) IsValid() bool {
	switch s {
	case WebhookStatusReceived, WebhookStatusProcessed, WebhookStatusFailed,
		WebhookStatusManualPending, WebhookStatusManualArrived, WebhookStatusLateArrival:
		return true
	}
	return false
}

// WebhookEvent stores one provider delivery. IdempotencyHash is unique at
// the storage layer, enforcing at-most-once processing.
type WebhookEvent struct {
	shared.BaseEntity
	Provider        string
	ExternalID      string
	IdempotencyHash string
	Payload         string
	Status          WebhookStatus
	DepositID       *uuid.UUID
	ErrorMessage    string
}

// HashPayload computes the idempotency hash of a raw webhook body
func HashPayload(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// NewWebhookEvent stores a raw delivery in the received state
func NewWebhookEvent(provider string, externalID string, raw []byte) (*WebhookEvent, error) {
	if provider == "" {
		return nil, shared.NewDomainError("INVALID_PROVIDER", "Provider cannot be empty")
	}
	if len(raw) == 0 {
		return nil, shared.NewDomainError("INVALID_PAYLOAD", "Payload cannot be empty")
	}

	return &WebhookEvent{
		BaseEntity:      shared.NewBaseEntity(),
		Provider:        provider,
		ExternalID:      externalID,
		IdempotencyHash: HashPayload(raw),
		Payload:         string(raw),
		Status:          WebhookStatusReceived,
	}, nil
}

// NewManualWebhookEvent records an admin confirmation made before the
// provider's webhook has arrived
func NewManualWebhookEvent(provider string, externalID string, depositID uuid.UUID, note string) *WebhookEvent {
	e := &WebhookEvent{
		BaseEntity:      shared.NewBaseEntity(),
		Provider:        provider,
		ExternalID:      externalID,
		IdempotencyHash: HashPayload([]byte("manual:" + externalID + ":" + uuid.NewString())),
		Payload:         note,
		Status:          WebhookStatusManualPending,
	}
	id := depositID
	e.DepositID = &id
	return e
}

// LinkDeposit attaches the matched deposit
func (e *WebhookEvent) LinkDeposit(depositID uuid.UUID) {
	id := depositID
	e.DepositID = &id
}

// MarkProcessed records successful handling
func (e *WebhookEvent) MarkProcessed() {
	e.Status = WebhookStatusProcessed
}

// MarkFailed records a processing error
func (e *WebhookEvent) MarkFailed(msg string) {
	e.Status = WebhookStatusFailed
	e.ErrorMessage = msg
}

// MarkLateArrival records that the deposit was already settled
func (e *WebhookEvent) MarkLateArrival() {
	e.Status = WebhookStatusLateArrival
}

// MarkManualArrived flips a manual placeholder after the real webhook
// showed up
func (e *WebhookEvent) MarkManualArrived() {
	e.Status = WebhookStatusManualArrived
}
