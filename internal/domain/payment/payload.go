package payment

import (
	"encoding/json"
	"strings"

	"github.com/chrono60/backend/internal/domain/shared"
)

// canonical provider statuses after normalization
const (
	ProviderStatusPaid      = "PAID"
	ProviderStatusPending   = "PENDING"
	ProviderStatusCancelled = "CANCELLED"
	ProviderStatusExpired   = "EXPIRED"
)

var providerStatusMap = map[string]string{
	"OK":               ProviderStatusPaid,
	"COMPLETED":        ProviderStatusPaid,
	"APPROVED":         ProviderStatusPaid,
	"SUCCESS":          ProviderStatusPaid,
	"TRANSACTION_PAID": ProviderStatusPaid,
	"PAID":             ProviderStatusPaid,
	"PENDING":          ProviderStatusPending,
	"FAILED":           ProviderStatusCancelled,
	"REJECTED":         ProviderStatusCancelled,
	"CANCELED":         ProviderStatusCancelled,
	"CANCELLED":        ProviderStatusCancelled,
	"EXPIRED":          ProviderStatusExpired,
}

// NormalizeProviderStatus maps a raw provider status to a canonical one.
// Returns false when the status is unknown.
func NormalizeProviderStatus(raw string) (string, bool) {
	s, ok := providerStatusMap[strings.ToUpper(strings.TrimSpace(raw))]
	return s, ok
}

// WebhookPayload is the normalized view of a provider notification
type WebhookPayload struct {
	TransactionID string
	RawStatus     string
}

// ParseWebhookPayload extracts the transaction id and status from a raw
// provider body. Providers are inconsistent about field placement, so
// extraction tries transaction.id, then transactionId, then id for the
// external id, and status, then event, then transaction.status for the
// status.
func ParseWebhookPayload(raw []byte) (*WebhookPayload, error) {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, shared.NewDomainError("INVALID_PAYLOAD", "Webhook payload is not valid JSON")
	}

	tx, _ := body["transaction"].(map[string]any)

	id := stringField(tx, "id")
	if id == "" {
		id = stringField(body, "transactionId")
	}
	if id == "" {
		id = stringField(body, "id")
	}
	if id == "" {
		return nil, shared.NewDomainError("MISSING_TRANSACTION_ID", "Webhook payload has no transaction id")
	}

	status := stringField(body, "status")
	if status == "" {
		status = stringField(body, "event")
	}
	if status == "" {
		status = stringField(tx, "status")
	}
	if status == "" {
		return nil, shared.NewDomainError("MISSING_STATUS", "Webhook payload has no status")
	}

	return &WebhookPayload{TransactionID: id, RawStatus: status}, nil
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
