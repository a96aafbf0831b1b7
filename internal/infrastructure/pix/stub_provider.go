package pix

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chrono60/backend/internal/domain/payment"
)

// StubProvider is an in-process payment.PixProvider for development and
// tests. Every charge and transfer succeeds immediately and is kept in
// memory so tests can inspect what was requested.
type StubProvider struct {
	mu        sync.Mutex
	charges   []payment.ChargeRequest
	transfers []payment.TransferRequest
	logger    *zap.Logger
}

// NewStubProvider creates a stub PIX provider
func NewStubProvider(logger *zap.Logger) *StubProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StubProvider{logger: logger}
}

func (s *StubProvider) CreateCharge(_ context.Context, req payment.ChargeRequest) (*payment.ChargeResponse, error) {
	s.mu.Lock()
	s.charges = append(s.charges, req)
	s.mu.Unlock()

	txID := "stub-" + uuid.New().String()
	s.logger.Debug("stub pix charge created", zap.String("transaction_id", txID))

	return &payment.ChargeResponse{
		TransactionID: txID,
		QRCode:        "iVBORw0KGgo=",
		QRCodeText:    fmt.Sprintf("00020126stub%s5204000053039865802BR", txID),
		ExpiresAt:     time.Now().Add(req.ExpiresAfter),
	}, nil
}

func (s *StubProvider) CreateTransfer(_ context.Context, req payment.TransferRequest) (*payment.TransferResponse, error) {
	s.mu.Lock()
	s.transfers = append(s.transfers, req)
	s.mu.Unlock()

	transferID := "stub-transfer-" + uuid.New().String()
	s.logger.Debug("stub pix transfer created", zap.String("transfer_id", transferID))

	return &payment.TransferResponse{
		TransferID: transferID,
		Status:     "COMPLETED",
	}, nil
}

// Charges returns a copy of the charge requests seen so far
func (s *StubProvider) Charges() []payment.ChargeRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]payment.ChargeRequest, len(s.charges))
	copy(out, s.charges)
	return out
}

// Transfers returns a copy of the transfer requests seen so far
func (s *StubProvider) Transfers() []payment.TransferRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]payment.TransferRequest, len(s.transfers))
	copy(out, s.transfers)
	return out
}

var _ payment.PixProvider = (*StubProvider)(nil)
