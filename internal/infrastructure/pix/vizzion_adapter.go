package pix

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/chrono60/backend/internal/domain/payment"
	"github.com/chrono60/backend/internal/infrastructure/config"
)

const (
	vizzionChargePath   = "/api/v1/gateway/pix/receive"
	vizzionTransferPath = "/api/v1/gateway/pix/send"
)

var (
	ErrProviderUnavailable   = errors.New("pix provider unavailable")
	ErrProviderRequestFailed = errors.New("pix provider request failed")
)

// VizzionAdapter implements payment.PixProvider against the Vizzion PIX
// gateway. All calls carry the configured client credentials and respect
// the context deadline in addition to the HTTP client timeout.
type VizzionAdapter struct {
	cfg        config.PixConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewVizzionAdapter creates a Vizzion PIX adapter
func NewVizzionAdapter(cfg config.PixConfig, logger *zap.Logger) (*VizzionAdapter, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("pix: base_url is required")
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("pix: client credentials are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &VizzionAdapter{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

type vizzionChargeRequest struct {
	Amount      string `json:"amount"`
	PayerName   string `json:"payer_name"`
	PayerEmail  string `json:"payer_email,omitempty"`
	PayerTaxID  string `json:"payer_document,omitempty"`
	CallbackURL string `json:"callback_url"`
	ExpiresIn   int    `json:"expires_in_seconds"`
}

type vizzionChargeResponse struct {
	TransactionID string `json:"transaction_id"`
	QRCode        string `json:"qr_code_base64"`
	QRCodeText    string `json:"qr_code_text"`
	ExpiresAt     string `json:"expires_at"`
}

type vizzionTransferRequest struct {
	Amount      string `json:"amount"`
	PixKey      string `json:"pix_key"`
	PixKeyType  string `json:"pix_key_type"`
	OwnerName   string `json:"owner_name"`
	OwnerTaxID  string `json:"owner_document,omitempty"`
	Description string `json:"description,omitempty"`
}

type vizzionTransferResponse struct {
	TransferID string `json:"transfer_id"`
	Status     string `json:"status"`
}

type vizzionErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreateCharge creates a PIX charge and returns the QR code for payment
func (a *VizzionAdapter) CreateCharge(ctx context.Context, req payment.ChargeRequest) (*payment.ChargeResponse, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("pix: charge amount must be positive")
	}

	callbackURL := req.CallbackURL
	if callbackURL == "" {
		callbackURL = a.cfg.CallbackURL
	}

	body := vizzionChargeRequest{
		Amount:      req.Amount.StringFixed(2),
		PayerName:   req.PayerName,
		PayerEmail:  req.PayerEmail,
		PayerTaxID:  req.PayerTaxID,
		CallbackURL: callbackURL,
		ExpiresIn:   int(req.ExpiresAfter.Seconds()),
	}

	respBody, err := a.doRequest(ctx, http.MethodPost, vizzionChargePath, body)
	if err != nil {
		return nil, err
	}

	var data vizzionChargeResponse
	if err := json.Unmarshal(respBody, &data); err != nil {
		return nil, fmt.Errorf("vizzion: failed to parse charge response: %w", err)
	}
	if data.TransactionID == "" {
		return nil, fmt.Errorf("%w: charge response missing transaction_id", ErrProviderRequestFailed)
	}

	resp := &payment.ChargeResponse{
		TransactionID: data.TransactionID,
		QRCode:        data.QRCode,
		QRCodeText:    data.QRCodeText,
	}
	if data.ExpiresAt != "" {
		if t, err := time.Parse(time.RFC3339, data.ExpiresAt); err == nil {
			resp.ExpiresAt = t
		}
	}
	if resp.ExpiresAt.IsZero() {
		resp.ExpiresAt = time.Now().Add(req.ExpiresAfter)
	}

	a.logger.Debug("pix charge created",
		zap.String("transaction_id", resp.TransactionID),
		zap.String("amount", req.Amount.StringFixed(2)))

	return resp, nil
}

// CreateTransfer pays out to the given PIX key
func (a *VizzionAdapter) CreateTransfer(ctx context.Context, req payment.TransferRequest) (*payment.TransferResponse, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("pix: transfer amount must be positive")
	}
	if req.PixKey == "" {
		return nil, errors.New("pix: transfer requires a pix key")
	}

	body := vizzionTransferRequest{
		Amount:      req.Amount.StringFixed(2),
		PixKey:      req.PixKey,
		PixKeyType:  req.PixKeyType,
		OwnerName:   req.OwnerName,
		OwnerTaxID:  req.OwnerTaxID,
		Description: req.Description,
	}

	respBody, err := a.doRequest(ctx, http.MethodPost, vizzionTransferPath, body)
	if err != nil {
		return nil, err
	}

	var data vizzionTransferResponse
	if err := json.Unmarshal(respBody, &data); err != nil {
		return nil, fmt.Errorf("vizzion: failed to parse transfer response: %w", err)
	}
	if data.TransferID == "" {
		return nil, fmt.Errorf("%w: transfer response missing transfer_id", ErrProviderRequestFailed)
	}

	a.logger.Debug("pix transfer created",
		zap.String("transfer_id", data.TransferID),
		zap.String("status", data.Status))

	return &payment.TransferResponse{
		TransferID: data.TransferID,
		Status:     data.Status,
	}, nil
}

func (a *VizzionAdapter) doRequest(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("vizzion: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.cfg.BaseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("vizzion: failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(a.cfg.ClientID, a.cfg.ClientSecret)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("vizzion: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp vizzionErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Code != "" {
			return nil, fmt.Errorf("%w: %s - %s", ErrProviderRequestFailed, errResp.Code, errResp.Message)
		}
		return nil, fmt.Errorf("%w: HTTP %d", ErrProviderRequestFailed, resp.StatusCode)
	}

	return respBody, nil
}

var _ payment.PixProvider = (*VizzionAdapter)(nil)
