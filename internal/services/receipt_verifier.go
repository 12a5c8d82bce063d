package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"receiptRelay/internal/models"
)

const (
	appStoreProductionURL = "https://buy.itunes.apple.com/verifyReceipt"
	appStoreSandboxURL    = "https://sandbox.itunes.apple.com/verifyReceipt"

	defaultVerifyTimeout = 15 * time.Second
	maxErrorBodyBytes    = 4 << 10
)

var errMissingStatus = errors.New("status is missing or null")

type ReceiptVerifierConfig struct {
	SharedSecret string

	// Empty values fall back to Apple's public verifyReceipt endpoints.
	ProductionURL string
	SandboxURL    string

	// Used only when HTTPClient is nil.
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// ReceiptVerifier relays receipts to the App Store verifyReceipt API.
// It keeps no per-request state and is safe for concurrent use.
type ReceiptVerifier struct {
	sharedSecret  string
	productionURL string
	sandboxURL    string

	client *http.Client
	logger *slog.Logger
}

func NewReceiptVerifier(cfg ReceiptVerifierConfig) (*ReceiptVerifier, error) {
	if strings.TrimSpace(cfg.SharedSecret) == "" {
		return nil, fmt.Errorf("receipt verifier: %w", models.ErrMissingSecret)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultVerifyTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	prodURL := strings.TrimSpace(cfg.ProductionURL)
	if prodURL == "" {
		prodURL = appStoreProductionURL
	}
	sandboxURL := strings.TrimSpace(cfg.SandboxURL)
	if sandboxURL == "" {
		sandboxURL = appStoreSandboxURL
	}

	v := &ReceiptVerifier{
		sharedSecret:  cfg.SharedSecret,
		productionURL: prodURL,
		sandboxURL:    sandboxURL,
		client:        client,
		logger:        logger,
	}
	logger.Info("receipt verifier initialized",
		"productionURL", v.productionURL,
		"sandboxURL", v.sandboxURL,
		"timeout", client.Timeout,
	)
	return v, nil
}

// Verify posts receiptData to the production or sandbox endpoint and reduces
// the vendor response. It makes exactly one outbound call and never retries.
func (v *ReceiptVerifier) Verify(ctx context.Context, receiptData string, useSandbox bool) (models.VerificationResult, error) {
	if strings.TrimSpace(receiptData) == "" {
		return models.VerificationResult{}, fmt.Errorf("receipt-data is required: %w", models.ErrInvalidInput)
	}

	endpoint := v.Endpoint(useSandbox)
	body, err := json.Marshal(models.VendorRequest{
		ReceiptData: receiptData,
		Password:    v.sharedSecret,
	})
	if err != nil {
		return models.VerificationResult{}, fmt.Errorf("encode verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return models.VerificationResult{}, fmt.Errorf("build verify request: %w", err)
	}
	req.ContentLength = int64(len(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := v.client.Do(req)
	if err != nil {
		v.logger.Warn("verifyReceipt request failed",
			"endpoint", endpoint,
			"sandbox", useSandbox,
			"err", err,
		)
		return models.VerificationResult{}, &TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		v.logger.Warn("verifyReceipt non-200 response",
			"endpoint", endpoint,
			"sandbox", useSandbox,
			"httpStatus", resp.StatusCode,
			"elapsed", time.Since(started),
		)
		return models.VerificationResult{}, &TransportError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(b)),
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		// StatusCode stays zero: the vendor answered 200 but the body was lost.
		return models.VerificationResult{}, &TransportError{Endpoint: endpoint, Err: fmt.Errorf("read response body: %w", err)}
	}
	var vendor models.VendorResponse
	if err := json.Unmarshal(raw, &vendor); err != nil {
		v.logger.Warn("verifyReceipt malformed body",
			"endpoint", endpoint,
			"bytes", len(raw),
			"err", err,
		)
		return models.VerificationResult{}, &MalformedResponseError{Endpoint: endpoint, Err: err}
	}
	if vendor.Status == nil {
		v.logger.Warn("verifyReceipt response without status",
			"endpoint", endpoint,
			"bytes", len(raw),
		)
		return models.VerificationResult{}, &MalformedResponseError{Endpoint: endpoint, Err: errMissingStatus}
	}

	result := models.ResultFromVendor(vendor)
	v.logger.Info("verifyReceipt done",
		"sandbox", useSandbox,
		"status", result.Status,
		"statusText", StatusText(result.Status),
		"hasLatestReceipt", result.LatestReceipt != "",
		"hasExpiresDate", result.ExpiresDate != "",
		"elapsed", time.Since(started),
	)
	return result, nil
}

// Endpoint returns the verifyReceipt URL used for the given environment.
func (v *ReceiptVerifier) Endpoint(useSandbox bool) string {
	if useSandbox {
		return v.sandboxURL
	}
	return v.productionURL
}

// TransportError reports a failed exchange with the App Store. StatusCode is
// zero when no HTTP response was received.
type TransportError struct {
	Endpoint   string
	StatusCode int
	Status     string
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.StatusCode == 0 {
		return fmt.Sprintf("app store request failed: %v", e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("app store responded %s: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("app store responded %s", e.Status)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResponseError means the App Store answered 200 with a body that is not valid JSON.
type MalformedResponseError struct {
	Endpoint string
	Err      error
}

func (e *MalformedResponseError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("malformed app store response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
