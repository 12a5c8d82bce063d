package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"receiptRelay/internal/models"
	"receiptRelay/internal/services"
)

const maxVerifyBodyBytes = 1 << 20

// ReceiptVerifier is the relay operation the handler delegates to.
type ReceiptVerifier interface {
	Verify(ctx context.Context, receiptData string, useSandbox bool) (models.VerificationResult, error)
}

type ReceiptHandler struct {
	Service  ReceiptVerifier
	ErrorLog *log.Logger
}

func NewReceiptHandler(service ReceiptVerifier, errorLog *log.Logger) *ReceiptHandler {
	return &ReceiptHandler{Service: service, ErrorLog: errorLog}
}

// VerifyReceipt relays receipt-data to the App Store and writes the reduced result.
func (h *ReceiptHandler) VerifyReceipt(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		writeError(w, http.StatusNotImplemented, errorResponse{Error: "receipt verification is not configured", Kind: "internal"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxVerifyBodyBytes)
	req, err := parseVerificationRequest(r)
	if err != nil {
		status, body := receiptErrorStatus(err)
		writeError(w, status, body)
		return
	}

	result, err := h.Service.Verify(r.Context(), req.ReceiptData, req.UseSandbox)
	if err != nil {
		status, body := receiptErrorStatus(err)
		if status >= http.StatusInternalServerError && h.ErrorLog != nil {
			h.ErrorLog.Printf("verify receipt (sandbox=%t): %v", req.UseSandbox, err)
		}
		writeError(w, status, body)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Code  int    `json:"code,omitempty"`
}

func writeError(w http.ResponseWriter, status int, body errorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// receiptErrorStatus maps a verification error to the caller-facing status and body.
func receiptErrorStatus(err error) (int, errorResponse) {
	var transportErr *services.TransportError
	var malformedErr *services.MalformedResponseError
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: "invalid_input"}
	case errors.As(err, &transportErr):
		msg := "app store request failed"
		if transportErr.StatusCode != 0 {
			msg = "app store responded " + transportErr.Status
		}
		return http.StatusBadGateway, errorResponse{Error: msg, Kind: "transport", Code: transportErr.StatusCode}
	case errors.As(err, &malformedErr):
		return http.StatusBadGateway, errorResponse{Error: malformedErr.Error(), Kind: "malformed_response"}
	default:
		return http.StatusInternalServerError, errorResponse{Error: "internal error", Kind: "internal"}
	}
}

func parseVerificationRequest(r *http.Request) (models.VerificationRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body struct {
			ReceiptData string          `json:"receipt-data"`
			Sandbox     json.RawMessage `json:"sandbox"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			return models.VerificationRequest{}, fmt.Errorf("invalid body: %v: %w", err, models.ErrInvalidInput)
		}
		return models.VerificationRequest{
			ReceiptData: body.ReceiptData,
			UseSandbox:  sandboxFromJSON(body.Sandbox),
		}, nil
	}

	// Body fields only; query parameters never select the environment.
	return models.VerificationRequest{
		ReceiptData: r.PostFormValue("receipt-data"),
		UseSandbox:  isSandboxFlag(r.PostFormValue("sandbox")),
	}, nil
}

// isSandboxFlag reports whether v equals 1. Any other value selects production.
func isSandboxFlag(v string) bool {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return err == nil && f == 1
}

func sandboxFromJSON(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return isSandboxFlag(s)
	}
	return isSandboxFlag(string(raw))
}
