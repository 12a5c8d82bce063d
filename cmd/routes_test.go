package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"receiptRelay/internal/config"
	"receiptRelay/utils"
)

func newTestApp(t *testing.T, jwtSecret string) (*application, *httptest.Server) {
	t.Helper()
	vendor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":0,"latest_receipt":"ABC","receipt":{"expires_date":"2025-01-01"}}`))
	}))
	t.Cleanup(vendor.Close)

	var cfg config.Config
	cfg.AppStore.SharedSecret = "s3cret"
	cfg.AppStore.ProductionURL = vendor.URL
	cfg.AppStore.SandboxURL = vendor.URL
	cfg.AppStore.TimeoutSeconds = 5
	cfg.Auth.JWTSecret = jwtSecret

	quiet := log.New(io.Discard, "", 0)
	app, err := initializeApp(cfg, quiet, quiet)
	if err != nil {
		t.Fatalf("initialize app: %v", err)
	}
	srv := httptest.NewServer(app.routes())
	t.Cleanup(srv.Close)
	return app, srv
}

func postVerify(t *testing.T, srv *httptest.Server, path, token string) *http.Response {
	t.Helper()
	form := url.Values{"receipt-data": {"cmVjZWlwdA=="}, "sandbox": {"1"}}
	req, err := http.NewRequest(http.MethodPost, srv.URL+path, strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRoutes_VerifyReceipt(t *testing.T) {
	_, srv := newTestApp(t, "")

	for _, path := range []string{"/verifyReceipt", "/verifyProduct.php"} {
		resp := postVerify(t, srv, path, "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.StatusCode)
		}
		if resp.Header.Get("X-Request-ID") == "" {
			t.Errorf("%s: expected X-Request-ID header", path)
		}
		var body map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["latest_receipt"] != "ABC" || body["expires_date"] != "2025-01-01" || body["status"] != float64(0) {
			t.Errorf("%s: unexpected body %v", path, body)
		}
	}
}

func TestRoutes_RequestIDIsEchoed(t *testing.T) {
	_, srv := newTestApp(t, "")

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("request id mismatch: %q", got)
	}
}

func TestRoutes_UnknownRoutes(t *testing.T) {
	_, srv := newTestApp(t, "")

	resp, err := srv.Client().Get(srv.URL + "/verifyReceipt")
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", resp.StatusCode)
	}

	resp, err = srv.Client().Post(srv.URL+"/nope", "application/json", bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestRoutes_JWTRequiredWhenConfigured(t *testing.T) {
	_, srv := newTestApp(t, "jwt-key")

	if resp := postVerify(t, srv, "/verifyReceipt", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
	if resp := postVerify(t, srv, "/verifyReceipt", "garbage"); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", resp.StatusCode)
	}

	m, _ := utils.NewManager("jwt-key")
	token, err := m.NewJWT("backend", time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if resp := postVerify(t, srv, "/verifyReceipt", token); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", resp.StatusCode)
	}
}

func TestRecoverPanic(t *testing.T) {
	quiet := log.New(io.Discard, "", 0)
	app := &application{errorLog: quiet, infoLog: quiet}
	h := app.recoverPanic(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if rec.Header().Get("Connection") != "close" {
		t.Errorf("expected Connection: close")
	}
}
