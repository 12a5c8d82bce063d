package main

import (
	"log"
	"log/slog"
	"os"

	"receiptRelay/internal/config"
	"receiptRelay/internal/handlers"
	"receiptRelay/internal/services"
	"receiptRelay/utils"
)

type application struct {
	errorLog       *log.Logger
	infoLog        *log.Logger
	receiptHandler *handlers.ReceiptHandler
	// nil when auth.jwt_secret is unset; the verify route is then open.
	tokens *utils.Manager
}

func initializeApp(cfg config.Config, errorLog, infoLog *log.Logger) (*application, error) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil)).With("component", "receipt_verifier")

	// Services
	verifier, err := services.NewReceiptVerifier(services.ReceiptVerifierConfig{
		SharedSecret:  cfg.AppStore.SharedSecret,
		ProductionURL: cfg.AppStore.ProductionURL,
		SandboxURL:    cfg.AppStore.SandboxURL,
		Timeout:       cfg.Timeout(),
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	var tokens *utils.Manager
	if cfg.Auth.JWTSecret != "" {
		tokens, err = utils.NewManager(cfg.Auth.JWTSecret)
		if err != nil {
			return nil, err
		}
	} else {
		infoLog.Println("JWT auth disabled: /verifyReceipt accepts unauthenticated callers")
	}

	// Handlers
	receiptHandler := handlers.NewReceiptHandler(verifier, errorLog)

	return &application{
		errorLog:       errorLog,
		infoLog:        infoLog,
		receiptHandler: receiptHandler,
		tokens:         tokens,
	}, nil
}
