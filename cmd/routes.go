package main

import (
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	standardMiddleware := alice.New(app.recoverPanic, app.requestID, app.logRequest, secureHeaders, makeResponseJSON)
	authMiddleware := alice.New(app.JWTMiddleware)

	mux := pat.New()

	mux.Get("/healthz", http.HandlerFunc(app.healthz))

	// Receipt relay
	mux.Post("/verifyReceipt", authMiddleware.ThenFunc(app.receiptHandler.VerifyReceipt))
	mux.Post("/verifyProduct.php", authMiddleware.ThenFunc(app.receiptHandler.VerifyReceipt))

	return standardMiddleware.Then(mux)
}
