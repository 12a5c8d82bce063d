package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
)

func (app *application) serverError(w http.ResponseWriter, err error) {
	trace := fmt.Sprintf("%s\n%s", err.Error(), debug.Stack())
	_ = app.errorLog.Output(2, trace)

	app.writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": http.StatusText(http.StatusInternalServerError),
		"kind":  "internal",
	})
}

func (app *application) unauthorized(w http.ResponseWriter, message string) {
	app.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": message, "kind": "unauthorized"})
}

func (app *application) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (app *application) healthz(w http.ResponseWriter, r *http.Request) {
	app.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
