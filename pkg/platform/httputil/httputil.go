// Package httputil writes the JSON envelope shared by every API route:
// {"success": bool, "data": ..., "error": "..."}.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "trustverify/pkg/domain-errors"
)

type errorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a domain error to its HTTP status. Internal errors never
// leak their message.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	message := dErrors.MessageOf(err)
	if code == dErrors.CodeInternal || message == "" {
		message = "internal error"
	}
	WriteJSON(w, dErrors.HTTPStatus(code), errorEnvelope{Success: false, Error: message})
}
