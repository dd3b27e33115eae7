// Package handlers exposes the engine over HTTP.
package handlers

import (
	"encoding/json"
	"net/http"
)

// WriteJSON encodes v as the JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Error string `json:"error"`
}

// WriteError writes a JSON error body.
func WriteError(w http.ResponseWriter, status int, message string) {
	_ = WriteJSON(w, status, errorResponse{Error: message})
}
