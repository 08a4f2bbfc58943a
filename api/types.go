package api

import (
	"encoding/json"
	"net/http"
)

// Response status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusIgnored = "ignored"
)

// ActivationResponse is the JSON body returned by the activation routes.
type ActivationResponse struct {
	Status  string `json:"status"`
	Service string `json:"service,omitempty"`
	Event   string `json:"event,omitempty"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is the JSON body of the health and probe routes.
type HealthResponse struct {
	Status string `json:"status"`
}

// WriteJSON writes v with the given status code. Activation routes may be
// called from browsers, so every JSON response allows any origin.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
