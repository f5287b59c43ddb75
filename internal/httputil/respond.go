// Package httputil provides the JSON response writers shared by handlers
// and middleware.
package httputil

import (
	"encoding/json"
	"net/http"
)

type errorEnvelope struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// WriteJSON writes a JSON body with the given status code.
func WriteJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

// WriteErrorResponse writes the canonical error envelope.
func WriteErrorResponse(w http.ResponseWriter, _ *http.Request, status int, code, message string, details map[string]interface{}) {
	WriteJSON(w, status, errorEnvelope{Error: message, Code: code, Details: details})
}

// Unauthorized writes a 401 envelope with an optional custom message.
func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = "authentication required"
	}
	WriteJSON(w, http.StatusUnauthorized, errorEnvelope{Error: message, Code: "UNAUTHORIZED"})
}
