package handlers

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse writes a JSON error with an actionable suggestion and
// returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, message, suggestion string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":      message,
		"suggestion": suggestion,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}
