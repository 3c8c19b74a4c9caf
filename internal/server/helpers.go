package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// writeJSON serializes v to the response with the JSON content type.
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}
