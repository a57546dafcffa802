package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/reeltrack/reeltrack/internal/handler/dto"
)

// writeError writes the API error body used by every endpoint.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Error: message, Code: code})
}
