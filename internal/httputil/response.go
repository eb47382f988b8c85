package httputil

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the error body shape used across the API.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// RespondJSON writes data as a JSON response with the given status code.
func RespondJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// RespondError writes an error response as {"detail": "..."}.
func RespondError(w http.ResponseWriter, detail string, statusCode int) {
	RespondJSON(w, ErrorResponse{Detail: detail}, statusCode)
}
