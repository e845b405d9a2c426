package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/RennanRnz/rfv-project/internal/contracts"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string   `json:"error"` // machine-readable kind
	Message string   `json:"message"`
	Missing []string `json:"missing,omitempty"`
	Found   []string `json:"found,omitempty"`
	Row     int      `json:"row,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, kind, message string) {
	respondJSON(w, status, ErrorResponse{Error: kind, Message: message})
}

// classify maps an analysis error to its HTTP status and body.
// Data errors are the caller's fault and surface as 422.
func classify(err error) (int, ErrorResponse) {
	var (
		missing  *contracts.MissingFieldError
		date     *contracts.DateParseError
		invalid  *contracts.InvalidValueError
		tooLarge *http.MaxBytesError
	)

	switch {
	case errors.As(err, &missing):
		return http.StatusUnprocessableEntity, ErrorResponse{
			Error: "missing_field", Message: err.Error(), Missing: missing.Missing, Found: missing.Found,
		}
	case errors.As(err, &date):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: "date_parse", Message: err.Error(), Row: date.Row}
	case errors.As(err, &invalid):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: "invalid_value", Message: err.Error(), Row: invalid.Row}
	case errors.Is(err, contracts.ErrEmptyDataset):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: "empty_dataset", Message: err.Error()}
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, ErrorResponse{Error: "too_large", Message: err.Error()}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "internal", Message: "Segmentation failed"}
	}
}
