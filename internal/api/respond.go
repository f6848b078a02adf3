package api

import (
	"encoding/json"
	"net/http"
)

// successEnvelope wraps every successful response body.
type successEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// errorEnvelope wraps every error response body.
type errorEnvelope struct {
	Success bool          `json:"success"`
	Error   *errorBody    `json:"error,omitempty"`
	Errors  []FieldError  `json:"errors,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(successEnvelope{Success: true, Data: data})
}

func respondErrorCode(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{
		Error: &errorBody{Code: code, Message: message},
	})
}

// respondValidationErrors returns the full list of field failures so a
// client can surface all of them at once.
func respondValidationErrors(w http.ResponseWriter, fieldErrors []FieldError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(errorEnvelope{
		Error:  &errorBody{Code: CodeValidation, Message: "validation failed"},
		Errors: fieldErrors,
	})
}
