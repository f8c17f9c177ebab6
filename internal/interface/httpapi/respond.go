package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"hbpr-validation-service/pkg/sentinel"
)

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps sentinel errors to status codes. Internal errors never
// leak their description.
func writeError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	resp := errorResponse{Error: code}
	if status != http.StatusInternalServerError {
		resp.ErrorDescription = err.Error()
	}
	writeJSON(w, status, resp)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, sentinel.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, sentinel.ErrInvalidInput):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, sentinel.ErrFlightMismatch):
		return http.StatusUnprocessableEntity, "flight_mismatch"
	case errors.Is(err, sentinel.ErrUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	}
	return http.StatusInternalServerError, "internal_error"
}
