package handler

import (
	"encoding/json"
	"net/http"

	"timedquiz/internal/service"
)

// ErrorResponse is the body of every failed call
type ErrorResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Valid: false, Message: message})
}

// statusFor maps a service error to an HTTP status
func statusFor(err error) int {
	switch service.KindOf(err) {
	case service.KindNotFound, service.KindInactiveTest:
		return http.StatusNotFound
	case service.KindAlreadyCompleted:
		return http.StatusConflict
	case service.KindExpired:
		return http.StatusForbidden
	case service.KindInvalid:
		return http.StatusBadRequest
	case service.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
