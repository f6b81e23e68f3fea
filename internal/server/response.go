package server

import (
	"encoding/json"
	"net/http"

	"github.com/agenda-distribuida/event-agenda/internal/repository"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"status":  "error",
		"message": message,
	})
}

// errorStatus maps an error to the HTTP status and message shown to the
// client. Validation messages are passed through; everything else is
// generic.
func errorStatus(err error, fallback string) (int, string) {
	switch repository.KindOf(err) {
	case repository.KindNotFound:
		return http.StatusNotFound, "Event not found"
	case repository.KindValidationFailed:
		return http.StatusBadRequest, err.Error()
	case repository.KindDuplicateRegistration:
		return http.StatusConflict, "A user is already registered"
	case repository.KindUnauthorized:
		return http.StatusUnauthorized, "Invalid email or password"
	case repository.KindStorageUnavailable:
		return http.StatusServiceUnavailable, "Storage unavailable"
	default:
		return http.StatusInternalServerError, fallback
	}
}
