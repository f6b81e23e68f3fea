package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/agenda-distribuida/event-agenda/internal/auth"
	"github.com/agenda-distribuida/event-agenda/internal/models"
)

// AuthHandler handles registration and the login session
type AuthHandler struct {
	svc *auth.Service
	log *zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(svc *auth.Service, log *zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		svc: svc,
		log: log,
	}
}

// Register stores the single user credential
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cred, err := h.svc.Register(r.Context(), req)
	if err != nil {
		h.log.Error().Err(err).Str("username", req.Username).Msg("Failed to register user")
		status, message := errorStatus(err, "Failed to register user")
		writeError(w, status, message)
		return
	}

	if previous := usernameFrom(r.Context()); previous != "" {
		h.log.Info().Str("previous", previous).Str("username", cred.Username).Msg("Registered user replaced")
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"status": "success",
		"user":   cred,
	})
}

// Login checks the credentials and starts the session
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, cred, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		// No-credential and mismatch share one message
		status, message := errorStatus(err, "Failed to log in")
		writeError(w, status, message)
		return
	}

	writeJSON(w, http.StatusOK, models.LoginResponse{
		Status:    "success",
		Token:     token.Value,
		ExpiresAt: token.ExpiresAt,
		Username:  cred.Username,
	})
}

// Logout ends the session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.svc.Logout()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
	})
}

// Status reports whether a user is logged in
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"session": h.svc.Session(),
	})
}
