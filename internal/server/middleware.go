package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const usernameKey contextKey = "username"

// loggingMiddleware logs all incoming requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)

		// Create a response writer to capture the status code
		rw := &responseWriter{w, http.StatusOK}

		// Process the request
		next.ServeHTTP(rw, r)

		// Log the request
		duration := time.Since(start)
		s.log.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rw.status).
			Str("duration", duration.String()).
			Msg("Request processed")
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// requireAuth rejects requests without a bearer token for the current login.
func (s *Server) requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, ok := s.authenticate(w, r)
		if !ok {
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), usernameKey, username)))
	})
}

// requireAuthOnceRegistered lets anyone register the first user. Once a
// user exists, only its current login may replace it.
func (s *Server) requireAuthOnceRegistered(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		registered, err := s.auth.Registered(r.Context())
		if err != nil {
			s.log.Error().Err(err).Msg("Failed to look up the registered user")
			status, message := errorStatus(err, "Failed to register user")
			writeError(w, status, message)
			return
		}
		if !registered {
			next(w, r)
			return
		}

		username, ok := s.authenticate(w, r)
		if !ok {
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), usernameKey, username)))
	})
}

// authenticate writes a 401 and returns false unless the request carries a
// bearer token for the current login.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		writeError(w, http.StatusUnauthorized, "Authorization required")
		return "", false
	}

	username, err := s.auth.Authenticate(token)
	if err != nil {
		s.log.Debug().Err(err).Msg("Rejected token")
		writeError(w, http.StatusUnauthorized, "Invalid or expired token")
		return "", false
	}
	return username, true
}

func usernameFrom(ctx context.Context) string {
	username, _ := ctx.Value(usernameKey).(string)
	return username
}
