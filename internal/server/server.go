package server

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/agenda-distribuida/event-agenda/internal/auth"
	"github.com/agenda-distribuida/event-agenda/internal/config"
	"github.com/agenda-distribuida/event-agenda/internal/service"
)

type Server struct {
	Server   *http.Server
	log      *zerolog.Logger
	db       *sql.DB
	auth     *auth.Service
	eventAPI *EventHandler
	authAPI  *AuthHandler
}

func New(cfg *config.Config, db *sql.DB, events service.EventService, authSvc *auth.Service, log *zerolog.Logger) *Server {
	s := &Server{
		Server: &http.Server{
			Addr:         cfg.Addr(),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
		db:       db,
		log:      log,
		auth:     authSvc,
		eventAPI: NewEventHandler(events, log),
		authAPI:  NewAuthHandler(authSvc, log),
	}

	// Setup routes
	r := mux.NewRouter()
	s.setupRoutes(r)

	s.Server.Handler = cors.New(cors.Options{
		AllowedOrigins: cfg.Server.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(r)

	return s
}

func (s *Server) setupRoutes(r *mux.Router) {
	// Use the logging middleware for all routes
	r.Use(s.loggingMiddleware)

	// Health check endpoint
	r.HandleFunc("/health", s.healthCheck).Methods("GET")

	// API v1 routes
	api := r.PathPrefix("/api/v1").Subrouter()

	// Events routes
	events := api.PathPrefix("/events").Subrouter()
	events.HandleFunc("", s.eventAPI.ListEvents).Methods("GET")
	events.HandleFunc("/{id:[0-9]+}", s.eventAPI.GetEvent).Methods("GET")
	events.Handle("", s.requireAuth(s.eventAPI.CreateEvent)).Methods("POST")
	events.Handle("", s.requireAuth(s.eventAPI.ReplaceEvents)).Methods("PUT")
	events.Handle("/{id:[0-9]+}", s.requireAuth(s.eventAPI.UpdateEvent)).Methods("PUT")
	events.Handle("/{id:[0-9]+}", s.requireAuth(s.eventAPI.DeleteEvent)).Methods("DELETE")

	// Calendar routes
	api.HandleFunc("/calendar/markers", s.eventAPI.GetMarkers).Methods("GET")
	api.HandleFunc("/calendar.ics", s.eventAPI.ExportCalendar).Methods("GET")

	// Auth routes
	authRoutes := api.PathPrefix("/auth").Subrouter()
	authRoutes.Handle("/register", s.requireAuthOnceRegistered(s.authAPI.Register)).Methods("POST")
	authRoutes.HandleFunc("/login", s.authAPI.Login).Methods("POST")
	authRoutes.Handle("/logout", s.requireAuth(s.authAPI.Logout)).Methods("POST")
	authRoutes.HandleFunc("/status", s.authAPI.Status).Methods("GET")
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("address", s.Server.Addr).Msg("Starting server")
	return s.Server.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info().Msg("Shutting down server")
	return s.Server.Shutdown(ctx)
}

// healthCheck handles the health check endpoint
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.log.Error().Msg("Database is not initialized")
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "unhealthy",
			"error":  "database not initialized",
		})
		return
	}

	// Check database connection with timeout
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		s.log.Error().Err(err).Msg("Database health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "unhealthy",
			"error":  "database connection failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"session": s.auth.State().String(),
	})
}
