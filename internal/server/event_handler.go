package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/agenda-distribuida/event-agenda/internal/models"
	"github.com/agenda-distribuida/event-agenda/internal/service"
)

// EventHandler handles HTTP requests related to events
// and interacts with the EventService.
type EventHandler struct {
	svc service.EventService
	log *zerolog.Logger
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(svc service.EventService, log *zerolog.Logger) *EventHandler {
	return &EventHandler{
		svc: svc,
		log: log,
	}
}

// ListEvents returns every event, or only those on ?date= when given
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	var (
		events []*models.Event
		err    error
	)
	if date, ok := r.URL.Query()["date"]; ok {
		events, err = h.svc.ListByDate(r.Context(), date[0])
	} else {
		events, err = h.svc.List(r.Context())
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list events")
		h.fail(w, err, "Failed to list events")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"events": events,
	})
}

// CreateEvent handles the creation of a new event
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req models.EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	event, err := h.svc.Create(r.Context(), &req)
	if err != nil {
		h.log.Error().Err(err).Str("name", req.Name).Msg("Failed to create event")
		h.fail(w, err, "Failed to create event")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"status": "success",
		"event":  event,
	})
}

// GetEvent retrieves an event by ID
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(w, r)
	if !ok {
		return
	}

	event, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Int64("event_id", id).Msg("Failed to get event")
		h.fail(w, err, "Failed to get event")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"event":  event,
	})
}

// UpdateEvent overwrites an existing event
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(w, r)
	if !ok {
		return
	}

	var req models.EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	event, err := h.svc.Update(r.Context(), id, &req)
	if err != nil {
		h.log.Error().Err(err).Int64("event_id", id).Msg("Failed to update event")
		h.fail(w, err, "Failed to update event")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"event":  event,
	})
}

// DeleteEvent deletes an event by ID
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.log.Error().Err(err).Int64("event_id", id).Msg("Failed to delete event")
		h.fail(w, err, "Failed to delete event")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ReplaceEvents swaps the whole event table for the request body
func (h *EventHandler) ReplaceEvents(w http.ResponseWriter, r *http.Request) {
	var req models.ReplaceEventsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	events, err := h.svc.ReplaceAll(r.Context(), req.Events)
	if err != nil {
		h.log.Error().Err(err).Int("count", len(req.Events)).Msg("Failed to replace events")
		h.fail(w, err, "Failed to replace events")
		return
	}

	h.log.Info().Str("user", usernameFrom(r.Context())).Int("count", len(events)).Msg("Events replaced")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"events": events,
	})
}

// GetMarkers returns the calendar markers keyed by date
func (h *EventHandler) GetMarkers(w http.ResponseWriter, r *http.Request) {
	markers, err := h.svc.Markers(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to derive markers")
		h.fail(w, err, "Failed to derive markers")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"markers": markers,
	})
}

// ExportCalendar serves the event table as an iCalendar file
func (h *EventHandler) ExportCalendar(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if _, err := h.svc.ExportICS(r.Context(), &buf); err != nil {
		h.log.Error().Err(err).Msg("Failed to export calendar")
		h.fail(w, err, "Failed to export calendar")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="events.ics"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *EventHandler) fail(w http.ResponseWriter, err error, fallback string) {
	status, message := errorStatus(err, fallback)
	writeError(w, status, message)
}

func eventID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid event ID format")
		return 0, false
	}
	return id, true
}
