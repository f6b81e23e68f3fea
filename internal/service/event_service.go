package service

import (
	"context"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/agenda-distribuida/event-agenda/internal/calendar"
	"github.com/agenda-distribuida/event-agenda/internal/events"
	"github.com/agenda-distribuida/event-agenda/internal/ics"
	"github.com/agenda-distribuida/event-agenda/internal/models"
	"github.com/agenda-distribuida/event-agenda/internal/repository"
	"github.com/agenda-distribuida/event-agenda/internal/validation"
)

// EventService defines the interface for event-related operations
type EventService interface {
	// Event operations
	EnsureSchema(ctx context.Context) error
	Create(ctx context.Context, req *models.EventRequest) (*models.Event, error)
	Get(ctx context.Context, id int64) (*models.Event, error)
	List(ctx context.Context) ([]*models.Event, error)
	ListByDate(ctx context.Context, date string) ([]*models.Event, error)
	Update(ctx context.Context, id int64, req *models.EventRequest) (*models.Event, error)
	Delete(ctx context.Context, id int64) error
	ReplaceAll(ctx context.Context, reqs []*models.EventRequest) ([]*models.Event, error)

	// Calendar operations
	Markers(ctx context.Context) (calendar.Markers, error)
	ExportICS(ctx context.Context, w io.Writer) (int, error)
	ImportICS(ctx context.Context, r io.Reader, replace bool) ([]*models.Event, error)
}

type eventService struct {
	repo     repository.EventRepository
	notifier events.Notifier
	validate *validator.Validate
	log      zerolog.Logger
}

// NewEventService creates a new instance of EventService. repo should be
// the queued repository so that writes are serialized.
func NewEventService(repo repository.EventRepository, notifier events.Notifier, log zerolog.Logger) EventService {
	if notifier == nil {
		notifier = events.NopNotifier{}
	}
	return &eventService{
		repo:     repo,
		notifier: notifier,
		validate: validation.New(),
		log:      log.With().Str("component", "event_service").Logger(),
	}
}

// EnsureSchema makes sure the event table exists
func (s *eventService) EnsureSchema(ctx context.Context) error {
	return s.repo.EnsureSchema(ctx)
}

// Create validates and stores a new event
func (s *eventService) Create(ctx context.Context, req *models.EventRequest) (*models.Event, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}

	event, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, events.TypeEventCreated, event)
	return event, nil
}

// Get returns the event with the given ID
func (s *eventService) Get(ctx context.Context, id int64) (*models.Event, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns every event in storage order
func (s *eventService) List(ctx context.Context) ([]*models.Event, error) {
	return s.repo.List(ctx)
}

// ListByDate returns the events whose date equals date exactly
func (s *eventService) ListByDate(ctx context.Context, date string) ([]*models.Event, error) {
	return s.repo.ListByDate(ctx, date)
}

// Update overwrites every mutable field of the event
func (s *eventService) Update(ctx context.Context, id int64, req *models.EventRequest) (*models.Event, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}

	event, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, events.TypeEventUpdated, event)
	return event, nil
}

// Delete removes the event
func (s *eventService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.notify(ctx, events.TypeEventDeleted, map[string]interface{}{"id": id})
	return nil
}

// ReplaceAll swaps the whole event table for reqs. The returned events carry
// their new IDs.
func (s *eventService) ReplaceAll(ctx context.Context, reqs []*models.EventRequest) ([]*models.Event, error) {
	for i, req := range reqs {
		if err := s.check(req); err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
	}

	replaced, err := s.repo.ReplaceAll(ctx, reqs)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, events.TypeEventsReplaced, map[string]interface{}{"count": len(replaced)})
	return replaced, nil
}

// Markers derives the calendar markers from the current event table
func (s *eventService) Markers(ctx context.Context) (calendar.Markers, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return calendar.DeriveMarkers(all), nil
}

// ExportICS writes the event table as an iCalendar document
func (s *eventService) ExportICS(ctx context.Context, w io.Writer) (int, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return 0, err
	}

	n, err := ics.Export(w, all)
	if err != nil {
		return 0, err
	}
	if skipped := len(all) - n; skipped > 0 {
		s.log.Debug().Int("skipped", skipped).Msg("Events without a calendar date left out of export")
	}
	return n, nil
}

// ImportICS reads an iCalendar document. With replace set it replaces the
// whole table, otherwise every VEVENT is added as a new event.
func (s *eventService) ImportICS(ctx context.Context, r io.Reader, replace bool) ([]*models.Event, error) {
	reqs, err := ics.Import(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrValidation, err)
	}

	if replace {
		return s.ReplaceAll(ctx, reqs)
	}

	created := make([]*models.Event, 0, len(reqs))
	for _, req := range reqs {
		event, err := s.Create(ctx, req)
		if err != nil {
			return created, err
		}
		created = append(created, event)
	}

	s.log.Info().Int("count", len(created)).Msg("Imported events")
	return created, nil
}

func (s *eventService) check(req *models.EventRequest) error {
	if req == nil {
		return fmt.Errorf("%w: empty event", repository.ErrValidation)
	}
	if err := s.validate.Struct(req); err != nil {
		return validation.Error(err)
	}
	return nil
}

func (s *eventService) notify(ctx context.Context, eventType string, payload interface{}) {
	if err := s.notifier.Notify(ctx, eventType, payload); err != nil {
		s.log.Warn().Err(err).Str("type", eventType).Msg("Failed to publish notification")
	}
}
