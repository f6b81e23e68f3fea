package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/agenda-distribuida/event-agenda/internal/models"
	"github.com/rs/zerolog"
)

// EventRepository defines the interface for event data access.
type EventRepository interface {
	EnsureSchema(ctx context.Context) error
	Create(ctx context.Context, req *models.EventRequest) (*models.Event, error)
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	List(ctx context.Context) ([]*models.Event, error)
	ListByDate(ctx context.Context, date string) ([]*models.Event, error)
	Update(ctx context.Context, id int64, req *models.EventRequest) (*models.Event, error)
	Delete(ctx context.Context, id int64) error
	ReplaceAll(ctx context.Context, reqs []*models.EventRequest) ([]*models.Event, error)
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

const eventColumns = `id, name, image, description, time, date`

type eventRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *sql.DB, log zerolog.Logger) EventRepository {
	return &eventRepository{
		db:  db,
		log: log.With().Str("repository", "events").Logger(),
	}
}

// EnsureSchema creates the events table if it is missing. It is a no-op when
// the schema already exists.
func (r *eventRepository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL DEFAULT '',
			image TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			time TEXT NOT NULL DEFAULT '',
			date TEXT NOT NULL DEFAULT ''
		)
	`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		r.log.Error().Err(err).Msg("Failed to create events table")
		return storageError("create events table", err)
	}
	return nil
}

// Create inserts a new event and returns it with its assigned ID
func (r *eventRepository) Create(ctx context.Context, req *models.EventRequest) (*models.Event, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: empty event", ErrValidation)
	}

	event, err := insertEvent(ctx, r.db, req)
	if err != nil {
		r.log.Error().Err(err).Str("name", req.Name).Msg("Failed to create event")
		return nil, storageError("create event", err)
	}
	return event, nil
}

// GetByID retrieves an event by its ID
func (r *eventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = ?`

	var event models.Event
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&event.ID,
		&event.Name,
		&event.Image,
		&event.Description,
		&event.Time,
		&event.Date,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		r.log.Error().Err(err).Int64("event_id", id).Msg("Failed to get event by ID")
		return nil, storageError("get event", err)
	}

	return &event, nil
}

// List returns every event in storage order
func (r *eventRepository) List(ctx context.Context) ([]*models.Event, error) {
	events, err := listEvents(ctx, r.db, `SELECT `+eventColumns+` FROM events ORDER BY id`)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to list events")
		return nil, storageError("list events", err)
	}
	return events, nil
}

// ListByDate returns the events whose date equals date exactly
func (r *eventRepository) ListByDate(ctx context.Context, date string) ([]*models.Event, error) {
	events, err := listEvents(ctx, r.db, `SELECT `+eventColumns+` FROM events WHERE date = ? ORDER BY id`, date)
	if err != nil {
		r.log.Error().Err(err).Str("date", date).Msg("Failed to list events by date")
		return nil, storageError("list events by date", err)
	}
	return events, nil
}

// Update overwrites every mutable field of an existing event
func (r *eventRepository) Update(ctx context.Context, id int64, req *models.EventRequest) (*models.Event, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: empty event", ErrValidation)
	}

	query := `
		UPDATE events
		SET name = ?, image = ?, description = ?, time = ?, date = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		req.Name,
		req.Image,
		req.Description,
		req.Time,
		req.Date,
		id,
	)
	if err != nil {
		r.log.Error().Err(err).Int64("event_id", id).Msg("Failed to update event")
		return nil, storageError("update event", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to get rows affected for event update")
		return nil, storageError("update event", err)
	}
	if rowsAffected == 0 {
		return nil, ErrEventNotFound
	}

	return &models.Event{
		ID:          id,
		Name:        req.Name,
		Image:       req.Image,
		Description: req.Description,
		Time:        req.Time,
		Date:        req.Date,
	}, nil
}

// Delete removes an event from the database
func (r *eventRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		r.log.Error().Err(err).Int64("event_id", id).Msg("Failed to delete event")
		return storageError("delete event", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to get rows affected for event delete")
		return storageError("delete event", err)
	}
	if rowsAffected == 0 {
		return ErrEventNotFound
	}

	return nil
}

// ReplaceAll deletes every event and inserts reqs as new rows in a single
// transaction. The returned events carry the newly assigned IDs.
func (r *eventRepository) ReplaceAll(ctx context.Context, reqs []*models.EventRequest) ([]*models.Event, error) {
	for i, req := range reqs {
		if req == nil {
			return nil, fmt.Errorf("%w: event %d is empty", ErrValidation, i)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to begin transaction")
		return nil, storageError("replace events", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM events`); err != nil {
		r.log.Error().Err(err).Msg("Failed to clear events")
		return nil, storageError("replace events", err)
	}

	events := make([]*models.Event, 0, len(reqs))
	for i, req := range reqs {
		event, err := insertEvent(ctx, tx, req)
		if err != nil {
			r.log.Error().Err(err).Int("index", i).Msg("Failed to insert event during replace")
			return nil, storageError("replace events", err)
		}
		events = append(events, event)
	}

	if err := tx.Commit(); err != nil {
		r.log.Error().Err(err).Msg("Failed to commit transaction")
		return nil, storageError("replace events", err)
	}

	r.log.Info().Int("count", len(events)).Msg("Replaced all events")
	return events, nil
}

func insertEvent(ctx context.Context, q execer, req *models.EventRequest) (*models.Event, error) {
	query := `
		INSERT INTO events (name, image, description, time, date)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := q.ExecContext(ctx, query,
		req.Name,
		req.Image,
		req.Description,
		req.Time,
		req.Date,
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &models.Event{
		ID:          id,
		Name:        req.Name,
		Image:       req.Image,
		Description: req.Description,
		Time:        req.Time,
		Date:        req.Date,
	}, nil
}

func listEvents(ctx context.Context, q execer, query string, args ...interface{}) ([]*models.Event, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*models.Event, 0)
	for rows.Next() {
		var event models.Event
		if err := rows.Scan(
			&event.ID,
			&event.Name,
			&event.Image,
			&event.Description,
			&event.Time,
			&event.Date,
		); err != nil {
			return nil, err
		}
		events = append(events, &event)
	}

	return events, rows.Err()
}
