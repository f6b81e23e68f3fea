package queue_repository

import (
	"context"

	"github.com/agenda-distribuida/event-agenda/internal/models"
	"github.com/agenda-distribuida/event-agenda/internal/queue"
	"github.com/agenda-distribuida/event-agenda/internal/repository"
	"github.com/rs/zerolog"
)

// QueuedEventRepository is a wrapper for the event repository that runs
// every write on the single queue writer. Reads go straight to the base
// repository.
type QueuedEventRepository struct {
	baseRepo repository.EventRepository
	writer   *queue.Writer
	log      *zerolog.Logger
}

// NewQueuedEventRepository creates a new instance of QueuedEventRepository.
func NewQueuedEventRepository(baseRepo repository.EventRepository, writer *queue.Writer, log *zerolog.Logger) repository.EventRepository {
	return &QueuedEventRepository{
		baseRepo: baseRepo,
		writer:   writer,
		log:      log,
	}
}

// EnsureSchema runs the schema check on the writer.
func (r *QueuedEventRepository) EnsureSchema(ctx context.Context) error {
	return r.writer.Submit(ctx, queue.Command{
		Name:  "events.ensure_schema",
		Apply: r.baseRepo.EnsureSchema,
	})
}

// Create queues an insert and returns the stored event.
func (r *QueuedEventRepository) Create(ctx context.Context, req *models.EventRequest) (*models.Event, error) {
	var created *models.Event
	err := r.writer.Submit(ctx, queue.Command{
		Name: "events.create",
		Apply: func(ctx context.Context) error {
			var err error
			created, err = r.baseRepo.Create(ctx, req)
			return err
		},
	})
	if err != nil {
		return nil, err
	}

	r.log.Debug().Int64("event_id", created.ID).Msg("Event created")
	return created, nil
}

// GetByID delegates the read operation to the base repository.
func (r *QueuedEventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	return r.baseRepo.GetByID(ctx, id)
}

// List delegates the read operation to the base repository.
func (r *QueuedEventRepository) List(ctx context.Context) ([]*models.Event, error) {
	return r.baseRepo.List(ctx)
}

// ListByDate delegates the read operation to the base repository.
func (r *QueuedEventRepository) ListByDate(ctx context.Context, date string) ([]*models.Event, error) {
	return r.baseRepo.ListByDate(ctx, date)
}

// Update queues a full overwrite of the event.
func (r *QueuedEventRepository) Update(ctx context.Context, id int64, req *models.EventRequest) (*models.Event, error) {
	var updated *models.Event
	err := r.writer.Submit(ctx, queue.Command{
		Name: "events.update",
		Apply: func(ctx context.Context) error {
			var err error
			updated, err = r.baseRepo.Update(ctx, id, req)
			return err
		},
	})
	if err != nil {
		return nil, err
	}

	r.log.Debug().Int64("event_id", id).Msg("Event updated")
	return updated, nil
}

// Delete queues the removal of one event.
func (r *QueuedEventRepository) Delete(ctx context.Context, id int64) error {
	err := r.writer.Submit(ctx, queue.Command{
		Name: "events.delete",
		Apply: func(ctx context.Context) error {
			return r.baseRepo.Delete(ctx, id)
		},
	})
	if err != nil {
		return err
	}

	r.log.Debug().Int64("event_id", id).Msg("Event deleted")
	return nil
}

// ReplaceAll queues the destructive rewrite and returns the rows as stored,
// with their new IDs.
func (r *QueuedEventRepository) ReplaceAll(ctx context.Context, reqs []*models.EventRequest) ([]*models.Event, error) {
	var replaced []*models.Event
	err := r.writer.Submit(ctx, queue.Command{
		Name: "events.replace_all",
		Apply: func(ctx context.Context) error {
			var err error
			replaced, err = r.baseRepo.ReplaceAll(ctx, reqs)
			return err
		},
	})
	if err != nil {
		return nil, err
	}

	r.log.Debug().Int("count", len(replaced)).Msg("Events replaced")
	return replaced, nil
}
