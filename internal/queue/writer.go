package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// ErrClosed is returned by Propose once the writer has been closed.
var ErrClosed = errors.New("write queue closed")

// Command is one unit of work for the writer. Apply runs on the writer
// goroutine, never concurrently with another command.
type Command struct {
	Name  string
	Apply func(ctx context.Context) error
}

type entry struct {
	ctx    context.Context
	cmd    Command
	result chan error
}

// Writer serializes commands through a single goroutine. Commands are
// applied one at a time in the order they were proposed.
type Writer struct {
	mu     sync.Mutex
	closed bool

	entries chan entry
	done    chan struct{}
	applied atomic.Uint64

	log zerolog.Logger
}

// New starts a writer whose backlog holds up to size proposed commands.
func New(size int, log zerolog.Logger) *Writer {
	if size < 0 {
		size = 0
	}
	w := &Writer{
		entries: make(chan entry, size),
		done:    make(chan struct{}),
		log:     log.With().Str("component", "write_queue").Logger(),
	}
	go w.applyLoop()
	return w
}

// Propose enqueues cmd and returns a channel that receives the result of
// applying it and is then closed. Propose blocks while the backlog is full.
func (w *Writer) Propose(ctx context.Context, cmd Command) (<-chan error, error) {
	if cmd.Apply == nil {
		return nil, fmt.Errorf("command %q has no apply function", cmd.Name)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrClosed
	}

	e := entry{
		ctx:    ctx,
		cmd:    cmd,
		result: make(chan error, 1),
	}

	select {
	case w.entries <- e:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	w.log.Debug().Str("command", cmd.Name).Int("backlog", len(w.entries)).Msg("Command proposed")
	return e.result, nil
}

// Submit proposes cmd and waits for it to be applied.
func (w *Writer) Submit(ctx context.Context, cmd Command) error {
	applyCh, err := w.Propose(ctx, cmd)
	if err != nil {
		return err
	}

	select {
	case err := <-applyCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Applied reports how many commands the writer has finished.
func (w *Writer) Applied() uint64 {
	return w.applied.Load()
}

// Close stops accepting commands, applies everything already accepted and
// waits for the writer goroutine to exit.
func (w *Writer) Close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.entries)
	}
	w.mu.Unlock()

	<-w.done
}

func (w *Writer) applyLoop() {
	defer close(w.done)

	for e := range w.entries {
		err := w.apply(e)
		if err != nil {
			w.log.Debug().Err(err).Str("command", e.cmd.Name).Msg("Command failed")
		}
		e.result <- err
		close(e.result)
		w.applied.Add(1)
	}
}

func (w *Writer) apply(e entry) (err error) {
	if ctxErr := e.ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	defer func() {
		if r := recover(); r != nil {
			w.log.Error().Interface("panic", r).Str("command", e.cmd.Name).Msg("Command panicked")
			err = fmt.Errorf("command %q panicked: %v", e.cmd.Name, r)
		}
	}()

	return e.cmd.Apply(e.ctx)
}
