package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/agenda-distribuida/event-agenda/internal/auth"
	"github.com/agenda-distribuida/event-agenda/internal/commands"
	"github.com/agenda-distribuida/event-agenda/internal/config"
	"github.com/agenda-distribuida/event-agenda/internal/database"
	"github.com/agenda-distribuida/event-agenda/internal/events"
	"github.com/agenda-distribuida/event-agenda/internal/queue"
	"github.com/agenda-distribuida/event-agenda/internal/queue_repository"
	"github.com/agenda-distribuida/event-agenda/internal/repository"
	"github.com/agenda-distribuida/event-agenda/internal/server"
	"github.com/agenda-distribuida/event-agenda/internal/service"
)

const usage = `Usage: agenda [COMMAND] [OPTIONS]

Commands:
  serve        Run the HTTP API (default)
  register     Register the user interactively
  import-ics   Load events from an iCalendar file
  export-ics   Write the events as an iCalendar file
`

func main() {
	cmd, args := "serve", os.Args[1:]
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	// Subcommands may write data to stdout, so their logs go to stderr
	var logOut io.Writer = os.Stdout
	if cmd != "serve" {
		logOut = os.Stderr
	}

	// Initialize logger with console writer for better formatting in containers
	output := zerolog.ConsoleWriter{
		Out:        logOut,
		TimeFormat: time.RFC3339,
	}
	logger := zerolog.New(output).With().
		Timestamp().
		Logger()
	zerolog.DefaultContextLogger = &logger

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warn().Str("level", cfg.LogLevel).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	a, err := newApp(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize")
	}

	ctx := context.Background()
	switch cmd {
	case "serve":
		err = a.serve()
	case "register":
		err = commands.Register(ctx, a.auth, commands.NewConsole(os.Stdin, os.Stdout), os.Stderr, args)
	case "import-ics":
		err = commands.ImportICS(ctx, a.events, os.Stdout, os.Stderr, args)
	case "export-ics":
		err = commands.ExportICS(ctx, a.events, os.Stdout, os.Stderr, args)
	case "help":
		fmt.Fprint(os.Stdout, usage)
	default:
		fmt.Fprint(os.Stderr, usage)
		err = fmt.Errorf("unknown command %q", cmd)
	}

	a.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds the wired components shared by every command.
type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	db     *database.Database
	writer *queue.Writer
	redis  *events.RedisClient
	events service.EventService
	auth   *auth.Service
}

func newApp(cfg *config.Config, logger zerolog.Logger) (*app, error) {
	// Initialize database
	db, err := database.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	applied, err := db.Applied(context.Background())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}
	logger.Debug().Strs("migrations", applied).Str("path", cfg.Database.Path).Msg("Database ready")

	a := &app{
		cfg:    cfg,
		log:    logger,
		db:     db,
		writer: queue.New(cfg.Database.QueueSize, logger),
	}

	var notifier events.Notifier = events.NopNotifier{}
	if cfg.Redis.URL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := events.NewRedisClient(ctx, cfg.Redis.URL, logger)
		cancel()
		if err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable, change notifications disabled")
		} else {
			a.redis = client
			notifier = events.NewPublisher(client, cfg.Redis.Channel)
		}
	}

	// Every event write goes through the single writer
	baseRepo := repository.NewEventRepository(db.DB(), logger)
	eventRepo := queue_repository.NewQueuedEventRepository(baseRepo, a.writer, &logger)
	a.events = service.NewEventService(eventRepo, notifier, logger)

	if err := a.events.EnsureSchema(context.Background()); err != nil {
		a.Close()
		return nil, err
	}

	a.auth, err = auth.NewService(
		repository.NewCredentialRepository(db.DB(), logger),
		notifier,
		auth.Options{
			Overwrite:     cfg.Auth.RegistrationPolicy == config.PolicyOverwrite,
			JWTSecret:     cfg.Auth.JWTSecret,
			JWTExpiration: cfg.Auth.JWTExpiration,
		},
		logger,
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	if cfg.Auth.JWTSecret == "" {
		logger.Info().Msg("JWT_SECRET not set, tokens are valid for this process only")
	}

	return a, nil
}

func (a *app) serve() error {
	srv := server.New(a.cfg, a.db.DB(), a.events, a.auth, &a.log)

	// Channel to listen for errors from server
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Wait for an error or interrupt signal
	select {
	case err := <-errChan:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-quit:
		a.log.Info().Str("signal", sig.String()).Msg("Shutting down server...")
	}

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Stop(ctx); err != nil {
		a.log.Error().Err(err).Msg("Server forced to shutdown")
	}

	a.log.Info().Msg("Server stopped")
	return nil
}

// Close drains the write queue before closing the database.
func (a *app) Close() {
	a.writer.Close()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Error().Err(err).Msg("Error closing Redis client")
		}
	}
	if err := a.db.Close(); err != nil {
		a.log.Error().Err(err).Msg("Error closing database")
	}
}
