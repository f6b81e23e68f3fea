package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/agenda-distribuida/event-agenda/internal/events"
	"github.com/agenda-distribuida/event-agenda/internal/models"
	"github.com/agenda-distribuida/event-agenda/internal/repository"
	"github.com/agenda-distribuida/event-agenda/internal/validation"
)

// Options configures a Service.
type Options struct {
	// Overwrite replaces an existing registration instead of rejecting it.
	Overwrite     bool
	JWTSecret     string
	JWTExpiration time.Duration
}

// Service registers the single user and tracks whether this process is
// logged in.
type Service struct {
	repo      repository.CredentialRepository
	notifier  events.Notifier
	validate  *validator.Validate
	tokens    *tokenIssuer
	session   session
	overwrite bool
	now       func() time.Time
	log       zerolog.Logger
}

// NewService creates a new auth service
func NewService(repo repository.CredentialRepository, notifier events.Notifier, opts Options, log zerolog.Logger) (*Service, error) {
	if notifier == nil {
		notifier = events.NopNotifier{}
	}
	if opts.JWTExpiration <= 0 {
		opts.JWTExpiration = 24 * time.Hour
	}

	tokens, err := newTokenIssuer(opts.JWTSecret, opts.JWTExpiration)
	if err != nil {
		return nil, err
	}

	return &Service{
		repo:      repo,
		notifier:  notifier,
		validate:  validation.New(),
		tokens:    tokens,
		overwrite: opts.Overwrite,
		now:       time.Now,
		log:       log.With().Str("component", "auth").Logger(),
	}, nil
}

// Register validates req, hashes the password and stores the credential.
// Nothing is stored when validation fails.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.Credential, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, validation.Error(err)
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	cred := &models.Credential{
		DisplayName:  req.DisplayName,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := s.repo.Save(ctx, cred, s.overwrite); err != nil {
		return nil, err
	}

	s.log.Info().Str("username", cred.Username).Msg("User registered")

	// Tokens issued to the previous user must not outlive it
	if s.session.logout() {
		s.log.Info().Msg("Session ended by re-registration")
	}

	payload := map[string]interface{}{"username": cred.Username}
	if err := s.notifier.Notify(ctx, events.TypeCredentialRegistered, payload); err != nil {
		s.log.Warn().Err(err).Msg("Failed to publish registration notification")
	}

	return cred, nil
}

// Registered reports whether a credential is stored.
func (s *Service) Registered(ctx context.Context) (bool, error) {
	if _, err := s.repo.Get(ctx); err != nil {
		if errors.Is(err, repository.ErrNoCredential) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Login checks email and password against the stored credential. On success
// the session becomes LoggedIn and a token tied to it is returned.
// ErrNoCredential and ErrCredentialMismatch are kept apart here; callers
// facing users should report both the same way.
func (s *Service) Login(ctx context.Context, email, password string) (*Token, *models.Credential, error) {
	cred, err := s.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNoCredential) {
			s.log.Info().Msg("Login attempted with no registered user")
		}
		return nil, nil, err
	}

	if cred.Email != email {
		s.log.Info().Msg("Login failed: email mismatch")
		return nil, nil, repository.ErrCredentialMismatch
	}

	ok, err := VerifyPassword(password, cred.PasswordHash)
	if err != nil {
		s.log.Error().Err(err).Msg("Stored password hash is unusable")
		return nil, nil, fmt.Errorf("%w: %v", repository.ErrCredentialMismatch, err)
	}
	if !ok {
		s.log.Info().Msg("Login failed: password mismatch")
		return nil, nil, repository.ErrCredentialMismatch
	}

	token, err := s.tokens.issue(cred.Username, s.now())
	if err != nil {
		return nil, nil, err
	}
	s.session.login(cred.Username, token.ID)

	s.log.Info().Str("username", cred.Username).Msg("User logged in")
	return token, cred, nil
}

// Logout moves the session to LoggedOut and invalidates the current token.
// Logging out twice is not an error.
func (s *Service) Logout() {
	if s.session.logout() {
		s.log.Info().Msg("User logged out")
	}
}

// State returns the current login state.
func (s *Service) State() State {
	return s.session.getState()
}

// Session returns a snapshot of the session.
func (s *Service) Session() SessionInfo {
	return s.session.info()
}

// Authenticate accepts a token only if it is valid and belongs to the
// current login.
func (s *Service) Authenticate(value string) (string, error) {
	claims, err := s.tokens.parse(value)
	if err != nil {
		return "", err
	}
	if !s.session.current(claims.ID) {
		return "", fmt.Errorf("%w: session ended", ErrInvalidToken)
	}
	return claims.Subject, nil
}
