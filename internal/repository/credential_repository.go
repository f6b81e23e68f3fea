package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/agenda-distribuida/event-agenda/internal/models"
	"github.com/rs/zerolog"
)

// credentialRowID is the only row the users table may hold.
const credentialRowID = 1

// CredentialRepository stores the single registered user.
type CredentialRepository interface {
	Get(ctx context.Context) (*models.Credential, error)
	Save(ctx context.Context, cred *models.Credential, overwrite bool) error
}

type credentialRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewCredentialRepository creates a new credential repository
func NewCredentialRepository(db *sql.DB, log zerolog.Logger) CredentialRepository {
	return &credentialRepository{
		db:  db,
		log: log.With().Str("repository", "users").Logger(),
	}
}

// Get returns the registered user or ErrNoCredential
func (r *credentialRepository) Get(ctx context.Context) (*models.Credential, error) {
	query := `
		SELECT display_name, username, email, password, created_at, updated_at
		FROM users
		WHERE id = ?
	`

	var cred models.Credential
	err := r.db.QueryRowContext(ctx, query, credentialRowID).Scan(
		&cred.DisplayName,
		&cred.Username,
		&cred.Email,
		&cred.PasswordHash,
		&cred.CreatedAt,
		&cred.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoCredential
		}
		r.log.Error().Err(err).Msg("Failed to get credential")
		return nil, storageError("get credential", err)
	}

	return &cred, nil
}

// Save writes cred as the registered user. With overwrite false an existing
// record makes Save fail with ErrDuplicateRegistration.
func (r *credentialRepository) Save(ctx context.Context, cred *models.Credential, overwrite bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to begin transaction")
		return storageError("save credential", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)`, credentialRowID,
	).Scan(&exists); err != nil {
		r.log.Error().Err(err).Msg("Failed to check for existing credential")
		return storageError("save credential", err)
	}
	if exists && !overwrite {
		return ErrDuplicateRegistration
	}

	now := time.Now().UTC()
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = now
	}
	cred.UpdatedAt = now

	query := `
		INSERT INTO users (id, display_name, username, email, password, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			username = excluded.username,
			email = excluded.email,
			password = excluded.password,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`
	if _, err := tx.ExecContext(ctx, query,
		credentialRowID,
		cred.DisplayName,
		cred.Username,
		cred.Email,
		cred.PasswordHash,
		cred.CreatedAt,
		cred.UpdatedAt,
	); err != nil {
		r.log.Error().Err(err).Str("email", cred.Email).Msg("Failed to save credential")
		return storageError("save credential", err)
	}

	if err := tx.Commit(); err != nil {
		r.log.Error().Err(err).Msg("Failed to commit transaction")
		return storageError("save credential", err)
	}

	r.log.Info().Str("username", cred.Username).Bool("replaced", exists).Msg("Credential saved")
	return nil
}
