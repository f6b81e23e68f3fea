package models

import "time"

// Credential is the single registered user. PasswordHash is a bcrypt hash.
type Credential struct {
	DisplayName  string    `json:"display_name" db:"display_name"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// RegisterRequest represents the data needed to register the user
type RegisterRequest struct {
	DisplayName string `json:"display_name" validate:"required"`
	Username    string `json:"username" validate:"required"`
	Email       string `json:"email" validate:"required,simple_email"`
	Password    string `json:"password" validate:"required"`
	Confirm     string `json:"confirm" validate:"required,eqfield=Password"`
}

// LoginRequest is checked against the stored credential as is.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Status    string    `json:"status"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username"`
}
