package user

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"finboard/internal/shared/errs"
)

const minPasswordLength = 8

var (
	ErrEmailTaken         = errs.New(errs.ErrConflict, "email already registered")
	ErrInvalidCredentials = errs.New(errs.ErrUnauthorized, "invalid email or password")
	ErrUserNotFound       = errs.NotFound("user")
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CreateUserParams struct {
	Email        string
	Name         string
	PasswordHash string
}

type RegisterParams struct {
	Email    string
	Password string
	Name     string
}

// Normalize trims the fields and lowercases the email.
func (p *RegisterParams) Normalize() {
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Name = strings.TrimSpace(p.Name)
}

func (p RegisterParams) Validate() error {
	if p.Email == "" || p.Password == "" {
		return errs.Validation("email and password are required")
	}
	if _, err := mail.ParseAddress(p.Email); err != nil {
		return errs.Validation("invalid email address")
	}
	if len(p.Password) < minPasswordLength {
		return errs.Validation("password must be at least %d characters", minPasswordLength)
	}
	return nil
}

// IsNotFound reports whether err is the repository's missing-user error.
func IsNotFound(err error) bool {
	return errors.Is(err, errs.ErrNotFound)
}
