package institution

import (
	"time"

	"finboard/internal/shared/errs"
)

var (
	ErrInstitutionNotFound = errs.NotFound("institution")
	ErrAlreadyLinked       = errs.Conflict("this bank connection is already linked")
)

// Institution is one linked bank connection (a Plaid item). AccessToken is
// the decrypted credential and never leaves the server.
type Institution struct {
	ID              string    `json:"id"`
	UserID          int64     `json:"-"`
	AccessToken     string    `json:"-"`
	ItemID          string    `json:"item_id"`
	InstitutionID   string    `json:"institution_id"`
	InstitutionName string    `json:"institution_name"`
	Cursor          *string   `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CursorValue returns the stored cursor, or "" for a never-synced item.
func (i *Institution) CursorValue() string {
	if i.Cursor == nil {
		return ""
	}
	return *i.Cursor
}

type CreateParams struct {
	ID              string
	UserID          int64
	AccessToken     string
	ItemID          string
	InstitutionID   string
	InstitutionName string
}
