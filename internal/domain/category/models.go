package category

import (
	"regexp"
	"strings"
	"time"

	"finboard/internal/shared/errs"
)

const (
	DefaultColor  = "#6366F1"
	maxNameLength = 128
)

var (
	ErrCategoryNotFound = errs.NotFound("category")
	ErrDuplicateName    = errs.Conflict("category already exists")

	whitespaceRun = regexp.MustCompile(`\s+`)
	hexColor      = regexp.MustCompile(`^#(?:[0-9A-Fa-f]{3}|[0-9A-Fa-f]{6})$`)
)

// Category is a user-defined label offered as a suggestion when budgeting or
// relabeling transactions.
type Category struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"-"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// Normalize canonicalizes a category name: trimmed, upper-cased, runs of
// whitespace collapsed to "_" and "&" spelled "AND".
func Normalize(name string) string {
	n := strings.ToUpper(strings.TrimSpace(name))
	n = whitespaceRun.ReplaceAllString(n, "_")
	return strings.ReplaceAll(n, "&", "AND")
}

type CreateParams struct {
	ID     string
	UserID int64
	Name   string
	Color  string
}

// Validate normalizes the name and defaults the color.
func (p *CreateParams) Validate() error {
	p.Name = Normalize(p.Name)
	if p.Name == "" {
		return errs.Validation("category name is required")
	}
	if len(p.Name) > maxNameLength {
		return errs.Validation("name must be %d characters or less", maxNameLength)
	}
	if p.Color == "" {
		p.Color = DefaultColor
	}
	if !hexColor.MatchString(p.Color) {
		return errs.Validation("color must be a hex color such as %s", DefaultColor)
	}
	return nil
}

// UpdateParams renames and/or recolors a category. Nil fields are kept.
type UpdateParams struct {
	Name  *string
	Color *string
}

func (p *UpdateParams) Validate() error {
	if p.Name != nil {
		n := Normalize(*p.Name)
		if n == "" {
			p.Name = nil
		} else if len(n) > maxNameLength {
			return errs.Validation("name must be %d characters or less", maxNameLength)
		} else {
			p.Name = &n
		}
	}
	if p.Color != nil {
		if *p.Color == "" {
			p.Color = nil
		} else if !hexColor.MatchString(*p.Color) {
			return errs.Validation("color must be a hex color such as %s", DefaultColor)
		}
	}
	return nil
}
