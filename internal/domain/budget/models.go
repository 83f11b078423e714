package budget

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finboard/internal/shared/errs"
)

var (
	ErrBudgetNotFound    = errs.NotFound("budget")
	ErrDuplicateCategory = errs.Conflict("budget for this category already exists")
	ErrLimitNotPositive  = errs.Validation("monthly_limit must be greater than 0")
	ErrCategoryRequired  = errs.Validation("category is required")
)

// Budget caps monthly spending for one category. Category matching against
// transactions is exact and case-sensitive.
type Budget struct {
	ID           string          `json:"id"`
	UserID       int64           `json:"-"`
	Category     string          `json:"category"`
	MonthlyLimit decimal.Decimal `json:"monthly_limit"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type CreateParams struct {
	ID           string
	UserID       int64
	Category     string
	MonthlyLimit decimal.Decimal
}

func (p *CreateParams) Validate() error {
	p.Category = strings.TrimSpace(p.Category)
	if p.Category == "" {
		return ErrCategoryRequired
	}
	if !p.MonthlyLimit.IsPositive() {
		return ErrLimitNotPositive
	}
	return nil
}

// UpdateParams changes the limit and, when Category is set, renames the budget.
type UpdateParams struct {
	Category     *string
	MonthlyLimit decimal.Decimal
}

func (p *UpdateParams) Validate() error {
	if !p.MonthlyLimit.IsPositive() {
		return ErrLimitNotPositive
	}
	if p.Category != nil {
		c := strings.TrimSpace(*p.Category)
		if c == "" {
			return ErrCategoryRequired
		}
		p.Category = &c
	}
	return nil
}
