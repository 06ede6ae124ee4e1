// Package kitchen — расходы кухни.
package kitchen

import (
	"context"

	"github.com/Spok95/sklad-bot/internal/api"
)

type Expense struct {
	ExpenseID      int64   `json:"expense_id"`
	CategoryID     int64   `json:"category_id"`
	CategoryName   string  `json:"category_name"`
	NumberOfPeople int     `json:"number_of_people"`
	ExpenseDate    string  `json:"expense_date"`
	Comments       *string `json:"comments"`
	UserName       string  `json:"user_name,omitempty"`
}

// CreateRequest expense_date — ГГГГ-ММ-ДД в окне [сегодня-3; сегодня] (form.KitchenDate).
type CreateRequest struct {
	CategoryID     int64   `json:"category_id" validate:"gt=0"`
	NumberOfPeople int     `json:"number_of_people" validate:"gt=0"`
	ExpenseDate    string  `json:"expense_date" validate:"required,datetime=2006-01-02"`
	Comments       *string `json:"comments,omitempty" validate:"omitempty,max=500"`
}

type Repo struct{ c *api.Client }

func NewRepo(c *api.Client) *Repo { return &Repo{c: c} }

func (r *Repo) List(ctx context.Context, page, limit int) (api.Page[Expense], error) {
	return api.List[Expense](ctx, r.c, api.ResKitchen, page, limit)
}

func (r *Repo) Search(ctx context.Context, keyword string, page, limit int) (api.Page[Expense], error) {
	return api.Search[Expense](ctx, r.c, api.ResKitchen, keyword, page, limit)
}

func (r *Repo) Create(ctx context.Context, req CreateRequest) error {
	return r.c.Create(ctx, api.ResKitchen, req, nil)
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	return r.c.Delete(ctx, api.ResKitchen, id, nil)
}
