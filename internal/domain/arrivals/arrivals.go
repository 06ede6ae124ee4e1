// Package arrivals — приходы (Prixod).
package arrivals

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Spok95/sklad-bot/internal/api"
	"github.com/Spok95/sklad-bot/internal/domain/money"
)

type Arrival struct {
	ArrivalID     int64               `json:"arrival_id"`
	UserName      string              `json:"user_name"`
	SupplierName  string              `json:"supplier_name,omitempty"`
	PaymentMethod money.PaymentMethod `json:"payment_method"`
	ArrivalAmount decimal.Decimal     `json:"arrival_amount"`
	MomentUSDRate decimal.Decimal     `json:"moment_usd_rate"`
	Comments      *string             `json:"comments"`
	CreatedAt     string              `json:"created_at"`
}

type CreateRequest struct {
	ArrivalAmount int64               `json:"arrival_amount" validate:"gt=0"`
	PaymentMethod money.PaymentMethod `json:"payment_method" validate:"required,oneof=1 2 3 4"`
	Comments      *string             `json:"comments,omitempty" validate:"omitempty,max=500"`
}

type Repo struct{ c *api.Client }

func NewRepo(c *api.Client) *Repo { return &Repo{c: c} }

func (r *Repo) List(ctx context.Context, page, limit int) (api.Page[Arrival], error) {
	return api.List[Arrival](ctx, r.c, api.ResArrivals, page, limit)
}

func (r *Repo) Search(ctx context.Context, keyword string, page, limit int) (api.Page[Arrival], error) {
	return api.Search[Arrival](ctx, r.c, api.ResArrivals, keyword, page, limit)
}

func (r *Repo) Create(ctx context.Context, req CreateRequest) error {
	return r.c.Create(ctx, api.ResArrivals, req, nil)
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	return r.c.Delete(ctx, api.ResArrivals, id, nil)
}
