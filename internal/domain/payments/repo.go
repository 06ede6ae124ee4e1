package payments

import (
	"context"

	"github.com/Spok95/sklad-bot/internal/api"
)

type Repo struct{ c *api.Client }

func NewRepo(c *api.Client) *Repo { return &Repo{c: c} }

func (r *Repo) List(ctx context.Context, page, limit int) (api.Page[Payment], error) {
	return api.List[Payment](ctx, r.c, api.ResPayments, page, limit)
}

func (r *Repo) Search(ctx context.Context, keyword string, page, limit int) (api.Page[Payment], error) {
	return api.Search[Payment](ctx, r.c, api.ResPayments, keyword, page, limit)
}

func (r *Repo) Create(ctx context.Context, req CreateRequest) error {
	return r.c.Create(ctx, api.ResPayments, req, nil)
}

// Delete с необязательной причиной удаления.
// Без причины запрос уходит без тела.
func (r *Repo) Delete(ctx context.Context, id int64, reason *string) error {
	if reason == nil {
		return r.c.Delete(ctx, api.ResPayments, id, nil)
	}
	return r.c.Delete(ctx, api.ResPayments, id, DeleteRequest{Comments: reason})
}

// Read GET api/payments/read/:arrival_id
func (r *Repo) Read(ctx context.Context, arrivalID int64) (Detail, error) {
	var out Detail
	err := r.c.Get(ctx, api.ReadPath(api.ResPayments, arrivalID), nil, &out)
	return out, err
}
