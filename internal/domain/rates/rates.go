// Package rates — курс доллара: одно значение, без списка.
package rates

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/Spok95/sklad-bot/internal/api"
)

type Rate struct {
	DollarRate decimal.Decimal `json:"dollar_rate"`
	UpdatedAt  string          `json:"updated_at,omitempty"`
}

type updateRequest struct {
	DollarRate json.Number `json:"dollar_rate"`
}

type Repo struct{ c *api.Client }

func NewRepo(c *api.Client) *Repo { return &Repo{c: c} }

func (r *Repo) Get(ctx context.Context) (Rate, error) {
	var out Rate
	err := r.c.Get(ctx, api.PathDollarRate, nil, &out)
	return out, err
}

func (r *Repo) Set(ctx context.Context, rate decimal.Decimal) error {
	return r.c.Post(ctx, api.PathDollarRateUpdate, nil, updateRequest{DollarRate: json.Number(rate.String())}, nil)
}
