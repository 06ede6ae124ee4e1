package balance

import (
	"context"
	"strconv"

	"github.com/Spok95/sklad-bot/internal/api"
	"github.com/Spok95/sklad-bot/internal/domain/money"
	"github.com/Spok95/sklad-bot/internal/form"
)

type Repo struct{ c *api.Client }

func NewRepo(c *api.Client) *Repo { return &Repo{c: c} }

func (r *Repo) List(ctx context.Context, page, limit int) (api.Page[Balance], error) {
	return api.List[Balance](ctx, r.c, api.ResBalance, page, limit)
}

func (r *Repo) Search(ctx context.Context, keyword string, page, limit int) (api.Page[Balance], error) {
	return api.Search[Balance](ctx, r.c, api.ResBalance, keyword, page, limit)
}

func (r *Repo) Create(ctx context.Context, req CreateRequest) error {
	return r.c.Create(ctx, api.ResBalance, req, nil)
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	return r.c.Delete(ctx, api.ResBalance, id, nil)
}

// Available — доступный остаток кассы.
func (r *Repo) Available(ctx context.Context) (Available, error) {
	var out Available
	err := r.c.Get(ctx, api.PathBalanceAvailable, nil, &out)
	return out, err
}

// ParseCreate собирает запрос из ввода формы: сумма очищается от
// нецифровых символов, пустой комментарий не отправляется.
func ParseCreate(amount, method, comments string) (CreateRequest, form.FieldErrors) {
	var fe form.FieldErrors
	req := CreateRequest{Comments: form.Optional(comments)}

	n, err := form.Amount(amount)
	if err != nil {
		fe = fe.Add("payment_amount", "Введите сумму больше нуля")
	}
	req.PaymentAmount = n

	if m, err := strconv.Atoi(form.Digits(method)); err == nil {
		req.PaymentMethod = money.PaymentMethod(m)
	}
	for k, v := range form.Validate(req) {
		if _, ok := fe[k]; !ok {
			fe = fe.Add(k, v)
		}
	}
	return req, fe
}
