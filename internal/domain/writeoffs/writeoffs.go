// Package writeoffs — списания материалов.
package writeoffs

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Spok95/sklad-bot/internal/api"
)

type Reason int

const (
	ReasonDefect    Reason = 1
	ReasonSpoilage  Reason = 2
	ReasonLoss      Reason = 3
	ReasonSale      Reason = 4
	ReasonExpired   Reason = 5
	ReasonTheft     Reason = 6
	ReasonInventory Reason = 7
	ReasonOther     Reason = 8
)

var Reasons = []Reason{
	ReasonDefect, ReasonSpoilage, ReasonLoss, ReasonSale,
	ReasonExpired, ReasonTheft, ReasonInventory, ReasonOther,
}

var reasonTitles = map[Reason]string{
	ReasonDefect:    "Брак",
	ReasonSpoilage:  "Порча",
	ReasonLoss:      "Утеря",
	ReasonSale:      "Продажа",
	ReasonExpired:   "Истёк срок",
	ReasonTheft:     "Кража",
	ReasonInventory: "Инвентаризация",
	ReasonOther:     "Прочее",
}

func (r Reason) String() string {
	if s, ok := reasonTitles[r]; ok {
		return s
	}
	return "—"
}

func (r *Reason) UnmarshalJSON(b []byte) error {
	n, err := api.DecodeEnum(b)
	*r = Reason(n)
	return err
}

type WriteOff struct {
	ID           int64           `json:"id"`
	MaterialID   int64           `json:"material_id"`
	MaterialName string          `json:"material_name"`
	Unit         string          `json:"unit,omitempty"`
	ObjectName   string          `json:"object_name,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	ReasonType   Reason          `json:"reason_type"`
	Comments     *string         `json:"comments"`
	UserName     string          `json:"user_name,omitempty"`
	CreatedAt    string          `json:"created_at"`
}

type CreateRequest struct {
	MaterialID int64   `json:"material_id" validate:"gt=0"`
	Amount     int64   `json:"amount" validate:"gt=0"`
	ReasonType Reason  `json:"reason_type" validate:"required,gte=1,lte=8"`
	Comments   *string `json:"comments,omitempty" validate:"omitempty,max=500"`
}

type Repo struct{ c *api.Client }

func NewRepo(c *api.Client) *Repo { return &Repo{c: c} }

func (r *Repo) List(ctx context.Context, page, limit int) (api.Page[WriteOff], error) {
	return api.List[WriteOff](ctx, r.c, api.ResWriteOffs, page, limit)
}

func (r *Repo) Search(ctx context.Context, keyword string, page, limit int) (api.Page[WriteOff], error) {
	return api.Search[WriteOff](ctx, r.c, api.ResWriteOffs, keyword, page, limit)
}

func (r *Repo) Create(ctx context.Context, req CreateRequest) error {
	return r.c.Create(ctx, api.ResWriteOffs, req, nil)
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	return r.c.Delete(ctx, api.ResWriteOffs, id, nil)
}
