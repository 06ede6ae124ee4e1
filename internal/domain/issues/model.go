package issues

import (
	"github.com/shopspring/decimal"

	"github.com/Spok95/sklad-bot/internal/api"
)

// ReturnType — вид выдачи: 1 — с возвратом к сроку, 2 — без возврата.
type ReturnType int

const (
	WithReturn    ReturnType = 1
	WithoutReturn ReturnType = 2
)

func (t ReturnType) String() string {
	switch t {
	case WithReturn:
		return "С возвратом"
	case WithoutReturn:
		return "Без возврата"
	default:
		return "—"
	}
}

func (t *ReturnType) UnmarshalJSON(b []byte) error {
	n, err := api.DecodeEnum(b)
	*t = ReturnType(n)
	return err
}

// Condition — состояние инструмента при выдаче/возврате.
type Condition int

const (
	ConditionNew     Condition = 1
	ConditionUsed    Condition = 2
	ConditionDamaged Condition = 3
)

var Conditions = []Condition{ConditionNew, ConditionUsed, ConditionDamaged}

func (c Condition) String() string {
	switch c {
	case ConditionNew:
		return "Новое"
	case ConditionUsed:
		return "Б/у"
	case ConditionDamaged:
		return "Повреждено"
	default:
		return "—"
	}
}

func (c *Condition) UnmarshalJSON(b []byte) error {
	n, err := api.DecodeEnum(b)
	*c = Condition(n)
	return err
}

type Item struct {
	ID            int64           `json:"id"`
	MaterialID    int64           `json:"material_id"`
	MaterialName  string          `json:"material_name"`
	Unit          string          `json:"unit,omitempty"`
	Quantity      decimal.Decimal `json:"quantity"`
	ConditionType Condition       `json:"condition_type"`
	ConditionNote *string         `json:"condition_note"`
	Returned      api.Flag        `json:"returned"`
	ReturnDate    *string         `json:"return_date"`
}

type Issue struct {
	ID                 int64      `json:"id"`
	ForemanID          int64      `json:"foreman_id"`
	ForemanName        string     `json:"foreman_name"`
	ReturnType         ReturnType `json:"return_type"`
	ExpectedReturnDate *string    `json:"expected_return_date"`
	Comments           *string    `json:"comments"`
	UserName           string     `json:"user_name,omitempty"`
	CreatedAt          string     `json:"created_at"`
	Items              []Item     `json:"items"`
}

// Pending — позиции, которые ещё не вернули.
func Pending(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if !it.Returned {
			out = append(out, it)
		}
	}
	return out
}
