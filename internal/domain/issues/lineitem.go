package issues

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Spok95/sklad-bot/internal/domain/catalog"
	"github.com/Spok95/sklad-bot/internal/form"
)

// LineItem — позиция выдачи: ReturnableItem или ConsumableItem.
// Вид определяется один раз, в момент выбора материала.
type LineItem interface {
	Material() (id int64, name string)
	Qty() decimal.Decimal
	payload() ItemPayload
}

// ReturnableItem — инструмент: у позиции есть состояние.
type ReturnableItem struct {
	MaterialID    int64
	Name          string
	Quantity      decimal.Decimal
	Condition     Condition
	ConditionNote *string
}

// ConsumableItem — расходник: состояние не передаётся.
type ConsumableItem struct {
	MaterialID int64
	Name       string
	Quantity   decimal.Decimal
}

func (i ReturnableItem) Material() (int64, string) { return i.MaterialID, i.Name }
func (i ReturnableItem) Qty() decimal.Decimal      { return i.Quantity }

func (i ReturnableItem) payload() ItemPayload {
	p := ItemPayload{MaterialID: i.MaterialID, Quantity: number(i.Quantity), ConditionNote: i.ConditionNote}
	if i.Condition != 0 {
		c := i.Condition
		p.ConditionType = &c
	}
	return p
}

func (i ConsumableItem) Material() (int64, string) { return i.MaterialID, i.Name }
func (i ConsumableItem) Qty() decimal.Decimal      { return i.Quantity }

func (i ConsumableItem) payload() ItemPayload {
	return ItemPayload{MaterialID: i.MaterialID, Quantity: number(i.Quantity)}
}

// Resolve выбирает вид позиции по return_type материала.
func Resolve(m catalog.Material, qty decimal.Decimal) LineItem {
	if m.Returnable() {
		return ReturnableItem{MaterialID: m.ID, Name: m.Name, Quantity: qty}
	}
	return ConsumableItem{MaterialID: m.ID, Name: m.Name, Quantity: qty}
}

func number(d decimal.Decimal) json.Number { return json.Number(d.String()) }

const (
	KindReturnable = "returnable"
	KindConsumable = "consumable"
)

// DraftItem — позиция в черновике диалога (хранится в payload как JSON).
type DraftItem struct {
	Kind          string `json:"kind"`
	MaterialID    int64  `json:"material_id"`
	Name          string `json:"name"`
	Unit          string `json:"unit,omitempty"`
	Quantity      string `json:"quantity"`
	Condition     int    `json:"condition,omitempty"`
	ConditionNote string `json:"condition_note,omitempty"`
}

// NewDraftItem фиксирует вид позиции при выборе материала.
func NewDraftItem(m catalog.Material) DraftItem {
	kind := KindConsumable
	if m.Returnable() {
		kind = KindReturnable
	}
	return DraftItem{Kind: kind, MaterialID: m.ID, Name: m.Name, Unit: m.Unit}
}

func (d DraftItem) Returnable() bool { return d.Kind == KindReturnable }

// LineItem строит позицию по сохранённому виду. Поля состояния у
// расходника игнорируются, даже если заполнены.
func (d DraftItem) LineItem() (LineItem, error) {
	qty, err := form.Decimal(d.Quantity)
	if err != nil {
		return nil, fmt.Errorf("%s: quantity: %w", d.Name, err)
	}
	switch d.Kind {
	case KindReturnable:
		return ReturnableItem{
			MaterialID:    d.MaterialID,
			Name:          d.Name,
			Quantity:      qty,
			Condition:     Condition(d.Condition),
			ConditionNote: form.Optional(d.ConditionNote),
		}, nil
	case KindConsumable:
		return ConsumableItem{MaterialID: d.MaterialID, Name: d.Name, Quantity: qty}, nil
	default:
		return nil, fmt.Errorf("%s: unknown item kind %q", d.Name, d.Kind)
	}
}

// Label строка позиции для экрана черновика.
func (d DraftItem) Label() string {
	var b strings.Builder
	b.WriteString(d.Name)
	if d.Quantity != "" {
		b.WriteString(" — " + d.Quantity)
		if d.Unit != "" {
			b.WriteString(" " + d.Unit)
		}
	}
	if d.Returnable() && d.Condition != 0 {
		b.WriteString(" (" + Condition(d.Condition).String() + ")")
	}
	return b.String()
}
