package issues

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Spok95/sklad-bot/internal/api"
	"github.com/Spok95/sklad-bot/internal/form"
)

type ItemPayload struct {
	MaterialID    int64       `json:"material_id" validate:"gt=0"`
	Quantity      json.Number `json:"quantity" validate:"required"`
	ConditionType *Condition  `json:"condition_type,omitempty" validate:"omitempty,oneof=1 2 3"`
	ConditionNote *string     `json:"condition_note,omitempty" validate:"omitempty,max=500"`
}

type CreateRequest struct {
	ForemanID          int64         `json:"foreman_id" validate:"gt=0"`
	ReturnType         ReturnType    `json:"return_type" validate:"required,oneof=1 2"`
	ExpectedReturnDate *string       `json:"expected_return_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Comments           *string       `json:"comments,omitempty" validate:"omitempty,max=500"`
	Items              []ItemPayload `json:"items" validate:"required,min=1,dive"`
}

// Draft — черновик выдачи, собираемый по шагам диалога.
type Draft struct {
	ForemanID    int64       `json:"foreman_id"`
	ForemanName  string      `json:"foreman_name"`
	ReturnType   ReturnType  `json:"return_type"`
	ExpectedDate string      `json:"expected_date,omitempty"` // ГГГГ-ММ-ДД
	Comments     string      `json:"comments,omitempty"`
	Items        []DraftItem `json:"items"`
}

// BuildCreate собирает тело запроса. Для выдачи с возвратом нужны срок
// возврата и состояние каждой возвратной позиции; у расходников поля
// состояния в запрос не попадают.
func BuildCreate(d Draft) (CreateRequest, form.FieldErrors) {
	var fe form.FieldErrors
	req := CreateRequest{
		ForemanID:  d.ForemanID,
		ReturnType: d.ReturnType,
		Comments:   form.Optional(d.Comments),
		Items:      make([]ItemPayload, 0, len(d.Items)),
	}

	if d.ReturnType == WithReturn {
		if d.ExpectedDate == "" {
			fe = fe.Add("expected_return_date", "Укажите срок возврата")
		} else {
			req.ExpectedReturnDate = &d.ExpectedDate
		}
	}

	for i, di := range d.Items {
		li, err := di.LineItem()
		if err != nil {
			fe = fe.Add(fmt.Sprintf("items[%d].quantity", i), "Укажите количество больше нуля")
			continue
		}
		if ri, ok := li.(ReturnableItem); ok && d.ReturnType == WithReturn && ri.Condition == 0 {
			fe = fe.Add(fmt.Sprintf("items[%d].condition_type", i), "Укажите состояние: "+ri.Name)
		}
		req.Items = append(req.Items, li.payload())
	}
	if len(d.Items) == 0 {
		fe = fe.Add("items", "Добавьте хотя бы одну позицию")
	}

	if fe != nil {
		return req, fe
	}
	return req, form.Validate(req)
}

// ReturnRequest — возврат одной позиции.
type ReturnRequest struct {
	ConditionType Condition `json:"condition_type" validate:"required,oneof=1 2 3"`
	ReturnDate    string    `json:"return_date" validate:"required,datetime=2006-01-02"`
	ConditionNote *string   `json:"condition_note,omitempty" validate:"omitempty,max=500"`
}

// NewReturn по умолчанию дата возврата — сегодня.
func NewReturn(c Condition, date time.Time, note string) (ReturnRequest, form.FieldErrors) {
	req := ReturnRequest{ConditionType: c, ReturnDate: api.FormatCRUD(date), ConditionNote: form.Optional(note)}
	return req, form.Validate(req)
}
