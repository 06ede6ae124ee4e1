package payments

import (
	"github.com/shopspring/decimal"

	"github.com/Spok95/sklad-bot/internal/domain/arrivals"
	"github.com/Spok95/sklad-bot/internal/domain/money"
)

type Payment struct {
	PaymentID         int64               `json:"payment_id"`
	ArrivalID         int64               `json:"arrival_id"`
	SupplierID        int64               `json:"supplier_id"`
	SupplierName      string              `json:"supplier_name"`
	PaymentAmount     decimal.Decimal     `json:"payment_amount"`
	PaymentMethod     money.PaymentMethod `json:"payment_method"`
	CashType          money.CashType      `json:"cash_type"`
	DollarRate        decimal.Decimal     `json:"dollar_rate"`         // курс на момент оплаты
	ArrivalDollarRate decimal.Decimal     `json:"arrival_dollar_rate"` // курс на момент прихода
	Comments          *string             `json:"comments"`
	UserName          string              `json:"user_name,omitempty"`
	CreatedAt         string              `json:"created_at"`
}

type CreateRequest struct {
	ArrivalID     int64               `json:"arrival_id" validate:"gt=0"`
	PaymentAmount int64               `json:"payment_amount" validate:"gt=0"`
	PaymentMethod money.PaymentMethod `json:"payment_method" validate:"required,oneof=1 2 3 4"`
	CashType      money.CashType      `json:"cash_type" validate:"required,oneof=sum dollar"`
	Comments      *string             `json:"comments,omitempty" validate:"omitempty,max=500"`
}

// DeleteRequest — причина удаления уходит телом DELETE.
type DeleteRequest struct {
	Comments *string `json:"comments,omitempty"`
}

type DetailItem struct {
	MaterialName string          `json:"material_name"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit"`
	Price        decimal.Decimal `json:"price"`
	Total        decimal.Decimal `json:"total"`
}

// Detail — приход целиком: позиции и история оплат. Итоги считает сервер;
// Valid=false — поле не пришло.
type Detail struct {
	Arrival   arrivals.Arrival    `json:"arrival"`
	Items     []DetailItem        `json:"items"`
	Payments  []Payment           `json:"payments"`
	TotalPaid decimal.NullDecimal `json:"total_paid"`
	Remaining decimal.NullDecimal `json:"remaining"`
}
