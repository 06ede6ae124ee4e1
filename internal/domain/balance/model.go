package balance

import (
	"github.com/shopspring/decimal"

	"github.com/Spok95/sklad-bot/internal/domain/money"
)

// Balance — запись кассы. Не редактируется: только создание и удаление.
type Balance struct {
	ID            int64               `json:"id"`
	PaymentAmount decimal.Decimal     `json:"payment_amount"`
	PaymentMethod money.PaymentMethod `json:"payment_method"`
	Comments      *string             `json:"comments"`
	CreatedAt     string              `json:"created_at"`
	UserName      string              `json:"user_name"`
}

type CreateRequest struct {
	PaymentAmount int64               `json:"payment_amount" validate:"gt=0"`
	PaymentMethod money.PaymentMethod `json:"payment_method" validate:"required,oneof=1 2 3 4"`
	Comments      *string             `json:"comments,omitempty" validate:"omitempty,max=500"`
}

type Available struct {
	AvailableBalance decimal.Decimal `json:"available_balance"`
}
