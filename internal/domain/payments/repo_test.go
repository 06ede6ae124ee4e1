package payments

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/sklad-bot/internal/api"
	"github.com/Spok95/sklad-bot/internal/domain/money"
	"github.com/Spok95/sklad-bot/internal/form"
)

func TestDeleteSendsReason(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/payments/delete/41", r.URL.Path)
		b, _ := io.ReadAll(r.Body)
		got = string(b)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()
	repo := NewRepo(api.New(srv.URL, ""))

	require.NoError(t, repo.Delete(context.Background(), 41, form.Optional("ошибка суммы")))
	assert.JSONEq(t, `{"comments":"ошибка суммы"}`, got)

	require.NoError(t, repo.Delete(context.Background(), 41, form.Optional("-")))
	assert.Empty(t, got)
}

func TestReadDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/payments/read/12", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"arrival":{"arrival_id":12,"arrival_amount":"1000000","payment_method":3},
			"items":[{"material_name":"Цемент","quantity":"10","unit":"меш","price":"50000","total":"500000"}],
			"payments":[
				{"payment_id":1,"arrival_id":12,"payment_amount":"300000","payment_method":1,"cash_type":"sum"},
				{"payment_id":2,"arrival_id":12,"payment_amount":"200000","payment_method":"2","cash_type":"dollar"}
			]}`))
	}))
	defer srv.Close()

	d, err := NewRepo(api.New(srv.URL, "")).Read(context.Background(), 12)
	require.NoError(t, err)
	assert.EqualValues(t, 12, d.Arrival.ArrivalID)
	require.Len(t, d.Items, 1)
	require.Len(t, d.Payments, 2)
	assert.Equal(t, money.CashDollar, d.Payments[1].CashType)
	assert.False(t, d.TotalPaid.Valid)
	assert.False(t, d.Remaining.Valid)
}

func TestReadDetailKeepsServerTotals(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"arrival":{"arrival_id":12,"arrival_amount":"1265000"},
			"payments":[{"payment_id":1,"arrival_id":12,"payment_amount":"100","cash_type":"dollar"}],
			"total_paid":"1265000","remaining":"0"}`))
	}))
	defer srv.Close()

	d, err := NewRepo(api.New(srv.URL, "")).Read(context.Background(), 12)
	require.NoError(t, err)
	require.True(t, d.Remaining.Valid)
	assert.True(t, d.Remaining.Decimal.IsZero())
	require.True(t, d.TotalPaid.Valid)
	assert.Equal(t, "1 265 000", money.Format(d.TotalPaid.Decimal))
}

func TestCreateValidation(t *testing.T) {
	fe := form.Validate(CreateRequest{PaymentAmount: 10, PaymentMethod: 1, CashType: "euro"})
	assert.Contains(t, fe, "arrival_id")
	assert.Contains(t, fe, "cash_type")
	assert.NotContains(t, fe, "payment_amount")

	assert.Nil(t, form.Validate(CreateRequest{ArrivalID: 1, PaymentAmount: 10, PaymentMethod: 4, CashType: money.CashSum}))
}
