package bot

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Spok95/sklad-bot/internal/dialog"
	"github.com/Spok95/sklad-bot/internal/listing"
)

const balancePage = `{"result":[{"id":7,"payment_amount":150000,"payment_method":2,"created_at":"2026-10-14","user_name":"Иванов"}],"pages":1}`

func TestPagerRow(t *testing.T) {
	assert.Nil(t, pagerRow("ls:balance:pg:", listing.State{Page: 1, TotalPages: 1}))
	assert.Nil(t, pagerRow("ls:balance:pg:", listing.State{Page: 1, TotalPages: 0}))

	row := pagerRow("ls:balance:pg:", listing.State{Page: 2, TotalPages: 3})
	require.Len(t, row, 3)
	assert.Equal(t, []string{"ls:balance:pg:1", "noop", "ls:balance:pg:3"},
		callbacks([][]tgbotapi.InlineKeyboardButton{row}))
	assert.Equal(t, "2/3", row[1].Text)

	// последняя страница: только «назад»
	row = pagerRow("pk:pg:", listing.State{Page: 3, TotalPages: 3})
	assert.Equal(t, []string{"pk:pg:2", "noop"}, callbacks([][]tgbotapi.InlineKeyboardButton{row}))
}

func TestEmptyListShowsNoData(t *testing.T) {
	h := newHarness(t, map[string]http.HandlerFunc{
		"GET /api/balance/list": jsonHandler(http.StatusOK, `{"result":[],"pages":0}`),
	})
	h.text(menuBalance)

	text, rows := h.tg.screen(t)
	assert.Contains(t, text, emptyText)
	assert.Equal(t, dialog.StateList, h.states.state(testChat))
	requireButton(t, rows, "ls:balance:new")
	requireButton(t, rows, "ls:balance:exp")
}

func TestPageBeyondTotalIsEmpty(t *testing.T) {
	h := newHarness(t, map[string]http.HandlerFunc{
		"GET /api/balance/list": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("page") == "1" {
				jsonHandler(http.StatusOK, balancePage)(w, r)
				return
			}
			jsonHandler(http.StatusOK, `{"result":[],"pages":1}`)(w, r)
		},
	})
	h.text(menuBalance)
	text, _ := h.tg.screen(t)
	require.Contains(t, text, "150 000")

	h.press("ls:balance:pg:5")
	text, rows := h.tg.screen(t)
	assert.Contains(t, text, emptyText)
	requireButton(t, rows, "ls:balance:pg:4")
}

func TestShortQueryUsesList(t *testing.T) {
	h := newHarness(t, map[string]http.HandlerFunc{
		"GET /api/balance/list":    jsonHandler(http.StatusOK, balancePage),
		"POST /api/balance/search": jsonHandler(http.StatusOK, `{"result":[],"pages":0}`),
	})
	h.text(menuBalance)
	require.Equal(t, 1, h.api.called("GET /api/balance/list"))

	h.text("ab")
	assert.Equal(t, 2, h.api.called("GET /api/balance/list"))
	assert.Equal(t, 0, h.api.called("POST /api/balance/search"))
	text, _ := h.tg.screen(t)
	assert.Contains(t, text, "показан весь список")

	h.text("Ива")
	assert.Equal(t, 1, h.api.called("POST /api/balance/search?keyword="))
	text, rows := h.tg.screen(t)
	assert.Contains(t, text, emptyText)
	requireButton(t, rows, "ls:balance:rs")
}

func TestRejectedDeleteKeepsList(t *testing.T) {
	h := newHarness(t, map[string]http.HandlerFunc{
		"GET /api/balance/list":        jsonHandler(http.StatusOK, balancePage),
		"DELETE /api/balance/delete/7": jsonHandler(http.StatusConflict, `{"message":"Запись уже закрыта"}`),
	})
	h.text(menuBalance)
	h.press("ls:balance:del:7")
	text, rows := h.tg.screen(t)
	require.Contains(t, text, "Удалить запись?")
	requireButton(t, rows, "ls:balance:rm:7")

	h.press("ls:balance:rm:7")
	text, rows = h.tg.screen(t)
	assert.Contains(t, text, "❌ Запись уже закрыта")
	assert.Contains(t, text, "Касса")
	requireButton(t, rows, "ls:balance:it:7")
	// список не перечитывался
	assert.Equal(t, 1, h.api.called("GET /api/balance/list"))
	assert.Equal(t, dialog.StateList, h.states.state(testChat))
}

func TestDeleteRefetchesList(t *testing.T) {
	deleted := false
	h := newHarness(t, map[string]http.HandlerFunc{
		"GET /api/balance/list": func(w http.ResponseWriter, r *http.Request) {
			if deleted {
				jsonHandler(http.StatusOK, `{"result":[],"pages":0}`)(w, r)
				return
			}
			jsonHandler(http.StatusOK, balancePage)(w, r)
		},
		"DELETE /api/balance/delete/7": func(w http.ResponseWriter, r *http.Request) {
			deleted = true
			jsonHandler(http.StatusOK, `{}`)(w, r)
		},
	})
	h.text(menuBalance)
	h.press("ls:balance:rm:7")

	text, _ := h.tg.screen(t)
	assert.Contains(t, text, "✅ Запись удалена")
	assert.Contains(t, text, emptyText)
	assert.Equal(t, 2, h.api.called("GET /api/balance/list"))
}

func TestBalanceFormSubmit(t *testing.T) {
	h := newHarness(t, map[string]http.HandlerFunc{
		"GET /api/balance/list":    jsonHandler(http.StatusOK, balancePage),
		"POST /api/balance/create": jsonHandler(http.StatusOK, `{"id":8}`),
	})
	h.text(menuBalance)
	h.press("ls:balance:new")
	text, _ := h.tg.screen(t)
	require.Contains(t, text, "шаг 1 из 3")

	h.text("ноль")
	text, _ = h.tg.screen(t)
	assert.Contains(t, text, "⚠️ Введите сумму")

	h.text("150 000")
	_, rows := h.tg.screen(t)
	requireButton(t, rows, "fm:ch:2")

	h.press("fm:ch:2")
	h.press("fm:skip")
	text, rows = h.tg.screen(t)
	require.Contains(t, text, "Проверьте данные")
	assert.Contains(t, text, "150000")
	assert.Contains(t, text, "Карта")
	requireButton(t, rows, "fm:submit")

	h.press("fm:submit")
	assert.JSONEq(t, `{"payment_amount":150000,"payment_method":2}`, h.api.body("POST /api/balance/create"))
	text, _ = h.tg.screen(t)
	assert.Contains(t, text, "✅ Сохранено")
	assert.Equal(t, dialog.StateList, h.states.state(testChat))
}

func TestFormServerErrorKeepsFormOpen(t *testing.T) {
	h := newHarness(t, map[string]http.HandlerFunc{
		"GET /api/balance/list":    jsonHandler(http.StatusOK, balancePage),
		"POST /api/balance/create": jsonHandler(http.StatusUnprocessableEntity, `{"error":{"message":"Касса закрыта"}}`),
	})
	h.text(menuBalance)
	h.press("ls:balance:new")
	h.text("5000")
	h.press("fm:ch:1")
	h.press("fm:skip")
	h.press("fm:submit")

	text, rows := h.tg.screen(t)
	assert.Contains(t, text, "❌ Касса закрыта")
	requireButton(t, rows, "fm:submit")
	assert.Equal(t, dialog.StateForm, h.states.state(testChat))
}

func TestIssuanceConsumableSkipsCondition(t *testing.T) {
	h := newHarness(t, map[string]http.HandlerFunc{
		"GET /api/material-issues/list":    jsonHandler(http.StatusOK, `{"result":[],"pages":0}`),
		"GET /api/foremen/list":            jsonHandler(http.StatusOK, `{"result":[{"id":4,"full_name":"Петров П."}],"pages":1}`),
		"GET /api/materials/list":          jsonHandler(http.StatusOK, `{"result":[{"id":9,"name":"Цемент","unit":"кг","return_type":"2"}],"pages":1}`),
		"POST /api/material-issues/create": jsonHandler(http.StatusOK, `{"id":1}`),
	})
	h.text(menuIssues)
	h.press("ls:material-issues:new")
	_, rows := h.tg.screen(t)
	requireButton(t, rows, "pk:id:4")

	h.press("pk:id:4")
	h.press("iss:type:2")
	assert.Equal(t, dialog.StateIssItems, h.states.state(testChat))

	h.press("iss:add")
	h.press("pk:id:9")
	assert.Equal(t, dialog.StateIssQty, h.states.state(testChat))

	h.text("2,5")
	// расходник: сразу к списку позиций, без состояния
	assert.Equal(t, dialog.StateIssItems, h.states.state(testChat))
	text, rows := h.tg.screen(t)
	assert.Contains(t, text, "Цемент — 2.5 кг")
	requireButton(t, rows, "iss:done")

	h.press("iss:done")
	h.press("iss:comment:skip")
	h.press("iss:submit")

	assert.JSONEq(t, `{"foreman_id":4,"return_type":2,"items":[{"material_id":9,"quantity":2.5}]}`,
		h.api.body("POST /api/material-issues/create"))
	text, _ = h.tg.screen(t)
	assert.Contains(t, text, "✅ Выдача оформлена")
}

func TestIssuanceWithReturnNeedsDate(t *testing.T) {
	h := newHarness(t, map[string]http.HandlerFunc{
		"GET /api/material-issues/list": jsonHandler(http.StatusOK, `{"result":[],"pages":0}`),
		"GET /api/foremen/list":         jsonHandler(http.StatusOK, `{"result":[{"id":4,"full_name":"Петров П."}],"pages":1}`),
	})
	h.text(menuIssues)
	h.press("ls:material-issues:new")
	h.press("pk:id:4")
	h.press("iss:type:1")
	require.Equal(t, dialog.StateIssDate, h.states.state(testChat))

	h.text("01.10.2026")
	text, _ := h.tg.screen(t)
	assert.Contains(t, text, "не может быть в прошлом")
	assert.Equal(t, dialog.StateIssDate, h.states.state(testChat))

	h.text("20.10.2026")
	assert.Equal(t, dialog.StateIssItems, h.states.state(testChat))
	text, _ = h.tg.screen(t)
	assert.Contains(t, text, "Вернуть до: 20.10.2026")
}

func TestReturnToolAllReturned(t *testing.T) {
	h := newHarness(t, map[string]http.HandlerFunc{
		"GET /api/material-issues/read/3": jsonHandler(http.StatusOK, `{"id":3,"items":[
			{"id":11,"material_name":"Перфоратор","quantity":1,"returned":1},
			{"id":12,"material_name":"Болгарка","quantity":1,"returned":"true"}]}`),
	})
	h.press("ret:open:3")

	text, rows := h.tg.screen(t)
	assert.Contains(t, text, allReturned)
	assert.Equal(t, []string{"ret:close"}, callbacks(rows))
}

func TestReturnItem(t *testing.T) {
	h := newHarness(t, map[string]http.HandlerFunc{
		"GET /api/material-issues/read/3": jsonHandler(http.StatusOK, `{"id":3,"items":[
			{"id":11,"material_name":"Перфоратор","quantity":1,"returned":0}]}`),
		"PUT /api/material-issues/return/11": jsonHandler(http.StatusOK, `{}`),
	})
	h.press("ret:open:3")
	_, rows := h.tg.screen(t)
	requireButton(t, rows, "ret:it:11")

	h.press("ret:it:11")
	h.press("ret:cond:2")
	h.press("ret:today")
	require.Equal(t, dialog.StateRetNote, h.states.state(testChat))
	h.text("царапины")

	assert.JSONEq(t, `{"condition_type":2,"return_date":"2026-10-15","condition_note":"царапины"}`,
		h.api.body("PUT /api/material-issues/return/11"))
	text, _ := h.tg.screen(t)
	assert.Contains(t, text, "✅ Возврат отмечен")
}

func TestExportStartOnlyHasNoDownload(t *testing.T) {
	h := newHarness(t, map[string]http.HandlerFunc{
		"GET /api/balance/list":    jsonHandler(http.StatusOK, balancePage),
		"GET /api/excel/kassabank": jsonHandler(http.StatusOK, `{"total_count":5}`),
	})
	h.text(menuBalance)
	h.press("ls:balance:exp")
	h.press("exp:start")
	h.text("01.10.2026")

	text, rows := h.tg.screen(t)
	assert.Contains(t, text, "Укажите обе даты")
	assert.NotContains(t, callbacks(rows), "exp:dl")
	assert.Zero(t, h.api.called("GET /api/excel/"))

	h.press("exp:dl")
	assert.Empty(t, h.tg.documents())
	assert.Zero(t, h.api.called("GET /api/excel/"))
}

func TestExportDownload(t *testing.T) {
	book := excelize.NewFile()
	require.NoError(t, book.SetSheetRow("Sheet1", "A1", &[]any{"Дата", "Сумма"}))
	require.NoError(t, book.SetSheetRow("Sheet1", "A2", &[]any{"01-10-2026", 1000}))
	require.NoError(t, book.SetSheetRow("Sheet1", "A3", &[]any{"02-10-2026", 2000}))
	buf, err := book.WriteToBuffer()
	require.NoError(t, err)

	h := newHarness(t, map[string]http.HandlerFunc{
		"GET /api/balance/list": jsonHandler(http.StatusOK, balancePage),
		"GET /api/excel/kassabank": func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("start_date") != "01-10-2026" || q.Get("end_date") != "10-10-2026" {
				http.Error(w, "bad dates", http.StatusBadRequest)
				return
			}
			if q.Get("count") == "1" {
				_ = json.NewEncoder(w).Encode(map[string]int{"total_count": 2})
				return
			}
			w.Header().Set("Content-Disposition", `attachment; filename="kassa.xlsx"`)
			_, _ = w.Write(buf.Bytes())
		},
	})
	h.text(menuBalance)
	h.press("ls:balance:exp")
	h.press("exp:start")
	h.text("01.10.2026")
	h.press("exp:end")
	h.text("10.10.2026")

	text, rows := h.tg.screen(t)
	assert.Contains(t, text, "Найдено строк: 2")
	requireButton(t, rows, "exp:dl")

	h.press("exp:dl")
	docs := h.tg.documents()
	require.Len(t, docs, 1)
	assert.Contains(t, docs[0].Caption, "строк: 2")
	fb, ok := docs[0].File.(tgbotapi.FileBytes)
	require.True(t, ok)
	assert.Equal(t, "kassa.xlsx", fb.Name)
}

func TestExportReversedRangeSkipsCount(t *testing.T) {
	h := newHarness(t, map[string]http.HandlerFunc{
		"GET /api/balance/list":    jsonHandler(http.StatusOK, balancePage),
		"GET /api/excel/kassabank": jsonHandler(http.StatusOK, `{"total_count":5}`),
	})
	h.text(menuBalance)
	h.press("ls:balance:exp")
	h.press("exp:start")
	h.text("10.10.2026")
	h.press("exp:end")
	h.text("01.10.2026")

	text, rows := h.tg.screen(t)
	assert.Contains(t, text, "Дата начала позже даты окончания")
	assert.NotContains(t, callbacks(rows), "exp:dl")
	assert.Zero(t, h.api.called("GET /api/excel/"))
}

func TestFailedSearchKeepsListHeader(t *testing.T) {
	h := newHarness(t, map[string]http.HandlerFunc{
		"GET /api/balance/list":    jsonHandler(http.StatusOK, balancePage),
		"POST /api/balance/search": jsonHandler(http.StatusInternalServerError, `{"error":"Поиск недоступен"}`),
	})
	h.text(menuBalance)
	h.text("Иванов")

	text, rows := h.tg.screen(t)
	assert.Contains(t, text, "❌ Поиск недоступен")
	assert.NotContains(t, text, "Поиск: «")
	requireButton(t, rows, "ls:balance:it:7")
	assert.NotContains(t, callbacks(rows), "ls:balance:rs")
	assert.Equal(t, dialog.StateList, h.states.state(testChat))
}

func TestOpeningCardCancelsPendingSearch(t *testing.T) {
	h := newHarnessWithDebounce(t, map[string]http.HandlerFunc{
		"GET /api/balance/list":    jsonHandler(http.StatusOK, balancePage),
		"POST /api/balance/search": jsonHandler(http.StatusOK, `{"result":[],"pages":0}`),
	}, time.Hour)
	h.text(menuBalance)
	h.text("Иванов")
	require.True(t, h.bot.search.Searching(testChat))

	h.press("ls:balance:it:7")
	assert.False(t, h.bot.search.Searching(testChat))
	_, rows := h.tg.screen(t)
	requireButton(t, rows, "ls:balance:del:7")
	assert.Zero(t, h.api.called("POST /api/balance/search"))
}

const paymentsPage = `{"result":[{"payment_id":41,"arrival_id":12,"payment_amount":"300000","payment_method":1,` +
	`"cash_type":"sum","supplier_name":"ООО Бетон","created_at":"2026-10-14"}],"pages":1}`

func TestPaymentDeleteWithReason(t *testing.T) {
	h := newHarness(t, map[string]http.HandlerFunc{
		"GET /api/payments/list":         jsonHandler(http.StatusOK, paymentsPage),
		"DELETE /api/payments/delete/41": jsonHandler(http.StatusOK, `{"success":true}`),
	})
	h.text(menuPayments)
	h.press("ls:payments:del:41")

	text, rows := h.tg.screen(t)
	require.Contains(t, text, "Укажите причину удаления")
	requireButton(t, rows, "ls:payments:rm:41")
	require.Equal(t, dialog.StateDeleteReason, h.states.state(testChat))

	h.text("ошибка суммы")
	assert.JSONEq(t, `{"comments":"ошибка суммы"}`, h.api.body("DELETE /api/payments/delete/41"))
	text, _ = h.tg.screen(t)
	assert.Contains(t, text, "✅ Запись удалена")
	assert.Equal(t, dialog.StateList, h.states.state(testChat))
}

func TestPaymentDeleteWithoutReasonSendsNoBody(t *testing.T) {
	h := newHarness(t, map[string]http.HandlerFunc{
		"GET /api/payments/list":         jsonHandler(http.StatusOK, paymentsPage),
		"DELETE /api/payments/delete/41": jsonHandler(http.StatusOK, `{"success":true}`),
	})
	h.text(menuPayments)
	h.press("ls:payments:del:41")
	h.press("ls:payments:rm:41")

	assert.Equal(t, 1, h.api.called("DELETE /api/payments/delete/41"))
	assert.Empty(t, h.api.body("DELETE /api/payments/delete/41"))
	text, _ := h.tg.screen(t)
	assert.Contains(t, text, "✅ Запись удалена")
}

func TestRateScreenAndUpdate(t *testing.T) {
	h := newHarness(t, map[string]http.HandlerFunc{
		"GET /api/dollar-rate":         jsonHandler(http.StatusOK, `{"dollar_rate":"12500","updated_at":"2026-10-14"}`),
		"POST /api/dollar-rate/update": jsonHandler(http.StatusOK, `{}`),
	})
	h.text(menuRate)
	text, rows := h.tg.screen(t)
	assert.Contains(t, text, "Курс доллара: 12 500 сум")
	requireButton(t, rows, "rate:edit")

	h.press("rate:edit")
	text, _ = h.tg.screen(t)
	assert.Contains(t, text, "Текущий курс: 12 500")
	assert.Equal(t, dialog.StateForm, h.states.state(testChat))

	h.text("12 650,50")
	text, rows = h.tg.screen(t)
	require.Contains(t, text, "Проверьте данные")
	requireButton(t, rows, "fm:submit")

	h.press("fm:submit")
	assert.JSONEq(t, `{"dollar_rate":12650.5}`, h.api.body("POST /api/dollar-rate/update"))
	text, _ = h.tg.screen(t)
	assert.Contains(t, text, "✅ Сохранено")
	assert.Equal(t, dialog.StateIdle, h.states.state(testChat))
}

func TestSummary(t *testing.T) {
	h := newHarness(t, map[string]http.HandlerFunc{
		"GET /api/balance/available": jsonHandler(http.StatusOK, `{"available_balance":"2500000"}`),
		"GET /api/dollar-rate":       jsonHandler(http.StatusOK, `{"dollar_rate":"12500"}`),
	})
	h.text(menuSummary)

	text, _ := h.tg.screen(t)
	assert.Contains(t, text, "Остаток кассы: 2 500 000 сум")
	assert.Contains(t, text, "Курс доллара: 12 500 сум")
}

func TestSummaryShowsRateWhenBalanceFails(t *testing.T) {
	h := newHarness(t, map[string]http.HandlerFunc{
		"GET /api/balance/available": jsonHandler(http.StatusInternalServerError, `{"error":"Касса недоступна"}`),
		"GET /api/dollar-rate":       jsonHandler(http.StatusOK, `{"dollar_rate":"12500"}`),
	})
	h.text(menuSummary)

	text, _ := h.tg.screen(t)
	assert.Contains(t, text, "Остаток кассы: Касса недоступна")
	assert.Contains(t, text, "Курс доллара: 12 500 сум")
}

func TestPaymentDetailShowsServerTotals(t *testing.T) {
	h := newHarness(t, map[string]http.HandlerFunc{
		"GET /api/payments/read/12": jsonHandler(http.StatusOK, `{
			"arrival":{"arrival_id":12,"arrival_amount":"1265000","payment_method":1},
			"payments":[{"payment_id":1,"arrival_id":12,"payment_amount":"100","cash_type":"dollar"}],
			"total_paid":"1265000","remaining":"0"}`),
	})
	h.press("pay:read:12")

	text, rows := h.tg.screen(t)
	assert.Contains(t, text, "Приход #12")
	assert.Contains(t, text, "Оплачено: 1 265 000")
	assert.Contains(t, text, "Остаток долга: 0")
	assert.Equal(t, []string{"ls:payments:back"}, callbacks(rows))
}

func TestPaymentDetailWithoutTotals(t *testing.T) {
	h := newHarness(t, map[string]http.HandlerFunc{
		"GET /api/payments/read/12": jsonHandler(http.StatusOK, `{
			"arrival":{"arrival_id":12,"arrival_amount":"1265000"},
			"payments":[{"payment_id":1,"arrival_id":12,"payment_amount":"100","cash_type":"dollar"}]}`),
	})
	h.press("pay:read:12")

	text, _ := h.tg.screen(t)
	assert.Contains(t, text, "Оплачено: —")
	assert.Contains(t, text, "Остаток долга: —")
}

func TestPaymentDetailNotFound(t *testing.T) {
	h := newHarness(t, map[string]http.HandlerFunc{
		"GET /api/payments/read/12": jsonHandler(http.StatusNotFound, `{"error":"not found"}`),
	})
	h.press("pay:read:12")

	assert.Contains(t, h.tg.alerts(), "Приход не найден")
}
