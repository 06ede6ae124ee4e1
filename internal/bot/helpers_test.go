package bot

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/sklad-bot/internal/api"
	"github.com/Spok95/sklad-bot/internal/dialog"
	"github.com/Spok95/sklad-bot/internal/domain/users"
	"github.com/Spok95/sklad-bot/internal/search"
)

const testChat int64 = 100

// fakeSender запоминает всё, что бот отправил в Telegram.
type fakeSender struct {
	mu     sync.Mutex
	nextID int
	sent   []tgbotapi.Chattable
	reqs   []tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// screen последний показанный экран: текст и inline-кнопки.
func (f *fakeSender) screen(t *testing.T) (string, [][]tgbotapi.InlineKeyboardButton) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		switch m := f.sent[i].(type) {
		case tgbotapi.EditMessageTextConfig:
			if m.ReplyMarkup == nil {
				return m.Text, nil
			}
			return m.Text, m.ReplyMarkup.InlineKeyboard
		case tgbotapi.MessageConfig:
			if kb, ok := m.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup); ok {
				return m.Text, kb.InlineKeyboard
			}
			return m.Text, nil
		}
	}
	t.Fatal("nothing was shown")
	return "", nil
}

func (f *fakeSender) documents() []tgbotapi.DocumentConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.DocumentConfig
	for _, c := range f.sent {
		if d, ok := c.(tgbotapi.DocumentConfig); ok {
			out = append(out, d)
		}
	}
	return out
}

// alerts тексты ответов на нажатия кнопок.
func (f *fakeSender) alerts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.reqs {
		if cb, ok := c.(tgbotapi.CallbackConfig); ok && cb.Text != "" {
			out = append(out, cb.Text)
		}
	}
	return out
}

func callbacks(rows [][]tgbotapi.InlineKeyboardButton) []string {
	var out []string
	for _, r := range rows {
		for _, b := range r {
			if b.CallbackData != nil {
				out = append(out, *b.CallbackData)
			}
		}
	}
	return out
}

// memStates хранит payload через JSON, как настоящая таблица.
type memStates struct {
	mu    sync.Mutex
	items map[int64]dialog.Item
}

func newMemStates() *memStates { return &memStates{items: map[int64]dialog.Item{}} }

func (m *memStates) Get(_ context.Context, chatID int64) (*dialog.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[chatID]
	if !ok {
		return &dialog.Item{ChatID: chatID, State: dialog.StateIdle, Payload: dialog.Payload{}}, nil
	}
	return &it, nil
}

func (m *memStates) Set(_ context.Context, chatID int64, state dialog.State, p dialog.Payload) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	var back dialog.Payload
	if err := json.Unmarshal(raw, &back); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[chatID] = dialog.Item{ChatID: chatID, State: state, Payload: back}
	return nil
}

func (m *memStates) Reset(_ context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, chatID)
	return nil
}

func (m *memStates) state(chatID int64) dialog.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if it, ok := m.items[chatID]; ok {
		return it.State
	}
	return dialog.StateIdle
}

type approvedUsers struct{}

func (approvedUsers) GetByTelegramID(_ context.Context, tgID int64) (*users.User, error) {
	return &users.User{TelegramID: tgID, Role: users.RoleStaff, Status: users.StatusApproved, FIO: "Тест"}, nil
}

func (approvedUsers) Register(_ context.Context, tg users.Telegram, fio string) (*users.User, error) {
	return &users.User{TelegramID: tg.ID, FIO: fio, Status: users.StatusPending}, nil
}

func (approvedUsers) Approve(_ context.Context, tgID int64, role users.Role) (*users.User, error) {
	return &users.User{TelegramID: tgID, Role: role, Status: users.StatusApproved}, nil
}

func (approvedUsers) Reject(_ context.Context, tgID int64) (*users.User, error) {
	return &users.User{TelegramID: tgID, Status: users.StatusRejected}, nil
}

// fakeAPI — REST-бэкенд склада на httptest; маршруты в формате ServeMux
// ("GET /api/balance/list").
type fakeAPI struct {
	mu     sync.Mutex
	calls  []string
	bodies map[string]string
}

func (a *fakeAPI) record(r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	a.mu.Lock()
	defer a.mu.Unlock()
	key := r.Method + " " + r.URL.Path
	a.calls = append(a.calls, key+"?"+r.URL.RawQuery)
	if len(body) > 0 {
		a.bodies[key] = string(body)
	}
}

func (a *fakeAPI) called(prefix string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, c := range a.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (a *fakeAPI) body(key string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bodies[key]
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

type harness struct {
	bot    *Bot
	tg     *fakeSender
	states *memStates
	api    *fakeAPI
	nextID int
}

func newHarness(t *testing.T, routes map[string]http.HandlerFunc) *harness {
	t.Helper()
	return newHarnessWithDebounce(t, routes, 0)
}

// newHarnessWithDebounce — поиск с задержкой; запросы копятся до её истечения.
func newHarnessWithDebounce(t *testing.T, routes map[string]http.HandlerFunc, debounce time.Duration) *harness {
	t.Helper()
	fa := &fakeAPI{bodies: map[string]string{}}
	mux := http.NewServeMux()
	for pattern, h := range routes {
		mux.HandleFunc(pattern, h)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fa.record(r)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	h := &harness{tg: &fakeSender{}, states: newMemStates(), api: fa}
	disp := search.New(debounce)
	t.Cleanup(disp.Close)
	h.bot = New(Deps{
		API:      h.tg,
		Users:    approvedUsers{},
		States:   h.states,
		Location: time.UTC,
		Limit:    10,
		Search:   disp,
		Client:   api.New(srv.URL, "token"),
	})
	h.bot.now = func() time.Time { return time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(h.bot.Close)
	return h
}

func (h *harness) text(s string) {
	upd := tgbotapi.Update{Message: &tgbotapi.Message{
		Text: s,
		Chat: &tgbotapi.Chat{ID: testChat},
		From: &tgbotapi.User{ID: testChat},
	}}
	h.bot.handleUpdate(context.Background(), upd)
}

func (h *harness) press(data string) {
	h.nextID++
	upd := tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb",
		Data: data,
		From: &tgbotapi.User{ID: testChat},
		Message: &tgbotapi.Message{
			MessageID: 1000 + h.nextID,
			Chat:      &tgbotapi.Chat{ID: testChat},
		},
	}}
	h.bot.handleUpdate(context.Background(), upd)
}

func requireButton(t *testing.T, rows [][]tgbotapi.InlineKeyboardButton, data string) {
	t.Helper()
	require.Contains(t, callbacks(rows), data)
}
