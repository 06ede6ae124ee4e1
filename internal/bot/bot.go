package bot

import (
	"context"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/sklad-bot/internal/api"
	"github.com/Spok95/sklad-bot/internal/dialog"
	"github.com/Spok95/sklad-bot/internal/domain/arrivals"
	"github.com/Spok95/sklad-bot/internal/domain/balance"
	"github.com/Spok95/sklad-bot/internal/domain/catalog"
	"github.com/Spok95/sklad-bot/internal/domain/issues"
	"github.com/Spok95/sklad-bot/internal/domain/kitchen"
	"github.com/Spok95/sklad-bot/internal/domain/payments"
	"github.com/Spok95/sklad-bot/internal/domain/rates"
	"github.com/Spok95/sklad-bot/internal/domain/users"
	"github.com/Spok95/sklad-bot/internal/domain/writeoffs"
	"github.com/Spok95/sklad-bot/internal/export"
	"github.com/Spok95/sklad-bot/internal/mutation"
	"github.com/Spok95/sklad-bot/internal/search"
)

// sender — часть *tgbotapi.BotAPI, которой пользуется бот.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type stateStore interface {
	Get(ctx context.Context, chatID int64) (*dialog.Item, error)
	Set(ctx context.Context, chatID int64, state dialog.State, payload dialog.Payload) error
	Reset(ctx context.Context, chatID int64) error
}

type userStore interface {
	GetByTelegramID(ctx context.Context, tgID int64) (*users.User, error)
	Register(ctx context.Context, tg users.Telegram, fio string) (*users.User, error)
	Approve(ctx context.Context, tgID int64, role users.Role) (*users.User, error)
	Reject(ctx context.Context, tgID int64) (*users.User, error)
}

type updateCounter interface {
	Update(kind string)
}

type Deps struct {
	API       sender
	Log       *slog.Logger
	Users     userStore
	States    stateStore
	AdminChat int64
	Location  *time.Location
	Limit     int // записей на страницу
	Metrics   updateCounter
	Search    *search.Dispatcher
	Client    *api.Client
}

type Bot struct {
	api       sender
	log       *slog.Logger
	users     userStore
	states    stateStore
	adminChat int64
	loc       *time.Location
	limit     int
	metrics   updateCounter
	search    *search.Dispatcher
	now       func() time.Time

	modals  *mutation.Registry
	exports *exportRegistry
	prober  export.Prober

	balance   *balance.Repo
	arrivals  *arrivals.Repo
	payments  *payments.Repo
	issues    *issues.Repo
	writeoffs *writeoffs.Repo
	kitchen   *kitchen.Repo
	rates     *rates.Repo
	materials *catalog.Materials

	screens map[string]screen
	pickers map[string]picker
	forms   map[string]*formSpec

	unsub []func()
}

func New(d Deps) *Bot {
	if d.Log == nil {
		d.Log = slog.New(slog.DiscardHandler)
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Search == nil {
		d.Search = search.New(0)
	}
	b := &Bot{
		api:       d.API,
		log:       d.Log,
		users:     d.Users,
		states:    d.States,
		adminChat: d.AdminChat,
		loc:       d.Location,
		limit:     d.Limit,
		metrics:   d.Metrics,
		search:    d.Search,
		modals:    mutation.NewRegistry(),
		exports:   newExportRegistry(),
		prober:    d.Client,

		balance:   balance.NewRepo(d.Client),
		arrivals:  arrivals.NewRepo(d.Client),
		payments:  payments.NewRepo(d.Client),
		issues:    issues.NewRepo(d.Client),
		writeoffs: writeoffs.NewRepo(d.Client),
		kitchen:   kitchen.NewRepo(d.Client),
		rates:     rates.NewRepo(d.Client),
		materials: catalog.NewMaterials(d.Client),
	}
	b.now = func() time.Time { return time.Now().In(b.loc) }
	b.screens = b.buildScreens()
	b.pickers = b.buildPickers(d.Client)
	b.forms = b.buildForms()

	for tag := range b.screens {
		b.unsub = append(b.unsub, b.search.Subscribe(tag, b.onListSearch))
	}
	for tag := range b.pickers {
		b.unsub = append(b.unsub, b.search.Subscribe(pickTag(tag), b.onPickSearch))
	}
	return b
}

func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) error {
	defer b.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, upd)
		}
	}
}

// Close отписывает экраны от поиска.
func (b *Bot) Close() {
	for _, u := range b.unsub {
		u()
	}
	b.unsub = nil
}

func (b *Bot) handleUpdate(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.Message != nil:
		if upd.Message.IsCommand() {
			b.count("command")
			b.handleCommand(ctx, upd.Message)
			return
		}
		b.count("message")
		b.handleMessage(ctx, upd.Message)
	case upd.CallbackQuery != nil:
		b.count("callback")
		b.handleCallback(ctx, upd.CallbackQuery)
	}
}

func (b *Bot) count(kind string) {
	if b.metrics != nil {
		b.metrics.Update(kind)
	}
}

func (b *Bot) state(ctx context.Context, chatID int64) *dialog.Item {
	st, err := b.states.Get(ctx, chatID)
	if err != nil {
		b.log.Error("load dialog state", "chat_id", chatID, "err", err)
		return &dialog.Item{ChatID: chatID, State: dialog.StateIdle, Payload: dialog.Payload{}}
	}
	if st.Payload == nil {
		st.Payload = dialog.Payload{}
	}
	return st
}

func (b *Bot) setState(ctx context.Context, chatID int64, state dialog.State, p dialog.Payload) {
	if err := b.states.Set(ctx, chatID, state, p); err != nil {
		b.log.Error("save dialog state", "chat_id", chatID, "state", state, "err", err)
	}
}

func (b *Bot) resetState(ctx context.Context, chatID int64) {
	b.search.Cancel(chatID)
	b.modals.Get(chatID).Close()
	b.modals.Drop(chatID)
	b.exports.drop(chatID)
	if err := b.states.Reset(ctx, chatID); err != nil {
		b.log.Error("reset dialog state", "chat_id", chatID, "err", err)
	}
}
