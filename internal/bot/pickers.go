package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/sklad-bot/internal/api"
	"github.com/Spok95/sklad-bot/internal/dialog"
	"github.com/Spok95/sklad-bot/internal/domain/arrivals"
	"github.com/Spok95/sklad-bot/internal/domain/catalog"
	"github.com/Spok95/sklad-bot/internal/domain/money"
	"github.com/Spok95/sklad-bot/internal/listing"
	"github.com/Spok95/sklad-bot/internal/search"
)

// option — строка выбора; Value — исходная запись (материал, приход...).
type option struct {
	ID    int64
	Label string
	Value any
}

// picker — выбор записи из справочника с листанием и поиском.
type picker interface {
	load(ctx context.Context, chatID int64, st listing.State) ([]option, listing.State, error)
	find(chatID int64, id int64) (option, bool)
}

type pickList[T any] struct {
	src   listing.Source[T]
	limit int
	opt   func(T) option

	mu    sync.Mutex
	ctrls map[int64]*listing.Controller[T]
}

func (p *pickList[T]) ctrl(chatID int64) *listing.Controller[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctrls == nil {
		p.ctrls = make(map[int64]*listing.Controller[T])
	}
	c, ok := p.ctrls[chatID]
	if !ok {
		c = listing.New(p.src, p.limit)
		p.ctrls[chatID] = c
	}
	return c
}

func (p *pickList[T]) load(ctx context.Context, chatID int64, st listing.State) ([]option, listing.State, error) {
	c := p.ctrl(chatID)
	c.Restore(st)
	err := c.Refetch(ctx)
	items := c.Items()
	out := make([]option, 0, len(items))
	for _, it := range items {
		out = append(out, p.opt(it))
	}
	return out, c.State(), err
}

func (p *pickList[T]) find(chatID int64, id int64) (option, bool) {
	for _, it := range p.ctrl(chatID).Items() {
		if o := p.opt(it); o.ID == id {
			return o, true
		}
	}
	return option{}, false
}

func refOption(r catalog.Ref) option { return option{ID: r.ID, Label: r.Title(), Value: r} }

func (b *Bot) buildPickers(c *api.Client) map[string]picker {
	refs := func(res string) picker {
		return &pickList[catalog.Ref]{src: catalog.NewRefs(c, res), limit: b.limit, opt: refOption}
	}
	return map[string]picker{
		api.ResForemen:           refs(api.ResForemen),
		api.ResSuppliers:         refs(api.ResSuppliers),
		api.ResObjects:           refs(api.ResObjects),
		api.ResKitchenCategories: refs(api.ResKitchenCategories),
		api.ResMaterials: &pickList[catalog.Material]{
			src: b.materials, limit: b.limit,
			opt: func(m catalog.Material) option {
				label := m.Name
				if m.Returnable() {
					label = "🔧 " + label
				}
				return option{ID: m.ID, Label: label, Value: m}
			},
		},
		api.ResArrivals: &pickList[arrivals.Arrival]{
			src: b.arrivals, limit: b.limit,
			opt: func(a arrivals.Arrival) option {
				return option{
					ID:    a.ArrivalID,
					Label: fmt.Sprintf("#%d · %s · %s", a.ArrivalID, api.HumanDate(a.CreatedAt), money.Format(a.ArrivalAmount)),
					Value: a,
				}
			},
		},
	}
}

func pickTag(res string) string { return "pick:" + res }

// showPicker открывает выбор; состояние диалога не меняется, в payload
// добавляются ключи выбора.
func (b *Bot) showPicker(ctx context.Context, chatID int64, editMsgID *int, state dialog.State, p dialog.Payload, res, title string, st listing.State) {
	pk, ok := b.pickers[res]
	if !ok {
		b.log.Error("unknown picker", "res", res)
		return
	}
	if st.Page < 1 {
		st.Page = 1
	}
	opts, ls, err := pk.load(ctx, chatID, st)
	if errors.Is(err, listing.ErrStale) {
		return
	}

	var sb strings.Builder
	if err != nil {
		sb.WriteString(errorText(err) + "\n\n")
	}
	sb.WriteString(title)
	if ls.Query != "" {
		sb.WriteString(fmt.Sprintf("\n🔎 Поиск: «%s»", ls.Query))
	}
	if len(opts) == 0 {
		sb.WriteString("\n\n" + emptyText)
	}
	sb.WriteString(fmt.Sprintf("\n\nДля поиска отправьте текст от %d символов.", listing.MinQueryLen))

	rows := [][]tgbotapi.InlineKeyboardButton{}
	for _, o := range opts {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(truncate(o.Label, 60), fmt.Sprintf("pk:id:%d", o.ID)),
		))
	}
	if pr := pagerRow("pk:pg:", ls); pr != nil {
		rows = append(rows, pr)
	}
	rows = append(rows, navRow(true, true))
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)

	mid := b.show(chatID, editMsgID, sb.String(), &kb)
	p[keyPick] = res
	p[keyPickTitle] = title
	p[keyMid] = mid
	_ = dialog.Encode(p, keyPickState, ls)
	b.setState(ctx, chatID, state, p)
}

func clearPick(p dialog.Payload) {
	delete(p, keyPick)
	delete(p, keyPickTitle)
	delete(p, keyPickState)
}

// onPickSearch — подписчик поиска для открытого выбора.
func (b *Bot) onPickSearch(ctx context.Context, q search.Query) {
	st := b.state(ctx, q.ChatID)
	res, _ := dialog.GetString(st.Payload, keyPick)
	if res == "" || pickTag(res) != q.Page {
		return
	}
	title, _ := dialog.GetString(st.Payload, keyPickTitle)
	var editMsgID *int
	if mid, ok := dialog.GetInt64(st.Payload, keyMid); ok {
		m := int(mid)
		editMsgID = &m
	}
	b.showPicker(ctx, q.ChatID, editMsgID, st.State, st.Payload, res, title, listing.State{Page: 1, Query: q.Text})
}

// pk:pg:<n> | pk:id:<id>
func (b *Bot) onPickCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, st *dialog.Item) {
	chatID := cb.Message.Chat.ID
	mid := cb.Message.MessageID

	res, _ := dialog.GetString(st.Payload, keyPick)
	pk, ok := b.pickers[res]
	if !ok {
		b.answerCallback(cb, "Неактуально", false)
		return
	}
	parts := strings.SplitN(strings.TrimPrefix(cb.Data, "pk:"), ":", 2)
	if len(parts) != 2 {
		b.answerCallback(cb, "Некорректные данные", true)
		return
	}
	n, _ := strconv.ParseInt(parts[1], 10, 64)

	switch parts[0] {
	case "pg":
		var saved listing.State
		_, _ = dialog.Decode(st.Payload, keyPickState, &saved)
		saved.Page = int(n)
		title, _ := dialog.GetString(st.Payload, keyPickTitle)
		b.showPicker(ctx, chatID, &mid, st.State, st.Payload, res, title, saved)
		b.answerCallback(cb, "", false)

	case "id":
		o, ok := pk.find(chatID, n)
		if !ok {
			b.answerCallback(cb, "Запись не найдена, обновите список", true)
			return
		}
		b.search.Cancel(chatID)
		p := st.Payload.Clone()
		clearPick(p)
		b.onPicked(ctx, chatID, &mid, st.State, p, o)
		b.answerCallback(cb, "", false)

	default:
		b.answerCallback(cb, "Неактуально", false)
	}
}

// onPicked передаёт выбор сценарию, который открыл выбор.
func (b *Bot) onPicked(ctx context.Context, chatID int64, editMsgID *int, state dialog.State, p dialog.Payload, o option) {
	switch state {
	case dialog.StateForm:
		b.formPicked(ctx, chatID, editMsgID, p, o)
	case dialog.StateIssForeman, dialog.StateIssMat:
		b.issuancePicked(ctx, chatID, editMsgID, state, p, o)
	case dialog.StateExpDim:
		b.exportPicked(ctx, chatID, editMsgID, p, o)
	default:
		b.log.Warn("pick in unexpected state", "state", state)
	}
}
