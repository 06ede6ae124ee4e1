package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/sklad-bot/internal/dialog"
	"github.com/Spok95/sklad-bot/internal/domain/users"
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start":
		b.resetState(ctx, chatID)
		u, err := b.users.GetByTelegramID(ctx, msg.From.ID)
		if err != nil {
			b.log.Error("load user", "tg_id", msg.From.ID, "err", err)
			b.reply(chatID, "Ошибка: не удалось загрузить профиль")
			return
		}
		// авто-админ
		if msg.From.ID == b.adminChat && !u.IsAdmin() {
			if u, err = b.users.Approve(ctx, msg.From.ID, users.RoleAdmin); err != nil {
				b.log.Error("approve admin", "err", err)
				b.reply(chatID, "Ошибка: не удалось сохранить профиль")
				return
			}
		}
		if u.Active() {
			b.showMainMenu(chatID, "Готово! Разделы склада — на кнопках снизу.")
			return
		}
		if u != nil && u.Status == users.StatusPending && u.FIO != "" {
			b.reply(chatID, "Заявка уже у администратора. Ожидайте решения.")
			return
		}
		b.setState(ctx, chatID, dialog.StateAwaitFIO, dialog.Payload{})
		b.askFIO(chatID)

	case "help":
		b.reply(chatID, "Команды:\n/start — начать работу\n/help — помощь\n\n"+
			"В списках: листайте кнопками ◀️ ▶️, для поиска отправьте текст от 3 символов.")

	default:
		b.reply(chatID, "Не знаю такую команду. Наберите /help")
	}
}

func (b *Bot) showMainMenu(chatID int64, text string) {
	m := tgbotapi.NewMessage(chatID, text)
	m.ReplyMarkup = mainReplyKeyboard()
	b.send(m)
}

func (b *Bot) askFIO(chatID int64) {
	m := tgbotapi.NewMessage(chatID, "Введите, пожалуйста, ФИО одной строкой.")
	m.ReplyMarkup = navKeyboard(false, true)
	b.send(m)
}

func (b *Bot) onFIO(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	fio := strings.TrimSpace(msg.Text)
	if len([]rune(fio)) < 3 {
		b.reply(chatID, "ФИО слишком короткое. Попробуйте ещё раз.")
		return
	}
	b.setState(ctx, chatID, dialog.StateAwaitConfirm, dialog.Payload{"fio": fio})
	m := tgbotapi.NewMessage(chatID, fmt.Sprintf("Проверьте данные:\n— ФИО: %s\n\nОтправить заявку администратору?", fio))
	m.ReplyMarkup = confirmKeyboard()
	b.send(m)
}

// requireUser nil — доступа нет, пользователю уже ответили.
func (b *Bot) requireUser(ctx context.Context, chatID, tgID int64) *users.User {
	u, err := b.users.GetByTelegramID(ctx, tgID)
	if err != nil {
		b.log.Error("load user", "tg_id", tgID, "err", err)
		b.reply(chatID, "Ошибка: не удалось загрузить профиль")
		return nil
	}
	if !u.Active() {
		b.reply(chatID, "Доступ не подтверждён. Нажмите /start, чтобы подать заявку.")
		return nil
	}
	return u
}

// handleRegistrationCallback true — callback обработан.
func (b *Bot) handleRegistrationCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) bool {
	data := cb.Data
	fromChat := cb.Message.Chat.ID

	switch {
	case data == "rq:send":
		st := b.state(ctx, fromChat)
		if st.State != dialog.StateAwaitConfirm {
			b.answerCallback(cb, "Неактуально", false)
			return true
		}
		fio, _ := dialog.GetString(st.Payload, "fio")
		if _, err := b.users.Register(ctx, users.Telegram{ID: cb.From.ID, Username: cb.From.UserName}, fio); err != nil {
			b.log.Error("register user", "tg_id", cb.From.ID, "err", err)
			b.answerCallback(cb, "Не удалось отправить заявку", true)
			return true
		}
		b.editTextAndClear(fromChat, cb.Message.MessageID, "Заявка отправлена администратору. Ожидайте решения.")
		b.resetState(ctx, fromChat)

		text := fmt.Sprintf(
			"Новая заявка на доступ:\n— ФИО: %s\n— Telegram: @%s (id %d)\n\nОдобрить?",
			fio, cb.From.UserName, cb.From.ID,
		)
		m := tgbotapi.NewMessage(b.adminChat, text)
		m.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✅ Одобрить", fmt.Sprintf("approve:%d", cb.From.ID)),
				tgbotapi.NewInlineKeyboardButtonData("⛔ Отклонить", fmt.Sprintf("reject:%d", cb.From.ID)),
			),
		)
		b.send(m)
		b.answerCallback(cb, "Отправлено", false)
		return true

	case strings.HasPrefix(data, "approve:"):
		if fromChat != b.adminChat {
			b.answerCallback(cb, "Недостаточно прав", true)
			return true
		}
		tgID, err := strconv.ParseInt(strings.TrimPrefix(data, "approve:"), 10, 64)
		if err != nil {
			b.answerCallback(cb, "Некорректные данные", true)
			return true
		}
		if _, err := b.users.Approve(ctx, tgID, users.RoleStaff); err != nil {
			b.log.Error("approve user", "tg_id", tgID, "err", err)
			b.answerCallback(cb, "Ошибка при одобрении", true)
			return true
		}
		b.editTextAndClear(fromChat, cb.Message.MessageID, cb.Message.Text+"\n\n✅ Заявка подтверждена")
		b.showMainMenu(tgID, "Заявка подтверждена. Разделы склада — на кнопках снизу.")
		b.answerCallback(cb, "Одобрено", false)
		return true

	case strings.HasPrefix(data, "reject:"):
		if fromChat != b.adminChat {
			b.answerCallback(cb, "Недостаточно прав", true)
			return true
		}
		tgID, err := strconv.ParseInt(strings.TrimPrefix(data, "reject:"), 10, 64)
		if err != nil {
			b.answerCallback(cb, "Некорректные данные", true)
			return true
		}
		if _, err := b.users.Reject(ctx, tgID); err != nil {
			b.log.Error("reject user", "tg_id", tgID, "err", err)
			b.answerCallback(cb, "Ошибка при отклонении", true)
			return true
		}
		b.editTextAndClear(fromChat, cb.Message.MessageID, cb.Message.Text+"\n\n⛔ Заявка отклонена")
		b.reply(tgID, "Заявка отклонена. Введите ФИО, чтобы подать заявку ещё раз.")
		b.setState(ctx, tgID, dialog.StateAwaitFIO, dialog.Payload{})
		b.answerCallback(cb, "Отклонено", false)
		return true
	}
	return false
}
