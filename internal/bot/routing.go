package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/sklad-bot/internal/dialog"
)

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	st := b.state(ctx, chatID)

	// Регистрация доступна без подтверждённого доступа
	if st.State == dialog.StateAwaitFIO {
		b.onFIO(ctx, msg)
		return
	}
	if b.requireUser(ctx, chatID, msg.From.ID) == nil {
		return
	}

	text := strings.TrimSpace(msg.Text)
	if res, ok := menuResources[text]; ok {
		b.resetState(ctx, chatID)
		b.openList(ctx, chatID, nil, res, "")
		return
	}
	switch text {
	case menuRate:
		b.resetState(ctx, chatID)
		b.showRate(ctx, chatID, nil)
		return
	case menuSummary:
		b.resetState(ctx, chatID)
		b.showSummary(ctx, chatID)
		return
	}

	// Открыт выбор из справочника: текст — поиск по нему
	if tag, ok := dialog.GetString(st.Payload, keyPick); ok && tag != "" {
		b.publishSearch(ctx, chatID, pickTag(tag), text)
		return
	}

	switch st.State {
	case dialog.StateList:
		res, _ := dialog.GetString(st.Payload, keyRes)
		b.publishSearch(ctx, chatID, res, text)
	case dialog.StateDeleteReason:
		b.onDeleteReason(ctx, chatID, st, text)
	case dialog.StateForm:
		b.onFormText(ctx, chatID, st, text)
	case dialog.StateIssDate, dialog.StateIssQty, dialog.StateIssNote, dialog.StateIssComment:
		b.onIssuanceText(ctx, chatID, st, text)
	case dialog.StateRetDate, dialog.StateRetNote:
		b.onReturnText(ctx, chatID, st, text)
	case dialog.StateExpStart, dialog.StateExpEnd:
		b.onExportText(ctx, chatID, st, text)
	default:
		b.showMainMenu(chatID, "Выберите раздел на кнопках снизу.")
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	data := cb.Data
	fromChat := cb.Message.Chat.ID

	if data == "noop" {
		b.answerCallback(cb, "", false)
		return
	}
	if data == "nav:cancel" {
		b.resetState(ctx, fromChat)
		b.editTextAndClear(fromChat, cb.Message.MessageID, "Операция отменена.")
		b.answerCallback(cb, "Отменено", false)
		return
	}
	if b.handleRegistrationCallback(ctx, cb) {
		return
	}
	if b.requireUser(ctx, fromChat, cb.From.ID) == nil {
		b.answerCallback(cb, "Нет доступа", true)
		return
	}

	st := b.state(ctx, fromChat)
	if data == "nav:back" {
		b.onBack(ctx, cb, st)
		return
	}

	switch {
	case strings.HasPrefix(data, "ls:"):
		b.onListCallback(ctx, cb, st)
	case strings.HasPrefix(data, "pk:"):
		b.onPickCallback(ctx, cb, st)
	case strings.HasPrefix(data, "fm:"):
		b.onFormCallback(ctx, cb, st)
	case strings.HasPrefix(data, "iss:"):
		b.onIssuanceCallback(ctx, cb, st)
	case strings.HasPrefix(data, "ret:"):
		b.onReturnCallback(ctx, cb, st)
	case strings.HasPrefix(data, "exp:"):
		b.onExportCallback(ctx, cb, st)
	case strings.HasPrefix(data, "pay:read:"):
		b.onPaymentDetail(ctx, cb)
	case data == "rate:edit":
		mid := cb.Message.MessageID
		b.startForm(ctx, fromChat, &mid, formRate)
		b.answerCallback(cb, "", false)
	default:
		b.answerCallback(cb, "Неактуально", false)
	}
}

// onBack — шаг назад в текущем сценарии; без сценария — к списку.
func (b *Bot) onBack(ctx context.Context, cb *tgbotapi.CallbackQuery, st *dialog.Item) {
	chatID := cb.Message.Chat.ID
	mid := cb.Message.MessageID

	switch st.State {
	case dialog.StateForm:
		b.formBack(ctx, chatID, &mid, st)
	case dialog.StateIssForeman, dialog.StateIssType, dialog.StateIssDate, dialog.StateIssItems,
		dialog.StateIssMat, dialog.StateIssQty, dialog.StateIssCond, dialog.StateIssNote,
		dialog.StateIssComment, dialog.StateIssConfirm:
		b.issuanceBack(ctx, chatID, &mid, st)
	case dialog.StateRetCond, dialog.StateRetDate, dialog.StateRetNote:
		issueID, _ := dialog.GetInt64(st.Payload, keyIssueID)
		b.showReturnTool(ctx, chatID, &mid, issueID, "")
	case dialog.StateExpStart, dialog.StateExpEnd, dialog.StateExpDim:
		p := st.Payload.Clone()
		delete(p, keyPick)
		b.setState(ctx, chatID, dialog.StateExpMenu, p)
		b.showExport(ctx, chatID, &mid, p)
	default:
		res, _ := dialog.GetString(st.Payload, keyRes)
		if _, ok := b.screens[res]; ok {
			b.openList(ctx, chatID, &mid, res, "")
		} else {
			b.editTextAndClear(chatID, mid, "Выберите раздел на кнопках снизу.")
			b.resetState(ctx, chatID)
		}
	}
	b.answerCallback(cb, "Назад", false)
}
