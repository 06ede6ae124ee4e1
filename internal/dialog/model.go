package dialog

type State string

const (
	StateIdle State = "idle"

	// Регистрация
	StateAwaitFIO     State = "await_fio"
	StateAwaitConfirm State = "await_confirm"

	// Экран списка: текст — поисковый запрос
	StateList State = "list"
	// Причина удаления (оплаты)
	StateDeleteReason State = "del_reason"

	// Формы создания (касса, приход, оплата, списание, кухня, курс)
	StateForm State = "form"

	// Выдача материалов
	StateIssForeman State = "iss:foreman"
	StateIssType    State = "iss:type"
	StateIssDate    State = "iss:date"
	StateIssItems   State = "iss:items"
	StateIssMat     State = "iss:mat"
	StateIssQty     State = "iss:qty"
	StateIssCond    State = "iss:cond"
	StateIssNote    State = "iss:note"
	StateIssComment State = "iss:comment"
	StateIssConfirm State = "iss:confirm"

	// Возврат позиции
	StateRetPick State = "ret:pick"
	StateRetCond State = "ret:cond"
	StateRetDate State = "ret:date"
	StateRetNote State = "ret:note"

	// Выгрузка в Excel
	StateExpMenu  State = "exp:menu"
	StateExpStart State = "exp:start"
	StateExpEnd   State = "exp:end"
	StateExpDim   State = "exp:dim"
)

type Payload map[string]any

type Item struct {
	ChatID  int64
	State   State
	Payload Payload
}
