package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrTransport — запрос не дошёл до сервера или ответ не был получен.
var ErrTransport = errors.New("api unavailable")

const (
	FallbackMessage    = "Произошла ошибка. Попробуйте ещё раз."
	UnavailableMessage = "Сервер недоступен. Проверьте соединение и попробуйте позже."
)

// Error — ответ сервера со статусом вне 2xx.
// Message пустой, если тело отсутствует или не содержит поля error/message.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api: status %d %s", e.Status, http.StatusText(e.Status))
}

func parseError(status int, body []byte) *Error {
	e := &Error{Status: status}

	var generic map[string]any
	if err := json.Unmarshal(body, &generic); err != nil {
		return e
	}
	e.Message = pickMessage(generic)
	return e
}

// pickMessage ищет текст в error / message, в т.ч. {"error": {"message": "..."}}
func pickMessage(m map[string]any) string {
	for _, key := range []string{"error", "message"} {
		switch v := m[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case map[string]any:
			if s := pickMessage(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// UserMessage текст для пользователя: сообщение сервера, если оно есть,
// иначе общий текст. Безопасна для любых ошибок, включая nil.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, ErrTransport) || errors.Is(err, context.DeadlineExceeded) {
		return UnavailableMessage
	}
	return FallbackMessage
}

func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
