// Package form — проверки пользовательского ввода перед отправкой на сервер.
package form

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldErrors поле (json-имя) → текст ошибки.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return strings.Join(parts, "; ")
}

// Add возвращает fe (создаёт карту при необходимости).
func (fe FieldErrors) Add(field, msg string) FieldErrors {
	if fe == nil {
		fe = FieldErrors{}
	}
	fe[field] = msg
	return fe
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate проверяет validate-теги структуры; nil — ошибок нет.
func Validate(v any) FieldErrors {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"_": err.Error()}
	}
	out := FieldErrors{}
	for _, fe := range verrs {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Обязательное поле"
	case "gt", "min":
		return "Значение должно быть больше " + fe.Param()
	case "gte":
		return "Значение должно быть не меньше " + fe.Param()
	case "oneof":
		return "Недопустимое значение"
	case "max", "lte":
		return "Слишком большое значение"
	case "datetime":
		return "Дата в формате ГГГГ-ММ-ДД"
	case "dive":
		return "Проверьте позиции"
	default:
		return "Некорректное значение"
	}
}
