package api

import (
	"errors"
	"strings"
	"time"
)

// Форматы дат — внешний контракт:
// CRUD (list/search/create) — YYYY-MM-DD, выгрузки api/excel/* — DD-MM-YYYY.
const (
	crudLayout  = "2006-01-02"
	excelLayout = "02-01-2006"
	userLayout  = "02.01.2006"
)

var ErrBadDate = errors.New("bad date")

func FormatCRUD(t time.Time) string  { return t.Format(crudLayout) }
func FormatExcel(t time.Time) string { return t.Format(excelLayout) }
func FormatUser(t time.Time) string  { return t.Format(userLayout) }

// ParseUserDate принимает ДД.ММ.ГГГГ, ДД-ММ-ГГГГ и ГГГГ-ММ-ДД.
func ParseUserDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	for _, layout := range []string{userLayout, excelLayout, crudLayout} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrBadDate
}

// HumanDate приводит дату из ответа сервера к ДД.ММ.ГГГГ;
// непонятный формат возвращается как есть.
func HumanDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "—"
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05", crudLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(userLayout)
		}
	}
	return s
}
