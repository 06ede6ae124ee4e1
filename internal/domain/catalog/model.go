package catalog

import "github.com/Spok95/sklad-bot/internal/api"

// Ref — запись справочника: прораб, поставщик, объект, категория кухни.
type Ref struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	FullName string `json:"full_name,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// Title — ФИО у прорабов, имя у остальных.
func (r Ref) Title() string {
	if r.FullName != "" {
		return r.FullName
	}
	return r.Name
}

type Material struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	Unit       string   `json:"unit"`
	ReturnType api.Code `json:"return_type"`
}

// Returnable — материал выдаётся под возврат (инструмент): return_type = 1.
func (m Material) Returnable() bool { return m.ReturnType.Int() == 1 }
