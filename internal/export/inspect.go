package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Summary — что внутри скачанной книги (для подписи к файлу).
type Summary struct {
	Sheets int
	Rows   int // строки данных без заголовка, по всем листам
}

func (s Summary) String() string {
	return fmt.Sprintf("листов: %d, строк: %d", s.Sheets, s.Rows)
}

// Inspect открывает xlsx из памяти и считает непустые строки.
func Inspect(data []byte) (Summary, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return Summary{}, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	var s Summary
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return Summary{}, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		s.Sheets++
		n := 0
		for _, r := range rows {
			if !emptyRow(r) {
				n++
			}
		}
		if n > 0 {
			s.Rows += n - 1
		}
	}
	return s, nil
}

func emptyRow(r []string) bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
