package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Бэкенд отдаёт перечисления то числом, то строкой ("2" / 2).

// Code — значение, пришедшее строкой или числом; хранится строкой.
type Code string

func (c *Code) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*c = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = Code(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("code: %w", err)
	}
	*c = Code(n.String())
	return nil
}

// Int — целое из числа или строки; пустое/ null → 0.
func (c Code) Int() int {
	n, err := strconv.Atoi(string(c))
	if err != nil {
		return 0
	}
	return n
}

// DecodeEnum — общий разбор целочисленных перечислений.
func DecodeEnum(b []byte) (int, error) {
	var c Code
	if err := c.UnmarshalJSON(b); err != nil {
		return 0, err
	}
	if c == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(string(c))
	if err != nil {
		return 0, fmt.Errorf("enum %q: %w", string(c), err)
	}
	return n, nil
}

// Flag — булево поле, приходящее как true/false, 0/1 или "0"/"1".
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch string(b) {
	case "true", "1", `"1"`, `"true"`:
		*f = true
	case "false", "0", `"0"`, `"false"`, "null", `""`:
		*f = false
	default:
		return fmt.Errorf("flag: unexpected %s", string(b))
	}
	return nil
}
