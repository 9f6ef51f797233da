package jsonutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// FlexibleStringValue converts a json.RawMessage to a string, handling numbers and
// booleans where a string was expected. Returns empty string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return fmt.Sprintf("%d", int64(numVal))
		}
		return fmt.Sprintf("%g", numVal)
	}

	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return fmt.Sprintf("%t", boolVal)
	}

	return string(raw)
}

// FlexibleID decodes an identifier that may arrive as a number, a numeric string,
// or an object carrying the id under "value" (or "id"). Zero means absent, and
// anything that does not hold an id decodes to zero rather than failing the
// enclosing document.
type FlexibleID int64

func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	*f = FlexibleID(parseID(data))
	return nil
}

func parseID(data []byte) int64 {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return 0
	}

	switch data[0] {
	case '{':
		var obj struct {
			Value json.RawMessage `json:"value"`
			ID    json.RawMessage `json:"id"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return 0
		}
		if id := parseID(obj.Value); id != 0 {
			return id
		}
		return parseID(obj.ID)
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0
		}
		s = strings.TrimSpace(s)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(n)
		}
		return 0
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return 0
		}
		return int64(n)
	}
}

func (f FlexibleID) Int64() int64 {
	return int64(f)
}

var nonNumeric = regexp.MustCompile(`[^\d.\-]`)

// FlexibleFloat decodes a number that may arrive as a JSON number or as a
// formatted string such as "$1,500,000". Valid is false when nothing numeric was found.
type FlexibleFloat struct {
	Value float64
	Valid bool
}

func (f *FlexibleFloat) UnmarshalJSON(data []byte) error {
	*f = FlexibleFloat{}
	s := FlexibleStringValue(data)
	s = nonNumeric.ReplaceAllString(strings.TrimSpace(s), "")
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// unparseable values are treated as absent
		return nil
	}
	f.Value = v
	f.Valid = true
	return nil
}

func (f FlexibleFloat) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// Ptr returns the value as a pointer, or nil when absent.
func (f FlexibleFloat) Ptr() *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}
