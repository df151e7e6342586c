package bill

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Number is an optional numeric bill field. Stored bills have carried plain
// numbers, numeric strings and empty strings for the same field, so decoding
// accepts all three and treats anything unreadable as absent.
type Number struct {
	Value float64
	Valid bool
}

// NewNumber returns a present Number
func NewNumber(v float64) Number {
	return Number{Value: v, Valid: true}
}

// ParseNumber reads a form value. Blank input is an absent number.
func ParseNumber(s string) (Number, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Number{}, nil
	}
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return Number{}, fmt.Errorf("parsing number %q: %w", s, err)
	}
	return NewNumber(v), nil
}

func (n Number) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if parsed, err := ParseNumber(s); err == nil {
			*n = parsed
		}
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	*n = NewNumber(v)
	return nil
}

// Date is a bill date as stored, normally YYYY-MM-DD. Stored records have
// carried other shapes, so decoding never fails: a number keeps its literal
// text and anything else that is not a string reads as empty.
type Date string

func (d *Date) UnmarshalJSON(data []byte) error {
	*d = ""
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = Date(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(data, &n); err == nil {
			*d = Date(n.String())
		}
	}
	return nil
}
