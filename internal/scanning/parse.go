package scanning

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// parseReceiptJSON extracts ReceiptData from a model reply. Fields that do
// not validate are blanked rather than guessed.
func parseReceiptJSON(text string) (*ReceiptData, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}
	text = text[startIdx : endIdx+1]

	var data ReceiptData
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	data.Date = normalizeDate(strings.TrimSpace(data.Date))
	data.Name = strings.TrimSpace(data.Name)
	data.Type = normalizeType(data.Type)
	if data.Amount < 0 {
		data.Amount = 0
	}

	return &data, nil
}

func normalizeDate(date string) string {
	if date == "" {
		return ""
	}
	formats := []string{
		"2006-01-02",
		"2006/01/02",
		"02/01/2006",
		"02-01-2006",
	}
	for _, format := range formats {
		if d, err := time.Parse(format, date); err == nil {
			return d.Format("2006-01-02")
		}
	}
	return ""
}

func normalizeType(t string) string {
	t = strings.TrimSpace(t)
	for _, known := range ExpenseTypes {
		if strings.EqualFold(known, t) {
			return known
		}
	}
	return ""
}
