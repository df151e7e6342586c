package scanning

import (
	"context"
	"fmt"
)

// ExpenseTypes are the categories a bill can be filed under
var ExpenseTypes = []string{
	"Transports",
	"Restaurants et bars",
	"Hôtel et logement",
	"Services en ligne",
	"IT et électronique",
	"Equipement et matériel",
	"Fournitures de bureau",
}

// ReceiptData contains fields read off a receipt
type ReceiptData struct {
	Name   string  `json:"name"`
	Date   string  `json:"date"` // YYYY-MM-DD, empty when unreadable
	Amount float64 `json:"amount"`
	Type   string  `json:"type"`
}

// Scanner reads a receipt picture and suggests bill fields
type Scanner interface {
	// ScanReceipt analyzes a JPEG or PNG receipt
	ScanReceipt(ctx context.Context, imageData []byte, contentType string) (*ReceiptData, error)
	// Close releases resources
	Close() error
}

// imageFormat returns the short format name vision APIs expect
func imageFormat(contentType string) (string, error) {
	switch contentType {
	case "image/png":
		return "png", nil
	case "image/jpg", "image/jpeg":
		return "jpeg", nil
	}
	return "", fmt.Errorf("unsupported receipt format %q", contentType)
}

const receiptScanPrompt = `You are analyzing a receipt or invoice attached to an employee expense report. Carefully read all text in the image and extract the following information:

1. **Name**: a short label for the expense, starting with the merchant name. Examples: "SNCF - Paris Londres", "Hôtel Ibis - Lyon".

2. **Date**: the transaction date, in ISO 8601 format (YYYY-MM-DD).

3. **Amount**: the final total including taxes, as a number (e.g. 42.75).

4. **Type**: exactly one of: Transports, Restaurants et bars, Hôtel et logement, Services en ligne, IT et électronique, Equipement et matériel, Fournitures de bureau.

Return ONLY valid JSON in this exact format:
{
  "name": "Merchant - Description",
  "date": "YYYY-MM-DD",
  "amount": 0.00,
  "type": "Transports"
}

Important:
- The amount must be a number, not a string
- If you cannot find a field, use null for that field
- Do not include any text before or after the JSON
- Do not use markdown code blocks`
