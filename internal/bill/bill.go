package bill

import "time"

// Status is the review state of a bill
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRefused  Status = "refused"
)

// Bill is one expense report as exchanged with the bills store
type Bill struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Date         Date   `json:"date"`
	Amount       Number `json:"amount"`
	VAT          Number `json:"vat"`
	Pct          Number `json:"pct"`
	Type         string `json:"type"`
	Commentary   string `json:"commentary"`
	FileURL      string `json:"fileUrl"`
	FileName     string `json:"fileName"`
	Status       Status `json:"status"`
	CommentAdmin string `json:"commentAdmin"`
	Email        string `json:"email"`
}

// Record is the persisted form of a bill. A record stays a draft until the
// second submission phase fills it in.
type Record struct {
	Bill
	Draft       bool      `json:"draft"`
	StoredName  string    `json:"storedName"`
	ContentType string    `json:"contentType"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// File is an uploaded receipt
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// CreateRequest is the first submission phase: upload the receipt and
// reserve a bill ID.
type CreateRequest struct {
	File  File
	Email string
}

// CreateResult carries the identifiers assigned by the store
type CreateResult struct {
	FileURL    string      `json:"fileUrl"`
	Key        string      `json:"key"`
	Suggestion *Suggestion `json:"suggestion,omitempty"`
}

// Suggestion holds fields read off the receipt image, if a scanner is configured
type Suggestion struct {
	Name   string  `json:"name,omitempty"`
	Date   string  `json:"date,omitempty"`
	Amount float64 `json:"amount,omitempty"`
	Type   string  `json:"type,omitempty"`
}

// UpdateRequest is the second submission phase: the full bill for the
// record addressed by Selector.
type UpdateRequest struct {
	Data     Bill   `json:"data"`
	Selector string `json:"selector"`
}
