// Package expense holds the employee-side flows: loading the bill list and
// submitting a new bill against a remote bills store.
package expense

import (
	"context"

	"github.com/zombor/billed/internal/bill"
)

// Routes the flows navigate between
const (
	BillsPath   = "#employee/bills"
	NewBillPath = "#employee/bill/new"
)

// Store is the remote bills store
type Store interface {
	List(ctx context.Context) ([]bill.Bill, error)
	Create(ctx context.Context, req bill.CreateRequest) (*bill.CreateResult, error)
	Update(ctx context.Context, req bill.UpdateRequest) (*bill.Bill, error)
}

// Navigator switches the current view
type Navigator interface {
	Navigate(path string)
}
