package expense

import (
	"context"
	"sort"
	"time"

	"github.com/zombor/billed/internal/bill"
)

// DisplayBill is a bill prepared for the list view
type DisplayBill struct {
	Bill   bill.Bill // as stored
	Date   string    // formatted date, or the stored value when unparsable
	Status string    // localized status label
}

// Loader fetches the bill list
type Loader struct {
	store Store
}

// NewLoader creates a Loader over the remote store
func NewLoader(store Store) *Loader {
	return &Loader{store: store}
}

// LoadBills fetches the bills once and returns them most recent first.
// Bills with the same date keep the store's order; bills whose date is
// missing or malformed come last, also in store order. A store error is
// returned as is.
func (l *Loader) LoadBills(ctx context.Context) ([]DisplayBill, error) {
	bills, err := l.store.List(ctx)
	if err != nil {
		return nil, err
	}

	type dated struct {
		display DisplayBill
		when    time.Time
		valid   bool
	}

	items := make([]dated, len(bills))
	for i, b := range bills {
		when, valid := ParseDate(string(b.Date))
		items[i] = dated{
			display: DisplayBill{
				Bill:   b,
				Date:   DisplayDate(string(b.Date)),
				Status: FormatStatus(b.Status),
			},
			when:  when,
			valid: valid,
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.valid != b.valid {
			return a.valid
		}
		return a.valid && a.when.After(b.when)
	})

	result := make([]DisplayBill, len(items))
	for i, item := range items {
		result[i] = item.display
	}
	return result, nil
}
