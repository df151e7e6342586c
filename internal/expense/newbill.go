package expense

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/zombor/billed/internal/bill"
	"github.com/zombor/billed/internal/errs"
	"github.com/zombor/billed/internal/session"
)

// DefaultPct is the VAT rate used when the form leaves it blank
const DefaultPct = 20

var (
	// ErrNoPendingBill rejects a submit before a receipt was uploaded
	ErrNoPendingBill = errors.New("no receipt uploaded for this bill")
	// ErrSubmitInProgress rejects a submit while the previous one is in flight
	ErrSubmitInProgress = errors.New("bill submission already in progress")
)

// State is where a new bill is in its two-phase submission
type State int

const (
	StateEmpty State = iota
	StateCreating
	StateReady
	StateUpdating
	StateDone
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateCreating:
		return "creating"
	case StateReady:
		return "ready"
	case StateUpdating:
		return "updating"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// PendingBill is what the create phase produced: the reserved bill and its
// uploaded receipt. It is replaced whole, never mutated.
type PendingBill struct {
	BillID     string
	FileURL    string
	FileName   string
	Suggestion *bill.Suggestion
}

// Form is the new-bill form as typed by the user
type Form struct {
	Type       string
	Name       string
	Date       string
	Amount     string
	VAT        string
	Pct        string
	Commentary string
}

// IsPicture reports whether a receipt type is accepted
func IsPicture(mimeType string) bool {
	return bill.IsPicture(mimeType)
}

// Pipeline drives new-bill submission: OnFileSelected uploads the receipt
// and reserves a bill, OnSubmit fills it in. Remote failures are logged and
// leave the pipeline in its last stable state so the user can retry.
type Pipeline struct {
	store     Store
	navigator Navigator
	user      session.User
	log       *slog.Logger

	mu       sync.Mutex
	state    State
	pending  *PendingBill
	updating bool // an update call is in flight
}

// NewPipeline creates a Pipeline for the session user. log may be nil.
func NewPipeline(store Store, navigator Navigator, user session.User, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		store:     store,
		navigator: navigator,
		user:      user,
		log:       log,
	}
}

// State returns the current state
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Pending returns the bill reserved by the last successful create
func (p *Pipeline) Pending() (PendingBill, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil {
		return PendingBill{}, false
	}
	return *p.pending, true
}

// stableState is the state to settle in once a call returns. An update in
// flight outranks anything a create does. Callers hold p.mu.
func (p *Pipeline) stableState() State {
	if p.updating {
		return StateUpdating
	}
	if p.pending == nil {
		return StateEmpty
	}
	return StateReady
}

// OnFileSelected validates the receipt type and runs the create phase.
// Only an invalid type is returned, as a ValidationError, and then the
// store is never called. A create failure is logged, not returned.
// Concurrent selections are not cancelled: the last create to complete wins.
func (p *Pipeline) OnFileSelected(ctx context.Context, file bill.File) error {
	if !IsPicture(file.ContentType) {
		return errs.NewValidationError(bill.InvalidFormatMessage)
	}

	p.mu.Lock()
	if !p.updating {
		p.state = StateCreating
	}
	p.mu.Unlock()

	result, err := p.store.Create(ctx, bill.CreateRequest{
		File:  file,
		Email: p.user.Email,
	})

	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		p.state = p.stableState()
		p.log.Error("Creating bill failed", "filename", file.Name, "error", err)
		return nil
	}

	p.pending = &PendingBill{
		BillID:     result.Key,
		FileURL:    result.FileURL,
		FileName:   file.Name,
		Suggestion: result.Suggestion,
	}
	p.state = p.stableState()
	p.log.Info("Receipt uploaded", "bill_id", result.Key, "file_url", result.FileURL)
	return nil
}

// OnSubmit runs the update phase for the pending bill and navigates to the
// bill list when it succeeds. A submit with no pending bill returns
// ErrNoPendingBill; a malformed number returns a ValidationError. An update
// failure is logged, not returned, and keeps the pending bill for a retry.
func (p *Pipeline) OnSubmit(ctx context.Context, form Form) error {
	data, err := formBill(form)
	if err != nil {
		return err
	}

	p.mu.Lock()
	if p.updating {
		p.mu.Unlock()
		return ErrSubmitInProgress
	}
	pending := p.pending
	if pending == nil {
		p.mu.Unlock()
		return ErrNoPendingBill
	}
	p.updating = true
	p.state = StateUpdating
	p.mu.Unlock()

	data.ID = pending.BillID
	data.FileURL = pending.FileURL
	data.FileName = pending.FileName
	data.Email = p.user.Email
	data.Status = bill.StatusPending

	_, err = p.store.Update(ctx, bill.UpdateRequest{
		Data:     data,
		Selector: pending.BillID,
	})

	p.mu.Lock()
	p.updating = false
	if err != nil {
		p.state = p.stableState()
		p.mu.Unlock()
		p.log.Error("Updating bill failed", "bill_id", pending.BillID, "error", err)
		return nil
	}
	if p.pending == pending {
		p.pending = nil
		p.state = StateDone
	} else {
		// a newer receipt arrived during the update and is still waiting
		p.state = p.stableState()
	}
	p.mu.Unlock()

	p.log.Info("Bill submitted", "bill_id", pending.BillID)
	p.navigator.Navigate(BillsPath)
	return nil
}

// formBill converts the typed form into bill fields
func formBill(form Form) (bill.Bill, error) {
	amount, err := bill.ParseNumber(form.Amount)
	if err != nil {
		return bill.Bill{}, errs.NewValidationError("Le montant n'est pas valide")
	}
	vat, err := bill.ParseNumber(form.VAT)
	if err != nil {
		return bill.Bill{}, errs.NewValidationError("La TVA n'est pas valide")
	}
	pct, err := bill.ParseNumber(form.Pct)
	if err != nil {
		return bill.Bill{}, errs.NewValidationError("Le pourcentage n'est pas valide")
	}
	if !pct.Valid {
		pct = bill.NewNumber(DefaultPct)
	}

	return bill.Bill{
		Type:       form.Type,
		Name:       form.Name,
		Date:       bill.Date(form.Date),
		Amount:     amount,
		VAT:        vat,
		Pct:        pct,
		Commentary: form.Commentary,
	}, nil
}
