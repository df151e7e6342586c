package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/peterbourgon/ff/v4"

	"github.com/zombor/billed/internal/bill"
	"github.com/zombor/billed/internal/errs"
	"github.com/zombor/billed/internal/expense"
	"github.com/zombor/billed/internal/session"
)

func (r *rootConfig) client() *bill.Client {
	return bill.NewClient(*r.serverURL, bill.BasicAuth{Username: *r.authUser, Password: *r.authPass})
}

// currentUser reads the logged-in user from the session file
func (r *rootConfig) currentUser() (session.User, error) {
	store, err := session.NewBoltStore(*r.sessionPath)
	if err != nil {
		return session.User{}, err
	}
	defer store.Close()

	user, err := session.CurrentUser(store)
	var notFound *errs.NotFoundError
	if errors.As(err, &notFound) {
		fmt.Fprintln(os.Stderr, "Not logged in. Run: billed login --email <address>")
		return session.User{}, errReported
	}
	return user, err
}

func newLoginCommand(root *rootConfig) *ff.Command {
	fs := ff.NewFlagSet("login").SetParent(root.flags)
	var (
		email    = fs.StringLong("email", "", "Employee email address")
		userType = fs.StringLong("type", session.TypeEmployee, "User type")
	)

	return &ff.Command{
		Name:      "login",
		Usage:     "billed login --email <address>",
		ShortHelp: "remember the employee submitting bills",
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			store, err := session.NewBoltStore(*root.sessionPath)
			if err != nil {
				return err
			}
			defer store.Close()

			user := session.User{Type: *userType, Email: *email}
			if err := session.Login(store, user); err != nil {
				return err
			}
			fmt.Printf("Logged in as %s\n", *email)
			return nil
		},
	}
}

func newLogoutCommand(root *rootConfig) *ff.Command {
	fs := ff.NewFlagSet("logout").SetParent(root.flags)

	return &ff.Command{
		Name:      "logout",
		Usage:     "billed logout",
		ShortHelp: "forget the session user",
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			store, err := session.NewBoltStore(*root.sessionPath)
			if err != nil {
				return err
			}
			defer store.Close()
			return session.Logout(store)
		},
	}
}

func newBillsCommand(root *rootConfig) *ff.Command {
	fs := ff.NewFlagSet("bills").SetParent(root.flags)

	return &ff.Command{
		Name:      "bills",
		Usage:     "billed bills",
		ShortHelp: "list submitted bills, latest first",
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			if _, err := root.currentUser(); err != nil {
				return err
			}
			return listBills(newCLINavigator(ctx, expense.NewLoader(root.client()), os.Stdout))
		},
	}
}

// cliNavigator renders the view a route stands for
type cliNavigator struct {
	ctx    context.Context
	loader *expense.Loader
	out    io.Writer
}

func newCLINavigator(ctx context.Context, loader *expense.Loader, out io.Writer) *cliNavigator {
	return &cliNavigator{ctx: ctx, loader: loader, out: out}
}

func (n *cliNavigator) Navigate(path string) {
	switch path {
	case expense.BillsPath:
		if _, err := n.showBills(); err != nil && !errors.Is(err, errReported) {
			slog.Error("Rendering bills failed", "error", err)
		}
	case expense.NewBillPath:
		fmt.Fprintln(n.out, "Nouvelle note de frais: billed new --file <receipt> [--type --name --date --amount --vat --pct --commentary]")
	}
}

// showBills renders the bill list, or the error page when it cannot be
// loaded
func (n *cliNavigator) showBills() (int, error) {
	bills, err := n.loader.LoadBills(n.ctx)
	if err != nil {
		if renderErr := expense.RenderError(n.out, err); renderErr != nil {
			return 0, renderErr
		}
		return 0, errReported
	}
	return len(bills), expense.RenderBills(n.out, bills)
}

// listBills shows the bill list and points to the new-bill form when it is
// empty
func listBills(nav *cliNavigator) error {
	count, err := nav.showBills()
	if err != nil {
		return err
	}
	if count == 0 {
		nav.Navigate(expense.NewBillPath)
	}
	return nil
}

func newNewBillCommand(root *rootConfig) *ff.Command {
	fs := ff.NewFlagSet("new").SetParent(root.flags)
	var (
		file        = fs.StringLong("file", "", "Receipt picture (jpg, jpeg or png)")
		contentType = fs.StringLong("content-type", "", "Receipt MIME type (default: guessed from the file name)")
		expenseType = fs.StringLong("type", "", "Expense type, e.g. Transports")
		name        = fs.StringLong("name", "", "Expense name")
		date        = fs.StringLong("date", "", "Expense date (YYYY-MM-DD)")
		amount      = fs.StringLong("amount", "", "Amount including taxes")
		vat         = fs.StringLong("vat", "", "VAT amount")
		pct         = fs.StringLong("pct", "", "VAT percentage (default 20)")
		commentary  = fs.StringLong("commentary", "", "Commentary")
	)

	return &ff.Command{
		Name:      "new",
		Usage:     "billed new --file <receipt> [FLAGS]",
		ShortHelp: "submit a new bill",
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			if *file == "" {
				return fmt.Errorf("--file is required")
			}
			user, err := root.currentUser()
			if err != nil {
				return err
			}

			data, err := os.ReadFile(*file)
			if err != nil {
				return fmt.Errorf("reading receipt: %w", err)
			}
			receipt := bill.File{
				Name:        filepath.Base(*file),
				ContentType: *contentType,
				Data:        data,
			}
			if receipt.ContentType == "" {
				receipt.ContentType = bill.ContentTypeFromFilename(*file)
			}

			client := root.client()
			navigator := newCLINavigator(ctx, expense.NewLoader(client), os.Stdout)
			pipeline := expense.NewPipeline(client, navigator, user, slog.Default())

			form := expense.Form{
				Type:       *expenseType,
				Name:       *name,
				Date:       *date,
				Amount:     *amount,
				VAT:        *vat,
				Pct:        *pct,
				Commentary: *commentary,
			}
			return submitBill(ctx, pipeline, receipt, form)
		},
	}
}

// submitBill runs both submission phases. Remote failures are logged by the
// pipeline, so they only show up here as a state that did not advance.
func submitBill(ctx context.Context, pipeline *expense.Pipeline, receipt bill.File, form expense.Form) error {
	if err := pipeline.OnFileSelected(ctx, receipt); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return errReported
	}

	pending, ok := pipeline.Pending()
	if !ok {
		fmt.Fprintln(os.Stderr, "Receipt upload failed")
		return errReported
	}
	form = prefill(form, pending.Suggestion)

	if err := pipeline.OnSubmit(ctx, form); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return errReported
	}
	if pipeline.State() != expense.StateDone {
		fmt.Fprintf(os.Stderr, "Bill %s was not submitted. Retry with the same receipt.\n", pending.BillID)
		return errReported
	}
	return nil
}

// prefill fills blank form fields from a receipt scan
func prefill(form expense.Form, suggestion *bill.Suggestion) expense.Form {
	if suggestion == nil {
		return form
	}
	if form.Name == "" {
		form.Name = suggestion.Name
	}
	if form.Date == "" {
		form.Date = suggestion.Date
	}
	if form.Type == "" {
		form.Type = suggestion.Type
	}
	if form.Amount == "" && suggestion.Amount > 0 {
		form.Amount = strconv.FormatFloat(suggestion.Amount, 'f', -1, 64)
	}
	return form
}
