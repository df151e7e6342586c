package expense

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// RenderBills writes the bill list as a table
func RenderBills(w io.Writer, bills []DisplayBill) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Type\tNom\tDate\tMontant\tStatut")
	for _, b := range bills {
		amount := ""
		if b.Bill.Amount.Valid {
			amount = b.Bill.Amount.String() + " €"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", b.Bill.Type, b.Bill.Name, b.Date, amount, b.Status)
	}
	return tw.Flush()
}

// RenderError writes the error page for a failed fetch, keeping the
// original message.
func RenderError(w io.Writer, err error) error {
	page := ClassifyError(err)
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	_, werr := fmt.Fprintf(w, "%s\n%s\n", page.Title(), msg)
	return werr
}
