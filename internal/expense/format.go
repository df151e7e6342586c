package expense

import (
	"fmt"
	"time"

	"github.com/zombor/billed/internal/bill"
)

// DateLayout is the only stored date layout. It is fixed-width, which the
// list ordering relies on.
const DateLayout = "2006-01-02"

var monthAbbr = [12]string{"Jan", "Fév", "Mar", "Avr", "Mai", "Jui", "Jui", "Aoû", "Sep", "Oct", "Nov", "Déc"}

// ParseDate parses a stored bill date
func ParseDate(raw string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatDate renders a date as "4 Avr. 04"
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%d %s. %02d", t.Day(), monthAbbr[t.Month()-1], t.Year()%100)
}

// DisplayDate formats a stored date, or returns it untouched when it does
// not parse.
func DisplayDate(raw string) string {
	t, ok := ParseDate(raw)
	if !ok {
		return raw
	}
	return FormatDate(t)
}

// FormatStatus returns the label shown for a review status
func FormatStatus(status bill.Status) string {
	switch status {
	case bill.StatusPending:
		return "En attente"
	case bill.StatusAccepted:
		return "Accepté"
	case bill.StatusRefused:
		return "Refusé"
	default:
		return string(status)
	}
}
