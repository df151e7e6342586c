package expense

import (
	"errors"
	"net/http"
	"strings"

	"github.com/zombor/billed/internal/bill"
)

// ErrorPage is the fallback view picked for a failed fetch
type ErrorPage int

const (
	PageError ErrorPage = iota
	PageNotFound
	PageServerError
)

func (p ErrorPage) Title() string {
	switch p {
	case PageNotFound:
		return "Page introuvable"
	case PageServerError:
		return "Erreur serveur"
	default:
		return "Erreur"
	}
}

// ClassifyError picks the error page from the API status code, or from the
// code embedded in the message for errors that carry none.
func ClassifyError(err error) ErrorPage {
	if err == nil {
		return PageError
	}

	var statusErr *bill.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Code {
		case http.StatusNotFound:
			return PageNotFound
		case http.StatusInternalServerError:
			return PageServerError
		default:
			return PageError
		}
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "404"):
		return PageNotFound
	case strings.Contains(msg, "500"):
		return PageServerError
	default:
		return PageError
	}
}
