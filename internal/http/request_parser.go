package http

import (
	"net/http"
	"strings"

	"cashflow/internal/core"

	"github.com/go-chi/chi/v5"
)

// maxParamLen bounds every query value read by the handlers.
const maxParamLen = 64

// FilterParams are the raw list/export bounds. They are parsed later by the
// core filter rules, where anything invalid reads as absent.
type FilterParams struct {
	From       string
	To         string
	CategoryID string
}

func ParseFilterParams(r *http.Request) FilterParams {
	return FilterParams{
		From:       param(r, "from"),
		To:         param(r, "to"),
		CategoryID: param(r, "category_id"),
	}
}

// param reads a trimmed query or form value, dropping control characters
// and overlong input.
func param(r *http.Request, name string) string {
	v := sanitizeInput(r.FormValue(name))
	if len(v) > maxParamLen {
		return ""
	}
	return v
}

// kindParam reads the {kind} route parameter.
func kindParam(r *http.Request) (core.Kind, error) {
	return core.ParseKind(chi.URLParam(r, "kind"))
}

// sanitizeInput removes control characters except tab, newline and
// carriage return, and trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s))
}
