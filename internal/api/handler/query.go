package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/blaisecz/smart-sleep/pkg/problem"
)

// queryInt reads an optional integer query parameter bounded to [lo, hi].
// Malformed or out-of-range values are reported in fieldErrors and def is returned.
func queryInt(r *http.Request, name string, def, lo, hi int, fieldErrors *[]problem.FieldError) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < lo || v > hi {
		*fieldErrors = append(*fieldErrors, problem.FieldError{
			Field:   name,
			Message: fmt.Sprintf("must be an integer between %d and %d", lo, hi),
		})
		return def
	}
	return v
}
