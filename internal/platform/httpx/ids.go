package httpx

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/engffsantos/easyStock360/internal/shared"
)

// PathID returns the named route parameter, rejecting values that are not UUIDs.
func PathID(r *http.Request, name string) (string, error) {
	return parseID(name, chi.URLParam(r, name), false)
}

// QueryID returns the named query parameter as a UUID, or "" when absent.
func QueryID(r *http.Request, name string) (string, error) {
	return parseID(name, r.URL.Query().Get(name), true)
}

func parseID(name, raw string, optional bool) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" && optional {
		return "", nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", shared.Invalidf("%s must be a uuid", name)
	}
	return id.String(), nil
}
