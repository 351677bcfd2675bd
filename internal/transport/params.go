package transport

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"resto-be/internal/utils"
	"resto-be/internal/validation"

	"github.com/go-chi/chi/v5"
)

const dateLayout = "2006-01-02"

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (uint, error) {
	id, err := utils.ToUint(chi.URLParam(r, name))
	if err != nil || id == 0 {
		return 0, validation.New(name, "must be a positive integer")
	}
	return id, nil
}

func validationRequired(field string) error {
	return validation.New(field, "is required")
}

// queryString returns nil for an absent or blank parameter.
func queryString(r *http.Request, name string) *string {
	v := r.URL.Query().Get(name)
	return utils.TrimToNil(&v)
}

// queryInt reads an optional non-negative integer; absent reads as 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, validation.New(name, "must be a non-negative integer")
	}
	return n, nil
}

// queryTime accepts RFC 3339 or a bare date. A bare date used as an upper
// bound covers the whole day.
func queryTime(r *http.Request, name string, upper bool) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, validation.New(name, "must be RFC 3339 or YYYY-MM-DD")
	}
	if upper {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// pageParams reads limit and page; clamping happens in the services.
func pageParams(r *http.Request) (limit, page int, err error) {
	if limit, err = queryInt(r, "limit"); err != nil {
		return 0, 0, err
	}
	if page, err = queryInt(r, "page"); err != nil {
		return 0, 0, err
	}
	return limit, page, nil
}
