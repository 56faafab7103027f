package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/diewo77/go-crm/validation"
)

const (
	maxBodyBytes = 1 << 20

	DefaultLimit = 50
	MaxLimit     = 200
)

// DecodeJSON reads one JSON object into dst, rejecting unknown fields, then
// runs dst's validate tags. Failures are *validation.Error values.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}
	if dec.More() {
		return validation.Single("body", "invalid_json")
	}
	return validation.Struct(dst).Err()
}

func decodeError(err error) error {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		maxErr    *http.MaxBytesError
	)
	switch {
	case errors.Is(err, io.EOF):
		return validation.Single("body", "required")
	case errors.As(err, &maxErr):
		return validation.Single("body", "too_large")
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return validation.Single("body", "invalid_json")
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return validation.Single(field, "invalid_type")
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		name := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return validation.Single(name, "unknown_field")
	default:
		return validation.Single("body", "invalid_json")
	}
}

// PathID parses a positive numeric path value.
func PathID(r *http.Request, name string) (uint, error) {
	n, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil || n == 0 {
		return 0, validation.Single(name, "invalid_id")
	}
	return uint(n), nil
}

// PathIndex parses a non-negative numeric path value.
func PathIndex(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(r.PathValue(name))
	if err != nil || n < 0 {
		return 0, validation.Single(name, "invalid_index")
	}
	return n, nil
}

// Pagination reads limit and page from the query string.
func Pagination(r *http.Request) (limit, offset int) {
	limit = DefaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= MaxLimit {
			limit = n
		}
	}
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			offset = (n - 1) * limit
		}
	}
	return limit, offset
}

// QueryUint parses an optional numeric query parameter; 0 when absent.
func QueryUint(r *http.Request, name string) (uint, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, validation.Single(name, "invalid_number")
	}
	return uint(n), nil
}
