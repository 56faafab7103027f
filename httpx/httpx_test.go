package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/go-crm/validation"
)

func TestJSONError(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONError(rec, http.StatusNotFound, "not_found", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"not_found"}`, rec.Body.String())
}

func TestJSONEncodeFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusOK, map[string]any{"bad": make(chan int)})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"encode_error"}`, rec.Body.String())
}

type createReq struct {
	Name  string `json:"name" validate:"required,max=10"`
	Email string `json:"email" validate:"omitempty,email"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
		code  string
	}{
		{"ok", `{"name":"Ada"}`, "", ""},
		{"unknown field", `{"name":"Ada","userId":3}`, "userId", "unknown_field"},
		{"syntax", `{"name":`, "body", "invalid_json"},
		{"empty", ``, "body", "required"},
		{"type", `{"name":12}`, "name", "invalid_type"},
		{"trailing", `{"name":"Ada"}{}`, "body", "invalid_json"},
		{"tags", `{"name":"","email":"nope"}`, "email", "invalid_email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst createReq
			err := DecodeJSON(httptest.NewRecorder(), r, &dst)
			if tt.code == "" {
				require.NoError(t, err)
				assert.Equal(t, "Ada", dst.Name)
				return
			}
			v, ok := validation.IsValidation(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, tt.code, v[tt.field])
		})
	}
}

func TestPathID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/quotes/12", nil)
	r.SetPathValue("id", "12")
	id, err := PathID(r, "id")
	require.NoError(t, err)
	assert.Equal(t, uint(12), id)

	r.SetPathValue("id", "0")
	_, err = PathID(r, "id")
	_, ok := validation.IsValidation(err)
	assert.True(t, ok)

	r.SetPathValue("index", "-1")
	_, err = PathIndex(r, "index")
	assert.Error(t, err)
}

func TestPagination(t *testing.T) {
	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"", DefaultLimit, 0},
		{"?limit=10&page=3", 10, 20},
		{"?limit=1000", DefaultLimit, 0},
		{"?page=abc", DefaultLimit, 0},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/x"+tt.query, nil)
		limit, offset := Pagination(r)
		assert.Equal(t, tt.wantLimit, limit, tt.query)
		assert.Equal(t, tt.wantOffset, offset, tt.query)
	}
}

func TestPageEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusOK, Page[string]{Items: []string{"a"}, Total: 1, Limit: 50})
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, float64(1), got["total"])
	assert.Equal(t, []any{"a"}, got["items"])
}
