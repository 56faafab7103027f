package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/go-crm/internal/services"
	"github.com/diewo77/go-crm/internal/storage"
	"github.com/diewo77/go-crm/validation"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"validation", validation.Single("title", "too_long"), http.StatusBadRequest, `{"error":"validation_failed","details":{"title":"too_long"}}`},
		{"not found", fmt.Errorf("find quote: %w", services.ErrNotFound), http.StatusNotFound, `{"error":"not_found"}`},
		{"conflict", fmt.Errorf("%w: client has 2 quotes", services.ErrConflict), http.StatusConflict, `{"error":"conflict","details":"conflict: client has 2 quotes"}`},
		{"credentials", services.ErrInvalidCredentials, http.StatusUnauthorized, `{"error":"invalid_credentials"}`},
		{"media type", storage.ErrUnsupportedType, http.StatusUnsupportedMediaType, `{"error":"unsupported_media_type"}`},
		{"storage", storage.ErrUnavailable, http.StatusServiceUnavailable, `{"error":"storage_unavailable"}`},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError, `{"error":"internal_error"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}

func multipartRequest(t *testing.T, field string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, "upload.bin")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestReadUpload(t *testing.T) {
	data, err := readUpload(httptest.NewRecorder(), multipartRequest(t, "file", []byte("abc")))
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)

	_, err = readUpload(httptest.NewRecorder(), multipartRequest(t, "other", []byte("abc")))
	v, ok := validation.IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "required", v["file"])

	big := bytes.Repeat([]byte{1}, storage.MaxUploadSize+2048)
	_, err = readUpload(httptest.NewRecorder(), multipartRequest(t, "file", big))
	v, ok = validation.IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "too_large", v["file"])
}

func TestOptionalDate(t *testing.T) {
	var req quotePatchRequest
	require.NoError(t, jsonUnmarshal(`{"title":"x"}`, &req))
	assert.False(t, req.ValidUntil.Set)
	p := req.patch()
	assert.Nil(t, p.ValidUntil)
	assert.False(t, p.ClearValidUntil)

	req = quotePatchRequest{}
	require.NoError(t, jsonUnmarshal(`{"validUntil":null}`, &req))
	p = req.patch()
	assert.True(t, p.ClearValidUntil)

	req = quotePatchRequest{}
	require.NoError(t, jsonUnmarshal(`{"validUntil":"2025-05-01"}`, &req))
	p = req.patch()
	require.NotNil(t, p.ValidUntil)
	assert.Equal(t, "2025-05-01", p.ValidUntil.Format("2006-01-02"))
	assert.False(t, p.ClearValidUntil)
}

func jsonUnmarshal(s string, v any) error {
	return json.Unmarshal([]byte(s), v)
}
