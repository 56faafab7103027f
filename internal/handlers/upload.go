package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/diewo77/go-crm/internal/storage"
	"github.com/diewo77/go-crm/validation"
)

// uploadField is the multipart field carrying images.
const uploadField = "file"

// maxUploadBody leaves room for the multipart envelope around the file.
const maxUploadBody = storage.MaxUploadSize + 1<<10

// readUpload returns the bytes of the uploaded image, capped at
// storage.MaxUploadSize.
func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.ContentLength > maxUploadBody {
		return nil, validation.Single(uploadField, "too_large")
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(storage.MaxUploadSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, validation.Single(uploadField, "too_large")
		}
		return nil, validation.Single(uploadField, "required")
	}
	f, _, err := r.FormFile(uploadField)
	if err != nil {
		return nil, validation.Single(uploadField, "required")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, storage.MaxUploadSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > storage.MaxUploadSize {
		return nil, validation.Single(uploadField, "too_large")
	}
	if len(data) == 0 {
		return nil, validation.Single(uploadField, "required")
	}
	return data, nil
}

func writeObject(w http.ResponseWriter, obj *storage.Object) {
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.Header().Set("Content-Type", obj.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(obj.Data)
}
