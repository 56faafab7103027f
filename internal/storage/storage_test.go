package storage

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func TestImageContentType(t *testing.T) {
	ct, err := ImageContentType(pngBytes(t))
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)

	_, err = ImageContentType([]byte("plain text"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestNewKey(t *testing.T) {
	key := NewKey("logos", "image/png")
	assert.True(t, strings.HasPrefix(key, "logos/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.NotEqual(t, key, NewKey("logos", "image/png"))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, "a", []byte("x"), "image/png"))
	obj, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), obj.Data)
	assert.Equal(t, "image/png", obj.ContentType)

	require.NoError(t, s.Delete(ctx, "a"))
	_, err = s.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestUnavailable(t *testing.T) {
	var s ObjectStore = Unavailable{}
	ctx := context.Background()
	assert.ErrorIs(t, s.Put(ctx, "k", nil, ""), ErrUnavailable)
	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, s.Delete(ctx, "k"), ErrUnavailable)
}
