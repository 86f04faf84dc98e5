package images

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSquareRect(t *testing.T) {
	tests := []struct {
		name string
		w, h int
		want image.Rectangle
	}{
		{"landscape", 1000, 500, image.Rect(250, 0, 750, 500)},
		{"portrait", 500, 1000, image.Rect(0, 250, 500, 750)},
		{"square", 600, 600, image.Rect(0, 0, 600, 600)},
		{"odd landscape", 101, 100, image.Rect(0, 0, 100, 100)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := squareRect(image.Rect(0, 0, tc.w, tc.h))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestThumbnailProducesSquareJPEG(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), "img-1", encodePNG(t, 1000, 500)))

	svc := NewService(store)
	data, contentType, err := svc.Thumbnail(context.Background(), "img-1")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", contentType)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, ThumbnailSize, cfg.Width)
	assert.Equal(t, ThumbnailSize, cfg.Height)
}

func TestThumbnailSentinelSkipsStore(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store)

	for _, id := range []string{"", "None"} {
		_, _, err := svc.Thumbnail(context.Background(), id)
		require.ErrorIs(t, err, ErrNotFound)
	}
	assert.Zero(t, store.Gets, "sentinel ids must not hit the blob store")
}

func TestThumbnailMissingImage(t *testing.T) {
	svc := NewService(NewMemoryStore())
	_, _, err := svc.Thumbnail(context.Background(), "absent")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestThumbnailCorruptImage(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), "bad", []byte("not an image")))

	svc := NewService(store)
	_, _, err := svc.Thumbnail(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
