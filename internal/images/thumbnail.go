package images

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/disintegration/imaging"

	"github.com/dnlkv/fmapbot/core/logger"
)

// ThumbnailSize is the edge length of the square thumbnails we serve.
const ThumbnailSize = 720

// Service renders square JPEG thumbnails from the blob store.
type Service struct {
	store BlobStore
}

// NewService builds a thumbnail service over the given blob store.
func NewService(store BlobStore) *Service {
	return &Service{store: store}
}

// isAbsent reports whether id is a "no image" sentinel. Documents imported
// from older datasets carry the literal string "None" in that slot.
func isAbsent(id string) bool {
	return id == "" || id == "None"
}

// Thumbnail fetches the image, crops it to a centered square, scales it to
// ThumbnailSize and returns JPEG bytes with their content type. Sentinel ids
// report ErrNotFound without a store lookup.
func (s *Service) Thumbnail(ctx context.Context, id string) ([]byte, string, error) {
	if isAbsent(id) {
		return nil, "", fmt.Errorf("image %q: %w", id, ErrNotFound)
	}

	start := time.Now()
	raw, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}

	src, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, "", fmt.Errorf("decode image %q: %w", id, err)
	}

	square := imaging.Crop(src, squareRect(src.Bounds()))
	thumb := imaging.Resize(square, ThumbnailSize, ThumbnailSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG); err != nil {
		return nil, "", fmt.Errorf("encode thumbnail %q: %w", id, err)
	}

	logger.LogEvent(ctx, logger.SVCImages, slog.LevelDebug, "thumbnail",
		slog.String("status", "ok"),
		slog.String("image_id", id),
		slog.Int("bytes", buf.Len()),
		slog.Duration("duration", logger.Took(start)),
	)
	return buf.Bytes(), "image/jpeg", nil
}

// squareRect picks the centered square inside b. The midpoint is computed in
// float and truncated toward zero, so a 1000x500 image crops to
// (250,0)-(750,500) and a 500x1000 image to (0,250)-(500,750).
func squareRect(b image.Rectangle) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	if w == h {
		return b
	}
	if w > h {
		offset := int(float64(w-h) / 2)
		return image.Rect(b.Min.X+offset, b.Min.Y, b.Min.X+offset+h, b.Max.Y)
	}
	offset := int(float64(h-w) / 2)
	return image.Rect(b.Min.X, b.Min.Y+offset, b.Max.X, b.Min.Y+offset+w)
}
