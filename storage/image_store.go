//go:generate go run go.uber.org/mock/mockgen -source=image_store.go -destination=../mocks/mock_image_store.go -package=mocks
package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"kinder-chat/domain"
	"kinder-chat/errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// IImageUploader stores an inline base64 image and returns where it can be fetched.
type IImageUploader interface {
	Upload(ctx context.Context, payload string) (domain.Image, error)
}

// DiskImageStore writes images under dir and serves them from baseURL.
type DiskImageStore struct {
	dir      string
	baseURL  string
	maxBytes int
	log      *slog.Logger
}

func NewDiskImageStore(dir, baseURL string, maxBytes int, log *slog.Logger) (*DiskImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("image dir %s: %w", dir, err)
	}
	return &DiskImageStore{
		dir:      dir,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		maxBytes: maxBytes,
		log:      log,
	}, nil
}

// Upload accepts raw base64 or a data URL ("data:image/png;base64,...").
// Payloads that do not decode, exceed maxBytes or are not sniffed as image/* are rejected
// as validation errors; only the write itself is an upload failure.
func (d *DiskImageStore) Upload(ctx context.Context, payload string) (domain.Image, error) {
	if err := ctx.Err(); err != nil {
		return domain.Image{}, fmt.Errorf("%w: %w", errors.ErrUpload, err)
	}

	data, err := decodePayload(payload)
	if err != nil {
		return domain.Image{}, err
	}
	if d.maxBytes > 0 && len(data) > d.maxBytes {
		return domain.Image{}, errors.ErrImageTooLarge
	}

	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		d.log.Debug("Rejected image payload", "mime", mime.String())
		return domain.Image{}, errors.ErrInvalidImage
	}

	id := uuid.NewString()
	name := id + mime.Extension()
	if err := os.WriteFile(filepath.Join(d.dir, name), data, 0o644); err != nil {
		return domain.Image{}, fmt.Errorf("%w: %w", errors.ErrUpload, err)
	}

	d.log.Debug("Image stored", "image_id", id, "mime", mime.String(), "bytes", len(data))
	return domain.Image{ID: id, URL: d.baseURL + "/" + name}, nil
}

func decodePayload(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ",")
		if idx < 0 || !strings.Contains(payload[:idx], ";base64") {
			return nil, errors.ErrInvalidImage
		}
		payload = payload[idx+1:]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(payload)
	}
	if err != nil || len(data) == 0 {
		return nil, errors.ErrInvalidImage
	}
	return data, nil
}
