package storage

import (
	"context"
	"encoding/base64"
	"kinder-chat/errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// 1x1 transparent PNG
const pixelPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

func newTestStore(t *testing.T, maxBytes int) (*DiskImageStore, string) {
	dir := t.TempDir()
	store, err := NewDiskImageStore(dir, "http://localhost:8080/images/", maxBytes, slog.Default())
	require.NoError(t, err)
	return store, dir
}

func TestDiskImageStore_Upload(t *testing.T) {
	req := require.New(t)
	store, dir := newTestStore(t, 1<<20)

	for _, payload := range []string{pixelPNG, "data:image/png;base64," + pixelPNG} {
		image, err := store.Upload(context.Background(), payload)
		req.NoError(err)
		req.NotEmpty(image.ID)
		req.True(strings.HasPrefix(image.URL, "http://localhost:8080/images/"+image.ID))
		req.True(strings.HasSuffix(image.URL, ".png"))

		_, err = os.Stat(filepath.Join(dir, image.ID+".png"))
		req.NoError(err)
	}
}

func TestDiskImageStore_Rejects(t *testing.T) {
	store, _ := newTestStore(t, 16)
	text := base64.StdEncoding.EncodeToString([]byte("hello"))

	tests := []struct {
		name    string
		payload string
		err     error
	}{
		{"not base64", "%%%", errors.ErrInvalidImage},
		{"not an image", text, errors.ErrInvalidImage},
		{"data url without base64", "data:image/png," + pixelPNG, errors.ErrInvalidImage},
		{"too large", pixelPNG, errors.ErrImageTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			_, err := store.Upload(context.Background(), tt.payload)
			req.ErrorIs(err, tt.err)
			req.ErrorIs(err, errors.ErrValidation)
		})
	}
}

func TestDiskImageStore_Write_Failure_Is_Upload_Error(t *testing.T) {
	req := require.New(t)
	store, dir := newTestStore(t, 0)
	req.NoError(os.RemoveAll(dir))

	_, err := store.Upload(context.Background(), pixelPNG)
	req.ErrorIs(err, errors.ErrUpload)
	req.ErrorIs(err, errors.ErrUpstream)
}
