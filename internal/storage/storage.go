package storage

import (
	"context"
	"io"
)

// Service stores uploaded media and returns a durable public URL for each object.
// Keys are caller-chosen, so uploading to an existing key overwrites it.
type Service interface {
	UploadObject(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}
