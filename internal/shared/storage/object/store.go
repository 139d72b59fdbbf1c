package object

import (
	"context"
	"io"
)

// Object describes a stored upload.
type Object struct {
	Key      string
	Size     int64
	MIMEType string
	// Location is what gets handed to capability handlers as image_path:
	// a filesystem path for local storage, an s3:// URI for S3.
	Location string
}

// Store saves and retrieves uploaded images.
type Store interface {
	Save(ctx context.Context, namespace string, fileName string, r io.Reader) (Object, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Location(key string) string
}
