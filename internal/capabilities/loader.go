package capabilities

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"vision-router/internal/dispatch"
	"vision-router/internal/shared/telemetry"
)

const maxImageBytes = 20 << 20

// ErrImageNotFound is returned when neither the key nor the path resolves.
var ErrImageNotFound = errors.New("image file not found")

// Opener reads stored objects by key.
type Opener interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// Loader resolves a dispatch input to image bytes.
type Loader interface {
	Load(ctx context.Context, in dispatch.Input) ([]byte, string, error)
}

// ImageLoader reads from the object store when a key is given and from the
// filesystem otherwise. Paths must resolve, symlinks included, to a file
// under Root; an empty Root disables path lookups.
type ImageLoader struct {
	Store Opener
	Root  string
}

// Load returns the image bytes and their sniffed MIME type.
func (l ImageLoader) Load(ctx context.Context, in dispatch.Input) ([]byte, string, error) {
	if in.ImageKey != "" && l.Store != nil {
		rc, err := l.Store.Open(ctx, in.ImageKey)
		if err == nil {
			defer rc.Close()
			return readImage(rc)
		}
		telemetry.Warn("capability.image_key_unreadable", map[string]any{
			"key":   in.ImageKey,
			"error": err,
		})
	}

	path, err := l.confine(in.ImagePath)
	if err != nil {
		return nil, "", err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", ErrImageNotFound
		}
		return nil, "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	return readImage(f)
}

// confine maps a client-supplied path to a real path inside Root. Anything
// outside Root reads as a missing image.
func (l ImageLoader) confine(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "s3://") || strings.TrimSpace(l.Root) == "" {
		return "", ErrImageNotFound
	}
	root, err := realPath(l.Root)
	if err != nil {
		return "", ErrImageNotFound
	}
	path, err := realPath(raw)
	if err != nil {
		return "", ErrImageNotFound
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		telemetry.Warn("capability.image_path_rejected", map[string]any{
			"path": raw,
			"root": l.Root,
		})
		return "", ErrImageNotFound
	}
	return path, nil
}

func realPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

func readImage(r io.Reader) ([]byte, string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxImageBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return nil, "", errors.New("image is empty")
	}
	return data, http.DetectContentType(data), nil
}
