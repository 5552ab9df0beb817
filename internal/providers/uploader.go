package providers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Uploader stores report artifacts and returns a URL for the stored object.
type Uploader interface {
	UploadBytes(ctx context.Context, objectPath string, contentType string, data []byte) (string, error)
}

type localUploader struct {
	rootDir string
}

// NewLocalUploader writes artifacts below rootDir.
func NewLocalUploader(rootDir string) Uploader {
	return &localUploader{rootDir: rootDir}
}

func (u *localUploader) UploadBytes(ctx context.Context, objectPath string, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean := filepath.Clean("/" + objectPath)
	if clean == "/" || strings.HasSuffix(objectPath, "/") {
		return "", fmt.Errorf("invalid artifact path %q", objectPath)
	}
	dst := filepath.Join(u.rootDir, clean)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	// write to a temp file first so readers never see a partial report
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	abs, _ := filepath.Abs(dst)
	return "file://" + abs, nil
}
