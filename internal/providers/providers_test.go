package providers

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestLocalUploaderUploadBytes(t *testing.T) {
	tmpDir := t.TempDir()

	uploader := NewLocalUploader(tmpDir)
	ctx := context.Background()

	data := []byte("report body")
	url, err := uploader.UploadBytes(ctx, "runs/r1/benchmark-report-20260101-000000.txt", "text/plain", data)
	if err != nil {
		t.Fatalf("UploadBytes failed: %v", err)
	}
	if url == "" {
		t.Fatal("Expected non-empty URL")
	}

	filePath := filepath.Join(tmpDir, "runs/r1/benchmark-report-20260101-000000.txt")
	content, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("Failed to read uploaded file: %v", err)
	}
	if string(content) != "report body" {
		t.Errorf("Expected content 'report body', got %s", string(content))
	}
}

func TestLocalUploaderStaysInsideRoot(t *testing.T) {
	tmpDir := t.TempDir()
	uploader := NewLocalUploader(filepath.Join(tmpDir, "root"))

	if _, err := uploader.UploadBytes(context.Background(), "../../escape.txt", "text/plain", []byte("x")); err != nil {
		t.Fatalf("UploadBytes failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "root", "escape.txt")); err != nil {
		t.Fatalf("expected file to be written under root: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "escape.txt")); !os.IsNotExist(err) {
		t.Fatalf("file escaped the root directory")
	}
}

func TestLocalUploaderRejectsEmptyPath(t *testing.T) {
	uploader := NewLocalUploader(t.TempDir())
	if _, err := uploader.UploadBytes(context.Background(), "", "text/plain", []byte("x")); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestNewRedisProvider(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewRedisProvider(mr.Addr(), "")
	if client == nil {
		t.Fatal("Expected redis client to be non-nil")
	}
	defer client.Close()

	if err := PingRedis(context.Background(), client, time.Second); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
