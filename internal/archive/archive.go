package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// Uploader copies a finished workbook somewhere durable and returns its URI.
type Uploader interface {
	Upload(ctx context.Context, localPath string, at time.Time) (string, error)
}

// ObjectName builds "<prefix>/<yyyy>/<file>". An empty prefix is dropped.
func ObjectName(prefix, localPath string, at time.Time) string {
	parts := []string{}
	if p := strings.Trim(prefix, "/"); p != "" {
		parts = append(parts, p)
	}
	parts = append(parts, strconv.Itoa(at.Year()), filepath.Base(localPath))
	return path.Join(parts...)
}

// GCSUploader writes to a Cloud Storage bucket using Application Default
// Credentials.
type GCSUploader struct {
	Bucket  string
	Prefix  string
	Timeout time.Duration
}

func NewGCSUploader(bucket, prefix string) *GCSUploader {
	return &GCSUploader{Bucket: bucket, Prefix: prefix, Timeout: 2 * time.Minute}
}

func (u *GCSUploader) Upload(ctx context.Context, localPath string, at time.Time) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open file %q: %w", localPath, err)
	}
	defer f.Close()

	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	if u.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.Timeout)
		defer cancel()
	}

	objectName := ObjectName(u.Prefix, localPath, at)
	w := client.Bucket(u.Bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("copy file to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload: %w", err)
	}

	return "gs://" + u.Bucket + "/" + objectName, nil
}
