package supabase

import (
	"context"
	"fmt"
	"io"
	"strings"

	storage "github.com/supabase-community/storage-go"
	"go.opentelemetry.io/otel/attribute"
)

// Upload stores body at bucket/path, overwriting any existing object.
func (c *Client) Upload(ctx context.Context, bucket, path, contentType string, body io.Reader) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	upsert := true
	opts := storage.FileOptions{ContentType: &contentType, Upsert: &upsert}

	cl := c.start(ctx, "supabase.storage.upload", attribute.String("supabase.bucket", bucket))
	_, err := await(cl.ctx, func() (storage.FileUploadResponse, error) {
		return c.sdk().Storage.UploadFile(bucket, objectKey(path), body, opts)
	})
	if err != nil {
		return cl.end(fmt.Errorf("uploading %s/%s: %w", bucket, path, storageError(err)))
	}
	return cl.end(nil)
}

// Download returns the object stored at bucket/path.
func (c *Client) Download(ctx context.Context, bucket, path string) ([]byte, error) {
	cl := c.start(ctx, "supabase.storage.download", attribute.String("supabase.bucket", bucket))
	data, err := await(cl.ctx, func() ([]byte, error) {
		return c.sdk().Storage.DownloadFile(bucket, objectKey(path))
	})
	if err != nil {
		return nil, cl.end(fmt.Errorf("downloading %s/%s: %w", bucket, path, storageError(err)))
	}
	return data, cl.end(nil)
}

func objectKey(path string) string {
	return strings.TrimLeft(path, "/")
}
