// Package gcs mirrors history snapshots to Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const contentTypeCSV = "text/csv; charset=utf-8"

// Mirror overwrites a single object with every uploaded snapshot.
type Mirror struct {
	client *storage.Client
	bucket string
	object string
	logger *slog.Logger
}

// NewMirror creates a GCS client for gs://bucket/object. Credentials come
// from the environment unless opts override them.
func NewMirror(ctx context.Context, bucket, object string, logger *slog.Logger, opts ...option.ClientOption) (*Mirror, error) {
	if bucket == "" {
		return nil, errors.New("gcs bucket is required")
	}
	if object == "" {
		return nil, errors.New("gcs object is required")
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Mirror{client: client, bucket: bucket, object: object, logger: logger}, nil
}

// Upload replaces the object's contents with data.
func (m *Mirror) Upload(ctx context.Context, data []byte) error {
	w := m.client.Bucket(m.bucket).Object(m.object).NewWriter(ctx)
	w.ContentType = contentTypeCSV

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write gs://%s/%s: %w", m.bucket, m.object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close gs://%s/%s: %w", m.bucket, m.object, err)
	}

	m.logger.Debug("history mirrored", "bucket", m.bucket, "object", m.object, "bytes", len(data))
	return nil
}

// URI returns the gs:// location of the mirrored object.
func (m *Mirror) URI() string {
	return fmt.Sprintf("gs://%s/%s", m.bucket, m.object)
}

// Close releases the underlying client.
func (m *Mirror) Close() error {
	return m.client.Close()
}
