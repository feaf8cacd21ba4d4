package storage

import (
	"context"
	"path"
	"time"

	"github.com/google/uuid"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// FileStorage defines the interface for object storage operations.
type FileStorage interface {
	// PutObject uploads body under objectKey.
	PutObject(ctx context.Context, objectKey string, contentType string, body []byte) error

	// GeneratePresignedDownloadURL creates a temporary URL that allows GET requests
	// for downloading an object directly from the storage provider.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	// DeleteObject removes an object from the storage provider.
	DeleteObject(ctx context.Context, objectKey string) error
}

// ReportObjectKey returns a fresh key reports/<yyyy-mm-dd>/<uuid>.json for a
// report generated at t.
func ReportObjectKey(t time.Time) string {
	return path.Join("reports", t.UTC().Format(time.DateOnly), uuid.NewString()+".json")
}
