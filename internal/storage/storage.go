package storage

import (
	"context"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// FileStorage defines the object storage operations used for plan media.
type FileStorage interface {
	// GeneratePresignedUploadURL creates a temporary URL that accepts a PUT of
	// objectKey with the given content type.
	GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error)

	// PublicURL returns the stable URL an uploaded object is served from.
	PublicURL(objectKey string) string

	// DeleteObject removes an object from the storage provider.
	DeleteObject(ctx context.Context, objectKey string) error
}

// CoverKeyPrefix returns the key prefix under which a plan's covers live.
func CoverKeyPrefix(planID string) string {
	return fmt.Sprintf("plans/%s/cover/", planID)
}

// NewCoverKey builds a unique object key for a plan cover image.
func NewCoverKey(planID, contentType string) string {
	ext := ""
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		ext = exts[0]
	}
	return CoverKeyPrefix(planID) + uuid.NewString() + ext
}

// IsImageContentType reports whether contentType is an image/* media type.
func IsImageContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && strings.HasPrefix(mediaType, "image/")
}
