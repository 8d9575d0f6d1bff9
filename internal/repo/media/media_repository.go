// Package media stores uploaded media files on disk and hands out the public
// URLs under which they are served.
package media

import (
	"context"

	"github.com/amanihub/sheetcms/internal/domain"
)

// Repository defines the interface for media storage operations.
type Repository interface {
	// Save persists an uploaded file and returns the public URL it will be
	// served under. The stored name is derived from filename but made unique,
	// so saving the same filename twice never overwrites.
	Save(ctx context.Context, filename string, mimeType string, data []byte) (domain.UploadResult, error)

	// Delete removes the file behind the given public URL.
	// Returns domain.ErrNotFound if the URL does not resolve to a stored file.
	Delete(ctx context.Context, url string) error

	// Dir returns the directory files are stored in, for serving them over HTTP.
	Dir() string
}

// RepositoryFactory is a function that creates a new Repository instance.
// Returns an error if initialization fails.
type RepositoryFactory func(ctx context.Context) (Repository, error)
