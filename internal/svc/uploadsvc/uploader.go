// Package uploadsvc handles multi-file media upload for the post editor.
// Files go to object storage when one is configured, otherwise through the
// backend's own uploadMedia action with base64-encoded content. A failure on
// one file never aborts the rest; the summary reports succeeded vs attempted.
package uploadsvc

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/amanihub/sheetcms/internal/domain"
	"github.com/amanihub/sheetcms/internal/infra/logging"
)

// Storage is the external object-storage collaborator. Implementations
// report progress per file as a 0-100 percentage.
type Storage interface {
	// UploadImage stores an image file and returns its public URL.
	UploadImage(ctx context.Context, file File, folder string, onProgress func(percent int)) (string, error)

	// UploadVideo stores a video file and returns its public URL.
	UploadVideo(ctx context.Context, file File, folder string, onProgress func(percent int)) (string, error)

	// IsConfigured reports whether the storage backend is usable. When it is
	// not, uploads fall back to the backend's uploadMedia action.
	IsConfigured() bool
}

// MediaBackend is the fallback upload path: the script service's own media
// action. Satisfied by *apiclient.AdminAPI.
type MediaBackend interface {
	UploadMedia(ctx context.Context, filename, mimeType string, data []byte) (domain.UploadResult, error)
}

// UploaderConfig holds configuration for multi-file uploads.
type UploaderConfig struct {
	// MaxFiles caps how many files a single upload batch may contain
	MaxFiles int `env:"MAX_FILES" default:"20"`

	// Folder is the object-storage folder uploads land in
	Folder string `env:"FOLDER" default:"uploads"`

	// MaxSize is the payload limit in bytes for the base64 fallback path
	MaxSize int64 `env:"MAX_SIZE" default:"5242880"`

	// MaxImageWidth is the width beyond which images are downscaled before
	// the base64 fallback; the script backend has tight POST limits
	MaxImageWidth int `env:"MAX_IMAGE_WIDTH" default:"1600"`

	// Interpolator selects the downscaling algorithm
	// ("nearestneighbor", "catmullrom", "bilinear", "approxbilinear")
	Interpolator string `env:"INTERPOLATOR" default:"catmullrom"`
}

// File is one file queued for upload.
type File struct {
	Name     string
	MIMEType string
	Data     []byte
}

// IsImage reports whether the file carries an image MIME type.
func (f File) IsImage() bool {
	return strings.HasPrefix(f.MIMEType, "image/")
}

// IsVideo reports whether the file carries a video MIME type.
func (f File) IsVideo() bool {
	return strings.HasPrefix(f.MIMEType, "video/")
}

// Uploader uploads batches of files sequentially, tolerating per-file
// failures. storage may be nil; the fallback backend is required.
type Uploader struct {
	storage Storage
	backend MediaBackend
	cfg     UploaderConfig
	log     logging.Logger
}

// NewUploader creates an Uploader with the given collaborators.
func NewUploader(storage Storage, backend MediaBackend, cfg UploaderConfig) *Uploader {
	return &Uploader{
		storage: storage,
		backend: backend,
		cfg:     cfg,
		log:     logging.GetLogger("svc.uploadsvc.uploader"),
	}
}

// UploadAll uploads the files in order, combining per-file progress into one
// aggregate percentage. A failed file is recorded in the summary's warnings
// with its name and skipped; the remaining files still upload.
func (u *Uploader) UploadAll(
	ctx context.Context,
	files []File,
	onProgress func(percent int),
) (domain.UploadSummary, error) {
	if len(files) == 0 {
		return domain.UploadSummary{}, nil
	}

	if len(files) > u.cfg.MaxFiles {
		return domain.UploadSummary{}, domain.NewAPIError(
			domain.CodeValidation,
			fmt.Sprintf("too many files: %d exceeds limit of %d", len(files), u.cfg.MaxFiles),
		)
	}

	total := len(files)
	summary := domain.UploadSummary{Attempted: total}

	for i, file := range files {
		fileProgress := func(percent int) {
			if onProgress != nil {
				onProgress(aggregateProgress(i, total, percent))
			}
		}

		mediaURL, err := u.uploadOne(ctx, file, fileProgress)
		if err != nil {
			u.log.WarnContext(ctx, "file upload failed",
				logging.Group("file", "name", file.Name, "type", file.MIMEType),
				"error", err,
			)
			summary.Warnings = append(summary.Warnings, fmt.Sprintf("%s: %v", file.Name, err))

			continue
		}

		summary.URLs = append(summary.URLs, mediaURL)
		summary.Succeeded++
		fileProgress(100)
	}

	u.log.DebugContext(ctx, "upload batch done",
		"attempted", summary.Attempted, "succeeded", summary.Succeeded)

	return summary, nil
}

// aggregateProgress folds per-file progress into a batch percentage:
// round(i/n*100 + p/n) for file i of n.
func aggregateProgress(index, total, percent int) int {
	return int(math.Round(
		float64(index)/float64(total)*100 + float64(percent)/float64(total),
	))
}

func (u *Uploader) uploadOne(ctx context.Context, file File, onProgress func(int)) (string, error) {
	if u.storage != nil && u.storage.IsConfigured() {
		if file.IsVideo() {
			return u.storage.UploadVideo(ctx, file, u.cfg.Folder, onProgress)
		}

		return u.storage.UploadImage(ctx, file, u.cfg.Folder, onProgress)
	}

	return u.uploadFallback(ctx, file, onProgress)
}

// uploadFallback pushes the file through the backend's uploadMedia action.
// Oversized images are downscaled first; the base64 form body must stay
// within the script service's POST limits.
func (u *Uploader) uploadFallback(ctx context.Context, file File, onProgress func(int)) (string, error) {
	data := file.Data

	if file.IsImage() {
		shrunk, err := shrinkImage(data, file.MIMEType, u.cfg.MaxImageWidth, u.cfg.Interpolator)
		if err != nil {
			// Unsupported or undecodable images upload as-is.
			u.log.DebugContext(ctx, "image downscale skipped",
				logging.Group("file", "name", file.Name), "reason", err)
		} else {
			data = shrunk
		}
	}

	if int64(len(data)) > u.cfg.MaxSize {
		return "", fmt.Errorf("%w: %d exceeds %d", domain.ErrMediaTooLarge, len(data), u.cfg.MaxSize)
	}

	onProgress(0)

	result, err := u.backend.UploadMedia(ctx, file.Name, file.MIMEType, data)
	if err != nil {
		return "", fmt.Errorf("upload media: %w", err)
	}

	return result.URL, nil
}
