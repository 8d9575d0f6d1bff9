package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/amanihub/sheetcms/internal/domain"
	"github.com/amanihub/sheetcms/internal/infra/logging"
)

// ErrURLOutsideStore is returned when a delete URL resolves outside the
// storage directory.
var ErrURLOutsideStore = errors.New("url outside media store")

// FileSystemMediaRepositoryConfig holds configuration for the filesystem-based
// media repository.
type FileSystemMediaRepositoryConfig struct {
	// Basedir is the root directory for media storage
	Basedir string `env:"BASEDIR" default:"var/storage/media"`

	// BaseURL is the public URL prefix under which stored files are served
	BaseURL string `env:"BASE_URL" default:"http://localhost:8080/media"`
}

// FileSystemMediaRepositoryFactory creates a factory function that returns a
// new FileSystemRepository. The factory function implements the
// RepositoryFactory type.
func FileSystemMediaRepositoryFactory(cfg FileSystemMediaRepositoryConfig) RepositoryFactory {
	return func(ctx context.Context) (Repository, error) {
		return NewFileSystemMediaRepository(ctx, cfg)
	}
}

// NewFileSystemMediaRepository creates a new FileSystemRepository with the
// given configuration, creating the storage directory if needed.
func NewFileSystemMediaRepository(
	ctx context.Context,
	cfg FileSystemMediaRepositoryConfig,
) (*FileSystemRepository, error) {
	log := logging.GetLogger("repo.media.filesystem_repository").With(
		logging.Group("repo",
			"basedir", cfg.Basedir,
			"baseURL", cfg.BaseURL,
		),
	)

	repo := &FileSystemRepository{
		cfg: cfg,
		log: log,
	}

	if err := repo.initStorage(ctx); err != nil {
		return nil, fmt.Errorf("init repo: %w", err)
	}

	return repo, nil
}

// FileSystemRepository implements Repository using the local filesystem.
// Stored names carry a random prefix so that distinct uploads with the same
// filename never collide.
type FileSystemRepository struct {
	cfg FileSystemMediaRepositoryConfig
	log logging.Logger
}

var _ Repository = (*FileSystemRepository)(nil)

func (fsRepo *FileSystemRepository) Save(
	ctx context.Context,
	filename string,
	mimeType string,
	data []byte,
) (result domain.UploadResult, err error) {
	stored := uuid.NewString() + "-" + sanitizeFilename(filename)
	target := filepath.Join(fsRepo.cfg.Basedir, stored)

	defer func() {
		log := fsRepo.log.With(logging.Group("media",
			"filename", filename,
			"mimeType", mimeType,
			"target", target,
		))
		if err != nil {
			log.ErrorContext(ctx, "media save failed", "error", err)
		} else {
			log.DebugContext(ctx, "media saved", "size", len(data))
		}
	}()

	if err := os.WriteFile(target, data, 0o644); err != nil {
		return domain.UploadResult{}, fmt.Errorf("write file: %w", err)
	}

	return domain.UploadResult{
		URL: strings.TrimSuffix(fsRepo.cfg.BaseURL, "/") + "/" + stored,
	}, nil
}

func (fsRepo *FileSystemRepository) Delete(ctx context.Context, url string) (err error) {
	defer func() {
		log := fsRepo.log.With(logging.Group("media", "url", url))
		if err != nil {
			log.ErrorContext(ctx, "media delete failed", "error", err)
		} else {
			log.DebugContext(ctx, "media deleted")
		}
	}()

	stored := path.Base(url)
	if stored == "." || stored == "/" || strings.Contains(stored, "..") {
		return fmt.Errorf("%w: %q", ErrURLOutsideStore, url)
	}

	target := filepath.Join(fsRepo.cfg.Basedir, stored)

	if err := os.Remove(target); err != nil {
		if os.IsNotExist(err) {
			return errors.Join(domain.ErrNotFound, err)
		}

		return fmt.Errorf("remove: %w", err)
	}

	return nil
}

// Dir returns the storage directory.
func (fsRepo *FileSystemRepository) Dir() string {
	return fsRepo.cfg.Basedir
}

func (fsRepo *FileSystemRepository) initStorage(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			fsRepo.log.ErrorContext(ctx, "init storage failed", "error", err)
		} else {
			fsRepo.log.DebugContext(ctx, "init storage")
		}
	}()

	if err := os.MkdirAll(fsRepo.cfg.Basedir, 0o755); err != nil {
		return fmt.Errorf("mkdir all: %w", err)
	}

	return nil
}

func sanitizeFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))

	var builder strings.Builder

	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			builder.WriteRune(r)
		case r == '.', r == '-', r == '_':
			builder.WriteRune(r)
		default:
			builder.WriteRune('_')
		}
	}

	if builder.Len() == 0 {
		return "file"
	}

	return builder.String()
}
