package uploadsvc_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/amanihub/sheetcms/internal/domain"

	. "github.com/amanihub/sheetcms/internal/svc/uploadsvc"
)

var errUploadRejected = errors.New("upload rejected")

// mockBackend implements MediaBackend, failing for file names listed in fail.
type mockBackend struct {
	fail     map[string]bool
	uploaded []string
	bodies   map[string][]byte
}

func (m *mockBackend) UploadMedia(
	_ context.Context,
	filename, _ string,
	data []byte,
) (domain.UploadResult, error) {
	if m.fail[filename] {
		return domain.UploadResult{}, errUploadRejected
	}

	m.uploaded = append(m.uploaded, filename)

	if m.bodies == nil {
		m.bodies = make(map[string][]byte)
	}

	m.bodies[filename] = data

	return domain.UploadResult{URL: "https://media.test/" + filename}, nil
}

// mockStorage implements Storage and records which path each file took.
type mockStorage struct {
	configured bool
	images     []string
	videos     []string
}

func (m *mockStorage) UploadImage(_ context.Context, file File, _ string, onProgress func(int)) (string, error) {
	onProgress(50)
	m.images = append(m.images, file.Name)

	return "https://storage.test/" + file.Name, nil
}

func (m *mockStorage) UploadVideo(_ context.Context, file File, _ string, onProgress func(int)) (string, error) {
	onProgress(50)
	m.videos = append(m.videos, file.Name)

	return "https://storage.test/" + file.Name, nil
}

func (m *mockStorage) IsConfigured() bool { return m.configured }

func testConfig() UploaderConfig {
	return UploaderConfig{
		MaxFiles:      20,
		Folder:        "uploads",
		MaxSize:       5242880,
		MaxImageWidth: 1600,
		Interpolator:  "catmullrom",
	}
}

func textFile(name string) File {
	return File{Name: name, MIMEType: "text/plain", Data: []byte("data")}
}

func TestUploader_EmptyBatch(t *testing.T) {
	t.Parallel()

	uploader := NewUploader(nil, &mockBackend{}, testConfig())

	summary, err := uploader.UploadAll(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("UploadAll() error: %v", err)
	}

	if summary.Attempted != 0 || summary.Succeeded != 0 {
		t.Errorf("summary = %+v, want zero value", summary)
	}
}

func TestUploader_TooManyFiles(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.MaxFiles = 2

	uploader := NewUploader(nil, &mockBackend{}, cfg)

	files := []File{textFile("a"), textFile("b"), textFile("c")}

	_, err := uploader.UploadAll(context.Background(), files, nil)

	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != domain.CodeValidation {
		t.Errorf("error = %v, want validation APIError", err)
	}
}

func TestUploader_PartialFailure(t *testing.T) {
	t.Parallel()

	backend := &mockBackend{fail: map[string]bool{"bad.txt": true}}
	uploader := NewUploader(nil, backend, testConfig())

	files := []File{textFile("one.txt"), textFile("bad.txt"), textFile("three.txt")}

	summary, err := uploader.UploadAll(context.Background(), files, nil)
	if err != nil {
		t.Fatalf("UploadAll() error: %v", err)
	}

	if summary.Attempted != 3 || summary.Succeeded != 2 {
		t.Errorf("attempted/succeeded = %d/%d, want 3/2", summary.Attempted, summary.Succeeded)
	}

	if len(summary.URLs) != 2 {
		t.Errorf("urls = %v, want 2 entries", summary.URLs)
	}

	if len(summary.Warnings) != 1 || !strings.HasPrefix(summary.Warnings[0], "bad.txt:") {
		t.Errorf("warnings = %v, want one entry naming bad.txt", summary.Warnings)
	}

	if !summary.Partial() {
		t.Error("summary should report partial success")
	}
}

func TestUploader_AggregateProgress(t *testing.T) {
	t.Parallel()

	backend := &mockBackend{}
	uploader := NewUploader(nil, backend, testConfig())

	files := []File{textFile("one.txt"), textFile("two.txt")}

	var reported []int

	_, err := uploader.UploadAll(context.Background(), files, func(percent int) {
		reported = append(reported, percent)
	})
	if err != nil {
		t.Fatalf("UploadAll() error: %v", err)
	}

	// Two files through the fallback path: each reports 0 at start and 100
	// on completion, folded as round(i/2*100 + p/2).
	want := []int{0, 50, 50, 100}
	if fmt.Sprint(reported) != fmt.Sprint(want) {
		t.Errorf("progress = %v, want %v", reported, want)
	}
}

func TestUploader_StorageRouting(t *testing.T) {
	t.Parallel()

	storage := &mockStorage{configured: true}
	backend := &mockBackend{}
	uploader := NewUploader(storage, backend, testConfig())

	files := []File{
		{Name: "clip.mp4", MIMEType: "video/mp4", Data: []byte("vid")},
		{Name: "pic.png", MIMEType: "image/png", Data: []byte("img")},
		{Name: "notes.txt", MIMEType: "text/plain", Data: []byte("txt")},
	}

	summary, err := uploader.UploadAll(context.Background(), files, nil)
	if err != nil {
		t.Fatalf("UploadAll() error: %v", err)
	}

	if summary.Succeeded != 3 {
		t.Errorf("succeeded = %d, want 3", summary.Succeeded)
	}

	if len(storage.videos) != 1 || storage.videos[0] != "clip.mp4" {
		t.Errorf("videos = %v, want [clip.mp4]", storage.videos)
	}

	// Non-video files go through the image path when storage is configured.
	if len(storage.images) != 2 {
		t.Errorf("images = %v, want 2 entries", storage.images)
	}

	if len(backend.uploaded) != 0 {
		t.Errorf("backend uploads = %v, want none", backend.uploaded)
	}
}

func TestUploader_UnconfiguredStorageFallsBack(t *testing.T) {
	t.Parallel()

	storage := &mockStorage{configured: false}
	backend := &mockBackend{}
	uploader := NewUploader(storage, backend, testConfig())

	summary, err := uploader.UploadAll(context.Background(), []File{textFile("doc.txt")}, nil)
	if err != nil {
		t.Fatalf("UploadAll() error: %v", err)
	}

	if summary.Succeeded != 1 || len(backend.uploaded) != 1 {
		t.Errorf("expected fallback upload, got summary %+v, backend %v", summary, backend.uploaded)
	}
}

func TestUploader_FallbackRejectsOversizedFile(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.MaxSize = 8

	uploader := NewUploader(nil, &mockBackend{}, cfg)

	files := []File{{Name: "big.bin", MIMEType: "application/octet-stream", Data: make([]byte, 64)}}

	summary, err := uploader.UploadAll(context.Background(), files, nil)
	if err != nil {
		t.Fatalf("UploadAll() error: %v", err)
	}

	if summary.Succeeded != 0 || len(summary.Warnings) != 1 {
		t.Errorf("summary = %+v, want oversized file in warnings", summary)
	}
}

func TestUploader_FallbackDownscalesWideImages(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.MaxImageWidth = 100

	backend := &mockBackend{}
	uploader := NewUploader(nil, backend, cfg)

	wide := encodePNG(t, 400, 40)

	files := []File{{Name: "wide.png", MIMEType: "image/png", Data: wide}}

	summary, err := uploader.UploadAll(context.Background(), files, nil)
	if err != nil {
		t.Fatalf("UploadAll() error: %v", err)
	}

	if summary.Succeeded != 1 {
		t.Fatalf("summary = %+v, want success", summary)
	}

	img, err := png.Decode(bytes.NewReader(backend.bodies["wide.png"]))
	if err != nil {
		t.Fatalf("decode uploaded image: %v", err)
	}

	if img.Bounds().Dx() != 100 {
		t.Errorf("uploaded width = %d, want 100", img.Bounds().Dx())
	}
}

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()

	var buf bytes.Buffer

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	return buf.Bytes()
}
