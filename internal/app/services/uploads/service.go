// Package uploads stores user-submitted images on disk and their metadata in
// the store.
package uploads

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	apperr "github.com/Gather-Network/conference_layer/internal/errors"

	"github.com/Gather-Network/conference_layer/internal/app/domain/upload"
	"github.com/Gather-Network/conference_layer/internal/app/storage"
	"github.com/Gather-Network/conference_layer/pkg/logger"
)

// MaxSize caps a single upload at 5 MiB.
const MaxSize = 5 << 20

var allowedTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
}

// Service stores uploaded images.
type Service struct {
	uploads storage.UploadStore
	dir     string
	log     *logger.Logger
}

// New creates the uploads service writing files under dir.
func New(uploads storage.UploadStore, dir string, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("uploads")
	}
	return &Service{uploads: uploads, dir: dir, log: log}
}

// Store validates and persists one image. Only PNG and JPEG up to MaxSize
// are accepted.
func (s *Service) Store(ctx context.Context, ownerID, filename, contentType string, r io.Reader) (upload.Upload, error) {
	ext, ok := allowedTypes[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return upload.Upload{}, apperr.Validation("only PNG and JPEG images are accepted")
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return upload.Upload{}, fmt.Errorf("create upload dir: %w", err)
	}

	id := uuid.NewString()
	path := filepath.Join(s.dir, id+ext)
	file, err := os.Create(path)
	if err != nil {
		return upload.Upload{}, fmt.Errorf("create upload file: %w", err)
	}
	defer file.Close()

	// Copy one byte past the cap to detect oversized payloads.
	size, err := io.Copy(file, io.LimitReader(r, MaxSize+1))
	if err != nil {
		os.Remove(path)
		return upload.Upload{}, fmt.Errorf("write upload: %w", err)
	}
	if size > MaxSize {
		os.Remove(path)
		return upload.Upload{}, apperr.Validation("image exceeds the 5 MiB limit")
	}

	created, err := s.uploads.CreateUpload(ctx, upload.Upload{
		ID:          id,
		OwnerID:     ownerID,
		Filename:    filepath.Base(strings.TrimSpace(filename)),
		ContentType: contentType,
		Size:        size,
		Path:        path,
	})
	if err != nil {
		os.Remove(path)
		return upload.Upload{}, err
	}
	s.log.WithField("upload_id", created.ID).WithField("size", size).Info("image stored")
	return created, nil
}

// Open returns the metadata and a reader for a stored image. The caller
// closes the reader.
func (s *Service) Open(ctx context.Context, id string) (upload.Upload, io.ReadCloser, error) {
	meta, err := s.uploads.GetUpload(ctx, id)
	if err != nil {
		return upload.Upload{}, nil, apperr.NotFound("upload not found")
	}
	file, err := os.Open(meta.Path)
	if err != nil {
		return upload.Upload{}, nil, fmt.Errorf("open upload: %w", err)
	}
	return meta, file, nil
}

// List returns a user's uploads.
func (s *Service) List(ctx context.Context, ownerID string) ([]upload.Upload, error) {
	return s.uploads.ListUploads(ctx, ownerID)
}
