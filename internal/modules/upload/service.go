// Package upload is the local file store behind order photos: write a
// multipart file under uploads/orders/photos with a unique name, delete
// by stored path when an order save fails or a photo is removed.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	DefaultBaseDir = "./uploads"
	photosSubdir   = "orders/photos"
)

var ErrEmptyFile = errors.New("file is empty")

// StoredFile is what the store hands back after a successful write.
// Filename is the unique generated name the photo is served under.
type StoredFile struct {
	Filename     string
	OriginalName string
	MimeType     string
	Size         int64
	Path         string
}

type Service struct {
	baseDir string
}

func NewService(baseDir string) *Service {
	if baseDir == "" {
		baseDir = DefaultBaseDir
	}
	return &Service{baseDir: baseDir}
}

// PhotosDir is where order photos live on disk; main mounts it under
// /uploads/orders/photos.
func (s *Service) PhotosDir() string {
	return filepath.Join(s.baseDir, photosSubdir)
}

// SavePhoto writes one uploaded file to disk under a uuid-based name.
// MIME comes from the upload header; the order module validates it
// before the file may join an order.
func (s *Service) SavePhoto(fh *multipart.FileHeader) (*StoredFile, error) {
	if fh.Size == 0 {
		return nil, ErrEmptyFile
	}

	dir := s.PhotosDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create photos directory: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	filename := uuid.NewString() + ext
	dst := filepath.Join(dir, filename)

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open uploaded file: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return nil, fmt.Errorf("create photo file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		_ = os.Remove(dst)
		return nil, fmt.Errorf("write photo file: %w", err)
	}

	return &StoredFile{
		Filename:     filename,
		OriginalName: fh.Filename,
		MimeType:     fh.Header.Get("Content-Type"),
		Size:         fh.Size,
		Path:         dst,
	}, nil
}

// Remove deletes a stored file by path. Missing files are fine: removal
// is the cleanup half of a failed save and must be idempotent.
func (s *Service) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
