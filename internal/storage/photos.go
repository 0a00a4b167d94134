package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BradenHooton/denuncias/internal/models"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	// URLPrefix is the public path photos are served under
	URLPrefix  = "/uploads/"
	filePrefix = "complaint-"
)

var (
	ErrFileTooLarge     = errors.New("file exceeds the maximum allowed size")
	ErrInvalidExtension = errors.New("file extension is not allowed")
	ErrNotAnImage       = errors.New("file content is not an image")
)

// PhotoStore keeps complaint photos on the local filesystem
type PhotoStore struct {
	dir               string
	maxSize           int64
	allowedExtensions []string
}

func NewPhotoStore(dir string, maxSize int64, allowedExtensions []string) (*PhotoStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return &PhotoStore{
		dir:               dir,
		maxSize:           maxSize,
		allowedExtensions: allowedExtensions,
	}, nil
}

// Dir returns the directory photos are written to
func (s *PhotoStore) Dir() string {
	return s.dir
}

// Save validates and writes a photo, returning its public URL. The original
// file name only contributes its extension.
func (s *PhotoStore) Save(filename string, size int64, r io.Reader) (string, error) {
	if size > s.maxSize {
		return "", ErrFileTooLarge
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !slices.Contains(s.allowedExtensions, ext) {
		return "", ErrInvalidExtension
	}

	// Read one byte past the limit so an understated size is still caught
	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return "", ErrFileTooLarge
	}

	if !strings.HasPrefix(mimetype.Detect(data).String(), "image/") {
		return "", ErrNotAnImage
	}

	name := filePrefix + uuid.New().String() + "." + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write photo: %w", err)
	}

	return URLPrefix + name, nil
}

// Delete removes the photo behind a public URL. A missing file is not an error.
func (s *PhotoStore) Delete(url string) error {
	name, ok := fileName(url)
	if !ok {
		return fmt.Errorf("not a stored photo url: %q", url)
	}

	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete photo: %w", err)
	}

	return nil
}

// StoredPhoto is one photo file found on disk
type StoredPhoto struct {
	URL     string
	ModTime time.Time
}

// List returns every photo file the store has written
func (s *PhotoStore) List() ([]StoredPhoto, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload directory: %w", err)
	}

	photos := make([]StoredPhoto, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), filePrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		photos = append(photos, StoredPhoto{URL: URLPrefix + e.Name(), ModTime: info.ModTime()})
	}

	return photos, nil
}

// fileName extracts a safe base name from a public photo URL
func fileName(url string) (string, bool) {
	name, ok := strings.CutPrefix(url, URLPrefix)
	if !ok || name == "" || name != filepath.Base(name) || !strings.HasPrefix(name, filePrefix) {
		return "", false
	}
	return name, true
}

// ValidationError converts a save failure into a field error on photo, or returns nil
func ValidationError(err error) *models.ValidationError {
	switch {
	case errors.Is(err, ErrFileTooLarge), errors.Is(err, ErrInvalidExtension), errors.Is(err, ErrNotAnImage):
		return models.NewValidationError("photo", err.Error())
	}
	return nil
}
