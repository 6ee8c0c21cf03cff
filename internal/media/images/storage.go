// Package images provides recipe image validation, storage, and BlurHash placeholders.
package images

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const imageSubdir = "recipes"

// Storage manages recipe image filesystem operations.
// Thread-safe for concurrent operations.
type Storage struct {
	basePath string
	mu       sync.RWMutex // Protects file operations
}

// NewStorage creates a Storage rooted at the data directory.
// Images are stored in {basePath}/recipes/.
func NewStorage(basePath string) (*Storage, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}

	storagePath := filepath.Join(basePath, imageSubdir)
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", imageSubdir, err)
	}

	return &Storage{basePath: basePath}, nil
}

// SaveUpload stores uploaded image data under a fresh uuid filename,
// keeping the upload's extension (or deriving one from the detected format
// when the upload has none). Returns the path relative to the data
// directory, e.g. "recipes/3f1c...d2.jpg".
func (s *Storage) SaveUpload(originalName string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("image data cannot be empty")
	}

	format, err := DetectFormat(data)
	if err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		ext = "." + format
	}

	relPath := filepath.Join(imageSubdir, uuid.NewString()+ext)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(s.AbsPath(relPath), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	return relPath, nil
}

// Delete removes a stored image by its relative path.
// A missing file is not an error.
func (s *Storage) Delete(relPath string) error {
	if relPath == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.AbsPath(relPath)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete image file: %w", err)
	}
	return nil
}

// Exists checks whether a stored image is present on disk.
func (s *Storage) Exists(relPath string) bool {
	if relPath == "" {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.AbsPath(relPath))
	return err == nil
}

// AbsPath resolves a relative image path against the data directory.
func (s *Storage) AbsPath(relPath string) string {
	return filepath.Join(s.basePath, relPath)
}

// DetectFormat sniffs the image format from magic bytes.
// Supported: jpg, png, gif, webp.
func DetectFormat(data []byte) (string, error) {
	switch {
	case len(data) >= 3 && bytes.Equal(data[:3], []byte{0xFF, 0xD8, 0xFF}):
		return "jpg", nil
	case len(data) >= 8 && bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}):
		return "png", nil
	case len(data) >= 6 && (bytes.Equal(data[:6], []byte("GIF87a")) || bytes.Equal(data[:6], []byte("GIF89a"))):
		return "gif", nil
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return "webp", nil
	default:
		return "", fmt.Errorf("unsupported image format")
	}
}
