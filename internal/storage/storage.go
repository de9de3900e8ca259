// Package storage persists enrollment images on the shared volume.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ImageStore writes user enrollment images under <volume>/images/users.
// Paths returned by Save are relative to the volume so database rows stay
// valid when the volume is remounted elsewhere.
type ImageStore struct {
	volumePath string
}

// NewImageStore creates a store rooted at the given volume path.
func NewImageStore(volumePath string) *ImageStore {
	return &ImageStore{volumePath: volumePath}
}

// ExtensionForMIME maps an image MIME type to a file extension.
// Unknown types default to .jpg since uploads are re-encoded as JPEG.
func ExtensionForMIME(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	default:
		return ".jpg"
	}
}

// Save writes image data to a fresh UUID-named file and returns its path
// relative to the volume.
func (s *ImageStore) Save(data []byte, mimeType string) (string, error) {
	relDir := filepath.Join("images", "users")
	dir := filepath.Join(s.volumePath, relDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create images directory: %w", err)
	}

	name := uuid.New().String() + ExtensionForMIME(mimeType)
	relPath := filepath.Join(relDir, name)

	if err := os.WriteFile(filepath.Join(s.volumePath, relPath), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	return relPath, nil
}

// Read returns the image bytes for a path previously returned by Save.
func (s *ImageStore) Read(relPath string) ([]byte, error) {
	path, err := s.resolve(relPath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return data, nil
}

// Delete removes a stored image. Missing files are not an error so user
// deletion stays idempotent.
func (s *ImageStore) Delete(relPath string) error {
	if relPath == "" {
		return nil
	}
	path, err := s.resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// resolve joins the relative path with the volume root, refusing paths that
// escape the volume.
func (s *ImageStore) resolve(relPath string) (string, error) {
	cleaned := filepath.Clean(relPath)
	if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("invalid image path: %s", relPath)
	}
	return filepath.Join(s.volumePath, cleaned), nil
}
