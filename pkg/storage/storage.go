package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var root string

// Initialize sets the media root directory, creating it if needed
func Initialize(mediaRoot string) error {
	if mediaRoot == "" {
		return fmt.Errorf("media root must not be empty")
	}
	if err := os.MkdirAll(filepath.Join(mediaRoot, "recipes"), 0o755); err != nil {
		return fmt.Errorf("failed to create media root: %w", err)
	}
	root = mediaRoot
	return nil
}

// Root returns the configured media root directory
func Root() string {
	return root
}

// SaveRecipeImage stores image bytes under a freshly generated name and
// returns the path relative to the media root
func SaveRecipeImage(data []byte, ext string) (string, error) {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	rel := filepath.Join("recipes", uuid.NewString()+ext)
	if err := os.WriteFile(filepath.Join(root, rel), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}
	return rel, nil
}

// Remove deletes a stored file by its media-relative path. Missing files
// are not an error.
func Remove(rel string) error {
	if rel == "" {
		return nil
	}
	err := os.Remove(filepath.Join(root, rel))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
