package images

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/q-controller/catcaption/src/pkg/utils"
)

// Stage overwrites path with content and returns the size of the file on
// disk.
func Stage(content []byte, path string) (int64, error) {
	if err := os.WriteFile(filepath.Clean(path), content, 0644); err != nil {
		return 0, fmt.Errorf("failed to write image: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat image: %w", err)
	}
	return info.Size(), nil
}

// Cleanup removes the staged image. It is safe to call when the file was
// never written.
func Cleanup(path string) error {
	if err := utils.RemoveIfExists(filepath.Clean(path)); err != nil {
		return fmt.Errorf("failed to remove staged image: %w", err)
	}
	return nil
}
