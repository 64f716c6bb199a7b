package utils

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// RemoveIfExists deletes path. A file that is already gone is not an error.
func RemoveIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func WaitForFileCreation(ctx context.Context, filename string, timeout time.Duration) error {
	if FileExists(filename) {
		return nil
	}

	dir := filepath.Dir(filename)
	base := filepath.Base(filename)

	watcher, watcherErr := fsnotify.NewWatcher()
	if watcherErr != nil {
		return watcherErr
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			slog.Error("WaitForFileCreation: failed to close watcher", "error", err)
		}
	}()

	if addErr := watcher.Add(dir); addErr != nil {
		return addErr
	}

	// Check again after starting the watcher to avoid race condition
	if FileExists(filename) {
		return nil
	}

	slog.Debug("WaitForFileCreation: starting to watch directory", "directory", dir, "filename", base, "timeout", timeout)
	deadline := time.After(timeout)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			if event.Op&(fsnotify.Create|fsnotify.Rename) != 0 && filepath.Base(event.Name) == base {
				slog.Debug("WaitForFileCreation: target file created", "name", event.Name)
				return nil
			}
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			slog.Warn("WaitForFileCreation: watcher error", "error", watchErr)
		case <-deadline:
			return fmt.Errorf("timeout waiting for %s: %w", filename, fs.ErrNotExist)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
