package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "PY-140", cfg.Storage.Folder)
	assert.Equal(t, 10*time.Second, cfg.ImageService.Timeout)
	assert.Equal(t, "token.txt", cfg.Files.TokenFile)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catcaption.yaml")
	data := `
image_service:
  base_url: http://127.0.0.1:9000
storage:
  folder: cats
  timeout: 5s
history:
  root: /var/lib/catcaption
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000", cfg.ImageService.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.ImageService.Timeout)
	assert.Equal(t, "cats", cfg.Storage.Folder)
	assert.Equal(t, 5*time.Second, cfg.Storage.Timeout)
	assert.Equal(t, "https://cloud-api.yandex.net/v1/disk", cfg.Storage.BaseURL)
	assert.Equal(t, "/var/lib/catcaption", cfg.History.Root)
	assert.Equal(t, "image.jpg", cfg.Files.Image)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catcaption.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  base_url: not-a-url\n  folder: \"\"\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.base_url")
	assert.Contains(t, err.Error(), "storage.folder")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
