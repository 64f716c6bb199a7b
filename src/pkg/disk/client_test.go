package disk

import (
	"bytes"
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/q-controller/catcaption/src/pkg/fakes"
	"github.com/q-controller/catcaption/src/pkg/logging"
	"github.com/q-controller/catcaption/src/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(storage *fakes.Storage) *Client {
	return NewClient(storage.URL, "PY-140", "abc123", time.Second, logging.Discard())
}

func TestEnsureFolderExists(t *testing.T) {
	storage := fakes.NewStorage()
	defer storage.Close()

	require.NoError(t, newTestClient(storage).EnsureFolder(context.Background()))

	reqs := storage.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodGet, reqs[0].Method)
	assert.Equal(t, []string{"PY-140"}, reqs[0].Query["path"])
	assert.Equal(t, "OAuth abc123", reqs[0].Authorization)
	assert.Equal(t, 0, storage.Count(http.MethodPut, "/resources"))
}

func TestEnsureFolderCreates(t *testing.T) {
	storage := fakes.NewStorage()
	defer storage.Close()
	storage.FolderStatus = http.StatusNotFound

	require.NoError(t, newTestClient(storage).EnsureFolder(context.Background()))
	assert.Equal(t, 1, storage.Count(http.MethodPut, "/resources"))
}

func TestEnsureFolderCreateFails(t *testing.T) {
	storage := fakes.NewStorage()
	defer storage.Close()
	storage.FolderStatus = http.StatusNotFound
	storage.CreateStatus = http.StatusConflict

	err := newTestClient(storage).EnsureFolder(context.Background())
	assert.ErrorIs(t, err, ErrFolderCreate)
	assert.Equal(t, 1, storage.Count(http.MethodPut, "/resources"))
}

func TestEnsureFolderCheckFails(t *testing.T) {
	storage := fakes.NewStorage()
	defer storage.Close()
	storage.FolderStatus = http.StatusUnauthorized

	err := newTestClient(storage).EnsureFolder(context.Background())
	assert.ErrorIs(t, err, ErrFolderCheck)
	assert.Equal(t, 0, storage.Count(http.MethodPut, "/resources"))
}

func TestEnsureFolderUnreachable(t *testing.T) {
	storage := fakes.NewStorage()
	client := newTestClient(storage)
	storage.Close()

	err := client.EnsureFolder(context.Background())
	assert.ErrorIs(t, err, ErrFolderCheck)
	assert.True(t, utils.IsRequestError(err))
}

func stageFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image.jpg")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestUpload(t *testing.T) {
	storage := fakes.NewStorage()
	defer storage.Close()
	path := stageFile(t, "0123456789")

	remote, err := newTestClient(storage).Upload(context.Background(), path, "Hello World")
	require.NoError(t, err)
	assert.Equal(t, "PY-140/Hello World.jpg", remote)

	var link fakes.Request
	var put fakes.Request
	for _, req := range storage.Requests() {
		switch req.Path {
		case "/resources/upload":
			link = req
		case "/upload-target":
			put = req
		}
	}
	assert.Equal(t, []string{"PY-140/Hello World.jpg"}, link.Query["path"])
	assert.Equal(t, []string{"true"}, link.Query["overwrite"])
	assert.Equal(t, "OAuth abc123", link.Authorization)
	assert.Empty(t, put.Authorization)

	mediaType, params, err := mime.ParseMediaType(put.ContentType)
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data", mediaType)

	reader := multipart.NewReader(bytes.NewReader(storage.Uploaded()), params["boundary"])
	part, err := reader.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "file", part.FormName())
	assert.Equal(t, "image.jpg", part.FileName())
	data, err := io.ReadAll(part)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(data))
}

func TestUploadMissingHref(t *testing.T) {
	storage := fakes.NewStorage()
	defer storage.Close()
	storage.LinkBody = `{"method": "PUT"}`

	_, err := newTestClient(storage).Upload(context.Background(), stageFile(t, "x"), "cat")
	assert.ErrorIs(t, err, ErrMissingUploadLink)
	assert.Equal(t, 0, storage.Count(http.MethodPut, "/upload-target"))
}

func TestUploadMalformedLink(t *testing.T) {
	storage := fakes.NewStorage()
	defer storage.Close()
	storage.LinkBody = `not json`

	_, err := newTestClient(storage).Upload(context.Background(), stageFile(t, "x"), "cat")
	assert.ErrorIs(t, err, ErrMissingUploadLink)
}

func TestUploadLinkStatusError(t *testing.T) {
	storage := fakes.NewStorage()
	defer storage.Close()
	storage.LinkStatus = http.StatusUnauthorized

	_, err := newTestClient(storage).Upload(context.Background(), stageFile(t, "x"), "cat")
	assert.True(t, utils.IsRequestError(err))
	assert.NotErrorIs(t, err, ErrMissingUploadLink)
}

func TestUploadTransferFails(t *testing.T) {
	storage := fakes.NewStorage()
	defer storage.Close()
	storage.UploadStatus = http.StatusInsufficientStorage

	_, err := newTestClient(storage).Upload(context.Background(), stageFile(t, "x"), "cat")
	assert.True(t, utils.IsRequestError(err))
}

func TestUploadMissingLocalFile(t *testing.T) {
	storage := fakes.NewStorage()
	defer storage.Close()

	_, err := newTestClient(storage).Upload(context.Background(), filepath.Join(t.TempDir(), "absent.jpg"), "cat")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
