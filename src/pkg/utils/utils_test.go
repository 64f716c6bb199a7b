package utils

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsHTTP(t *testing.T) {
	assert.True(t, IsHTTP("https://cataas.com"))
	assert.True(t, IsHTTP("http://127.0.0.1:8080/v1"))
	assert.False(t, IsHTTP("ftp://example.com"))
	assert.False(t, IsHTTP("cataas.com"))
	assert.False(t, IsHTTP("https://"))
}

func TestJoinURL(t *testing.T) {
	assert.Equal(t, "https://a.example/v1/disk/resources", JoinURL("https://a.example/v1/disk/", "/resources"))
	assert.Equal(t, "https://a.example/resources", JoinURL("https://a.example", "resources"))
}

func TestRemoveIfExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.jpg")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	require.NoError(t, RemoveIfExists(path))
	assert.False(t, FileExists(path))

	// Second removal is a no-op.
	require.NoError(t, RemoveIfExists(path))
}

type sample struct {
	Name    string        `yaml:"name"`
	Timeout time.Duration `yaml:"timeout"`
	Keep    string        `yaml:"keep"`
}

func TestUnmarshalKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: cat\ntimeout: 3s\n"), 0644))

	value := sample{Keep: "default"}
	require.NoError(t, Unmarshal(&value, path))

	assert.Equal(t, "cat", value.Name)
	assert.Equal(t, 3*time.Second, value.Timeout)
	assert.Equal(t, "default", value.Keep)
}

func TestUnmarshalMissingFile(t *testing.T) {
	var value sample
	err := Unmarshal(&value, filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestWaitForFileCreation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token.txt")

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = os.WriteFile(path, []byte("abc"), 0600)
	}()

	require.NoError(t, WaitForFileCreation(context.Background(), path, 5*time.Second))
	assert.True(t, FileExists(path))
}

func TestWaitForFileCreationTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.txt")
	err := WaitForFileCreation(context.Background(), path, 50*time.Millisecond)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestExpectSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ok" {
			w.WriteHeader(http.StatusCreated)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ok")
	require.NoError(t, err)
	resp.Body.Close()
	assert.NoError(t, ExpectSuccess(resp))

	resp, err = http.Get(srv.URL + "/fail")
	require.NoError(t, err)
	resp.Body.Close()
	statusErr := ExpectSuccess(resp)

	var reqErr *RequestError
	require.True(t, errors.As(statusErr, &reqErr))
	assert.Equal(t, http.StatusInternalServerError, reqErr.StatusCode)
	assert.Equal(t, http.MethodGet, reqErr.Method)
	assert.True(t, IsRequestError(statusErr))
}

func TestJoinErr(t *testing.T) {
	a := errors.New("a")
	b := errors.New("b")
	assert.Nil(t, JoinErr(nil, nil))
	assert.Equal(t, a, JoinErr(a, nil))
	assert.Equal(t, b, JoinErr(nil, b))
	joined := JoinErr(a, b)
	assert.ErrorIs(t, joined, a)
	assert.ErrorIs(t, joined, b)
}
